package usecase

import (
	"context"
	"errors"
	"sync"

	"sbomer-dashboard/internal/infrastructure/sbomerapi"
)

// ErrSuperseded is returned to the caller of a fetch whose result was
// dropped because a newer fetch started on the same loader.
var ErrSuperseded = errors.New("fetch superseded by a newer request")

type ListFetchFunc[T any] func(ctx context.Context, p sbomerapi.Pagination, query string) (sbomerapi.Page[T], error)

type ListSnapshot[T any] struct {
	PageIndex int
	PageSize  int
	Query     string
	Total     int
	Value     []T
	Loading   bool
	Loaded    bool
	Err       error
}

type listRequest struct {
	pageIndex int
	pageSize  int
	query     string
}

// ListLoader is the state behind one listing screen: its inputs (page, page
// size, query) and the outcome of the latest fetch. Each fetch takes a new
// token and cancels the one in flight; a result carrying an older token is
// discarded so a slow response can never overwrite a fresher one.
type ListLoader[T any] struct {
	fetch ListFetchFunc[T]

	mu      sync.Mutex
	input   listRequest
	last    *listRequest
	total   int
	value   []T
	loading bool
	loaded  bool
	err     error
	token   uint64
	cancel  context.CancelFunc
}

func NewListLoader[T any](fetch ListFetchFunc[T], pageIndex, pageSize int, query string) *ListLoader[T] {
	if pageIndex < 0 {
		pageIndex = 0
	}
	if pageSize <= 0 {
		pageSize = sbomerapi.DefaultPageSize
	}
	return &ListLoader[T]{
		fetch: fetch,
		input: listRequest{pageIndex: pageIndex, pageSize: pageSize, query: query},
	}
}

// Load fetches the current inputs once.
func (l *ListLoader[T]) Load(ctx context.Context) error {
	l.mu.Lock()
	req := l.input
	l.mu.Unlock()
	return l.run(ctx, req)
}

// Retry re-issues the last request unchanged, or the current inputs when
// nothing was requested yet.
func (l *ListLoader[T]) Retry(ctx context.Context) error {
	l.mu.Lock()
	req := l.input
	if l.last != nil {
		req = *l.last
	}
	l.mu.Unlock()
	return l.run(ctx, req)
}

// Apply replaces the inputs and fetches when they changed or nothing was
// loaded yet.
func (l *ListLoader[T]) Apply(ctx context.Context, pageIndex, pageSize int, query string) error {
	l.mu.Lock()
	if pageIndex < 0 {
		pageIndex = 0
	}
	if pageSize <= 0 {
		pageSize = l.input.pageSize
	}
	next := listRequest{pageIndex: pageIndex, pageSize: pageSize, query: query}
	unchanged := l.last != nil && *l.last == next
	l.input = next
	l.mu.Unlock()

	if unchanged {
		return nil
	}
	return l.run(ctx, next)
}

func (l *ListLoader[T]) SetPage(pageIndex int) {
	if pageIndex < 0 {
		pageIndex = 0
	}
	l.mu.Lock()
	l.input.pageIndex = pageIndex
	l.mu.Unlock()
}

// SetPageSize changes the page size and returns to the first page.
func (l *ListLoader[T]) SetPageSize(pageSize int) {
	if pageSize <= 0 {
		return
	}
	l.mu.Lock()
	l.input.pageSize = pageSize
	l.input.pageIndex = 0
	l.mu.Unlock()
}

// SetQuery changes the query and returns to the first page.
func (l *ListLoader[T]) SetQuery(query string) {
	l.mu.Lock()
	l.input.query = query
	l.input.pageIndex = 0
	l.mu.Unlock()
}

func (l *ListLoader[T]) Snapshot() ListSnapshot[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	value := make([]T, len(l.value))
	copy(value, l.value)
	return ListSnapshot[T]{
		PageIndex: l.input.pageIndex,
		PageSize:  l.input.pageSize,
		Query:     l.input.query,
		Total:     l.total,
		Value:     value,
		Loading:   l.loading,
		Loaded:    l.loaded,
		Err:       l.err,
	}
}

func (l *ListLoader[T]) run(ctx context.Context, req listRequest) error {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.token++
	tok := l.token
	fctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.loading = true
	last := req
	l.last = &last
	l.mu.Unlock()

	page, err := l.fetch(fctx, sbomerapi.Pagination{PageIndex: req.pageIndex, PageSize: req.pageSize}, req.query)

	l.mu.Lock()
	defer l.mu.Unlock()
	cancel()
	if tok != l.token {
		return ErrSuperseded
	}
	l.cancel = nil
	l.loading = false
	if err != nil {
		l.err = err
		return err
	}
	l.err = nil
	l.loaded = true
	l.total = page.Total
	l.value = page.Data
	return nil
}

type DetailFetchFunc[T any] func(ctx context.Context) (T, error)

type DetailSnapshot[T any] struct {
	Value   T
	Loading bool
	Loaded  bool
	Err     error
}

// DetailLoader is the single-object counterpart of ListLoader with the same
// supersede rule.
type DetailLoader[T any] struct {
	fetch DetailFetchFunc[T]

	mu      sync.Mutex
	value   T
	loading bool
	loaded  bool
	err     error
	token   uint64
	cancel  context.CancelFunc
}

func NewDetailLoader[T any](fetch DetailFetchFunc[T]) *DetailLoader[T] {
	return &DetailLoader[T]{fetch: fetch}
}

func (d *DetailLoader[T]) Load(ctx context.Context) error {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	d.token++
	tok := d.token
	fctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.loading = true
	d.mu.Unlock()

	v, err := d.fetch(fctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	cancel()
	if tok != d.token {
		return ErrSuperseded
	}
	d.cancel = nil
	d.loading = false
	if err != nil {
		d.err = err
		return err
	}
	d.err = nil
	d.loaded = true
	d.value = v
	return nil
}

// Retry re-issues the fetch; a detail loader has no inputs to change.
func (d *DetailLoader[T]) Retry(ctx context.Context) error {
	return d.Load(ctx)
}

func (d *DetailLoader[T]) Snapshot() DetailSnapshot[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DetailSnapshot[T]{Value: d.value, Loading: d.loading, Loaded: d.loaded, Err: d.err}
}
