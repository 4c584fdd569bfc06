package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"sbomer-dashboard/internal/domain/sbomer"
	"sbomer-dashboard/internal/filter"
	"sbomer-dashboard/internal/infrastructure/sbomerapi"
)

type fetchCall struct {
	p     sbomerapi.Pagination
	query string
}

type recordingFetch[T any] struct {
	mu    sync.Mutex
	calls []fetchCall
	page  sbomerapi.Page[T]
	err   error
}

func (r *recordingFetch[T]) fetch(_ context.Context, p sbomerapi.Pagination, query string) (sbomerapi.Page[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fetchCall{p: p, query: query})
	return r.page, r.err
}

func (r *recordingFetch[T]) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestListLoader_LoadFetchesOnce(t *testing.T) {
	rf := &recordingFetch[string]{page: sbomerapi.Page[string]{Data: []string{"a", "b"}, Total: 42}}
	l := NewListLoader[string](rf.fetch, 2, 20, "q")

	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rf.callCount() != 1 {
		t.Fatalf("expected 1 fetch, got %d", rf.callCount())
	}
	if rf.calls[0].p.PageIndex != 2 || rf.calls[0].p.PageSize != 20 || rf.calls[0].query != "q" {
		t.Fatalf("unexpected request %+v", rf.calls[0])
	}
	snap := l.Snapshot()
	if snap.Total != 42 || len(snap.Value) != 2 || snap.Loading || !snap.Loaded || snap.Err != nil {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestListLoader_RetryIsIdempotent(t *testing.T) {
	rf := &recordingFetch[string]{page: sbomerapi.Page[string]{Data: []string{"a"}, Total: 1}}
	l := NewListLoader[string](rf.fetch, 0, 10, "")
	ctx := context.Background()

	if err := l.Load(ctx); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	first := l.Snapshot()
	if err := l.Retry(ctx); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := l.Retry(ctx); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rf.callCount() != 3 {
		t.Fatalf("expected 3 fetches, got %d", rf.callCount())
	}
	if rf.calls[1] != rf.calls[2] || rf.calls[0] != rf.calls[1] {
		t.Fatalf("retry changed the request: %+v", rf.calls)
	}
	second := l.Snapshot()
	if second.Total != first.Total || len(second.Value) != len(first.Value) || second.Value[0] != first.Value[0] {
		t.Fatalf("retry did not converge: %+v vs %+v", first, second)
	}
}

func TestListLoader_RetryUsesLastRequestNotPendingInputs(t *testing.T) {
	rf := &recordingFetch[string]{}
	l := NewListLoader[string](rf.fetch, 0, 10, "")
	_ = l.Load(context.Background())

	l.SetPage(5)
	_ = l.Retry(context.Background())

	if rf.calls[1].p.PageIndex != 0 {
		t.Fatalf("retry must re-issue the last request, got %+v", rf.calls[1])
	}
}

func TestListLoader_ErrorExposedThenCleared(t *testing.T) {
	rf := &recordingFetch[string]{err: errors.New("boom")}
	l := NewListLoader[string](rf.fetch, 0, 10, "")

	if err := l.Load(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if snap := l.Snapshot(); snap.Err == nil || snap.Loading {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	rf.mu.Lock()
	rf.err = nil
	rf.page = sbomerapi.Page[string]{Data: []string{"x"}, Total: 1}
	rf.mu.Unlock()

	if err := l.Retry(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if snap := l.Snapshot(); snap.Err != nil || snap.Total != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestListLoader_StaleResponseDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	fetch := func(ctx context.Context, p sbomerapi.Pagination, _ string) (sbomerapi.Page[int], error) {
		if p.PageIndex == 0 {
			close(started)
			<-release
			return sbomerapi.Page[int]{Data: []int{0}, Total: 100}, nil
		}
		return sbomerapi.Page[int]{Data: []int{p.PageIndex}, Total: 7}, nil
	}
	l := NewListLoader[int](fetch, 0, 10, "")

	errCh := make(chan error, 1)
	go func() { errCh <- l.Load(context.Background()) }()
	<-started

	if err := l.Apply(context.Background(), 3, 10, ""); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	close(release)

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrSuperseded) {
			t.Fatalf("expected ErrSuperseded, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first fetch never returned")
	}

	snap := l.Snapshot()
	if snap.Total != 7 || len(snap.Value) != 1 || snap.Value[0] != 3 {
		t.Fatalf("stale response overwrote state: %+v", snap)
	}
}

func TestListLoader_NewFetchCancelsPrevious(t *testing.T) {
	cancelled := make(chan struct{})
	started := make(chan struct{})
	fetch := func(ctx context.Context, p sbomerapi.Pagination, _ string) (sbomerapi.Page[int], error) {
		if p.PageIndex == 0 {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return sbomerapi.Page[int]{}, ctx.Err()
		}
		return sbomerapi.Page[int]{}, nil
	}
	l := NewListLoader[int](fetch, 0, 10, "")
	go func() { _ = l.Load(context.Background()) }()
	<-started

	_ = l.Apply(context.Background(), 1, 10, "")
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight fetch was not cancelled")
	}
	if snap := l.Snapshot(); snap.Err != nil {
		t.Fatalf("cancelled fetch leaked its error: %v", snap.Err)
	}
}

func TestListLoader_ApplyFetchesOnlyOnChange(t *testing.T) {
	rf := &recordingFetch[string]{}
	l := NewListLoader[string](rf.fetch, 0, 10, "")
	ctx := context.Background()

	_ = l.Apply(ctx, 0, 10, "")
	_ = l.Apply(ctx, 0, 10, "")
	if rf.callCount() != 1 {
		t.Fatalf("expected 1 fetch, got %d", rf.callCount())
	}
	_ = l.Apply(ctx, 1, 10, "")
	_ = l.Apply(ctx, 1, 10, "x")
	if rf.callCount() != 3 {
		t.Fatalf("expected 3 fetches, got %d", rf.callCount())
	}
}

func TestListLoader_SetQueryResetsPage(t *testing.T) {
	l := NewListLoader[string]((&recordingFetch[string]{}).fetch, 4, 10, "")
	l.SetQuery("status=eq=FAILED")
	if snap := l.Snapshot(); snap.PageIndex != 0 || snap.Query != "status=eq=FAILED" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	l.SetPage(3)
	l.SetPageSize(50)
	if snap := l.Snapshot(); snap.PageIndex != 0 || snap.PageSize != 50 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestDetailLoader_StaleResponseDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	n := 0
	d := NewDetailLoader[string](func(ctx context.Context) (string, error) {
		mu.Lock()
		n++
		call := n
		mu.Unlock()
		if call == 1 {
			close(started)
			<-release
			return "old", nil
		}
		return "new", nil
	})

	errCh := make(chan error, 1)
	go func() { errCh <- d.Load(context.Background()) }()
	<-started
	if err := d.Retry(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	close(release)
	if err := <-errCh; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	if got := d.Snapshot().Value; got != "new" {
		t.Fatalf("value = %q", got)
	}
}

// fakeClient implements sbomerapi.Client with canned responses.
type fakeClient struct {
	mu sync.Mutex

	generation    sbomer.Generation
	generationErr error
	manifests     sbomerapi.Page[sbomer.Manifest]
	manifestsErr  error
	logPaths      []string
	logErr        error
	event         sbomer.Event
	eventGens     sbomerapi.Page[sbomer.Generation]
	eventGensErr  error

	lastManifestFilter sbomerapi.ManifestFilter
}

func (f *fakeClient) Version() sbomerapi.APIVersion { return sbomerapi.V2 }

func (f *fakeClient) Stats(context.Context) (sbomer.Stats, error) {
	return sbomer.Stats{Version: "test"}, nil
}

func (f *fakeClient) GetGenerations(context.Context, sbomerapi.Pagination, string) (sbomerapi.Page[sbomer.Generation], error) {
	return sbomerapi.Page[sbomer.Generation]{Data: []sbomer.Generation{f.generation}, Total: 1}, nil
}

func (f *fakeClient) GetGeneration(context.Context, string) (sbomer.Generation, error) {
	return f.generation, f.generationErr
}

func (f *fakeClient) GetManifests(_ context.Context, _ sbomerapi.Pagination, filter sbomerapi.ManifestFilter) (sbomerapi.Page[sbomer.Manifest], error) {
	f.mu.Lock()
	f.lastManifestFilter = filter
	f.mu.Unlock()
	return f.manifests, f.manifestsErr
}

func (f *fakeClient) GetManifestsForGeneration(context.Context, string) (sbomerapi.Page[sbomer.Manifest], error) {
	return f.manifests, f.manifestsErr
}

func (f *fakeClient) GetManifest(context.Context, string) (sbomer.Manifest, error) {
	return sbomer.Manifest{}, nil
}

func (f *fakeClient) GetEvents(context.Context, sbomerapi.Pagination, string) (sbomerapi.Page[sbomer.Event], error) {
	return sbomerapi.Page[sbomer.Event]{Data: []sbomer.Event{f.event}, Total: 1}, nil
}

func (f *fakeClient) GetEvent(context.Context, string) (sbomer.Event, error) {
	return f.event, nil
}

func (f *fakeClient) GetEventGenerations(context.Context, string) (sbomerapi.Page[sbomer.Generation], error) {
	return f.eventGens, f.eventGensErr
}

func (f *fakeClient) GetLogPaths(context.Context, string) ([]string, error) {
	return f.logPaths, f.logErr
}

func (f *fakeClient) OpenLog(context.Context, string, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("log")), nil
}

func TestNewManifestsLoader_TypedFilter(t *testing.T) {
	fc := &fakeClient{manifests: sbomerapi.Page[sbomer.Manifest]{Data: []sbomer.Manifest{{ID: "M1"}}, Total: 1}}
	st := filter.State{QueryType: sbomer.ManifestQueryIdentifier, QueryValue: "quay.io/org/app:1", PageSize: 10}

	l := NewManifestsLoader(fc, st)
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got := fc.lastManifestFilter.RSQL(); got != "identifier=eq='quay.io/org/app:1'" {
		t.Fatalf("query = %q", got)
	}
	if snap := l.Snapshot(); snap.Total != 1 || snap.Value[0].ID != "M1" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestGenerationPage_SectionFailureDoesNotFailPage(t *testing.T) {
	fc := &fakeClient{
		generation:   sbomer.Generation{ID: "G1", Status: sbomer.GenerationStatusFinished},
		manifestsErr: &sbomerapi.HTTPError{StatusCode: 500, Body: "db down"},
		logPaths:     []string{"a.txt"},
	}
	page := NewGenerationPage(fc, "G1", nil)
	if err := page.Load(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if page.Generation.Snapshot().Value.ID != "G1" {
		t.Fatalf("generation not loaded")
	}
	if page.Manifests.Snapshot().Err == nil {
		t.Fatalf("manifests section must carry its error")
	}
	if paths := page.LogPaths.Snapshot().Value; len(paths) != 1 {
		t.Fatalf("log paths not loaded: %v", paths)
	}
}

func TestGenerationPage_MissingGenerationFailsPage(t *testing.T) {
	fc := &fakeClient{generationErr: &sbomerapi.HTTPError{StatusCode: 404, Body: "not found"}}
	page := NewGenerationPage(fc, "nope", nil)
	if err := page.Load(context.Background()); !sbomerapi.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEventPage_Load(t *testing.T) {
	fc := &fakeClient{
		event:     sbomer.Event{ID: "E1", Status: sbomer.EventStatusProcessed},
		eventGens: sbomerapi.Page[sbomer.Generation]{Data: []sbomer.Generation{{ID: "G1"}, {ID: "G2"}}, Total: 2},
	}
	page := NewEventPage(fc, "E1", nil)
	if err := page.Load(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if page.Event.Snapshot().Value.ID != "E1" || page.Generations.Snapshot().Value.Total != 2 {
		t.Fatalf("unexpected page state")
	}
}
