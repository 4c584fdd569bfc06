package sbomerapi

import (
	"net/url"
	"strconv"

	"sbomer-dashboard/internal/domain/sbomer"
)

const (
	DefaultPageSize       = 10
	EventGenerationsBatch = 200
)

// Pagination is zero based.
type Pagination struct {
	PageIndex int
	PageSize  int
}

func (p Pagination) normalized() Pagination {
	if p.PageIndex < 0 {
		p.PageIndex = 0
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	return p
}

func (p Pagination) values() url.Values {
	p = p.normalized()
	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(p.PageSize))
	q.Set("pageIndex", strconv.Itoa(p.PageIndex))
	return q
}

// Page is one listing response. Total is the count the server declared,
// which need not match len(Data).
type Page[T any] struct {
	Data       []T
	Total      int
	PageIndex  int
	TotalPages int
}

type envelope[T any] struct {
	Content    []T `json:"content"`
	TotalHits  int `json:"totalHits"`
	PageIndex  int `json:"pageIndex"`
	TotalPages int `json:"totalPages"`
}

func (e envelope[T]) page() Page[T] {
	data := e.Content
	if data == nil {
		data = []T{}
	}
	return Page[T]{Data: data, Total: e.TotalHits, PageIndex: e.PageIndex, TotalPages: e.TotalPages}
}

// ManifestFilter narrows a manifest listing. Query is passed through
// verbatim; Type and Value build an equality clause on the matching field.
type ManifestFilter struct {
	Query string
	Type  sbomer.ManifestQueryType
	Value string
}

func (f ManifestFilter) RSQL() string {
	if f.Query != "" {
		return f.Query
	}
	field := f.Type.Field()
	if field == "" || f.Value == "" {
		return ""
	}
	return rsqlEquals(field, f.Value)
}
