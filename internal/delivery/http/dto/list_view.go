package dto

import "sbomer-dashboard/internal/filter"

type ListLinks struct {
	Self string `json:"self"`
	Next string `json:"next,omitempty"`
	Prev string `json:"prev,omitempty"`
}

// ListView is the payload of every listing screen. Page is 1-based, as in
// the URL.
type ListView[T any] struct {
	Items      []T       `json:"items"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	PageCount  int       `json:"page_count"`
	PageSizes  []int     `json:"page_sizes,omitempty"`
	Query      string    `json:"query,omitempty"`
	QueryType  string    `json:"query_type,omitempty"`
	QueryValue string    `json:"query_value,omitempty"`
	Links      ListLinks `json:"links"`
}

func NewListView[T any](items []T, total int, st filter.State, schema filter.Schema, path string) ListView[T] {
	if items == nil {
		items = []T{}
	}
	pageCount := filter.PageCount(total, st.PageSize)

	view := ListView[T]{
		Items:      items,
		Total:      total,
		Page:       st.PageIndex + 1,
		PageSize:   st.PageSize,
		PageCount:  pageCount,
		PageSizes:  schema.PageSizes,
		Query:      st.Query,
		QueryType:  string(st.QueryType),
		QueryValue: st.QueryValue,
		Links:      ListLinks{Self: link(path, schema, st)},
	}

	if st.PageIndex+1 < pageCount {
		next := st
		next.PageIndex++
		view.Links.Next = link(path, schema, next)
	}
	if st.PageIndex > 0 {
		prev := st
		prev.PageIndex--
		view.Links.Prev = link(path, schema, prev)
	}
	return view
}

func link(path string, schema filter.Schema, st filter.State) string {
	values := schema.Encode(st)
	if st.PageSize == schema.DefaultPageSize {
		values.Del(schema.PageSizeKey)
	}
	if len(values) == 0 {
		return path
	}
	return path + "?" + values.Encode()
}

// SectionError replaces a part of a detail screen that failed to load. The
// rest of the screen is still rendered.
type SectionError struct {
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

type Section[T any] struct {
	Data  *T            `json:"data,omitempty"`
	Error *SectionError `json:"error,omitempty"`
}
