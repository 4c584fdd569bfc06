// Package filter owns the URL query contract of the dashboard: which keys
// carry navigation state, their defaults and when they are omitted. The URL
// is the only place filter state lives; loaders are rebuilt from it on every
// request.
package filter

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"sbomer-dashboard/internal/domain/sbomer"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidFilter = errors.New("invalid filter")

// Schema describes the query keys and their defaults. Pages are 1-based in
// the URL and 0-based everywhere else.
type Schema struct {
	PageKey       string
	PageSizeKey   string
	QueryKey      string
	QueryTypeKey  string
	QueryValueKey string

	DefaultPageSize int
	MaxPageSize     int
	// PageSizes are the choices offered by renderers. Parse accepts any size
	// up to MaxPageSize and the write paths clamp to it.
	PageSizes []int
}

var Default = Schema{
	PageKey:         "page",
	PageSizeKey:     "pageSize",
	QueryKey:        "query",
	QueryTypeKey:    "queryType",
	QueryValueKey:   "queryValue",
	DefaultPageSize: 10,
	MaxPageSize:     200,
	PageSizes:       []int{10, 20, 50, 100},
}

type State struct {
	Query      string                   `validate:"max=4096"`
	QueryType  sbomer.ManifestQueryType `validate:"omitempty,oneof=purl identifier id generation"`
	QueryValue string                   `validate:"max=4096"`
	PageIndex  int                      `validate:"gte=0"`
	PageSize   int                      `validate:"gte=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (s Schema) Parse(values url.Values) (State, error) {
	st := State{
		Query:      strings.TrimSpace(values.Get(s.QueryKey)),
		QueryType:  sbomer.ManifestQueryType(strings.TrimSpace(values.Get(s.QueryTypeKey))),
		QueryValue: strings.TrimSpace(values.Get(s.QueryValueKey)),
		PageSize:   s.DefaultPageSize,
	}

	if raw := strings.TrimSpace(values.Get(s.PageKey)); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return State{}, fmt.Errorf("%w: %s=%q", ErrInvalidFilter, s.PageKey, raw)
		}
		st.PageIndex = page - 1
	}
	if raw := strings.TrimSpace(values.Get(s.PageSizeKey)); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || (s.MaxPageSize > 0 && size > s.MaxPageSize) {
			return State{}, fmt.Errorf("%w: %s=%q", ErrInvalidFilter, s.PageSizeKey, raw)
		}
		st.PageSize = size
	}

	if err := validate.Struct(st); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return st, nil
}

// Encode writes st as a fresh query; falsy values are left out.
func (s Schema) Encode(st State) url.Values {
	values := url.Values{}
	s.SetManifestFilters(values, st.QueryType, st.QueryValue, st.PageIndex, st.PageSize)
	Update(values, map[string]string{s.QueryKey: st.Query})
	return values
}

// SetFilters is the write path for listing screens.
func (s Schema) SetFilters(values url.Values, query string, pageIndex, pageSize int) {
	Update(values, map[string]string{
		s.QueryKey:    query,
		s.PageKey:     pageParam(pageIndex),
		s.PageSizeKey: intParam(s.clampPageSize(pageSize)),
	})
}

// SetManifestFilters is the write path for the manifest screen, which
// filters by a typed field instead of a free query.
func (s Schema) SetManifestFilters(values url.Values, queryType sbomer.ManifestQueryType, queryValue string, pageIndex, pageSize int) {
	Update(values, map[string]string{
		s.QueryTypeKey:  string(queryType),
		s.QueryValueKey: queryValue,
		s.PageKey:       pageParam(pageIndex),
		s.PageSizeKey:   intParam(s.clampPageSize(pageSize)),
	})
}

// Update applies a structured change: empty values delete their key, the
// rest are set.
func Update(values url.Values, updates map[string]string) {
	for k, v := range updates {
		if v == "" {
			values.Del(k)
			continue
		}
		values.Set(k, v)
	}
}

func pageParam(pageIndex int) string {
	if pageIndex <= 0 {
		return ""
	}
	return strconv.Itoa(pageIndex + 1)
}

func (s Schema) clampPageSize(n int) int {
	if s.MaxPageSize > 0 && n > s.MaxPageSize {
		return s.MaxPageSize
	}
	return n
}

func intParam(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// PageCount is the number of pages needed for total rows; at least 1.
func PageCount(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}
