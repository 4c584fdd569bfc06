package sbomerapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNoBaseURL         = errors.New("sbomer base url not configured")
	ErrHostNotAllowed    = errors.New("request host is not an allowed sbomer deployment")
	ErrPageLimitExceeded = errors.New("sbomer page limit exceeded")
	ErrMalformedResponse = errors.New("sbomer api returned malformed json")
)

// HTTPError is returned for every non-2xx backend response.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("sbomer api request failed: method=%s url=%s status=%d body=%s", e.Method, e.URL, e.StatusCode, e.Body)
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	httpErr, ok := AsHTTPError(err)
	return ok && httpErr.StatusCode == http.StatusNotFound
}

// IsQueryValidationError reports whether the backend rejected the listing
// query itself rather than failing to serve it.
func IsQueryValidationError(err error) bool {
	httpErr, ok := AsHTTPError(err)
	if !ok {
		return false
	}
	if httpErr.StatusCode != http.StatusBadRequest && httpErr.StatusCode != http.StatusUnprocessableEntity {
		return false
	}
	body := strings.ToLower(httpErr.Body)
	return strings.Contains(body, "query") || strings.Contains(body, "rsql")
}

func isRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrMalformedResponse) {
		return false
	}
	httpErr, ok := AsHTTPError(err)
	if !ok {
		return true
	}
	switch httpErr.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
