package sbomerapi

import (
	"os"
	"strings"
)

// ResolveBaseURL picks the backend base URL: the explicit value, then
// SBOMER_HOST, then REACT_APP_SBOMER_URL, then the scheme and host the
// dashboard itself is served from.
func ResolveBaseURL(explicit, scheme, host string) (string, error) {
	candidates := []string{
		explicit,
		os.Getenv("SBOMER_HOST"),
		os.Getenv("REACT_APP_SBOMER_URL"),
	}
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c != "" {
			return normalizeBaseURL(c), nil
		}
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return "", ErrNoBaseURL
	}
	scheme = strings.TrimSpace(scheme)
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + host, nil
}

func normalizeBaseURL(s string) string {
	s = strings.TrimRight(s, "/")
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	return s
}
