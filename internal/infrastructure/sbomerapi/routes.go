package sbomerapi

import (
	"fmt"
	"net/url"
	"strings"
)

type APIVersion string

const (
	V1 APIVersion = "v1"
	V2 APIVersion = "v2"
)

func ParseAPIVersion(s string) (APIVersion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "v2", "v1beta2":
		return V2, nil
	case "v1", "v1alpha3":
		return V1, nil
	}
	return "", fmt.Errorf("unknown sbomer api version %q", s)
}

// Routes is the path table of one backend API version. Every path is
// relative to Prefix.
type Routes struct {
	Prefix      string
	Stats       string
	Generations string
	Manifests   string
	Events      string

	// ManifestsForGeneration returns the listing path and extra query for
	// the manifests produced by one generation.
	ManifestsForGeneration func(generationID string) (string, url.Values)
}

func RoutesFor(v APIVersion) Routes {
	if v == V1 {
		return Routes{
			Prefix:      "/api/v1alpha3",
			Stats:       "/stats",
			Generations: "/sboms/requests",
			Manifests:   "/sboms",
			Events:      "/events",
			ManifestsForGeneration: func(id string) (string, url.Values) {
				q := url.Values{}
				q.Set("query", rsqlEquals("generation.id", id))
				return "/sboms", q
			},
		}
	}
	return Routes{
		Prefix:      "/api/v1beta2",
		Stats:       "/stats",
		Generations: "/generations",
		Manifests:   "/manifests",
		Events:      "/events",
		ManifestsForGeneration: func(id string) (string, url.Values) {
			return "/generations/" + url.PathEscape(id) + "/manifests", nil
		},
	}
}

func (r Routes) generation(id string) string {
	return r.Generations + "/" + url.PathEscape(id)
}

func (r Routes) manifest(id string) string {
	return r.Manifests + "/" + url.PathEscape(id)
}

func (r Routes) event(id string) string {
	return r.Events + "/" + url.PathEscape(id)
}

func (r Routes) eventGenerations(id string) string {
	return r.event(id) + "/generations"
}

func (r Routes) logs(generationID string) string {
	return r.generation(generationID) + "/logs"
}

func (r Routes) log(generationID, path string) string {
	return r.logs(generationID) + "/" + url.PathEscape(path)
}

func rsqlEquals(field, value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `'`, `\'`)
	return field + "=eq='" + value + "'"
}
