package dto

import (
	"sort"

	"sbomer-dashboard/internal/domain/sbomer"
)

type StatsResponse struct {
	Version      string             `json:"version,omitempty"`
	Release      string             `json:"release,omitempty"`
	Uptime       string             `json:"uptime,omitempty"`
	UptimeMillis int64              `json:"uptime_millis,omitempty"`
	Resources    []ResourceStat     `json:"resources"`
	Messaging    []MessagingStat    `json:"messaging"`
	Deployment   *sbomer.Deployment `json:"deployment,omitempty"`
}

type ResourceStat struct {
	Name       string `json:"name"`
	Total      int64  `json:"total"`
	InProgress int64  `json:"in_progress"`
}

type MessagingStat struct {
	Name     string           `json:"name"`
	Counters map[string]int64 `json:"counters"`
}

// NewStatsResponse flattens the stats maps into name-sorted lists so the
// rendered order is stable.
func NewStatsResponse(s sbomer.Stats) StatsResponse {
	out := StatsResponse{
		Version:      s.Version,
		Release:      s.Release,
		Uptime:       s.Uptime,
		UptimeMillis: s.UptimeMillis,
		Resources:    make([]ResourceStat, 0, len(s.Resources)),
		Messaging:    make([]MessagingStat, 0, len(s.Messaging)),
		Deployment:   s.Deployment,
	}
	for name, r := range s.Resources {
		out.Resources = append(out.Resources, ResourceStat{Name: name, Total: r.Total, InProgress: r.InProgress})
	}
	for name, counters := range s.Messaging {
		out.Messaging = append(out.Messaging, MessagingStat{Name: name, Counters: counters})
	}
	sort.Slice(out.Resources, func(i, j int) bool { return out.Resources[i].Name < out.Resources[j].Name })
	sort.Slice(out.Messaging, func(i, j int) bool { return out.Messaging[i].Name < out.Messaging[j].Name })
	return out
}
