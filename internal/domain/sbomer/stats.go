package sbomer

import (
	"encoding/json"
	"fmt"
)

type ResourceCounters struct {
	Total      int64 `json:"total"`
	InProgress int64 `json:"inProgress,omitempty"`

	fields fieldSet
}

type Deployment struct {
	Target string `json:"target,omitempty"`
	Type   string `json:"type,omitempty"`
	Zone   string `json:"zone,omitempty"`

	fields fieldSet
}

// Stats is a read-only snapshot of the service. Messaging holds one counter
// set per consumer or producer, keyed by its name.
type Stats struct {
	Version      string                      `json:"version,omitempty"`
	Release      string                      `json:"release,omitempty"`
	Uptime       string                      `json:"uptime,omitempty"`
	UptimeMillis int64                       `json:"uptimeMillis,omitempty"`
	Messaging    map[string]map[string]int64 `json:"messaging,omitempty"`
	Resources    map[string]ResourceCounters `json:"resources,omitempty"`
	Deployment   *Deployment                 `json:"deployment,omitempty"`

	fields fieldSet
}

func DecodeStats(b []byte) (Stats, error) {
	var s Stats
	if err := json.Unmarshal(b, &s); err != nil {
		return Stats{}, fmt.Errorf("decode stats: %w", err)
	}
	return s, nil
}

func (c *ResourceCounters) UnmarshalJSON(b []byte) error {
	type plain ResourceCounters
	var p plain
	fields, err := decodeFields(b, &p)
	if err != nil {
		return err
	}
	*c = ResourceCounters(p)
	c.fields = fields
	return nil
}

func (c ResourceCounters) MarshalJSON() ([]byte, error) {
	type plain ResourceCounters
	return encodeFields(plain(c), c.fields)
}

func (d *Deployment) UnmarshalJSON(b []byte) error {
	type plain Deployment
	var p plain
	fields, err := decodeFields(b, &p)
	if err != nil {
		return err
	}
	*d = Deployment(p)
	d.fields = fields
	return nil
}

func (d Deployment) MarshalJSON() ([]byte, error) {
	type plain Deployment
	return encodeFields(plain(d), d.fields)
}

func (s *Stats) UnmarshalJSON(b []byte) error {
	type plain Stats
	var p plain
	fields, err := decodeFields(b, &p)
	if err != nil {
		return err
	}
	*s = Stats(p)
	s.fields = fields
	return nil
}

func (s Stats) MarshalJSON() ([]byte, error) {
	type plain Stats
	return encodeFields(plain(s), s.fields)
}
