package sbomer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Timestamp accepts the date encodings the SBOMer API has used over time:
// RFC 3339 strings with or without fractional seconds, zone-less ISO strings
// and epoch milliseconds. Parsed values marshal as RFC 3339 in UTC. A value
// that does not parse never fails decoding; it is kept verbatim and shown
// as sent.
type Timestamp struct {
	time.Time

	raw string
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Timestamp{Time: time.UnixMilli(ms).UTC()}, nil
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	*t = Timestamp{}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err == nil && s != "" {
			if parsed, err := ParseTimestamp(s); err == nil {
				*t = parsed
				return nil
			}
		}
	} else if ms, err := strconv.ParseInt(string(b), 10, 64); err == nil {
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}
	t.raw = string(b)
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.raw != "" {
		return []byte(t.raw), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// Valid reports whether the value was understood as a point in time.
func (t Timestamp) Valid() bool {
	return t.raw == "" && !t.IsZero()
}

// Raw is the unparsed value as the backend sent it, unquoted when it was a
// JSON string. It is empty for parsed values.
func (t Timestamp) Raw() string {
	var s string
	if err := json.Unmarshal([]byte(t.raw), &s); err == nil {
		return s
	}
	return t.raw
}

// FormatTimestamp renders t for tables; nil or zero renders empty and an
// unparsed value renders as sent.
func FormatTimestamp(t *Timestamp) string {
	if t == nil {
		return ""
	}
	if t.raw != "" {
		return t.Raw()
	}
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
