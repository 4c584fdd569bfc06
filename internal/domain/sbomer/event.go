package sbomer

import (
	"encoding/json"
	"fmt"
)

type EventRef struct {
	ID string `json:"id,omitempty"`

	fields fieldSet
}

// Event is an inbound trigger that may cause one or more generations.
type Event struct {
	ID          string          `json:"id,omitempty"`
	Parent      *EventRef       `json:"parent,omitempty"`
	Status      EventStatus     `json:"status,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
	Request     json.RawMessage `json:"request,omitempty"`
	Created     *Timestamp      `json:"created,omitempty"`
	Updated     *Timestamp      `json:"updated,omitempty"`
	Finished    *Timestamp      `json:"finished,omitempty"`
	Generations []Generation    `json:"generations,omitempty"`

	fields fieldSet
}

func DecodeEvent(b []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return e, nil
}

func (e Event) ParentID() string {
	if e.Parent == nil {
		return ""
	}
	return e.Parent.ID
}

func (r *EventRef) UnmarshalJSON(b []byte) error {
	type plain EventRef
	var p plain
	fields, err := decodeFields(b, &p)
	if err != nil {
		return err
	}
	*r = EventRef(p)
	r.fields = fields
	return nil
}

func (r EventRef) MarshalJSON() ([]byte, error) {
	type plain EventRef
	return encodeFields(plain(r), r.fields)
}

func (e *Event) UnmarshalJSON(b []byte) error {
	type plain Event
	var p plain
	fields, err := decodeFields(b, &p)
	if err != nil {
		return err
	}
	*e = Event(p)
	e.fields = fields
	return nil
}

func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	return encodeFields(plain(e), e.fields)
}
