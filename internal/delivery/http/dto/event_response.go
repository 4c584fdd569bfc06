package dto

import (
	"encoding/json"

	"sbomer-dashboard/internal/domain/sbomer"
)

type EventRow struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id,omitempty"`
	Status   string `json:"status,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Created  string `json:"created,omitempty"`
	Updated  string `json:"updated,omitempty"`
	Finished string `json:"finished,omitempty"`
}

func NewEventRow(e sbomer.Event) EventRow {
	return EventRow{
		ID:       e.ID,
		ParentID: e.ParentID(),
		Status:   e.Status.String(),
		Reason:   e.Reason,
		Created:  sbomer.FormatTimestamp(e.Created),
		Updated:  sbomer.FormatTimestamp(e.Updated),
		Finished: sbomer.FormatTimestamp(e.Finished),
	}
}

func NewEventRows(items []sbomer.Event) []EventRow {
	out := make([]EventRow, 0, len(items))
	for _, e := range items {
		out = append(out, NewEventRow(e))
	}
	return out
}

type EventDetail struct {
	EventRow
	Metadata map[string]any  `json:"metadata,omitempty"`
	Request  json.RawMessage `json:"request,omitempty"`
}

type GenerationsSection struct {
	Items []GenerationRow `json:"items"`
	Total int             `json:"total"`
}

type EventPageResponse struct {
	Event       EventDetail                 `json:"event"`
	Generations Section[GenerationsSection] `json:"generations"`
}

func NewEventDetail(e sbomer.Event) EventDetail {
	return EventDetail{EventRow: NewEventRow(e), Metadata: e.Metadata, Request: e.Request}
}
