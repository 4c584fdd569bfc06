package dto

import (
	"encoding/json"

	"sbomer-dashboard/internal/domain/sbomer"
)

type GenerationRow struct {
	ID          string `json:"id"`
	Identifier  string `json:"identifier,omitempty"`
	Type        string `json:"type,omitempty"`
	Status      string `json:"status,omitempty"`
	StatusLabel string `json:"status_label,omitempty"`
	Result      string `json:"result,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Created     string `json:"created,omitempty"`
	Updated     string `json:"updated,omitempty"`
	Finished    string `json:"finished,omitempty"`
}

func NewGenerationRow(g sbomer.Generation) GenerationRow {
	row := GenerationRow{
		ID:          g.ID,
		Identifier:  g.Identifier,
		Type:        g.Type,
		Status:      g.Status.String(),
		StatusLabel: g.Status.Label(),
		Reason:      g.Reason,
		Created:     sbomer.FormatTimestamp(g.Created),
		Updated:     sbomer.FormatTimestamp(g.Updated),
		Finished:    sbomer.FormatTimestamp(g.Finished),
	}
	if r := g.EffectiveResult(); r != nil {
		row.Result = r.String()
	}
	return row
}

func NewGenerationRows(items []sbomer.Generation) []GenerationRow {
	out := make([]GenerationRow, 0, len(items))
	for _, g := range items {
		out = append(out, NewGenerationRow(g))
	}
	return out
}

type GenerationDetail struct {
	GenerationRow
	Metadata map[string]any  `json:"metadata,omitempty"`
	Request  json.RawMessage `json:"request,omitempty"`
}

type GenerationPageResponse struct {
	Generation GenerationDetail           `json:"generation"`
	Manifests  Section[[]ManifestRow]     `json:"manifests"`
	Logs       Section[[]LogFileResponse] `json:"logs"`
}

type LogFileResponse struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

func NewGenerationDetail(g sbomer.Generation) GenerationDetail {
	return GenerationDetail{GenerationRow: NewGenerationRow(g), Metadata: g.Metadata, Request: g.Request}
}
