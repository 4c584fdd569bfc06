package dto

import (
	"encoding/json"

	"sbomer-dashboard/internal/domain/sbomer"
)

type ManifestRow struct {
	ID           string `json:"id"`
	Identifier   string `json:"identifier,omitempty"`
	RootPurl     string `json:"root_purl,omitempty"`
	Created      string `json:"created,omitempty"`
	GenerationID string `json:"generation_id,omitempty"`
}

func NewManifestRow(m sbomer.Manifest) ManifestRow {
	return ManifestRow{
		ID:           m.ID,
		Identifier:   m.Identifier,
		RootPurl:     m.RootPurl,
		Created:      sbomer.FormatTimestamp(m.Created),
		GenerationID: m.GenerationID(),
	}
}

func NewManifestRows(items []sbomer.Manifest) []ManifestRow {
	out := make([]ManifestRow, 0, len(items))
	for _, m := range items {
		out = append(out, NewManifestRow(m))
	}
	return out
}

type ManifestDetail struct {
	ManifestRow
	Generation *GenerationRow  `json:"generation,omitempty"`
	SBOM       json.RawMessage `json:"sbom,omitempty"`
}

func NewManifestDetail(m sbomer.Manifest) ManifestDetail {
	out := ManifestDetail{ManifestRow: NewManifestRow(m), SBOM: m.SBOM}
	if m.Generation != nil {
		g := NewGenerationRow(*m.Generation)
		out.Generation = &g
	}
	return out
}
