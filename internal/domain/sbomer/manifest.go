package sbomer

import (
	"encoding/json"
	"fmt"
)

// Manifest is a generated CycloneDX document. It always belongs to exactly
// one generation, carried here by value.
type Manifest struct {
	ID         string          `json:"id,omitempty"`
	Identifier string          `json:"identifier,omitempty"`
	RootPurl   string          `json:"rootPurl,omitempty"`
	Created    *Timestamp      `json:"creationTime,omitempty"`
	SBOM       json.RawMessage `json:"sbom,omitempty"`
	Generation *Generation     `json:"generation,omitempty"`

	fields fieldSet
}

func DecodeManifest(b []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

func (m Manifest) GenerationID() string {
	if m.Generation == nil {
		return ""
	}
	return m.Generation.ID
}

func (m *Manifest) UnmarshalJSON(b []byte) error {
	type plain Manifest
	var p plain
	fields, err := decodeFields(b, &p)
	if err != nil {
		return err
	}
	*m = Manifest(p)
	m.fields = fields
	return nil
}

func (m Manifest) MarshalJSON() ([]byte, error) {
	type plain Manifest
	return encodeFields(plain(m), m.fields)
}
