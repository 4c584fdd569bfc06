package sbomer

import (
	"encoding/json"
	"fmt"
)

// Generation is a unit of work that produces one or more manifests.
type Generation struct {
	ID         string            `json:"id,omitempty"`
	Identifier string            `json:"identifier,omitempty"`
	Type       string            `json:"type,omitempty"`
	Status     GenerationStatus  `json:"status,omitempty"`
	Result     *GenerationResult `json:"result,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	Metadata   map[string]any    `json:"metadata,omitempty"`
	Request    json.RawMessage   `json:"request,omitempty"`
	Created    *Timestamp        `json:"creationTime,omitempty"`
	Updated    *Timestamp        `json:"updatedTime,omitempty"`
	Finished   *Timestamp        `json:"finishedTime,omitempty"`
	Manifests  []Manifest        `json:"manifests,omitempty"`

	fields fieldSet
}

func DecodeGeneration(b []byte) (Generation, error) {
	var g Generation
	if err := json.Unmarshal(b, &g); err != nil {
		return Generation{}, fmt.Errorf("decode generation: %w", err)
	}
	return g, nil
}

// EffectiveResult hides a result reported before the generation reached a
// terminal status.
func (g Generation) EffectiveResult() *GenerationResult {
	if !g.Status.IsTerminal() {
		return nil
	}
	return g.Result
}

func (g Generation) MetadataString(key string) string {
	v, ok := g.Metadata[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (g *Generation) UnmarshalJSON(b []byte) error {
	type plain Generation
	var p plain
	fields, err := decodeFields(b, &p)
	if err != nil {
		return err
	}
	*g = Generation(p)
	g.fields = fields
	return nil
}

func (g Generation) MarshalJSON() ([]byte, error) {
	type plain Generation
	return encodeFields(plain(g), g.fields)
}
