package sbomer

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

const generationPayload = `{
	"id": "G1",
	"identifier": "quay.io/org/image:1.0",
	"type": "CONTAINER_IMAGE",
	"status": "FINISHED",
	"result": "SUCCESS",
	"reason": "Generation finished successfully",
	"metadata": {"build": "1234", "attempt": 2},
	"request": {"type": "image", "image": "quay.io/org/image:1.0"},
	"creationTime": "2024-05-01T10:00:00.123Z",
	"updatedTime": "2024-05-01T12:30:00+02:00",
	"finishedTime": 1714561200000
}`

var generationDateKeys = map[string]bool{"creationTime": true, "updatedTime": true, "finishedTime": true}

func TestDecodeGeneration_Fields(t *testing.T) {
	g, err := DecodeGeneration([]byte(generationPayload))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if g.ID != "G1" || g.Type != "CONTAINER_IMAGE" {
		t.Fatalf("unexpected generation: %+v", g)
	}
	if g.Status != GenerationStatusFinished || !g.Status.IsTerminal() {
		t.Fatalf("unexpected status %q", g.Status)
	}
	if g.Result == nil || *g.Result != GenerationResultSuccess {
		t.Fatalf("unexpected result %v", g.Result)
	}
	want := time.Date(2024, 5, 1, 10, 0, 0, 123000000, time.UTC)
	if g.Created == nil || !g.Created.Equal(want) {
		t.Fatalf("creationTime = %v, want %v", g.Created, want)
	}
	if g.Updated == nil || !g.Updated.Equal(time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected updatedTime %v", g.Updated)
	}
	if g.Finished == nil || g.Finished.UnixMilli() != 1714561200000 {
		t.Fatalf("unexpected finishedTime %v", g.Finished)
	}
	if got := g.MetadataString("attempt"); got != "2" {
		t.Fatalf("metadata attempt = %q", got)
	}
}

func TestGeneration_RoundTripPreservesFields(t *testing.T) {
	g, err := DecodeGeneration([]byte(generationPayload))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	out, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	assertFieldsPreserved(t, []byte(generationPayload), out, generationDateKeys)
}

func TestManifest_RoundTripPreservesNestedGeneration(t *testing.T) {
	in := `{
		"id": "M1",
		"identifier": "quay.io/org/image:1.0",
		"rootPurl": "pkg:oci/image@sha256:abc",
		"creationTime": "2024-05-01T10:00:00Z",
		"sbom": {"bomFormat": "CycloneDX", "components": [{"name": "a"}]},
		"generation": {"id": "G1", "status": "GENERATING", "creationTime": "2024-05-01T09:00:00Z"}
	}`
	m, err := DecodeManifest([]byte(in))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if m.GenerationID() != "G1" {
		t.Fatalf("generation id = %q", m.GenerationID())
	}
	if m.Generation.Created == nil {
		t.Fatalf("nested generation date not coerced")
	}
	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	assertFieldsPreserved(t, []byte(in), out, map[string]bool{"creationTime": true})
}

func TestEvent_RoundTripPreservesFields(t *testing.T) {
	in := `{
		"id": "E2",
		"parent": {"id": "E1"},
		"status": "PROCESSED",
		"reason": "done",
		"metadata": {"source": "umb"},
		"request": {"kind": "umb"},
		"created": "2024-05-01T10:00:00Z",
		"updated": "2024-05-01T10:01:00Z",
		"finished": "2024-05-01T10:02:00Z",
		"generations": [{"id": "G1", "status": "NEW"}]
	}`
	e, err := DecodeEvent([]byte(in))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if e.ParentID() != "E1" || len(e.Generations) != 1 {
		t.Fatalf("unexpected event: %+v", e)
	}
	out, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	assertFieldsPreserved(t, []byte(in), out, map[string]bool{"created": true, "updated": true, "finished": true})
}

func TestDecodeGeneration_AbsentFieldsStayAbsent(t *testing.T) {
	g, err := DecodeGeneration([]byte(`{"id": "G2"}`))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if g.Created != nil || g.Result != nil || g.Metadata != nil || g.Status != "" {
		t.Fatalf("expected absent fields to stay nil, got %+v", g)
	}
	out, _ := json.Marshal(g)
	if string(out) != `{"id":"G2"}` {
		t.Fatalf("unexpected marshal %s", out)
	}
}

func TestDecodeGeneration_UnknownStatusKeptVerbatim(t *testing.T) {
	g, err := DecodeGeneration([]byte(`{"id": "G3", "status": "ARCHIVED", "result": "ERR_SOMETHING_NEW"}`))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if g.Status.IsKnown() {
		t.Fatalf("ARCHIVED must not be a known status")
	}
	if g.Status.Label() != "ARCHIVED" {
		t.Fatalf("label = %q", g.Status.Label())
	}
	if g.EffectiveResult() != nil {
		t.Fatalf("non-terminal status must hide result")
	}
}

func TestDecodeStats(t *testing.T) {
	s, err := DecodeStats([]byte(`{
		"version": "1.0.0",
		"uptime": "2h",
		"uptimeMillis": 7200000,
		"messaging": {"pncConsumer": {"received": 10, "processed": 8, "skipped": 2}},
		"resources": {"generations": {"total": 42, "inProgress": 3}}
	}`))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s.Messaging["pncConsumer"]["processed"] != 8 {
		t.Fatalf("unexpected messaging %+v", s.Messaging)
	}
	if s.Resources["generations"].Total != 42 {
		t.Fatalf("unexpected resources %+v", s.Resources)
	}
}

func TestTimestamp_UnparsedValueKeptVerbatim(t *testing.T) {
	in := `{"content":[
		{"id":"G1","creationTime":"n/a"},
		{"id":"G2","creationTime":"2024-05-01T10:00:00Z","finishedTime":1.5}
	]}`
	var page struct {
		Content []Generation `json:"content"`
	}
	if err := json.Unmarshal([]byte(in), &page); err != nil {
		t.Fatalf("one odd date must not fail the listing: %v", err)
	}
	if len(page.Content) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(page.Content))
	}

	odd := page.Content[0].Created
	if odd == nil || odd.Valid() || FormatTimestamp(odd) != "n/a" {
		t.Fatalf("unexpected odd timestamp %+v (%q)", odd, FormatTimestamp(odd))
	}
	if !page.Content[1].Created.Valid() || FormatTimestamp(page.Content[1].Finished) != "1.5" {
		t.Fatalf("unexpected second row %+v", page.Content[1])
	}

	out, err := json.Marshal(page.Content[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"creationTime":"n/a","id":"G1"}` && string(out) != `{"id":"G1","creationTime":"n/a"}` {
		t.Fatalf("raw value not re-emitted: %s", out)
	}
}

func TestRoundTrip_PresentEmptyFieldsSurvive(t *testing.T) {
	cases := map[string]struct {
		in     string
		decode func([]byte) (any, error)
	}{
		"generation": {
			in:     `{"id":"G1","status":"NEW","reason":"","metadata":{},"result":null,"creationTime":null,"manifests":[]}`,
			decode: func(b []byte) (any, error) { return DecodeGeneration(b) },
		},
		"event": {
			in:     `{"id":"E1","reason":"","metadata":{},"parent":{"id":""},"generations":[]}`,
			decode: func(b []byte) (any, error) { return DecodeEvent(b) },
		},
		"manifest": {
			in:     `{"id":"M1","rootPurl":"","sbom":null,"generation":{"id":"G1","reason":""}}`,
			decode: func(b []byte) (any, error) { return DecodeManifest(b) },
		},
		"stats": {
			in:     `{"version":"","uptimeMillis":0,"messaging":{},"resources":{"generations":{"total":0,"inProgress":0}},"deployment":{"zone":""}}`,
			decode: func(b []byte) (any, error) { return DecodeStats(b) },
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			v, err := tc.decode([]byte(tc.in))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			out, err := json.Marshal(v)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var want, got any
			_ = json.Unmarshal([]byte(tc.in), &want)
			_ = json.Unmarshal(out, &got)
			if !reflect.DeepEqual(want, got) {
				t.Fatalf("round trip changed the document\nin:  %s\nout: %s", tc.in, out)
			}
		})
	}
}

func assertFieldsPreserved(t *testing.T, in, out []byte, dateKeys map[string]bool) {
	t.Helper()
	var a, b map[string]any
	if err := json.Unmarshal(in, &a); err != nil {
		t.Fatalf("unmarshal input: %v", err)
	}
	if err := json.Unmarshal(out, &b); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			t.Fatalf("field %q lost in round trip", k)
		}
		if dateKeys[k] {
			s, ok := bv.(string)
			if !ok {
				t.Fatalf("field %q not serialised as string: %v", k, bv)
			}
			if _, err := time.Parse(time.RFC3339Nano, s); err != nil {
				t.Fatalf("field %q not ISO: %v", k, err)
			}
			continue
		}
		if nested, ok := av.(map[string]any); ok && k == "generation" {
			nb, _ := json.Marshal(nested)
			ob, _ := json.Marshal(bv)
			assertFieldsPreserved(t, nb, ob, map[string]bool{"creationTime": true})
			continue
		}
		if !reflect.DeepEqual(av, bv) {
			t.Fatalf("field %q changed: %v -> %v", k, av, bv)
		}
	}
}
