package sbomer

import (
	"encoding/json"
	"reflect"
	"strings"
)

// fieldSet records which top-level keys a decoded object carried, so a
// present but empty value ("", 0, {}, null) survives a round trip while an
// absent one stays absent.
type fieldSet map[string]struct{}

// decodeFields unmarshals b into v and returns the keys b carried.
func decodeFields(b []byte, v any) (fieldSet, error) {
	if err := json.Unmarshal(b, v); err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil || raw == nil {
		return nil, nil
	}
	fields := make(fieldSet, len(raw))
	for k := range raw {
		fields[k] = struct{}{}
	}
	return fields, nil
}

// encodeFields marshals v, a struct whose fields use omitempty, and puts
// back every key in fields that omitempty dropped.
func encodeFields(v any, fields fieldSet) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil || len(fields) == 0 {
		return b, err
	}

	rv := reflect.ValueOf(v)
	rt := rv.Type()
	var dropped map[string]json.RawMessage
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" || !strings.Contains(opts, "omitempty") {
			continue
		}
		if _, seen := fields[name]; !seen || !isEmptyValue(rv.Field(i)) {
			continue
		}
		raw, err := json.Marshal(rv.Field(i).Interface())
		if err != nil {
			return nil, err
		}
		if dropped == nil {
			dropped = make(map[string]json.RawMessage)
		}
		dropped[name] = raw
	}
	if dropped == nil {
		return b, nil
	}

	var out map[string]json.RawMessage
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	for k, raw := range dropped {
		out[k] = raw
	}
	return json.Marshal(out)
}

// isEmptyValue mirrors what encoding/json treats as empty for omitempty.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}
