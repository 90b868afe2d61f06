package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FieldShape tells which JSON representation the CRM used for custom fields.
type FieldShape int

const (
	ShapeAbsent FieldShape = iota
	ShapeList              // [{"id": "...", "name": "...", "value": "..."}]
	ShapeMap               // {"Field Name": "value"}
)

func (s FieldShape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeMap:
		return "map"
	default:
		return "absent"
	}
}

// FieldValue holds a custom-field value that may arrive as a string, a list of
// strings, a number, a boolean or null.
type FieldValue struct {
	Values []string
}

func StringValue(s string) FieldValue { return FieldValue{Values: []string{s}} }

// First returns the first raw value, or "" when empty.
func (v FieldValue) First() string {
	if len(v.Values) == 0 {
		return ""
	}
	return v.Values[0]
}

// Normalized is the trimmed, lower-cased first value used for comparisons.
func (v FieldValue) Normalized() string {
	return strings.ToLower(strings.TrimSpace(v.First()))
}

func (v FieldValue) String() string {
	if len(v.Values) == 1 {
		return v.Values[0]
	}
	return "[" + strings.Join(v.Values, ", ") + "]"
}

func (v *FieldValue) UnmarshalJSON(b []byte) error {
	v.Values = nil
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	if b[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		for _, item := range items {
			if s, ok := scalarString(item); ok {
				v.Values = append(v.Values, s)
			}
		}
		return nil
	}

	s, ok := scalarString(b)
	if !ok {
		return fmt.Errorf("unsupported custom field value: %s", string(b))
	}
	v.Values = []string{s}
	return nil
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	if len(v.Values) == 1 {
		return json.Marshal(v.Values[0])
	}
	if v.Values == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v.Values)
}

// scalarString renders a JSON string, number or boolean as text.
func scalarString(b json.RawMessage) (string, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return "", false
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", false
		}
		return s, true
	case 't', 'f':
		var bl bool
		if err := json.Unmarshal(b, &bl); err != nil {
			return "", false
		}
		if bl {
			return "true", true
		}
		return "false", true
	case 'n':
		return "", true
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return "", false
		}
		return n.String(), true
	}
}

// CustomField is one element of the list shape. Identity is ambiguous: any of
// ID, Name or Label may be the only one present.
type CustomField struct {
	ID    string     `json:"id,omitempty"`
	Name  string     `json:"name,omitempty"`
	Label string     `json:"label,omitempty"`
	Value FieldValue `json:"value"`
}

func (f *CustomField) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID    json.RawMessage `json:"id"`
		Name  json.RawMessage `json:"name"`
		Label json.RawMessage `json:"label"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	f.ID, _ = scalarString(raw.ID)
	f.Name, _ = scalarString(raw.Name)
	f.Label, _ = scalarString(raw.Label)
	if len(raw.Value) > 0 {
		// An unsupported value (e.g. a nested object) leaves the field empty.
		_ = f.Value.UnmarshalJSON(raw.Value)
	}
	return nil
}

// MapEntry is one key/value pair of the map shape, kept in document order.
type MapEntry struct {
	Key   string
	Value FieldValue
}

// CustomFieldSet is the boundary representation of a contact's custom fields.
// Only Normalize should look at Shape.
type CustomFieldSet struct {
	Shape   FieldShape
	List    []CustomField
	Entries []MapEntry
}

func FieldList(fields ...CustomField) CustomFieldSet {
	return CustomFieldSet{Shape: ShapeList, List: fields}
}

func FieldMap(entries ...MapEntry) CustomFieldSet {
	return CustomFieldSet{Shape: ShapeMap, Entries: entries}
}

func (s *CustomFieldSet) UnmarshalJSON(b []byte) error {
	*s = CustomFieldSet{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	switch b[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		s.Shape = ShapeList
		for _, item := range items {
			var f CustomField
			if err := json.Unmarshal(item, &f); err != nil {
				continue
			}
			s.List = append(s.List, f)
		}
		return nil
	case '{':
		entries, err := decodeOrderedObject(b)
		if err != nil {
			return err
		}
		s.Shape = ShapeMap
		s.Entries = entries
		return nil
	default:
		return fmt.Errorf("custom fields must be an array or an object")
	}
}

// decodeOrderedObject walks a JSON object keeping key order, which the
// positional inference tier depends on.
func decodeOrderedObject(b []byte) ([]MapEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var entries []MapEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		var val FieldValue
		if err := val.UnmarshalJSON(raw); err != nil {
			continue
		}
		entries = append(entries, MapEntry{Key: key, Value: val})
	}
	return entries, nil
}

// NormalizedField is the canonical {id, name, value} triple every rule works on.
type NormalizedField struct {
	Index int
	ID    string
	Name  string // trimmed and lower-cased name, falling back to label
	Value FieldValue
}

// Norm is the trimmed, lower-cased first value.
func (f NormalizedField) Norm() string { return f.Value.Normalized() }

func (f NormalizedField) Raw() string { return f.Value.String() }

// Normalize converts either shape into the canonical sequence, preserving order.
func (s CustomFieldSet) Normalize() []NormalizedField {
	var out []NormalizedField
	switch s.Shape {
	case ShapeList:
		for _, f := range s.List {
			name := strings.TrimSpace(f.Name)
			if name == "" {
				name = strings.TrimSpace(f.Label)
			}
			out = append(out, NormalizedField{
				Index: len(out),
				ID:    strings.TrimSpace(f.ID),
				Name:  strings.ToLower(name),
				Value: f.Value,
			})
		}
	case ShapeMap:
		for _, e := range s.Entries {
			out = append(out, NormalizedField{
				Index: len(out),
				Name:  strings.ToLower(strings.TrimSpace(e.Key)),
				Value: e.Value,
			})
		}
	}
	return out
}
