package settings

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// settingsKey is the top-level array holding all descriptors.
const settingsKey = "Settings"

// ParseDocument parses and validates a serialised settings document.
//
// Returns:
//   - Document: descriptors in document order
//   - error: ErrParse for malformed JSON or a missing Settings array,
//     ErrInvalidDocument when an entry violates the document invariants
func ParseDocument(data string) (Document, error) {
	if !gjson.Valid(data) {
		return Document{}, fmt.Errorf("%w: malformed JSON", ErrParse)
	}

	list := gjson.Get(data, settingsKey)
	if !list.IsArray() {
		return Document{}, fmt.Errorf("%w: missing %q array", ErrParse, settingsKey)
	}

	entries := list.Array()
	doc := Document{Settings: make([]Descriptor, 0, len(entries))}
	for i, entry := range entries {
		d, err := parseDescriptor(entry)
		if err != nil {
			return Document{}, fmt.Errorf("entry %d: %w", i, err)
		}
		doc.Settings = append(doc.Settings, d)
	}

	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// parseDescriptor converts one array element into a Descriptor.
func parseDescriptor(entry gjson.Result) (Descriptor, error) {
	if !entry.IsObject() {
		return Descriptor{}, fmt.Errorf("%w: entry is not an object", ErrInvalidDocument)
	}

	name := entry.Get("name")
	if name.Type != gjson.String {
		return Descriptor{}, fmt.Errorf("%w: name must be a string", ErrInvalidDocument)
	}

	t, err := ParseType(entry.Get("type").String())
	if err != nil {
		return Descriptor{}, fmt.Errorf("setting %q: %w", name.Str, err)
	}

	value, err := valueFromResult(t, entry.Get("value"))
	if err != nil {
		return Descriptor{}, fmt.Errorf("setting %q value: %w", name.Str, err)
	}

	d := Descriptor{Name: name.Str, Type: t, Value: value}

	if r := entry.Get("range"); r.Exists() {
		lo, err := valueFromResult(t, r.Get("min"))
		if err != nil {
			return Descriptor{}, fmt.Errorf("setting %q range min: %w", name.Str, err)
		}
		hi, err := valueFromResult(t, r.Get("max"))
		if err != nil {
			return Descriptor{}, fmt.Errorf("setting %q range max: %w", name.Str, err)
		}
		d.Range = &Range{Min: lo, Max: hi}
	}

	return d, nil
}

// valueFromResult tags a JSON value with the declared type, rejecting
// payloads the type cannot hold.
func valueFromResult(t Type, r gjson.Result) (Value, error) {
	if !r.Exists() {
		return Value{}, fmt.Errorf("%w: missing", ErrInvalidDocument)
	}

	switch t {
	case TypeBool:
		if r.Type == gjson.True || r.Type == gjson.False {
			return BoolValue(r.Bool()), nil
		}
	case TypeInt:
		if r.Type == gjson.Number {
			if n, err := strconv.Atoi(r.Raw); err == nil {
				return IntValue(n), nil
			}
		}
	case TypeUInt8:
		if r.Type == gjson.Number {
			if n, err := strconv.ParseUint(r.Raw, 10, 8); err == nil {
				return UInt8Value(uint8(n)), nil
			}
		}
	case TypeString:
		if r.Type == gjson.String {
			return StringValue(r.Str), nil
		}
	}

	return Value{}, fmt.Errorf("%w: %s cannot hold %s", ErrInvalidDocument, t, r.Raw)
}

// DecodeValue parses raw, the JSON encoding of a single value as produced
// by Value.MarshalJSON, into a Value of type t.
func DecodeValue(t Type, raw string) (Value, error) {
	if !gjson.Valid(raw) {
		return Value{}, fmt.Errorf("%w: malformed value %q", ErrParse, raw)
	}
	return valueFromResult(t, gjson.Parse(raw))
}

// Validate checks the document invariants: every name is non-empty and
// unique, and every value and bound matches its declared type.
func (d Document) Validate() error {
	seen := make(map[string]struct{}, len(d.Settings))
	for i, s := range d.Settings {
		if s.Name == "" {
			return fmt.Errorf("%w: entry %d has an empty name", ErrInvalidDocument, i)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("%w: duplicate setting name %q", ErrInvalidDocument, s.Name)
		}
		seen[s.Name] = struct{}{}

		if !s.Type.IsValid() {
			return fmt.Errorf("%w: setting %q has unknown type %q", ErrInvalidDocument, s.Name, s.Type)
		}
		if s.Value.Kind() != s.Type {
			return fmt.Errorf("%w: setting %q declared %s holds %s", ErrInvalidDocument, s.Name, s.Type, s.Value.Kind())
		}
		if s.Range != nil && (s.Range.Min.Kind() != s.Type || s.Range.Max.Kind() != s.Type) {
			return fmt.Errorf("%w: setting %q range does not match type %s", ErrInvalidDocument, s.Name, s.Type)
		}
	}
	return nil
}

// Marshal validates the document and serialises it as compact JSON.
func (d Document) Marshal() (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	if d.Settings == nil {
		d.Settings = []Descriptor{}
	}
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return string(data), nil
}
