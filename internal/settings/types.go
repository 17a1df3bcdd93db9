package settings

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Type is the declared type tag of a setting.
type Type string

// Supported setting types.
const (
	TypeBool   Type = "bool"
	TypeInt    Type = "int"
	TypeUInt8  Type = "uint8"
	TypeString Type = "string"
)

// typeAliases maps labels written by older firmware to their canonical type.
var typeAliases = map[string]Type{
	"uint8_t": TypeUInt8,
}

// ParseType converts a stored type label into a Type.
//
// Labels are case-insensitive. "uint8_t" is accepted as an alias of "uint8".
func ParseType(s string) (Type, error) {
	label := strings.ToLower(strings.TrimSpace(s))
	if t, ok := typeAliases[label]; ok {
		return t, nil
	}
	t := Type(label)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: unknown type %q", ErrInvalidDocument, s)
	}
	return t, nil
}

// IsValid reports whether t is one of the supported types.
func (t Type) IsValid() bool {
	switch t {
	case TypeBool, TypeInt, TypeUInt8, TypeString:
		return true
	}
	return false
}

// Value is a setting payload tagged with its type.
//
// The zero Value is invalid and is used for "no previous value" in a Change.
type Value struct {
	kind Type
	b    bool
	i    int
	s    string
}

// BoolValue returns a Value holding b.
func BoolValue(b bool) Value { return Value{kind: TypeBool, b: b} }

// IntValue returns a Value holding i.
func IntValue(i int) Value { return Value{kind: TypeInt, i: i} }

// UInt8Value returns a Value holding u.
func UInt8Value(u uint8) Value { return Value{kind: TypeUInt8, i: int(u)} }

// StringValue returns a Value holding s.
func StringValue(s string) Value { return Value{kind: TypeString, s: s} }

// Kind returns the value's type tag, or "" for the zero Value.
func (v Value) Kind() Type { return v.kind }

// IsValid reports whether v holds a value.
func (v Value) IsValid() bool { return v.kind != "" }

// AsBool returns the value as a bool.
func (v Value) AsBool() (bool, error) {
	if v.kind != TypeBool {
		return false, v.mismatch(TypeBool)
	}
	return v.b, nil
}

// AsInt returns the value as an int. UInt8 values widen to int.
func (v Value) AsInt() (int, error) {
	if v.kind != TypeInt && v.kind != TypeUInt8 {
		return 0, v.mismatch(TypeInt)
	}
	return v.i, nil
}

// AsUInt8 returns the value as a uint8.
func (v Value) AsUInt8() (uint8, error) {
	if v.kind != TypeUInt8 {
		return 0, v.mismatch(TypeUInt8)
	}
	return uint8(v.i), nil //nolint:gosec // range checked at construction
}

// AsString returns the value as a string.
func (v Value) AsString() (string, error) {
	if v.kind != TypeString {
		return "", v.mismatch(TypeString)
	}
	return v.s, nil
}

func (v Value) mismatch(want Type) error {
	got := string(v.kind)
	if got == "" {
		got = "none"
	}
	return fmt.Errorf("%w: want %s, stored %s", ErrTypeMismatch, want, got)
}

// Interface returns the value as a plain Go value (bool, int or string),
// or nil for the zero Value.
func (v Value) Interface() any {
	switch v.kind {
	case TypeBool:
		return v.b
	case TypeInt, TypeUInt8:
		return v.i
	case TypeString:
		return v.s
	}
	return nil
}

// Equal reports whether v and o have the same type and payload.
func (v Value) Equal(o Value) bool {
	return v == o
}

// String formats the value for display.
func (v Value) String() string {
	switch v.kind {
	case TypeBool:
		return strconv.FormatBool(v.b)
	case TypeInt, TypeUInt8:
		return strconv.Itoa(v.i)
	case TypeString:
		return v.s
	}
	return ""
}

// MarshalJSON encodes the payload as a JSON bool, number or string.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.IsValid() {
		return nil, fmt.Errorf("%w: cannot encode empty value", ErrWrite)
	}
	return json.Marshal(v.Interface())
}

// ParseValue converts user input (CLI, UI form) into a Value of type t.
func ParseValue(t Type, s string) (Value, error) {
	switch t {
	case TypeBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a bool", ErrTypeMismatch, s)
		}
		return BoolValue(b), nil
	case TypeInt:
		i, err := strconv.Atoi(s)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not an int", ErrTypeMismatch, s)
		}
		return IntValue(i), nil
	case TypeUInt8:
		u, err := strconv.ParseUint(s, 10, 8)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a uint8", ErrTypeMismatch, s)
		}
		return UInt8Value(uint8(u)), nil
	case TypeString:
		return StringValue(s), nil
	}
	return Value{}, fmt.Errorf("%w: unknown type %q", ErrTypeMismatch, t)
}

// Range holds the optional bounds of a setting, used by editing UIs.
// The store does not clamp values against it.
type Range struct {
	Min Value `json:"min"`
	Max Value `json:"max"`
}

// Contains reports whether v lies within [Min, Max].
// Booleans order false before true; strings compare lexically.
func (r Range) Contains(v Value) bool {
	if v.kind != r.Min.kind || v.kind != r.Max.kind {
		return false
	}
	switch v.kind {
	case TypeBool:
		return boolRank(r.Min.b) <= boolRank(v.b) && boolRank(v.b) <= boolRank(r.Max.b)
	case TypeInt, TypeUInt8:
		return r.Min.i <= v.i && v.i <= r.Max.i
	case TypeString:
		return r.Min.s <= v.s && v.s <= r.Max.s
	}
	return false
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Descriptor is one named, typed entry of the settings document.
type Descriptor struct {
	Name  string `json:"name"`
	Type  Type   `json:"type"`
	Value Value  `json:"value"`
	Range *Range `json:"range,omitempty"`
}

// Document is the ordered list of descriptors under the "Settings" key.
// Order is significant: IndexToName and UI enumeration rely on it.
type Document struct {
	Settings []Descriptor `json:"Settings"`
}

// Index returns the position of the first descriptor named name, or -1.
func (d Document) Index(name string) int {
	for i := range d.Settings {
		if d.Settings[i].Name == name {
			return i
		}
	}
	return -1
}

// Len returns the number of descriptors.
func (d Document) Len() int {
	return len(d.Settings)
}
