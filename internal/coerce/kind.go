package coerce

import "fmt"

// Kind is the declared semantic type of a parameter slot.
type Kind string

const (
	KindInt      Kind = "int"
	KindFloat    Kind = "float"
	KindString   Kind = "string"
	KindBool     Kind = "bool"
	KindEnum     Kind = "enum"
	KindDate     Kind = "date"
	KindTime     Kind = "time"
	KindDateTime Kind = "datetime"
	KindYear     Kind = "year"
	KindDuration Kind = "duration"
	KindPath     Kind = "path"
	KindURL      Kind = "url"
	KindUUID     Kind = "uuid"
)

// Kinds lists every supported kind in documentation order.
var Kinds = []Kind{
	KindInt, KindFloat, KindString, KindBool, KindEnum,
	KindDate, KindTime, KindDateTime, KindYear, KindDuration,
	KindPath, KindURL, KindUUID,
}

// ParseKind parses a kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown parameter type %q", s)
}

// Nullable reports whether a slot of this kind may receive null.
// Numeric and boolean slots are value types and never nullable.
func (k Kind) Nullable() bool {
	switch k {
	case KindInt, KindFloat, KindBool:
		return false
	default:
		return true
	}
}

// Emptiable reports whether the kind has a well-defined empty value.
func (k Kind) Emptiable() bool {
	return k == KindString
}

// Slot is one positional parameter of a test body.
type Slot struct {
	// Position is the zero-based index in the tuple.
	Position int

	// Name is an optional parameter name used in messages.
	Name string

	// Kind is the declared semantic type.
	Kind Kind

	// Enum names the enum type for KindEnum slots.
	Enum string

	// Converter names an explicitly registered converter. When set it takes
	// precedence over the implicit conversion for Kind.
	Converter string
}

// Label returns the slot name, or "arg<position>" when unnamed.
func (s Slot) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("arg%d", s.Position)
}

// TypeName describes the slot's target type for error messages.
func (s Slot) TypeName() string {
	if s.Kind == KindEnum && s.Enum != "" {
		return "enum " + s.Enum
	}
	return string(s.Kind)
}

// Slots builds positional slots from kinds.
func Slots(kinds ...Kind) []Slot {
	out := make([]Slot, len(kinds))
	for i, k := range kinds {
		out[i] = Slot{Position: i, Kind: k}
	}
	return out
}
