// Package paramerr defines the error taxonomy shared by argument sources,
// the expansion driver, the coercion engine and the invocation runner.
//
// Declaration-time errors (ARITY, INCOMPATIBLE_SOURCE, UNKNOWN_ENUM_MEMBER,
// and RESOURCE for unresolvable generators) abort a declaration before any
// invocation runs. COERCION and per-row ARITY errors are recorded against a
// single invocation. RESOURCE errors raised during expansion abort the
// remaining tuples of that declaration only.
package paramerr

import (
	"errors"
	"fmt"
	"strings"
)

// Code categorizes an argument error.
type Code string

const (
	// CodeArity indicates a tuple/parameter-count mismatch.
	CodeArity Code = "ARITY"

	// CodeIncompatibleSource indicates a sentinel or enum source attached to
	// a slot whose type cannot receive it.
	CodeIncompatibleSource Code = "INCOMPATIBLE_SOURCE"

	// CodeUnknownEnumMember indicates a name that is not a member of the
	// referenced enum type (or an unregistered enum type).
	CodeUnknownEnumMember Code = "UNKNOWN_ENUM_MEMBER"

	// CodeCoercion indicates a raw value that cannot be converted to the
	// slot's declared type.
	CodeCoercion Code = "COERCION"

	// CodeResource indicates a file or generator that could not be opened
	// or failed while producing tuples.
	CodeResource Code = "RESOURCE"
)

// Error is a coded argument error with enough context to locate the
// offending declaration, slot and value.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Test is the declaration name, if known.
	Test string

	// Position is the zero-based slot or tuple index, -1 when not applicable.
	Position int

	// Value is the textual form of the offending raw value, if any.
	Value string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause (optional).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)

	var ctx []string
	if e.Test != "" {
		ctx = append(ctx, "test="+e.Test)
	}
	if e.Position >= 0 {
		ctx = append(ctx, fmt.Sprintf("position=%d", e.Position))
	}
	if e.Value != "" {
		ctx = append(ctx, fmt.Sprintf("value=%q", e.Value))
	}
	if len(ctx) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(ctx, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithTest returns a copy of e attributed to the named declaration.
func (e *Error) WithTest(test string) *Error {
	c := *e
	c.Test = test
	return &c
}

// Arity creates an ARITY error.
func Arity(position, want, got int) *Error {
	return &Error{
		Code:     CodeArity,
		Position: position,
		Message:  fmt.Sprintf("expected %d argument(s), got %d", want, got),
	}
}

// Arityf creates an ARITY error with a custom message.
func Arityf(format string, args ...any) *Error {
	return &Error{Code: CodeArity, Position: -1, Message: fmt.Sprintf(format, args...)}
}

// IncompatibleSource creates an INCOMPATIBLE_SOURCE error.
func IncompatibleSource(source, slotType string) *Error {
	return &Error{
		Code:     CodeIncompatibleSource,
		Position: 0,
		Message:  fmt.Sprintf("%s cannot supply a %s parameter", source, slotType),
	}
}

// UnknownEnumMember creates an UNKNOWN_ENUM_MEMBER error.
func UnknownEnumMember(enumType, name string) *Error {
	return &Error{
		Code:     CodeUnknownEnumMember,
		Position: -1,
		Value:    name,
		Message:  fmt.Sprintf("no member named %q in enum %s", name, enumType),
	}
}

// UnknownEnumType creates an UNKNOWN_ENUM_MEMBER error for an enum type that
// is not registered at all.
func UnknownEnumType(enumType string) *Error {
	return &Error{
		Code:     CodeUnknownEnumMember,
		Position: -1,
		Message:  fmt.Sprintf("enum type %q is not registered", enumType),
	}
}

// Coercion creates a COERCION error.
func Coercion(position int, value, target string, cause error) *Error {
	return &Error{
		Code:     CodeCoercion,
		Position: position,
		Value:    value,
		Message:  fmt.Sprintf("cannot convert to %s", target),
		Err:      cause,
	}
}

// Resource creates a RESOURCE error.
func Resource(message string, cause error) *Error {
	return &Error{Code: CodeResource, Position: -1, Message: message, Err: cause}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsArity reports whether err is an ARITY error.
func IsArity(err error) bool { return CodeOf(err) == CodeArity }

// IsIncompatibleSource reports whether err is an INCOMPATIBLE_SOURCE error.
func IsIncompatibleSource(err error) bool { return CodeOf(err) == CodeIncompatibleSource }

// IsUnknownEnumMember reports whether err is an UNKNOWN_ENUM_MEMBER error.
func IsUnknownEnumMember(err error) bool { return CodeOf(err) == CodeUnknownEnumMember }

// IsCoercion reports whether err is a COERCION error.
func IsCoercion(err error) bool { return CodeOf(err) == CodeCoercion }

// IsResource reports whether err is a RESOURCE error.
func IsResource(err error) bool { return CodeOf(err) == CodeResource }
