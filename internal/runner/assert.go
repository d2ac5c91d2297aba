package runner

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/paramsrc/internal/expand"
)

// AssertionError is returned by a test body when an expectation does not
// hold. It marks the invocation assertion_failed rather than
// execution_errored.
type AssertionError struct {
	Expected string
	Actual   string
	Message  string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	buf.WriteString("assertion failed")
	if e.Message != "" {
		fmt.Fprintf(&buf, ": %s", e.Message)
	}
	if e.Expected != "" || e.Actual != "" {
		fmt.Fprintf(&buf, " (expected: %s, actual: %s)", e.Expected, e.Actual)
	}
	return buf.String()
}

// IsAssertionError reports whether err is or wraps an *AssertionError.
func IsAssertionError(err error) bool {
	var ae *AssertionError
	return errors.As(err, &ae)
}

// Failf returns an assertion failure with a formatted message.
func Failf(format string, args ...any) error {
	return &AssertionError{Message: fmt.Sprintf(format, args...)}
}

// ExpectEqual returns nil when expected and actual are deeply equal, and an
// *AssertionError describing both otherwise.
func ExpectEqual(expected, actual any) error {
	if reflect.DeepEqual(expected, actual) {
		return nil
	}
	return &AssertionError{
		Message:  "values differ",
		Expected: describe(expected),
		Actual:   describe(actual),
	}
}

// ExpectTrue returns nil when cond holds and an assertion failure with msg
// otherwise.
func ExpectTrue(cond bool, msg string) error {
	if cond {
		return nil
	}
	return &AssertionError{Message: msg, Expected: "true", Actual: "false"}
}

func describe(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// PanicError records a panic raised by a test body or a generator.
type PanicError = expand.PanicError
