package runner

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/paramsrc/internal/coerce"
	"github.com/roach88/paramsrc/internal/enum"
	"github.com/roach88/paramsrc/internal/source"
)

// Args gives a test body positional access to its coerced arguments.
//
// The typed accessors panic when the argument at i does not hold the
// requested type; the runner records such a panic as execution_errored.
// Use IsNull or the pointer accessors for nullable slots.
type Args struct {
	slots  []coerce.Slot
	values []any
	raw    source.Tuple
}

// NewArgs builds Args directly. Bodies normally receive Args from the
// runner; this exists for calling bodies in isolation.
func NewArgs(slots []coerce.Slot, values []any, raw source.Tuple) Args {
	return Args{slots: slots, values: values, raw: raw}
}

// Len returns the number of arguments.
func (a Args) Len() int { return len(a.values) }

// Slot returns the parameter slot at i.
func (a Args) Slot(i int) coerce.Slot { return a.slots[i] }

// Raw returns the pre-coercion value at i.
func (a Args) Raw(i int) any { return a.raw[i] }

// Value returns the coerced value at i.
func (a Args) Value(i int) any { return a.values[i] }

// IsNull reports whether the argument at i is null.
func (a Args) IsNull(i int) bool { return a.values[i] == nil }

func argAs[T any](a Args, i int, what string) T {
	v, ok := a.values[i].(T)
	if !ok {
		panic(fmt.Sprintf("argument %d (%s) is %T, not %s", i, a.slots[i].Label(), a.values[i], what))
	}
	return v
}

func (a Args) Int(i int) int64              { return argAs[int64](a, i, "int") }
func (a Args) Float(i int) float64          { return argAs[float64](a, i, "float") }
func (a Args) Bool(i int) bool              { return argAs[bool](a, i, "bool") }
func (a Args) String(i int) string          { return argAs[string](a, i, "string") }
func (a Args) Enum(i int) enum.Member       { return argAs[enum.Member](a, i, "enum member") }
func (a Args) Time(i int) time.Time         { return argAs[time.Time](a, i, "time") }
func (a Args) Duration(i int) time.Duration { return argAs[time.Duration](a, i, "duration") }
func (a Args) URL(i int) *url.URL           { return argAs[*url.URL](a, i, "url") }
func (a Args) UUID(i int) uuid.UUID         { return argAs[uuid.UUID](a, i, "uuid") }
func (a Args) Year(i int) coerce.Year       { return argAs[coerce.Year](a, i, "year") }
func (a Args) Path(i int) coerce.Path       { return argAs[coerce.Path](a, i, "path") }

// StringPtr returns the string argument at i, or nil when it is null.
func (a Args) StringPtr(i int) *string {
	if a.IsNull(i) {
		return nil
	}
	s := a.String(i)
	return &s
}
