package validators

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"sync"

	"github.com/roach88/paramsrc/internal/runner"
	"github.com/roach88/paramsrc/internal/source"
)

// Bodies is a name-keyed registry of test bodies, used by suite files to
// refer to Go code. It is safe for concurrent use.
type Bodies struct {
	mu     sync.RWMutex
	bodies map[string]runner.Body
}

// NewBodies creates an empty registry.
func NewBodies() *Bodies {
	return &Bodies{bodies: make(map[string]runner.Body)}
}

// Register adds a body, replacing any body with the same name.
func (b *Bodies) Register(name string, body runner.Body) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bodies[name] = body
}

// Get returns the named body.
func (b *Bodies) Get(name string) (runner.Body, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	body, ok := b.bodies[name]
	if !ok {
		return nil, fmt.Errorf("no test body registered as %q", name)
	}
	return body, nil
}

// Names returns the registered names, sorted.
func (b *Bodies) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.bodies))
	for n := range b.bodies {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// DefaultBodies returns a registry holding every built-in body.
func DefaultBodies() *Bodies {
	b := NewBodies()
	b.Register("is_odd", IsOddBody)
	b.Register("is_null", IsNullBody)
	b.Register("is_empty", IsEmptyBody)
	b.Register("is_blank", IsBlankBody)
	b.Register("month_in_range", MonthInRangeBody)
	b.Register("month_has_31_days", monthHasDays(31))
	b.Register("month_has_30_days", monthHasDays(30))
	b.Register("last_day_equals", LastDayEqualsBody)
	b.Register("upper_equals", UpperEqualsBody)
	return b
}

// IsOddBody expects its single int argument to be odd.
func IsOddBody(_ context.Context, args runner.Args) error {
	n := args.Int(0)
	return runner.ExpectTrue(IsOdd(n), fmt.Sprintf("%d is not odd", n))
}

// IsNullBody expects its single string argument to be null.
func IsNullBody(_ context.Context, args runner.Args) error {
	return runner.ExpectTrue(IsNull(args.StringPtr(0)), "input is not null")
}

// IsEmptyBody expects its single string argument to be empty.
func IsEmptyBody(_ context.Context, args runner.Args) error {
	return runner.ExpectTrue(IsEmpty(args.StringPtr(0)), "input is not empty")
}

// IsBlankBody expects its single string argument to be null or blank.
func IsBlankBody(_ context.Context, args runner.Args) error {
	return runner.ExpectTrue(IsBlank(args.StringPtr(0)), "input is not blank")
}

// MonthInRangeBody expects its Month argument to lie in 1..12.
func MonthInRangeBody(_ context.Context, args runner.Args) error {
	m := args.Enum(0)
	return runner.ExpectTrue(IsCollect(m), fmt.Sprintf("%s is out of range", m.Name))
}

func monthHasDays(days int) runner.Body {
	return func(_ context.Context, args runner.Args) error {
		return runner.ExpectEqual(days, LastDayOf(args.Enum(0)))
	}
}

// LastDayEqualsBody expects LastDayOf(month) to equal the int argument.
func LastDayEqualsBody(_ context.Context, args runner.Args) error {
	return runner.ExpectEqual(args.Int(1), int64(LastDayOf(args.Enum(0))))
}

// UpperEqualsBody expects ToUpper(input) to equal the expected argument.
func UpperEqualsBody(_ context.Context, args runner.Args) error {
	return runner.ExpectEqual(args.String(1), ToUpper(args.String(0)))
}

// ProviderStringSource yields (input, upper-cased) string pairs.
func ProviderStringSource() iter.Seq2[source.Tuple, error] {
	return func(yield func(source.Tuple, error) bool) {
		pairs := [][2]string{
			{"hello world", "HELLO WORLD"},
			{"JavaScript", "JAVASCRIPT"},
			{"tEsT", "TEST"},
		}
		for _, p := range pairs {
			if !yield(source.Tuple{p[0], p[1]}, nil) {
				return
			}
		}
	}
}

// DefaultGenerators returns a registry holding every built-in generator.
func DefaultGenerators() *source.Generators {
	g := source.NewGenerators()
	g.Register("providerStringSource", ProviderStringSource)
	return g
}
