// Package coerce converts raw argument values (strings read from literal or
// delimited sources, enum member names, or already-typed scalars) into the
// declared type of a test parameter slot.
//
// Conversions are looked up in a dispatch table keyed by Kind. The implicit
// table is closed: every Kind has exactly one built-in conversion, listed
// below. Anything beyond it needs an explicit converter registered with
// Engine.Register and selected by Slot.Converter; explicit converters win
// over implicit ones.
//
//	int       numeric string (base 10), Go integers, integral floats
//	float     numeric string, Go integers and floats
//	string    string, or an integer/float/bool/enum member formatted as text
//	bool      "true" or "false" (case-insensitive), bool
//	enum      exact member name, or an enum.Member of the same type
//	date      2006-01-02
//	time      15:04:05, 15:04:05.999999999 or 15:04
//	datetime  RFC 3339, or 2006-01-02T15:04:05[.fraction] without zone
//	year      integer year, as string or Go integer
//	duration  time.ParseDuration syntax
//	path      non-empty string, cleaned
//	url       absolute URL (scheme required)
//	uuid      canonical UUID text
//
// A nil raw value converts to nil for nullable kinds and fails otherwise.
package coerce

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/paramsrc/internal/enum"
	"github.com/roach88/paramsrc/internal/paramerr"
)

// Year is a calendar year produced by KindYear slots.
type Year int

// Path is a cleaned filesystem path produced by KindPath slots.
type Path string

// Func converts a raw value for a slot.
type Func func(raw any, slot Slot) (any, error)

// Engine performs coercion. The zero value is not usable; use New.
type Engine struct {
	enums    *enum.Registry
	implicit map[Kind]Func

	mu       sync.RWMutex
	explicit map[string]Func
}

// New creates an engine whose enum conversions resolve against enums.
func New(enums *enum.Registry) *Engine {
	if enums == nil {
		enums = enum.NewRegistry()
	}
	e := &Engine{
		enums:    enums,
		explicit: make(map[string]Func),
	}
	e.implicit = map[Kind]Func{
		KindInt:      toInt,
		KindFloat:    toFloat,
		KindString:   toString,
		KindBool:     toBool,
		KindEnum:     e.toEnum,
		KindDate:     toDate,
		KindTime:     toTime,
		KindDateTime: toDateTime,
		KindYear:     toYear,
		KindDuration: toDuration,
		KindPath:     toPath,
		KindURL:      toURL,
		KindUUID:     toUUID,
	}
	return e
}

// Enums returns the enum registry used for enum conversions.
func (e *Engine) Enums() *enum.Registry {
	return e.enums
}

// Register adds an explicit converter under name, replacing any previous one.
func (e *Engine) Register(name string, fn Func) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.explicit[name] = fn
}

// HasConverter reports whether an explicit converter is registered.
func (e *Engine) HasConverter(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.explicit[name]
	return ok
}

// Coerce converts raw into slot's declared type. Failures are
// *paramerr.Error values with code COERCION or UNKNOWN_ENUM_MEMBER.
func (e *Engine) Coerce(slot Slot, raw any) (any, error) {
	if slot.Converter != "" {
		e.mu.RLock()
		fn, ok := e.explicit[slot.Converter]
		e.mu.RUnlock()
		if !ok {
			return nil, paramerr.Coercion(slot.Position, Text(raw), slot.TypeName(),
				fmt.Errorf("no converter registered as %q", slot.Converter))
		}
		v, err := fn(raw, slot)
		if err != nil {
			return nil, wrap(slot, raw, err)
		}
		return v, nil
	}

	if raw == nil {
		if slot.Kind.Nullable() {
			return nil, nil
		}
		return nil, paramerr.Coercion(slot.Position, "null", slot.TypeName(),
			errors.New("parameter type is not nullable"))
	}

	fn, ok := e.implicit[slot.Kind]
	if !ok {
		return nil, paramerr.Coercion(slot.Position, Text(raw), slot.TypeName(),
			fmt.Errorf("no implicit conversion for type %q", slot.Kind))
	}
	v, err := fn(raw, slot)
	if err != nil {
		return nil, wrap(slot, raw, err)
	}
	return v, nil
}

// CoerceAll converts a tuple slot by slot. The tuple length must match.
func (e *Engine) CoerceAll(slots []Slot, raw []any) ([]any, error) {
	if len(raw) != len(slots) {
		return nil, paramerr.Arity(-1, len(slots), len(raw))
	}
	out := make([]any, len(slots))
	for i, s := range slots {
		v, err := e.Coerce(s, raw[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// wrap attaches slot context to a conversion failure. Coded errors keep
// their code.
func wrap(slot Slot, raw any, err error) error {
	var pe *paramerr.Error
	if errors.As(err, &pe) {
		c := *pe
		c.Position = slot.Position
		if c.Value == "" {
			c.Value = Text(raw)
		}
		return &c
	}
	return paramerr.Coercion(slot.Position, Text(raw), slot.TypeName(), err)
}

// Text renders a raw value the way it appears in display names and error
// messages: nil as "null", strings verbatim.
func Text(raw any) string {
	switch v := raw.(type) {
	case nil:
		return "null"
	case string:
		return v
	case enum.Member:
		return v.Name
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case *big.Int:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func unsupported(raw any) error {
	return fmt.Errorf("unsupported source value of type %T", raw)
}

func toInt(raw any, _ Slot) (any, error) {
	switch v := raw.(type) {
	case string:
		return strconv.ParseInt(v, 10, 64)
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%v is not an integer", v)
		}
		if v < math.MinInt64 || v >= math.MaxInt64 {
			return nil, strconv.ErrRange
		}
		return int64(v), nil
	case *big.Int:
		if !v.IsInt64() {
			return nil, strconv.ErrRange
		}
		return v.Int64(), nil
	default:
		return nil, unsupported(raw)
	}
}

func toFloat(raw any, _ Slot) (any, error) {
	switch v := raw.(type) {
	case string:
		return strconv.ParseFloat(v, 64)
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case *big.Int:
		f, _ := new(big.Float).SetInt(v).Float64()
		return f, nil
	default:
		return nil, unsupported(raw)
	}
}

func toBool(raw any, _ Slot) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch {
		case strings.EqualFold(v, "true"):
			return true, nil
		case strings.EqualFold(v, "false"):
			return false, nil
		}
		return nil, errors.New(`want "true" or "false"`)
	default:
		return nil, unsupported(raw)
	}
}

func toString(raw any, _ Slot) (any, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case int, int64, int32, float64, *big.Int, enum.Member:
		return Text(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return nil, unsupported(raw)
	}
}

func (e *Engine) toEnum(raw any, slot Slot) (any, error) {
	typ, err := e.enums.Get(slot.Enum)
	if err != nil {
		return nil, err
	}
	switch v := raw.(type) {
	case string:
		return typ.Lookup(v)
	case enum.Member:
		if v.Type != typ.Name() {
			return nil, fmt.Errorf("member %s belongs to enum %s", v.Name, v.Type)
		}
		return v, nil
	default:
		return nil, unsupported(raw)
	}
}

func parseLayouts(s string, layouts ...string) (time.Time, error) {
	var firstErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func toDate(raw any, _ Slot) (any, error) {
	switch v := raw.(type) {
	case string:
		return time.Parse(time.DateOnly, v)
	case time.Time:
		return v, nil
	default:
		return nil, unsupported(raw)
	}
}

func toTime(raw any, _ Slot) (any, error) {
	switch v := raw.(type) {
	case string:
		return parseLayouts(v, time.TimeOnly, "15:04:05.999999999", "15:04")
	case time.Time:
		return v, nil
	default:
		return nil, unsupported(raw)
	}
}

func toDateTime(raw any, _ Slot) (any, error) {
	switch v := raw.(type) {
	case string:
		return parseLayouts(v, time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05")
	case time.Time:
		return v, nil
	default:
		return nil, unsupported(raw)
	}
}

func toYear(raw any, slot Slot) (any, error) {
	switch v := raw.(type) {
	case Year:
		return v, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		return Year(n), nil
	default:
		n, err := toInt(raw, slot)
		if err != nil {
			return nil, err
		}
		return Year(n.(int64)), nil
	}
}

func toDuration(raw any, _ Slot) (any, error) {
	switch v := raw.(type) {
	case string:
		return time.ParseDuration(v)
	case time.Duration:
		return v, nil
	default:
		return nil, unsupported(raw)
	}
}

func toPath(raw any, _ Slot) (any, error) {
	s, ok := raw.(string)
	if !ok {
		if p, ok := raw.(Path); ok {
			return p, nil
		}
		return nil, unsupported(raw)
	}
	if s == "" {
		return nil, errors.New("empty path")
	}
	return Path(filepath.Clean(s)), nil
}

func toURL(raw any, _ Slot) (any, error) {
	switch v := raw.(type) {
	case string:
		u, err := url.Parse(v)
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" {
			return nil, errors.New("not an absolute URL")
		}
		return u, nil
	case *url.URL:
		return v, nil
	default:
		return nil, unsupported(raw)
	}
}

func toUUID(raw any, _ Slot) (any, error) {
	switch v := raw.(type) {
	case string:
		return uuid.Parse(v)
	case uuid.UUID:
		return v, nil
	default:
		return nil, unsupported(raw)
	}
}
