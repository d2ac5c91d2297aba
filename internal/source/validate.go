package source

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/paramsrc/internal/coerce"
	"github.com/roach88/paramsrc/internal/paramerr"
)

// Validate checks a declaration against env before any invocation runs.
// It returns a *paramerr.Error attributed to the declaration on failure.
//
// File-backed rows and generator output are not inspected here; their
// per-row arity is checked as tuples are produced.
func Validate(decl Declaration, env *Env) error {
	if err := validate(decl, env); err != nil {
		if pe, ok := err.(*paramerr.Error); ok {
			return pe.WithTest(decl.Name)
		}
		return fmt.Errorf("declaration %s: %w", decl.Name, err)
	}
	return nil
}

func validate(decl Declaration, env *Env) error {
	if decl.Name == "" {
		return fmt.Errorf("declaration name is required")
	}
	if decl.Source == nil {
		return fmt.Errorf("source is required")
	}
	if len(decl.Params) == 0 {
		return paramerr.Arityf("a parameterized test needs at least one parameter")
	}
	if err := validateSlots(decl.Params, env); err != nil {
		return err
	}

	arity := decl.Arity()
	switch src := decl.Source.(type) {
	case Literals:
		return validateLiterals(src, arity)
	case NullSource:
		return validateSentinel(src, decl.Params, true, false)
	case EmptySource:
		return validateSentinel(src, decl.Params, false, true)
	case NullAndEmptySource:
		return validateSentinel(src, decl.Params, true, true)
	case EnumSource:
		return validateEnum(src, decl.Params, env)
	case DelimitedRows:
		return validateRows(src, arity)
	case MethodSource:
		if src.Name == "" {
			return paramerr.Resource("method source needs a generator name", nil)
		}
		if _, ok := env.Generators.Get(src.Name); !ok {
			return paramerr.Resource(fmt.Sprintf("no generator registered as %q", src.Name), nil)
		}
		return nil
	default:
		return fmt.Errorf("unsupported source %T", src)
	}
}

func validateSlots(slots []coerce.Slot, env *Env) error {
	for i, s := range slots {
		if s.Position != i {
			return paramerr.Arityf("parameter %s declared at position %d, expected %d", s.Label(), s.Position, i)
		}
		if _, err := coerce.ParseKind(string(s.Kind)); err != nil {
			return fmt.Errorf("parameter %s: %w", s.Label(), err)
		}
		if s.Kind == coerce.KindEnum {
			if s.Enum == "" {
				return fmt.Errorf("parameter %s: enum type is required", s.Label())
			}
			if _, err := env.Enums().Get(s.Enum); err != nil {
				return err
			}
		}
		if s.Converter != "" && !env.Coercer.HasConverter(s.Converter) {
			return paramerr.Coercion(i, "", s.TypeName(),
				fmt.Errorf("no converter registered as %q", s.Converter))
		}
	}
	return nil
}

func validateLiterals(src Literals, arity int) error {
	if len(src.Values) == 0 {
		return paramerr.Arityf("literal source has no values")
	}
	for i, v := range src.Values {
		n, isTuple := tupleLen(v)
		switch {
		case arity == 1 && isTuple && n != 1:
			return paramerr.Arity(i, 1, n)
		case arity > 1 && !isTuple:
			return paramerr.Arity(i, arity, 1)
		case arity > 1 && n != arity:
			return paramerr.Arity(i, arity, n)
		}
	}
	return nil
}

// tupleLen reports whether v is a tuple value and its length.
func tupleLen(v any) (int, bool) {
	switch t := v.(type) {
	case Tuple:
		return len(t), true
	case []any:
		return len(t), true
	default:
		return 0, false
	}
}

// LiteralTuple turns one literal value into a tuple.
func LiteralTuple(v any) Tuple {
	switch t := v.(type) {
	case Tuple:
		return slices.Clone(t)
	case []any:
		return Tuple(slices.Clone(t))
	default:
		return Tuple{v}
	}
}

func validateSentinel(src Source, params []coerce.Slot, null, empty bool) error {
	if len(params) != 1 {
		return paramerr.Arityf("%s supplies a single argument but the test declares %d parameters", src.Kind(), len(params))
	}
	slot := params[0]
	if slot.Converter != "" {
		// An explicit converter decides what null and empty mean.
		return nil
	}
	if null && !slot.Kind.Nullable() {
		return paramerr.IncompatibleSource(src.Kind(), slot.TypeName())
	}
	if empty && !slot.Kind.Emptiable() {
		return paramerr.IncompatibleSource(src.Kind(), slot.TypeName())
	}
	return nil
}

func validateEnum(src EnumSource, params []coerce.Slot, env *Env) error {
	typ, err := env.Enums().Get(src.Type)
	if err != nil {
		return err
	}
	for _, n := range src.Names {
		if !typ.Has(n) {
			return paramerr.UnknownEnumMember(src.Type, n)
		}
	}
	if len(params) != 1 {
		return paramerr.Arityf("%s supplies a single argument but the test declares %d parameters", src.Kind(), len(params))
	}
	slot := params[0]
	if slot.Converter == "" && (slot.Kind != coerce.KindEnum || slot.Enum != src.Type) {
		return paramerr.IncompatibleSource(src.Kind()+"("+src.Type+")", slot.TypeName())
	}
	return nil
}

func validateRows(src DelimitedRows, arity int) error {
	hasRows, hasFile := len(src.Rows) > 0, src.File != ""
	switch {
	case hasRows && hasFile:
		return fmt.Errorf("delimited source takes inline rows or a file, not both")
	case !hasRows && !hasFile:
		return paramerr.Arityf("delimited source has no rows")
	}
	if src.SkipLines < 0 {
		return fmt.Errorf("skip lines must be >= 0, got %d", src.SkipLines)
	}
	if !hasRows {
		return nil
	}
	for i := src.SkipLines; i < len(src.Rows); i++ {
		if n := len(SplitRow(src.Rows[i], src.Sep(), nil)); n != arity {
			return paramerr.Arity(i, arity, n)
		}
	}
	return nil
}

// SplitRow splits one delimited row into trimmed fields. Fields equal to
// one of nullValues become nil.
func SplitRow(row string, sep rune, nullValues []string) Tuple {
	parts := strings.Split(row, string(sep))
	out := make(Tuple, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if slices.Contains(nullValues, p) {
			out[i] = nil
			continue
		}
		out[i] = p
	}
	return out
}
