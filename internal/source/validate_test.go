package source

import (
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/paramsrc/internal/coerce"
	"github.com/roach88/paramsrc/internal/enum"
	"github.com/roach88/paramsrc/internal/paramerr"
)

func testEnv(t *testing.T) *Env {
	t.Helper()
	season := enum.MustType("Season", enum.P("WINTER", nil), enum.P("SPRING", nil), enum.P("SUMMER", nil), enum.P("AUTUMN", nil))
	gens := NewGenerators()
	gens.Register("pairs", func() iter.Seq2[Tuple, error] {
		return func(yield func(Tuple, error) bool) {
			yield(Tuple{"a", "A"}, nil)
		}
	})
	return NewEnv(enum.NewRegistry(season), gens)
}

func decl(src Source, kinds ...coerce.Kind) Declaration {
	return Declaration{Name: "t", Params: coerce.Slots(kinds...), Source: src}
}

func TestValidate(t *testing.T) {
	env := testEnv(t)
	seasonSlot := []coerce.Slot{{Position: 0, Kind: coerce.KindEnum, Enum: "Season"}}

	tests := []struct {
		name     string
		decl     Declaration
		wantCode paramerr.Code
		wantErr  bool
	}{
		{name: "literals single", decl: decl(Literals{Values: []any{1, 3, -1}}, coerce.KindInt)},
		{name: "literals tuples", decl: decl(Literals{Values: []any{[]any{"a", "A"}, Tuple{"b", "B"}}}, coerce.KindString, coerce.KindString)},
		{name: "literals single wrapped in one-tuple", decl: decl(Literals{Values: []any{[]any{1}}}, coerce.KindInt)},
		{name: "literals empty", decl: decl(Literals{}, coerce.KindInt), wantCode: paramerr.CodeArity},
		{name: "literals tuple too short", decl: decl(Literals{Values: []any{[]any{"a"}}}, coerce.KindString, coerce.KindString), wantCode: paramerr.CodeArity},
		{name: "literals scalar for two params", decl: decl(Literals{Values: []any{"a"}}, coerce.KindString, coerce.KindString), wantCode: paramerr.CodeArity},
		{name: "literals tuple for one param", decl: decl(Literals{Values: []any{[]any{1, 2}}}, coerce.KindInt), wantCode: paramerr.CodeArity},

		{name: "null on string", decl: decl(NullSource{}, coerce.KindString)},
		{name: "null on int", decl: decl(NullSource{}, coerce.KindInt), wantCode: paramerr.CodeIncompatibleSource},
		{name: "empty on string", decl: decl(EmptySource{}, coerce.KindString)},
		{name: "empty on enum", decl: Declaration{Name: "t", Params: seasonSlot, Source: EmptySource{}}, wantCode: paramerr.CodeIncompatibleSource},
		{name: "null on enum", decl: Declaration{Name: "t", Params: seasonSlot, Source: NullSource{}}},
		{name: "null and empty on string", decl: decl(NullAndEmptySource{}, coerce.KindString)},
		{name: "null and empty on bool", decl: decl(NullAndEmptySource{}, coerce.KindBool), wantCode: paramerr.CodeIncompatibleSource},
		{name: "sentinel with two params", decl: decl(NullSource{}, coerce.KindString, coerce.KindString), wantCode: paramerr.CodeArity},

		{name: "enum all", decl: Declaration{Name: "t", Params: seasonSlot, Source: EnumSource{Type: "Season"}}},
		{name: "enum exclude", decl: Declaration{Name: "t", Params: seasonSlot, Source: EnumSource{Type: "Season", Mode: enum.Exclude, Names: []string{"WINTER"}}}},
		{name: "enum unknown name", decl: Declaration{Name: "t", Params: seasonSlot, Source: EnumSource{Type: "Season", Names: []string{"FALL"}}}, wantCode: paramerr.CodeUnknownEnumMember},
		{name: "enum unknown type", decl: Declaration{Name: "t", Params: seasonSlot, Source: EnumSource{Type: "Weather"}}, wantCode: paramerr.CodeUnknownEnumMember},
		{name: "enum into string slot", decl: decl(EnumSource{Type: "Season"}, coerce.KindString), wantCode: paramerr.CodeIncompatibleSource},

		{name: "rows", decl: decl(DelimitedRows{Rows: []string{"test:TEST", "tEsT:TEST"}, Delimiter: ':'}, coerce.KindString, coerce.KindString)},
		{name: "rows wrong arity", decl: decl(DelimitedRows{Rows: []string{"a,b,c"}}, coerce.KindString, coerce.KindString), wantCode: paramerr.CodeArity},
		{name: "rows header skipped before arity check", decl: decl(DelimitedRows{Rows: []string{"input,expected,extra", "a,A"}, SkipLines: 1}, coerce.KindString, coerce.KindString)},
		{name: "rows all skipped", decl: decl(DelimitedRows{Rows: []string{"h"}, SkipLines: 1}, coerce.KindString)},
		{name: "rows and file", decl: decl(DelimitedRows{Rows: []string{"a"}, File: "x.csv"}, coerce.KindString), wantErr: true},
		{name: "negative skip", decl: decl(DelimitedRows{File: "x.csv", SkipLines: -1}, coerce.KindString), wantErr: true},
		{name: "file not checked eagerly", decl: decl(DelimitedRows{File: "missing.csv"}, coerce.KindString)},

		{name: "method", decl: decl(MethodSource{Name: "pairs"}, coerce.KindString, coerce.KindString)},
		{name: "method unknown", decl: decl(MethodSource{Name: "nope"}, coerce.KindString), wantCode: paramerr.CodeResource},

		{name: "no params", decl: Declaration{Name: "t", Source: Literals{Values: []any{1}}}, wantCode: paramerr.CodeArity},
		{name: "bad position", decl: Declaration{Name: "t", Params: []coerce.Slot{{Position: 1, Kind: coerce.KindInt}}, Source: Literals{Values: []any{1}}}, wantCode: paramerr.CodeArity},
		{name: "unknown kind", decl: decl(Literals{Values: []any{1}}, coerce.Kind("char")), wantErr: true},
		{name: "missing converter", decl: Declaration{Name: "t", Params: []coerce.Slot{{Kind: coerce.KindString, Converter: "nope"}}, Source: Literals{Values: []any{"x"}}}, wantCode: paramerr.CodeCoercion},
		{name: "nil source", decl: Declaration{Name: "t", Params: coerce.Slots(coerce.KindInt)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.decl, env)
			if tt.wantCode == "" && !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, paramerr.CodeOf(err), "error: %v", err)
			}
		})
	}
}

func TestValidate_AttributesTest(t *testing.T) {
	env := testEnv(t)
	err := Validate(Declaration{Name: "testIsNull", Params: coerce.Slots(coerce.KindInt), Source: NullSource{}}, env)
	require.Error(t, err)

	var pe *paramerr.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "testIsNull", pe.Test)
	assert.Contains(t, err.Error(), "NullSource cannot supply a int parameter")
}

func TestValidate_ConverterRelaxesSentinelCheck(t *testing.T) {
	env := testEnv(t)
	env.Coercer.Register("zero-if-null", func(raw any, _ coerce.Slot) (any, error) {
		if raw == nil {
			return int64(0), nil
		}
		return raw, nil
	})
	d := Declaration{
		Name:   "t",
		Params: []coerce.Slot{{Kind: coerce.KindInt, Converter: "zero-if-null"}},
		Source: NullSource{},
	}
	require.NoError(t, Validate(d, env))
}

func TestSplitRow(t *testing.T) {
	tests := []struct {
		name  string
		row   string
		sep   rune
		nulls []string
		want  Tuple
	}{
		{"comma", "test,TEST", ',', nil, Tuple{"test", "TEST"}},
		{"colon", "tEsT:TEST", ':', nil, Tuple{"tEsT", "TEST"}},
		{"trims whitespace", "Javascript, JAVASCRIPT ", ',', nil, Tuple{"Javascript", "JAVASCRIPT"}},
		{"empty field stays empty", "a,", ',', nil, Tuple{"a", ""}},
		{"null marker", "a,N/A", ',', []string{"N/A"}, Tuple{"a", nil}},
		{"no quoting", `"a,b",c`, ',', nil, Tuple{`"a`, `b"`, "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitRow(tt.row, tt.sep, tt.nulls))
		})
	}
}

func TestLiteralTuple(t *testing.T) {
	assert.Equal(t, Tuple{5}, LiteralTuple(5))
	assert.Equal(t, Tuple{nil}, LiteralTuple(nil))
	assert.Equal(t, Tuple{"a", "A"}, LiteralTuple([]any{"a", "A"}))

	in := Tuple{"x"}
	out := LiteralTuple(in)
	out[0] = "y"
	assert.Equal(t, "x", in[0], "LiteralTuple must copy")
}

func TestDelimitedRows_Kind(t *testing.T) {
	assert.Equal(t, "CsvSource", DelimitedRows{Rows: []string{"a"}}.Kind())
	assert.Equal(t, "CsvFileSource", DelimitedRows{File: "a.csv"}.Kind())
	assert.Equal(t, ',', DelimitedRows{}.Sep())
	assert.Equal(t, ':', DelimitedRows{Delimiter: ':'}.Sep())
}
