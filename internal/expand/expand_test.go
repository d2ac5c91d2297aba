package expand

import (
	"context"
	"errors"
	"io"
	"iter"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/paramsrc/internal/coerce"
	"github.com/roach88/paramsrc/internal/enum"
	"github.com/roach88/paramsrc/internal/paramerr"
	"github.com/roach88/paramsrc/internal/source"
)

var season = enum.MustType("Season",
	enum.P("WINTER", nil), enum.P("SPRING", nil), enum.P("SUMMER", nil), enum.P("AUTUMN", nil))

func testEnv(gens *source.Generators) *source.Env {
	return source.NewEnv(enum.NewRegistry(season), gens).WithBaseDir("testdata")
}

func open(t *testing.T, env *source.Env, src source.Source, kinds ...coerce.Kind) Iterator {
	t.Helper()
	d := source.Declaration{Name: "t", Params: coerce.Slots(kinds...), Source: src}
	it, err := Open(context.Background(), d, env)
	require.NoError(t, err)
	return it
}

func seasonDecl(src source.Source) source.Declaration {
	return source.Declaration{
		Name:   "t",
		Params: []coerce.Slot{{Kind: coerce.KindEnum, Enum: "Season"}},
		Source: src,
	}
}

func names(tuples []source.Tuple) []string {
	out := make([]string, len(tuples))
	for i, tp := range tuples {
		out[i] = tp[0].(enum.Member).Name
	}
	return out
}

func TestOpen_Literals(t *testing.T) {
	env := testEnv(nil)
	got, err := Collect(context.Background(), open(t, env, source.Literals{Values: []any{1, 3, 5, -3, 15}}, coerce.KindInt))
	require.NoError(t, err)
	assert.Equal(t, []source.Tuple{{1}, {3}, {5}, {-3}, {15}}, got)

	got, err = Collect(context.Background(), open(t, env,
		source.Literals{Values: []any{[]any{"a", "A"}, []any{"b", "B"}}}, coerce.KindString, coerce.KindString))
	require.NoError(t, err)
	assert.Equal(t, []source.Tuple{{"a", "A"}, {"b", "B"}}, got)
}

func TestOpen_Sentinels(t *testing.T) {
	env := testEnv(nil)
	tests := []struct {
		src  source.Source
		want []source.Tuple
	}{
		{source.NullSource{}, []source.Tuple{{nil}}},
		{source.EmptySource{}, []source.Tuple{{""}}},
		{source.NullAndEmptySource{}, []source.Tuple{{nil}, {""}}},
	}
	for _, tt := range tests {
		t.Run(tt.src.Kind(), func(t *testing.T) {
			got, err := Collect(context.Background(), open(t, env, tt.src, coerce.KindString))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpen_Enum(t *testing.T) {
	env := testEnv(nil)
	ctx := context.Background()
	tests := []struct {
		name string
		src  source.EnumSource
		want []string
	}{
		{"all", source.EnumSource{Type: "Season"}, []string{"WINTER", "SPRING", "SUMMER", "AUTUMN"}},
		{"include keeps declaration order", source.EnumSource{Type: "Season", Names: []string{"SUMMER", "WINTER"}}, []string{"WINTER", "SUMMER"}},
		{"exclude", source.EnumSource{Type: "Season", Mode: enum.Exclude, Names: []string{"SPRING"}}, []string{"WINTER", "SUMMER", "AUTUMN"}},
		{"exclude everything", source.EnumSource{Type: "Season", Mode: enum.Exclude, Names: season.Names()}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := Open(ctx, seasonDecl(tt.src), env)
			require.NoError(t, err)
			got, err := Collect(ctx, it)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestOpen_EnumUnknownName(t *testing.T) {
	_, err := Open(context.Background(), seasonDecl(source.EnumSource{Type: "Season", Names: []string{"FALL"}}), testEnv(nil))
	require.Error(t, err)
	assert.True(t, paramerr.IsUnknownEnumMember(err))
}

func TestOpen_InlineRows(t *testing.T) {
	env := testEnv(nil)
	src := source.DelimitedRows{
		Rows:      []string{"in:out", "test:TEST", " tEsT : TEST ", "x:"},
		Delimiter: ':',
		SkipLines: 1,
	}
	got, err := Collect(context.Background(), open(t, env, src, coerce.KindString, coerce.KindString))
	require.NoError(t, err)
	assert.Equal(t, []source.Tuple{{"test", "TEST"}, {"tEsT", "TEST"}, {"x", ""}}, got)
}

func TestOpen_InlineRowsNullValues(t *testing.T) {
	env := testEnv(nil)
	src := source.DelimitedRows{Rows: []string{"a,NIL"}, NullValues: []string{"NIL"}}
	got, err := Collect(context.Background(), open(t, env, src, coerce.KindString, coerce.KindString))
	require.NoError(t, err)
	assert.Equal(t, []source.Tuple{{"a", nil}}, got)
}

func TestOpen_FileSkipsHeadersAndBlankLines(t *testing.T) {
	env := testEnv(nil)
	it := open(t, env, source.DelimitedRows{File: "upper.csv", SkipLines: 2}, coerce.KindString, coerce.KindString)
	got, err := Collect(context.Background(), it)
	require.NoError(t, err)
	assert.Equal(t, []source.Tuple{{"Test", "TEST"}, {"tEst", "TEST"}, {"Java", "JAVA"}}, got)

	fi := it.(*fileIterator)
	assert.True(t, fi.done, "file must be released after exhaustion")
}

func TestOpen_FileReleasedOnEarlyClose(t *testing.T) {
	env := testEnv(nil)
	it := open(t, env, source.DelimitedRows{File: "upper.csv", SkipLines: 2}, coerce.KindString, coerce.KindString)

	first, err := it.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, source.Tuple{"Test", "TEST"}, first)

	require.NoError(t, it.Close())
	require.NoError(t, it.Close(), "Close must be idempotent")
	assert.True(t, it.(*fileIterator).done)

	_, err = it.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpen_FileFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"data/rows.csv": {Data: []byte("header\nx:X\ny:Y\n")},
	}
	env := source.NewEnv(nil, nil).WithFS(fsys).WithBaseDir("data")
	src := source.DelimitedRows{File: "rows.csv", Delimiter: ':', SkipLines: 1}
	got, err := Collect(context.Background(), open(t, env, src, coerce.KindString, coerce.KindString))
	require.NoError(t, err)
	assert.Equal(t, []source.Tuple{{"x", "X"}, {"y", "Y"}}, got)
}

func TestOpen_RowsAndFileAgree(t *testing.T) {
	fsys := fstest.MapFS{
		"rows.csv":    {Data: []byte("in,out\na,A\nb\nc,C\n")},
		"headers.csv": {Data: []byte("in,out\n# generated\n")},
	}
	env := source.NewEnv(nil, nil).WithFS(fsys)

	arityPositions := func(t *testing.T, src source.DelimitedRows) []int {
		it := open(t, env, src, coerce.KindString, coerce.KindString)
		defer it.Close()
		var got []int
		for {
			_, err := it.Next(context.Background())
			if errors.Is(err, io.EOF) {
				return got
			}
			if err == nil {
				continue
			}
			var pe *paramerr.Error
			require.ErrorAs(t, err, &pe)
			got = append(got, pe.Position)
		}
	}

	tests := []struct {
		name string
		src  source.DelimitedRows
	}{
		{"inline", source.DelimitedRows{Rows: []string{"in,out", "a,A", "b", "c,C"}, SkipLines: 1}},
		{"file", source.DelimitedRows{File: "rows.csv", SkipLines: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name+" arity position", func(t *testing.T) {
			assert.Equal(t, []int{2}, arityPositions(t, tt.src))
		})
	}

	headersOnly := []struct {
		name string
		src  source.DelimitedRows
	}{
		{"inline", source.DelimitedRows{Rows: []string{"in,out", "# generated"}, SkipLines: 2}},
		{"file", source.DelimitedRows{File: "headers.csv", SkipLines: 2}},
	}
	for _, tt := range headersOnly {
		t.Run(tt.name+" headers only", func(t *testing.T) {
			got, err := Collect(context.Background(), open(t, env, tt.src, coerce.KindString, coerce.KindString))
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestOpen_FileMissing(t *testing.T) {
	d := source.Declaration{Name: "t", Params: coerce.Slots(coerce.KindString), Source: source.DelimitedRows{File: "nope.csv"}}
	_, err := Open(context.Background(), d, testEnv(nil))
	require.Error(t, err)
	assert.True(t, paramerr.IsResource(err))
}

func TestOpen_FileRowArityFailsOnlyThatRow(t *testing.T) {
	env := testEnv(nil)
	it := open(t, env, source.DelimitedRows{File: "wide.csv"}, coerce.KindString, coerce.KindString)
	defer it.Close()

	_, err := it.Next(context.Background())
	require.Error(t, err)
	assert.True(t, paramerr.IsArity(err))

	var pe *paramerr.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 0, pe.Position)
	assert.Equal(t, "a,b,c", pe.Value)

	_, err = it.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpen_MethodIsLazy(t *testing.T) {
	gens := source.NewGenerators()
	produced := 0
	released := false
	gens.Register("naturals", func() iter.Seq2[source.Tuple, error] {
		return func(yield func(source.Tuple, error) bool) {
			defer func() { released = true }()
			for i := 1; ; i++ {
				produced++
				if !yield(source.Tuple{i}, nil) {
					return
				}
			}
		}
	})
	env := testEnv(gens)
	it := open(t, env, source.MethodSource{Name: "naturals"}, coerce.KindInt)

	ctx := context.Background()
	for want := 1; want <= 3; want++ {
		tp, err := it.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, source.Tuple{want}, tp)
	}
	assert.Equal(t, 3, produced, "generator must not run ahead of consumption")

	require.NoError(t, it.Close())
	assert.True(t, released, "generator must be stopped on Close")
}

func TestOpen_MethodErrorEndsSequence(t *testing.T) {
	gens := source.NewGenerators()
	boom := errors.New("boom")
	gens.Register("flaky", func() iter.Seq2[source.Tuple, error] {
		return func(yield func(source.Tuple, error) bool) {
			if !yield(source.Tuple{"a", "A"}, nil) {
				return
			}
			yield(nil, boom)
		}
	})
	it := open(t, testEnv(gens), source.MethodSource{Name: "flaky"}, coerce.KindString, coerce.KindString)
	ctx := context.Background()

	tp, err := it.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, source.Tuple{"a", "A"}, tp)

	_, err = it.Next(ctx)
	require.Error(t, err)
	assert.True(t, paramerr.IsResource(err))
	assert.ErrorIs(t, err, boom)

	_, err = it.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpen_MethodTupleArity(t *testing.T) {
	gens := source.NewGenerators()
	gens.Register("short", func() iter.Seq2[source.Tuple, error] {
		return func(yield func(source.Tuple, error) bool) {
			if !yield(source.Tuple{"only"}, nil) {
				return
			}
			yield(source.Tuple{"a", "A"}, nil)
		}
	})
	it := open(t, testEnv(gens), source.MethodSource{Name: "short"}, coerce.KindString, coerce.KindString)
	defer it.Close()
	ctx := context.Background()

	_, err := it.Next(ctx)
	assert.True(t, paramerr.IsArity(err))

	tp, err := it.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, source.Tuple{"a", "A"}, tp)
}

func TestOpen_MethodUnknown(t *testing.T) {
	d := source.Declaration{Name: "t", Params: coerce.Slots(coerce.KindInt), Source: source.MethodSource{Name: "nope"}}
	_, err := Open(context.Background(), d, testEnv(nil))
	assert.True(t, paramerr.IsResource(err))
}

func TestNext_HonoursCancellation(t *testing.T) {
	env := testEnv(nil)
	it := open(t, env, source.Literals{Values: []any{1, 2}}, coerce.KindInt)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := it.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = Open(ctx, source.Declaration{Name: "t", Params: coerce.Slots(coerce.KindInt), Source: source.NullSource{}}, env)
	assert.ErrorIs(t, err, context.Canceled)
}
