package validators

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/paramsrc/internal/coerce"
	"github.com/roach88/paramsrc/internal/enum"
	"github.com/roach88/paramsrc/internal/runner"
	"github.com/roach88/paramsrc/internal/source"
	"github.com/roach88/paramsrc/internal/testutil"
)

func strPtr(s string) *string { return &s }

func TestIsOdd(t *testing.T) {
	for _, n := range []int64{1, 3, -1, 15, 123} {
		assert.True(t, IsOdd(n), "%d", n)
	}
	for _, n := range []int64{0, 2, -4} {
		assert.False(t, IsOdd(n), "%d", n)
	}
}

func TestStringPredicates(t *testing.T) {
	tests := []struct {
		name               string
		in                 *string
		null, empty, blank bool
	}{
		{"nil", nil, true, false, true},
		{"empty", strPtr(""), false, true, true},
		{"spaces", strPtr("  \t"), false, false, true},
		{"text", strPtr("x"), false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.null, IsNull(tt.in))
			assert.Equal(t, tt.empty, IsEmpty(tt.in))
			assert.Equal(t, tt.blank, IsBlank(tt.in))
		})
	}
}

func TestToUpper(t *testing.T) {
	assert.Equal(t, "HELLO WORLD", ToUpper("hello world"))
	assert.Equal(t, "JAVASCRIPT", ToUpper("JavaScript"))
	assert.Equal(t, "STRASSE", ToUpper("straße"))
}

func TestMonth(t *testing.T) {
	names := Month.Names()
	require.Len(t, names, 12)
	assert.Equal(t, "JANUARY", names[0])
	assert.Equal(t, "DECEMBER", names[11])

	for _, m := range Month.Members() {
		assert.True(t, IsCollect(m), m.Name)
	}

	days := map[string]int{"JANUARY": 31, "FEBRUARY": 28, "APRIL": 30, "DECEMBER": 31}
	for name, want := range days {
		m, err := Month.Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, want, LastDayOf(m), name)
	}

	other := enum.MustType("Other", enum.P("X", 1))
	x, _ := other.Lookup("X")
	assert.False(t, IsCollect(x))
	assert.Equal(t, 0, LastDayOf(x))
}

func TestBodies(t *testing.T) {
	b := DefaultBodies()
	assert.Contains(t, b.Names(), "upper_equals")
	assert.Contains(t, b.Names(), "last_day_equals")

	_, err := b.Get("nope")
	assert.Error(t, err)

	body, err := b.Get("last_day_equals")
	require.NoError(t, err)
	feb, _ := Month.Lookup("FEBRUARY")
	slots := []coerce.Slot{{Kind: coerce.KindEnum, Enum: "Month"}, {Position: 1, Kind: coerce.KindInt}}

	ok := runner.NewArgs(slots, []any{feb, int64(28)}, source.Tuple{"FEBRUARY", "28"})
	assert.NoError(t, body(context.Background(), ok))

	bad := runner.NewArgs(slots, []any{feb, int64(29)}, source.Tuple{"FEBRUARY", "29"})
	err = body(context.Background(), bad)
	assert.True(t, runner.IsAssertionError(err))
}

func TestProviderStringSource_StopsEarly(t *testing.T) {
	var got []source.Tuple
	for tp, err := range ProviderStringSource() {
		require.NoError(t, err)
		got = append(got, tp)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []source.Tuple{{"hello world", "HELLO WORLD"}, {"JavaScript", "JAVASCRIPT"}}, got)
}

func runCatalog(t *testing.T) *runner.Report {
	t.Helper()
	r := runner.New(CatalogEnv(), runner.Config{
		Clock: testutil.NewDeterministicClock(),
		IDs:   testutil.NewFixedRunIDGenerator("demo-run"),
	})
	return r.RunAll(context.Background(), "demo", Catalog())
}

func TestCatalog_AllPass(t *testing.T) {
	report := runCatalog(t)
	require.True(t, report.Finalized())
	assert.Equal(t, "demo-run", report.RunID)

	want := map[string]int{
		"testIsOdd":                       5,
		"testIsNull":                      1,
		"testIsEmpty":                     1,
		"testIsBlank":                     2,
		"testMonthValueIsCollect":         12,
		"testHasThirtyOneDaysLong":        7,
		"testToUpperCase":                 3,
		"testUpperCaseWithCSVFileData":    3,
		"testToUpperCaseWithMethodSource": 3,
		"testAutoConverting":              4,
	}
	decls := report.Declarations()
	require.Len(t, decls, len(want))
	for _, d := range decls {
		assert.Equal(t, runner.StatusCompleted, d.Status, d.Name)
		assert.Equal(t, want[d.Name], d.Passed(), d.Name)
		assert.Zero(t, d.Failed(), d.Name)
	}
	assert.True(t, report.OK())
}

func TestCatalog_ThirtyOneDayMonthsExcludeShortOnes(t *testing.T) {
	report := runCatalog(t)
	d, ok := report.Declaration("testHasThirtyOneDaysLong")
	require.True(t, ok)

	var names []string
	for _, inv := range d.Invocations {
		names = append(names, inv.Raw[0].(enum.Member).Name)
	}
	assert.Equal(t, []string{"JANUARY", "MARCH", "MAY", "JULY", "AUGUST", "OCTOBER", "DECEMBER"}, names)
}

func TestCatalog_CSVFileFirstDataLineFirst(t *testing.T) {
	report := runCatalog(t)
	d, ok := report.Declaration("testUpperCaseWithCSVFileData")
	require.True(t, ok)
	require.Len(t, d.Invocations, 3)
	assert.Equal(t, source.Tuple{"test", "TEST"}, d.Invocations[0].Raw)
}

func TestCatalog_NameTemplateUsesRawValue(t *testing.T) {
	report := runCatalog(t)
	d, ok := report.Declaration("testAutoConverting")
	require.True(t, ok)
	assert.Equal(t, "[APRIL] is 30 days long", d.Invocations[0].DisplayName)
}

func TestCatalog_FileBackedRunIsRepeatable(t *testing.T) {
	first, err := runCatalog(t).CanonicalJSON()
	require.NoError(t, err)
	second, err := runCatalog(t).CanonicalJSON()
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestCatalog_ParallelKeepsOrder(t *testing.T) {
	r := runner.New(CatalogEnv(), runner.Config{Parallel: 4})
	report := r.RunAll(context.Background(), "demo", Catalog())

	var got []string
	for _, d := range report.Declarations() {
		got = append(got, d.Name)
	}
	var want []string
	for _, tt := range Catalog() {
		want = append(want, tt.Name)
	}
	assert.Equal(t, want, got)
	assert.True(t, report.OK())
}

func TestCatalog_Golden(t *testing.T) {
	runner.AssertGolden(t, "demo", runCatalog(t))
}
