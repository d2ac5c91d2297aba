package validators

import (
	"embed"

	"github.com/roach88/paramsrc/internal/coerce"
	"github.com/roach88/paramsrc/internal/enum"
	"github.com/roach88/paramsrc/internal/runner"
	"github.com/roach88/paramsrc/internal/source"
)

//go:embed data/*.csv
var dataFS embed.FS

// Enums returns a registry holding Month.
func Enums() *enum.Registry {
	return enum.NewRegistry(Month)
}

// Env returns an environment with the Month enum and the built-in
// generators. File sources resolve against the OS filesystem.
func Env() *source.Env {
	return source.NewEnv(Enums(), DefaultGenerators())
}

// CatalogEnv is Env reading file sources from the embedded data directory,
// where the demo catalogue's CSV fixture lives.
func CatalogEnv() *source.Env {
	return Env().WithFS(dataFS).WithBaseDir("data")
}

var (
	intSlot    = coerce.Slots(coerce.KindInt)
	stringSlot = coerce.Slots(coerce.KindString)
	monthSlot  = []coerce.Slot{{Name: "month", Kind: coerce.KindEnum, Enum: "Month"}}
	upperSlots = []coerce.Slot{
		{Position: 0, Name: "input", Kind: coerce.KindString},
		{Position: 1, Name: "expected", Kind: coerce.KindString},
	}
)

// Catalog returns the demo declarations, one per kind of argument source.
// Run them against CatalogEnv.
func Catalog() []runner.Test {
	return []runner.Test{
		{
			Declaration: source.Declaration{
				Name:   "testIsOdd",
				Params: intSlot,
				Source: source.Literals{Values: []any{1, 3, -1, 15, 123}},
			},
			DisplayName: "odd number check",
			Body:        IsOddBody,
		},
		{
			Declaration: source.Declaration{
				Name:   "testIsNull",
				Params: stringSlot,
				Source: source.NullSource{},
			},
			DisplayName: "null value check",
			Body:        IsNullBody,
		},
		{
			Declaration: source.Declaration{
				Name:   "testIsEmpty",
				Params: stringSlot,
				Source: source.EmptySource{},
			},
			DisplayName: "empty value check",
			Body:        IsEmptyBody,
		},
		{
			Declaration: source.Declaration{
				Name:   "testIsBlank",
				Params: stringSlot,
				Source: source.NullAndEmptySource{},
			},
			DisplayName: "blank value check",
			Body:        IsBlankBody,
		},
		{
			Declaration: source.Declaration{
				Name:   "testMonthValueIsCollect",
				Params: monthSlot,
				Source: source.EnumSource{Type: "Month"},
			},
			DisplayName: "every Month lies between 1 and 12",
			Body:        MonthInRangeBody,
		},
		{
			Declaration: source.Declaration{
				Name:   "testHasThirtyOneDaysLong",
				Params: monthSlot,
				Source: source.EnumSource{
					Type:  "Month",
					Mode:  enum.Exclude,
					Names: []string{"FEBRUARY", "APRIL", "JUNE", "SEPTEMBER", "NOVEMBER"},
				},
			},
			DisplayName: "months other than Feb, Apr, Jun, Sep and Nov have 31 days",
			Body:        monthHasDays(31),
		},
		{
			Declaration: source.Declaration{
				Name:   "testToUpperCase",
				Params: upperSlots,
				Source: source.DelimitedRows{
					Rows:      []string{"test:TEST", "tEsT:TEST", "JavaScript:JAVASCRIPT"},
					Delimiter: ':',
				},
			},
			DisplayName: "upper-case conversion",
			Body:        UpperEqualsBody,
		},
		{
			Declaration: source.Declaration{
				Name:   "testUpperCaseWithCSVFileData",
				Params: upperSlots,
				Source: source.DelimitedRows{File: "parameter-test-data.csv", SkipLines: 2},
			},
			DisplayName: "upper-case conversion from a CSV file",
			Body:        UpperEqualsBody,
		},
		{
			Declaration: source.Declaration{
				Name:   "testToUpperCaseWithMethodSource",
				Params: upperSlots,
				Source: source.MethodSource{Name: "providerStringSource"},
			},
			DisplayName: "upper-case conversion from a generator",
			Body:        UpperEqualsBody,
		},
		{
			Declaration: source.Declaration{
				Name:   "testAutoConverting",
				Params: monthSlot,
				Source: source.DelimitedRows{Rows: []string{"APRIL", "JUNE", "SEPTEMBER", "NOVEMBER"}},
			},
			DisplayName:  "implicit conversion",
			NameTemplate: "[{0}] is 30 days long",
			Body:         monthHasDays(30),
		},
	}
}
