// Package validators holds the small pure functions exercised by the demo
// catalogue, the test bodies that call them, and the Month enum.
package validators

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/paramsrc/internal/enum"
)

// IsOdd reports whether n is odd. Negative numbers are handled.
func IsOdd(n int64) bool {
	return n%2 != 0
}

// IsNull reports whether s is absent.
func IsNull(s *string) bool {
	return s == nil
}

// IsEmpty reports whether s is present and has zero length.
func IsEmpty(s *string) bool {
	return s != nil && *s == ""
}

// IsBlank reports whether s is absent or contains only whitespace.
func IsBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// ToUpper upper-cases s with Unicode case mapping.
func ToUpper(s string) string {
	return cases.Upper(language.Und).String(s)
}

// Month is the calendar month enum. Member values are time.Month.
var Month = enum.MustType("Month",
	enum.P("JANUARY", time.January),
	enum.P("FEBRUARY", time.February),
	enum.P("MARCH", time.March),
	enum.P("APRIL", time.April),
	enum.P("MAY", time.May),
	enum.P("JUNE", time.June),
	enum.P("JULY", time.July),
	enum.P("AUGUST", time.August),
	enum.P("SEPTEMBER", time.September),
	enum.P("OCTOBER", time.October),
	enum.P("NOVEMBER", time.November),
	enum.P("DECEMBER", time.December),
)

func monthOf(m enum.Member) (time.Month, bool) {
	v, ok := m.Value.(time.Month)
	return v, ok && m.Type == Month.Name()
}

// IsCollect reports whether m is a Month member whose value lies in 1..12.
func IsCollect(m enum.Member) bool {
	v, ok := monthOf(m)
	return ok && v >= time.January && v <= time.December
}

// LastDayOf returns the last day of m in a common (non-leap) year, or 0
// when m is not a Month member.
func LastDayOf(m enum.Member) int {
	v, ok := monthOf(m)
	if !ok {
		return 0
	}
	return time.Date(2023, v+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
