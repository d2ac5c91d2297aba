// Package source declares where a parameterized test's argument tuples come
// from and validates each declaration before anything runs.
//
// A Source is a sealed interface with one implementation per variant:
// Literals, NullSource, EmptySource, NullAndEmptySource, EnumSource,
// DelimitedRows and MethodSource. A Declaration pairs a source with the
// test's parameter slots.
package source

import (
	"iter"

	"github.com/roach88/paramsrc/internal/coerce"
	"github.com/roach88/paramsrc/internal/enum"
)

// Tuple is one ordered set of raw (pre-coercion) argument values.
type Tuple []any

// Source is a declarative description of a test's argument tuples.
// Only the variants in this package implement it.
type Source interface {
	// Kind returns the variant name used in messages and reports.
	Kind() string

	sourceMarker()
}

// Literals supplies explicit values. For a single-parameter test each value
// is a scalar; for multi-parameter tests each value is a []any (or Tuple)
// whose length equals the parameter count.
type Literals struct {
	Values []any
}

// NullSource supplies a single null.
type NullSource struct{}

// EmptySource supplies a single empty value ("" for string slots).
type EmptySource struct{}

// NullAndEmptySource supplies null followed by the empty value.
type NullAndEmptySource struct{}

// EnumSource supplies members of an enum type, filtered by Mode and Names.
// Members are always produced in the enum's declaration order.
type EnumSource struct {
	Type  string
	Mode  enum.Mode
	Names []string
}

// DelimitedRows supplies one tuple per text row. Exactly one of Rows and
// File is set. Fields are split on Delimiter (comma when zero) and have
// surrounding whitespace trimmed; no quoting or escaping is recognized.
// The first SkipLines rows (header lines for files) are discarded. A field
// equal to one of NullValues becomes null.
type DelimitedRows struct {
	Rows       []string
	File       string
	Delimiter  rune
	SkipLines  int
	NullValues []string
}

// MethodSource supplies tuples from a registered generator.
type MethodSource struct {
	Name string
}

func (Literals) Kind() string           { return "Literals" }
func (NullSource) Kind() string         { return "NullSource" }
func (EmptySource) Kind() string        { return "EmptySource" }
func (NullAndEmptySource) Kind() string { return "NullAndEmptySource" }
func (EnumSource) Kind() string         { return "EnumSource" }
func (d DelimitedRows) Kind() string {
	if d.File != "" {
		return "CsvFileSource"
	}
	return "CsvSource"
}
func (MethodSource) Kind() string { return "MethodSource" }

func (Literals) sourceMarker()           {}
func (NullSource) sourceMarker()         {}
func (EmptySource) sourceMarker()        {}
func (NullAndEmptySource) sourceMarker() {}
func (EnumSource) sourceMarker()         {}
func (DelimitedRows) sourceMarker()      {}
func (MethodSource) sourceMarker()       {}

// Comma is the default field delimiter.
const Comma = ','

// Sep returns the effective delimiter.
func (d DelimitedRows) Sep() rune {
	if d.Delimiter == 0 {
		return Comma
	}
	return d.Delimiter
}

// Generator produces argument tuples on demand. It is called once per run;
// the returned sequence is pulled lazily and may be unbounded. A non-nil
// error stops the sequence.
type Generator func() iter.Seq2[Tuple, error]

// Declaration is one parameterized test: its identifier, its parameter
// slots and the source of its tuples.
type Declaration struct {
	// Name uniquely identifies the declaration within a run.
	Name string

	// Params are the body's parameter slots, in positional order.
	Params []coerce.Slot

	// Source supplies the tuples.
	Source Source
}

// Arity returns the number of parameters.
func (d Declaration) Arity() int {
	return len(d.Params)
}
