package suite

import (
	"errors"
	"fmt"
	"path/filepath"
	"unicode/utf8"

	"github.com/roach88/paramsrc/internal/coerce"
	"github.com/roach88/paramsrc/internal/enum"
	"github.com/roach88/paramsrc/internal/runner"
	"github.com/roach88/paramsrc/internal/source"
)

// BodyLookup resolves a body name to Go code.
type BodyLookup interface {
	Get(name string) (runner.Body, error)
}

// Builder turns suite files into runnable tests.
type Builder struct {
	Bodies BodyLookup

	// DefaultDelimiter applies to CSV sources that set none. Zero means
	// comma.
	DefaultDelimiter rune
}

// Build converts every declaration of f, in order. Body names are resolved
// eagerly; source checks are left to the runner (or Check).
func (b Builder) Build(f *File) ([]runner.Test, error) {
	tests := make([]runner.Test, 0, len(f.Tests))
	for i, spec := range f.Tests {
		t, err := b.buildTest(f, spec)
		if err != nil {
			return nil, fmt.Errorf("tests[%d] %s: %w", i, spec.Name, err)
		}
		tests = append(tests, t)
	}
	return tests, nil
}

func (b Builder) buildTest(f *File, spec TestSpec) (runner.Test, error) {
	body, err := b.Bodies.Get(spec.Body)
	if err != nil {
		return runner.Test{}, err
	}
	params, err := buildParams(spec.Params)
	if err != nil {
		return runner.Test{}, err
	}
	src, err := b.buildSource(f, spec.Source)
	if err != nil {
		return runner.Test{}, err
	}
	return runner.Test{
		Declaration: source.Declaration{
			Name:   spec.Name,
			Params: params,
			Source: src,
		},
		DisplayName:  spec.DisplayName,
		NameTemplate: spec.NameTemplate,
		Body:         body,
	}, nil
}

func buildParams(specs []ParamSpec) ([]coerce.Slot, error) {
	slots := make([]coerce.Slot, len(specs))
	for i, p := range specs {
		kind, err := coerce.ParseKind(p.Type)
		if err != nil {
			return nil, fmt.Errorf("params[%d]: %w", i, err)
		}
		slots[i] = coerce.Slot{
			Position:  i,
			Name:      p.Name,
			Kind:      kind,
			Enum:      p.Enum,
			Converter: p.Converter,
		}
	}
	return slots, nil
}

func (b Builder) buildSource(f *File, s *SourceSpec) (source.Source, error) {
	switch {
	case s.Values != nil:
		return source.Literals{Values: s.Values}, nil
	case s.NullValue:
		return source.NullSource{}, nil
	case s.EmptyValue:
		return source.EmptySource{}, nil
	case s.NullAndEmpty:
		return source.NullAndEmptySource{}, nil
	case s.Enum != nil:
		mode, err := enum.ParseMode(s.Enum.Mode)
		if err != nil {
			return nil, err
		}
		return source.EnumSource{Type: s.Enum.Type, Mode: mode, Names: s.Enum.Names}, nil
	case s.CSV != nil:
		return b.buildRows(f, s.CSV)
	case s.Method != "":
		return source.MethodSource{Name: s.Method}, nil
	default:
		return nil, errors.New("source sets no kind")
	}
}

func (b Builder) buildRows(f *File, c *CSVSpec) (source.Source, error) {
	delim := b.DefaultDelimiter
	if c.Delimiter != "" {
		r, size := utf8.DecodeRuneInString(c.Delimiter)
		if size != len(c.Delimiter) {
			return nil, fmt.Errorf("delimiter %q must be a single character", c.Delimiter)
		}
		delim = r
	}
	file := c.File
	if file != "" && !filepath.IsAbs(file) && f.Dir != "" {
		file = filepath.Join(f.Dir, file)
	}
	return source.DelimitedRows{
		Rows:       c.Rows,
		File:       file,
		Delimiter:  delim,
		SkipLines:  c.SkipLines,
		NullValues: c.NullValues,
	}, nil
}

// Check runs the declaration-time checks for every test against env and
// joins the failures. Each failure names its test.
func Check(tests []runner.Test, env *source.Env) error {
	var errs []error
	for _, t := range tests {
		if err := source.Validate(t.Declaration, env); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
