// Package suite loads parameterized test declarations from YAML or CUE
// files and binds them to registered test bodies.
//
// A suite file names a test body for each declaration; the body itself is
// Go code looked up by name at build time:
//
//	name: upper
//	description: uppercase conversion
//	tests:
//	  - name: testToUpperCase
//	    body: upper_equals
//	    params: [{name: input, type: string}, {name: expected, type: string}]
//	    source: {csv: {rows: ["test:TEST", "tEsT:TEST"], delimiter: ":"}}
package suite

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// File is one suite file.
type File struct {
	// Name identifies the suite; it becomes the report name.
	Name string `yaml:"name" json:"name" validate:"required"`

	// Description explains what the suite covers.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Tests are the declarations, in run order.
	Tests []TestSpec `yaml:"tests" json:"tests" validate:"required,min=1,dive"`

	// Dir is the absolute directory of the file, used to resolve relative
	// CSV file paths. Empty for suites parsed from memory.
	Dir string `yaml:"-" json:"-"`
}

// TestSpec describes one declaration.
type TestSpec struct {
	Name         string      `yaml:"name" json:"name" validate:"required"`
	DisplayName  string      `yaml:"display_name,omitempty" json:"display_name,omitempty"`
	NameTemplate string      `yaml:"name_template,omitempty" json:"name_template,omitempty"`
	Body         string      `yaml:"body" json:"body" validate:"required"`
	Params       []ParamSpec `yaml:"params" json:"params" validate:"required,min=1,dive"`
	Source       *SourceSpec `yaml:"source" json:"source" validate:"required"`
}

// ParamSpec describes one parameter slot.
type ParamSpec struct {
	Name      string `yaml:"name,omitempty" json:"name,omitempty"`
	Type      string `yaml:"type" json:"type" validate:"required,oneof=int float string bool enum date time datetime year duration path url uuid"`
	Enum      string `yaml:"enum,omitempty" json:"enum,omitempty" validate:"required_if=Type enum"`
	Converter string `yaml:"converter,omitempty" json:"converter,omitempty"`
}

// SourceSpec describes where the tuples come from. Exactly one field is set.
type SourceSpec struct {
	Values       []any     `yaml:"values,omitempty" json:"values,omitempty"`
	NullValue    bool      `yaml:"null_value,omitempty" json:"null_value,omitempty"`
	EmptyValue   bool      `yaml:"empty_value,omitempty" json:"empty_value,omitempty"`
	NullAndEmpty bool      `yaml:"null_and_empty,omitempty" json:"null_and_empty,omitempty"`
	Enum         *EnumSpec `yaml:"enum,omitempty" json:"enum,omitempty"`
	CSV          *CSVSpec  `yaml:"csv,omitempty" json:"csv,omitempty"`
	Method       string    `yaml:"method,omitempty" json:"method,omitempty"`
}

// EnumSpec selects members of an enum type.
type EnumSpec struct {
	Type  string   `yaml:"type" json:"type" validate:"required"`
	Mode  string   `yaml:"mode,omitempty" json:"mode,omitempty" validate:"omitempty,oneof=INCLUDE EXCLUDE"`
	Names []string `yaml:"names,omitempty" json:"names,omitempty"`
}

// CSVSpec describes delimited rows, inline or from a file.
type CSVSpec struct {
	Rows       []string `yaml:"rows,omitempty" json:"rows,omitempty" validate:"required_without=File"`
	File       string   `yaml:"file,omitempty" json:"file,omitempty" validate:"required_without=Rows"`
	Delimiter  string   `yaml:"delimiter,omitempty" json:"delimiter,omitempty" validate:"omitempty,len=1"`
	SkipLines  int      `yaml:"skip_lines,omitempty" json:"skip_lines,omitempty" validate:"min=0"`
	NullValues []string `yaml:"null_values,omitempty" json:"null_values,omitempty"`
}

// Format is a suite file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatOf returns the format implied by a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", fmt.Errorf("unsupported suite file extension %q (want .yaml, .yml or .cue)", filepath.Ext(path))
	}
}

// Load reads and validates a suite file. The format follows the extension.
func Load(path string) (*File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}
	f, err := parse(data, format, path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolve suite directory: %w", err)
	}
	f.Dir = abs
	return f, nil
}

// Parse decodes and validates suite data held in memory.
func Parse(data []byte, format Format) (*File, error) {
	return parse(data, format, "suite."+string(format))
}

func parse(data []byte, format Format, filename string) (*File, error) {
	var f File
	switch format {
	case FormatYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatCUE:
		ctx := cuecontext.New()
		v := ctx.CompileBytes(data, cue.Filename(filename))
		if err := v.Err(); err != nil {
			return nil, fmt.Errorf("failed to compile CUE: %w", err)
		}
		if err := v.Validate(cue.Concrete(true)); err != nil {
			return nil, fmt.Errorf("CUE suite is not concrete: %w", err)
		}
		if err := v.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to decode CUE: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown suite format %q", format)
	}
	if err := validateFile(&f); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}
	return &f, nil
}

var validate = validator.New()

// validateFile checks struct tags, then the rules tags cannot express.
func validateFile(f *File) error {
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describeFieldError(fe))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	seen := make(map[string]bool, len(f.Tests))
	for i, t := range f.Tests {
		if seen[t.Name] {
			return fmt.Errorf("tests[%d]: duplicate test name %q", i, t.Name)
		}
		seen[t.Name] = true
		if n := t.Source.count(); n != 1 {
			return fmt.Errorf("tests[%d] %s: source must set exactly one kind, got %d", i, t.Name, n)
		}
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "File.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_if", "required_without":
		return fmt.Sprintf("%s is required when %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s %v is not one of [%s]", field, fe.Value(), fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s character", field, fe.Param())
	default:
		return fmt.Sprintf("%s fails %s", field, fe.Tag())
	}
}

func (s *SourceSpec) count() int {
	n := 0
	for _, set := range []bool{
		s.Values != nil,
		s.NullValue,
		s.EmptyValue,
		s.NullAndEmpty,
		s.Enum != nil,
		s.CSV != nil,
		s.Method != "",
	} {
		if set {
			n++
		}
	}
	return n
}
