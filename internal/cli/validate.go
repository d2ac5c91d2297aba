package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/paramsrc/internal/paramerr"
	"github.com/roach88/paramsrc/internal/suite"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Suites []SuiteValidation `json:"suites"`
}

// SuiteValidation is the outcome for one suite file.
type SuiteValidation struct {
	Path         string            `json:"path"`
	Name         string            `json:"name"`
	Declarations int               `json:"declarations"`
	Errors       []ValidationIssue `json:"errors,omitempty"`
}

// ValidationIssue is one declaration that failed setup checks.
type ValidationIssue struct {
	Test    string `json:"test,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <suite>...",
		Short: "Check suites without running any test body",
		Long: `Load each suite and run the declaration-time checks: parameter slots,
source compatibility, arity of literal and inline rows, enum member names
and generator registration. File rows and generator output are checked
only when a run reads them.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	result := ValidationResult{Valid: true, Suites: make([]SuiteValidation, 0, len(paths))}
	invalid := 0
	for _, path := range paths {
		name, tests, env, err := loadSuite(opts, path, formatter)
		if err != nil {
			return err
		}
		sv := SuiteValidation{Path: path, Name: name, Declarations: len(tests)}
		for _, e := range splitJoined(suite.Check(tests, env)) {
			sv.Errors = append(sv.Errors, issueOf(e))
		}
		if len(sv.Errors) > 0 {
			result.Valid = false
			invalid += len(sv.Errors)
		}
		result.Suites = append(result.Suites, sv)
	}

	if formatter.JSON() {
		if result.Valid {
			return formatter.Success(result)
		}
		msg := fmt.Sprintf("validation failed with %d error(s)", invalid)
		if err := formatter.Failure(result, ErrCodeInvalid, msg); err != nil {
			return err
		}
		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, msg)
	}

	w := formatter.Writer
	for _, sv := range result.Suites {
		if len(sv.Errors) == 0 {
			fmt.Fprintf(w, "✓ %s: %d declaration(s) valid\n", sv.Path, sv.Declarations)
			continue
		}
		fmt.Fprintf(w, "✗ %s: %d of %d declaration(s) invalid\n", sv.Path, len(sv.Errors), sv.Declarations)
		for _, issue := range sv.Errors {
			fmt.Fprintf(w, "  %s\n", issue.Message)
		}
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", invalid))
	}
	return nil
}

func splitJoined(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func issueOf(err error) ValidationIssue {
	var pe *paramerr.Error
	if errors.As(err, &pe) {
		return ValidationIssue{Test: pe.Test, Code: string(pe.Code), Message: err.Error()}
	}
	return ValidationIssue{Message: err.Error()}
}
