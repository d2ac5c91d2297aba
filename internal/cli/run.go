package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/paramsrc/internal/runner"
	"github.com/roach88/paramsrc/internal/source"
	"github.com/roach88/paramsrc/internal/store"
	"github.com/roach88/paramsrc/internal/suite"
	"github.com/roach88/paramsrc/internal/validators"
)

// RunOptions holds flags shared by the run and demo commands.
type RunOptions struct {
	*RootOptions
	Database string
	Golden   string
	Update   bool
	Parallel int

	// RunID fixes the run ID (for reproducible history). If empty, a
	// UUIDv7 is generated.
	RunID string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <suite>",
		Short: "Run a suite of parameterized tests",
		Long: `Load a YAML or CUE suite, expand every declaration's argument source and
run the bound test body once per tuple.

Exit codes:
  0 - All invocations passed
  1 - An invocation failed, a declaration failed setup or aborted,
      or the report differs from the golden file
  2 - Command error (unreadable suite, unknown body, database error)

Examples:
  paramsrc run ./suites/upper.yaml
  paramsrc run ./suites/months.cue --parallel 4 --db history.db
  paramsrc run ./suites/upper.yaml --golden testdata/upper.golden --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)
			name, tests, env, err := loadSuite(opts.RootOptions, args[0], formatter)
			if err != nil {
				return err
			}
			return executeTests(cmd, opts, name, tests, env)
		},
	}

	addRunFlags(cmd, opts)
	return cmd
}

// NewDemoCommand creates the demo command, which runs the built-in catalogue.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the built-in demo catalogue",
		Long: `Run the built-in declarations covering every kind of argument source:
literal values, null and empty sentinels, Month enum members, inline and
file-backed delimited rows, a named generator and implicit conversion.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeTests(cmd, opts, "demo", validators.Catalog(), validators.CatalogEnv())
		},
	}

	addRunFlags(cmd, opts)
	return cmd
}

func addRunFlags(cmd *cobra.Command, opts *RunOptions) {
	cmd.Flags().StringVar(&opts.Database, "db", "", "store the finalized report in this SQLite database")
	cmd.Flags().StringVar(&opts.Golden, "golden", "", "compare the report snapshot with this golden file")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite the golden file instead of comparing")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 0, "run up to N declarations concurrently")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "fixed run ID (default: generated UUIDv7)")
}

// loadSuite reads a suite file and builds its tests with the built-in
// bodies. A configured base_dir replaces the suite directory for relative
// CSV files.
func loadSuite(opts *RootOptions, path string, formatter *OutputFormatter) (string, []runner.Test, *source.Env, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", nil, nil, formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Errorf("suite file not found: %s", path))
	}
	cfg := opts.config()

	f, err := suite.Load(path)
	if err != nil {
		return "", nil, nil, formatter.Fail(ExitCommandError, ErrCodeSuiteLoad, err)
	}
	env := validators.Env()
	if cfg.Sources.BaseDir != "" {
		f.Dir = ""
		env = env.WithBaseDir(cfg.Sources.BaseDir)
	}

	b := suite.Builder{Bodies: validators.DefaultBodies(), DefaultDelimiter: cfg.Delimiter()}
	tests, err := b.Build(f)
	if err != nil {
		return "", nil, nil, formatter.Fail(ExitCommandError, ErrCodeSuiteBuild, err)
	}
	formatter.VerboseLog("Loaded %d declaration(s) from %s", len(tests), path)
	return f.Name, tests, env, nil
}

type fixedID string

func (id fixedID) Generate() string { return string(id) }

func executeTests(cmd *cobra.Command, opts *RunOptions, name string, tests []runner.Test, env *source.Env) error {
	formatter := opts.formatter(cmd)
	cfg := opts.config()
	logger := opts.logger()

	parallel := opts.Parallel
	if !cmd.Flags().Changed("parallel") {
		parallel = cfg.Parallel
	}
	database := opts.Database
	if database == "" {
		database = cfg.Database
	}

	rcfg := runner.Config{Logger: logger, Parallel: parallel}
	if opts.RunID != "" {
		rcfg.IDs = fixedID(opts.RunID)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	report := runner.New(env, rcfg).RunAll(ctx, name, tests)

	view, err := newReportView(report)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}

	if database != "" {
		inserted, err := saveReport(ctx, database, report)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDatabase, err)
		}
		view.Stored = inserted
		logger.Info("report stored", "db", database, "run_id", report.RunID, "inserted", inserted)
	}

	if opts.Golden != "" {
		err := runner.CompareGolden(opts.Golden, report, opts.Update)
		var mismatch *runner.GoldenMismatchError
		switch {
		case err == nil && opts.Update:
			view.Golden = "updated"
		case err == nil:
			view.Golden = "match"
		case errors.As(err, &mismatch):
			view.Golden = "mismatch"
		default:
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, err)
		}
	}

	return outputReport(formatter, view, opts.Golden)
}

func saveReport(ctx context.Context, path string, report *runner.Report) (bool, error) {
	st, err := store.Open(path)
	if err != nil {
		return false, err
	}
	defer st.Close()
	return st.SaveReport(ctx, report)
}

func outputReport(formatter *OutputFormatter, view ReportView, goldenPath string) error {
	s := view.Summary
	var code, msg string
	switch {
	case s.Failed > 0 || s.SetupFailed > 0 || s.Aborted > 0:
		code = ErrCodeTestsFailed
		msg = fmt.Sprintf("%d invocation(s) failed, %d declaration(s) failed setup, %d aborted", s.Failed, s.SetupFailed, s.Aborted)
	case view.Golden == "mismatch":
		code = ErrCodeGoldenMismatch
		msg = fmt.Sprintf("report snapshot differs from %s (run with --update to regenerate)", goldenPath)
	}

	if formatter.JSON() {
		if code == "" {
			return formatter.Success(view)
		}
		if err := formatter.Failure(view, code, msg); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}

	w := formatter.Writer
	writeReportText(w, view, formatter.Verbose)
	switch view.Golden {
	case "updated":
		fmt.Fprintf(w, "✓ golden file updated: %s\n", goldenPath)
	case "match":
		fmt.Fprintf(w, "✓ golden file matches: %s\n", goldenPath)
	case "mismatch":
		fmt.Fprintf(w, "✗ golden file mismatch: %s\n", goldenPath)
	}
	if view.Stored {
		fmt.Fprintf(w, "Stored run %s\n", view.RunID)
	}
	if code != "" {
		return NewExitError(ExitFailure, msg)
	}
	fmt.Fprintln(w, "✓ All invocations passed")
	return nil
}
