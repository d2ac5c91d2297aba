package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/paramsrc/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Name     string
	Limit    int
}

// RunDetail is the JSON shape of one stored run with its outcomes.
type RunDetail struct {
	Run          store.RunRecord           `json:"run"`
	Declarations []store.DeclarationRecord `json:"declarations"`
	Invocations  []store.InvocationRecord  `json:"invocations"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show stored runs",
		Long: `List runs stored with "run --db", newest first, or show one run's
declarations and invocations.

Examples:
  paramsrc history --db history.db
  paramsrc history --db history.db --name upper --limit 5
  paramsrc history --db history.db 0192f0c4-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: config database)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "only runs with this report name")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 for all)")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	database := opts.Database
	if database == "" {
		database = opts.config().Database
	}
	if database == "" {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, errors.New("no database: pass --db or set database in paramsrc.toml"))
	}
	if _, err := os.Stat(database); os.IsNotExist(err) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Errorf("database not found: %s", database))
	}

	st, err := store.Open(database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if len(args) == 0 {
		runs, err := st.ListRuns(ctx, opts.Name, opts.Limit)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDatabase, err)
		}
		if formatter.JSON() {
			return formatter.Success(runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(formatter.Writer, "No runs stored.")
			return nil
		}
		for _, r := range runs {
			mark := "✓"
			if !r.OK() {
				mark = "✗"
			}
			fmt.Fprintf(formatter.Writer, "%s %s  %-16s %d/%d passed  %s\n",
				mark, r.ID, r.Name, r.Summary.Passed, r.Summary.Invocations, r.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	}

	detail, err := loadRunDetail(cmd, st, args[0])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, err)
		}
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err)
	}
	if formatter.JSON() {
		return formatter.Success(detail)
	}
	writeRunDetail(formatter, detail)
	return nil
}

func loadRunDetail(cmd *cobra.Command, st *store.Store, id string) (RunDetail, error) {
	ctx := cmd.Context()
	run, err := st.GetRun(ctx, id)
	if err != nil {
		return RunDetail{}, err
	}
	decls, err := st.RunDeclarations(ctx, id)
	if err != nil {
		return RunDetail{}, err
	}
	invs, err := st.RunInvocations(ctx, id)
	if err != nil {
		return RunDetail{}, err
	}
	return RunDetail{Run: run, Declarations: decls, Invocations: invs}, nil
}

func writeRunDetail(formatter *OutputFormatter, d RunDetail) {
	w := formatter.Writer
	s := d.Run.Summary
	fmt.Fprintf(w, "Run %s (%s)\n", d.Run.ID, d.Run.Name)
	fmt.Fprintf(w, "Digest: %s\n", d.Run.Digest)

	byTest := make(map[string][]store.InvocationRecord)
	for _, inv := range d.Invocations {
		byTest[inv.Test] = append(byTest[inv.Test], inv)
	}
	for _, decl := range d.Declarations {
		invs := byTest[decl.Name]
		if decl.Error != "" {
			fmt.Fprintf(w, "! %s [%s]: %s\n", decl.Name, decl.Status, decl.Error)
		} else {
			fmt.Fprintf(w, "  %s [%s] %d invocation(s)\n", decl.Name, decl.Status, len(invs))
		}
		for _, inv := range invs {
			if inv.Error == "" && !formatter.Verbose {
				continue
			}
			fmt.Fprintf(w, "    %s [%s] %s\n", inv.DisplayName, inv.State, inv.Error)
		}
	}
	fmt.Fprintf(w, "Summary: %d declarations, %d invocations, %d passed, %d failed, %d setup failed, %d aborted\n",
		s.Declarations, s.Invocations, s.Passed, s.Failed, s.SetupFailed, s.Aborted)
}
