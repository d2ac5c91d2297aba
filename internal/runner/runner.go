package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/paramsrc/internal/expand"
	"github.com/roach88/paramsrc/internal/paramerr"
	"github.com/roach88/paramsrc/internal/source"
)

// Body is a test body. It receives the coerced arguments of one invocation
// and returns nil on success, an *AssertionError when an expectation does
// not hold, or any other error for an unexpected failure.
type Body func(ctx context.Context, args Args) error

// Test is a runnable parameterized test.
type Test struct {
	source.Declaration

	// DisplayName is shown in reports; defaults to Name.
	DisplayName string

	// NameTemplate renders per-invocation display names; defaults to
	// DefaultNameTemplate.
	NameTemplate string

	// Body is called once per tuple.
	Body Body
}

func (t Test) displayName() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.Name
}

// Config configures a Runner. Zero values select defaults.
type Config struct {
	// Logger receives per-declaration info and per-invocation debug
	// records. Nil discards.
	Logger *slog.Logger

	// Clock stamps invocation sequence numbers. Nil uses a LogicalClock.
	Clock Clock

	// IDs generates run IDs. Nil uses UUIDv7Generator.
	IDs IDGenerator

	// Parallel is the number of declarations RunAll executes at once.
	// Values below 2 run sequentially.
	Parallel int
}

// Runner executes tests against an environment.
type Runner struct {
	env      *source.Env
	logger   *slog.Logger
	clock    Clock
	ids      IDGenerator
	parallel int
}

// New creates a runner.
func New(env *source.Env, cfg Config) *Runner {
	r := &Runner{
		env:      env,
		logger:   cfg.Logger,
		clock:    cfg.Clock,
		ids:      cfg.IDs,
		parallel: cfg.Parallel,
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if r.clock == nil {
		r.clock = NewLogicalClock()
	}
	if r.ids == nil {
		r.ids = UUIDv7Generator{}
	}
	return r
}

// Env returns the runner's environment.
func (r *Runner) Env() *source.Env {
	return r.env
}

// RunAll runs tests and returns the finalized report. Declarations appear in
// the report in the order given, whether or not they ran concurrently.
func (r *Runner) RunAll(ctx context.Context, name string, tests []Test) *Report {
	report := NewReport(r.ids.Generate(), name)
	results := duplicates(tests)

	if r.parallel < 2 {
		for i, t := range tests {
			if results[i] == nil {
				results[i] = r.Run(ctx, t)
			}
		}
	} else {
		var g errgroup.Group
		g.SetLimit(r.parallel)
		for i, t := range tests {
			if results[i] != nil {
				continue
			}
			g.Go(func() error {
				results[i] = r.Run(ctx, t)
				return nil
			})
		}
		_ = g.Wait()
	}

	for _, d := range results {
		if err := report.Add(d); err != nil {
			r.logger.Warn("declaration dropped from report", "test", d.Name, "error", err)
		}
	}
	report.Finalize()

	s := report.Summary()
	r.logger.Info("run finished",
		"run_id", report.RunID,
		"declarations", s.Declarations,
		"invocations", s.Invocations,
		"passed", s.Passed,
		"failed", s.Failed,
	)
	return report
}

// duplicates returns a slice parallel to tests holding a setup_failed
// report for every test whose name repeats an earlier one, and nil for the
// tests that should run. Repeats are renamed "name#2", "name#3" and so on,
// skipping any suffix another test already uses.
func duplicates(tests []Test) []*DeclarationReport {
	results := make([]*DeclarationReport, len(tests))
	taken := make(map[string]bool, len(tests))
	for _, t := range tests {
		taken[t.Name] = true
	}
	seen := make(map[string]int, len(tests))
	for i, t := range tests {
		seen[t.Name]++
		if seen[t.Name] == 1 {
			continue
		}
		n := seen[t.Name]
		key := fmt.Sprintf("%s#%d", t.Name, n)
		for taken[key] {
			n++
			key = fmt.Sprintf("%s#%d", t.Name, n)
		}
		taken[key] = true
		d := &DeclarationReport{Name: key, DisplayName: t.displayName(), Invocations: []Invocation{}}
		if t.Source != nil {
			d.Source = t.Source.Kind()
		}
		results[i] = setupFailed(d, fmt.Errorf("duplicate declaration name %q", t.Name))
	}
	return results
}

// Run executes one test: validation, expansion, then one invocation per
// tuple. It never returns nil.
func (r *Runner) Run(ctx context.Context, t Test) *DeclarationReport {
	d := &DeclarationReport{
		Name:        t.Name,
		DisplayName: t.displayName(),
		Invocations: []Invocation{},
	}
	if t.Source != nil {
		d.Source = t.Source.Kind()
	}
	defer r.logDeclaration(d)

	if t.Body == nil {
		return setupFailed(d, fmt.Errorf("declaration %s: no test body", t.Name))
	}
	if err := source.Validate(t.Declaration, r.env); err != nil {
		return setupFailed(d, err)
	}

	it, err := expand.Open(ctx, t.Declaration, r.env)
	if err != nil {
		if ctx.Err() != nil {
			d.Status, d.Err = StatusAborted, err
			return d
		}
		return setupFailed(d, attribute(err, t.Name))
	}
	defer it.Close()

	for index := 1; ; index++ {
		raw, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !paramerr.IsArity(err) {
			d.Status, d.Err = StatusAborted, fmt.Errorf("expand %s: %w", t.Name, attribute(err, t.Name))
			return d
		}
		inv := r.invoke(ctx, t, index, raw, attribute(err, t.Name))
		d.Invocations = append(d.Invocations, inv)
	}

	d.Status = StatusCompleted
	return d
}

func setupFailed(d *DeclarationReport, err error) *DeclarationReport {
	d.Status, d.Err = StatusSetupFailed, err
	return d
}

// attribute tags a coded error with the declaration name.
func attribute(err error, test string) error {
	var pe *paramerr.Error
	if errors.As(err, &pe) && pe.Test == "" {
		return pe.WithTest(test)
	}
	return err
}

// invoke drives one tuple through the lifecycle. rowErr is a row-level
// expansion failure (wrong field count) that fails coercion outright.
func (r *Runner) invoke(ctx context.Context, t Test, index int, raw source.Tuple, rowErr error) Invocation {
	inv := Invocation{
		Index: index,
		Seq:   r.clock.Next(),
		Raw:   raw,
	}
	inv.advance(StatePending)
	inv.DisplayName = RenderName(t.NameTemplate, t.displayName(), index, raw)

	inv.advance(StateCoercing)
	values, err := r.coerce(t, raw, rowErr)
	if err != nil {
		inv.Err = attribute(err, t.Name)
		inv.advance(StateCoercionFailed)
		r.logInvocation(t, inv)
		return inv
	}
	inv.Values = values
	inv.advance(StateBound)

	inv.advance(StateExecuting)
	err = execute(ctx, t.Body, NewArgs(t.Params, values, raw))
	switch {
	case err == nil:
		inv.advance(StatePassed)
	case IsAssertionError(err):
		inv.Err = err
		inv.advance(StateAssertionFailed)
	default:
		inv.Err = err
		inv.advance(StateExecutionErrored)
	}
	r.logInvocation(t, inv)
	return inv
}

func (r *Runner) coerce(t Test, raw source.Tuple, rowErr error) ([]any, error) {
	if rowErr != nil {
		return nil, rowErr
	}
	return r.env.Coercer.CoerceAll(t.Params, raw)
}

// execute calls body, converting a panic into a *PanicError.
func execute(ctx context.Context, body Body, args Args) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p}
		}
	}()
	return body(ctx, args)
}

func (r *Runner) logInvocation(t Test, inv Invocation) {
	attrs := []any{
		"test", t.Name,
		"index", inv.Index,
		"state", inv.State,
		"display_name", inv.DisplayName,
	}
	if inv.Err != nil {
		attrs = append(attrs, "error", inv.Err)
	}
	r.logger.Debug("invocation finished", attrs...)
}

func (r *Runner) logDeclaration(d *DeclarationReport) {
	attrs := []any{
		"test", d.Name,
		"source", d.Source,
		"status", d.Status,
		"invocations", len(d.Invocations),
		"passed", d.Passed(),
	}
	if d.Err != nil {
		attrs = append(attrs, "error", d.Err)
	}
	r.logger.Info("declaration finished", attrs...)
}
