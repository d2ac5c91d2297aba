// Package runner executes parameterized tests: it validates each
// declaration, pulls raw tuples from the expansion driver, coerces them into
// typed arguments, calls the test body once per tuple and records every
// outcome in a Report.
//
// # Invocation lifecycle
//
// Every tuple becomes one Invocation that moves through
//
//	pending -> coercing -> coercion_failed
//	pending -> coercing -> bound -> executing -> passed
//	                                          -> assertion_failed
//	                                          -> execution_errored
//
// A body signals an unmet expectation by returning an *AssertionError
// (see Failf and ExpectEqual). Any other error, or a panic, is recorded as
// execution_errored. A failing invocation never stops the remaining tuples.
//
// # Declaration outcomes
//
// A declaration that fails validation or cannot open its source is
// setup_failed with zero invocations. A source that breaks mid-sequence
// (an unreadable file, a generator error, cancellation) leaves the
// declaration aborted with the invocations recorded so far.
//
// # Deterministic runs
//
// Run IDs and invocation sequence numbers come from pluggable generators.
// Tests use testutil.DeterministicClock and testutil.FixedRunIDGenerator so
// that report snapshots are byte-identical across runs:
//
//	r := runner.New(env, runner.Config{
//	    Clock: testutil.NewDeterministicClock(),
//	    IDs:   testutil.NewFixedRunIDGenerator("run-1"),
//	})
//	report := r.RunAll(ctx, "demo", tests)
//	runner.AssertGolden(t, "demo", report)
package runner
