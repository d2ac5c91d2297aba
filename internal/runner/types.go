package runner

import (
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/paramsrc/internal/source"
)

// State is the lifecycle state of one invocation.
type State string

const (
	StatePending          State = "pending"
	StateCoercing         State = "coercing"
	StateCoercionFailed   State = "coercion_failed"
	StateBound            State = "bound"
	StateExecuting        State = "executing"
	StatePassed           State = "passed"
	StateAssertionFailed  State = "assertion_failed"
	StateExecutionErrored State = "execution_errored"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	switch s {
	case StateCoercionFailed, StatePassed, StateAssertionFailed, StateExecutionErrored:
		return true
	}
	return false
}

// transitions lists the legal successors of each state.
var transitions = map[State][]State{
	StatePending:   {StateCoercing},
	StateCoercing:  {StateCoercionFailed, StateBound},
	StateBound:     {StateExecuting},
	StateExecuting: {StatePassed, StateAssertionFailed, StateExecutionErrored},
}

// Invocation is one execution attempt of a test body for one tuple.
type Invocation struct {
	// Index is the 1-based position of the tuple in source order.
	Index int `json:"index"`

	// Seq is the logical clock value stamped when the invocation started.
	Seq int64 `json:"seq"`

	// DisplayName is rendered from the name template and the raw tuple.
	DisplayName string `json:"display_name"`

	// Raw is the tuple as produced by the source.
	Raw source.Tuple `json:"-"`

	// Values are the coerced arguments; nil unless coercion succeeded.
	Values []any `json:"-"`

	// State is the final lifecycle state.
	State State `json:"state"`

	// Trail records every state the invocation passed through, in order.
	Trail []State `json:"-"`

	// Err is the failure cause for non-passing invocations.
	Err error `json:"-"`
}

func (inv *Invocation) advance(next State) {
	if inv.State != "" && !slices.Contains(transitions[inv.State], next) {
		panic(fmt.Sprintf("runner: illegal transition %s -> %s", inv.State, next))
	}
	inv.State = next
	inv.Trail = append(inv.Trail, next)
}

// Passed reports whether the invocation passed.
func (inv Invocation) Passed() bool {
	return inv.State == StatePassed
}

// ErrorText returns the failure message, or "" for passing invocations.
func (inv Invocation) ErrorText() string {
	if inv.Err == nil {
		return ""
	}
	return inv.Err.Error()
}

// Status is the outcome of a whole declaration.
type Status string

const (
	// StatusCompleted means every tuple was attempted.
	StatusCompleted Status = "completed"

	// StatusSetupFailed means the declaration was rejected before any
	// invocation ran.
	StatusSetupFailed Status = "setup_failed"

	// StatusAborted means the source failed or the run was cancelled after
	// some invocations had been recorded.
	StatusAborted Status = "aborted"
)

// DeclarationReport is the outcome of one declaration.
type DeclarationReport struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name"`
	Source      string       `json:"source"`
	Status      Status       `json:"status"`
	Err         error        `json:"-"`
	Invocations []Invocation `json:"invocations"`
}

// Passed returns the number of passing invocations.
func (d *DeclarationReport) Passed() int {
	n := 0
	for _, inv := range d.Invocations {
		if inv.Passed() {
			n++
		}
	}
	return n
}

// Failed returns the number of non-passing invocations.
func (d *DeclarationReport) Failed() int {
	return len(d.Invocations) - d.Passed()
}

// OK reports whether the declaration completed with every invocation passing.
func (d *DeclarationReport) OK() bool {
	return d.Status == StatusCompleted && d.Failed() == 0
}

// ErrorText returns the declaration-level failure message, or "".
func (d *DeclarationReport) ErrorText() string {
	if d.Err == nil {
		return ""
	}
	return d.Err.Error()
}

// Summary aggregates counts over a report.
type Summary struct {
	Declarations int `json:"declarations"`
	Invocations  int `json:"invocations"`
	Passed       int `json:"passed"`
	Failed       int `json:"failed"`
	SetupFailed  int `json:"setup_failed"`
	Aborted      int `json:"aborted"`
}

// Report is the ordered record of a run. The runner appends to it while the
// run is in progress; after Finalize it is read-only.
type Report struct {
	RunID string
	Name  string

	mu           sync.Mutex
	declarations []*DeclarationReport
	index        map[string]int
	finalized    bool
}

// NewReport creates an empty report.
func NewReport(runID, name string) *Report {
	return &Report{RunID: runID, Name: name, index: make(map[string]int)}
}

// Add appends a declaration report. It fails once the report is finalized
// or when a declaration with the same name was already added.
func (r *Report) Add(d *DeclarationReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return fmt.Errorf("report %s is finalized", r.RunID)
	}
	if _, dup := r.index[d.Name]; dup {
		return fmt.Errorf("report %s already has declaration %q", r.RunID, d.Name)
	}
	r.index[d.Name] = len(r.declarations)
	r.declarations = append(r.declarations, d)
	return nil
}

// Finalize makes the report read-only.
func (r *Report) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalized = true
}

// Finalized reports whether Finalize has been called.
func (r *Report) Finalized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalized
}

// Declarations returns the declaration reports in the order they were added.
func (r *Report) Declarations() []*DeclarationReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.declarations)
}

// Declaration returns the report for the named declaration.
func (r *Report) Declaration(name string) (*DeclarationReport, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.declarations[i], true
}

// Summary computes aggregate counts.
func (r *Report) Summary() Summary {
	var s Summary
	for _, d := range r.Declarations() {
		s.Declarations++
		s.Invocations += len(d.Invocations)
		s.Passed += d.Passed()
		s.Failed += d.Failed()
		switch d.Status {
		case StatusSetupFailed:
			s.SetupFailed++
		case StatusAborted:
			s.Aborted++
		}
	}
	return s
}

// OK reports whether every declaration completed and every invocation passed.
func (r *Report) OK() bool {
	for _, d := range r.Declarations() {
		if !d.OK() {
			return false
		}
	}
	return true
}
