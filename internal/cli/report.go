package cli

import (
	"fmt"
	"io"

	"github.com/roach88/paramsrc/internal/runner"
)

// ReportView is the JSON shape of a finished run.
type ReportView struct {
	RunID        string            `json:"run_id"`
	Name         string            `json:"name"`
	Digest       string            `json:"digest"`
	Summary      runner.Summary    `json:"summary"`
	Declarations []DeclarationView `json:"declarations"`
	Stored       bool              `json:"stored,omitempty"`
	Golden       string            `json:"golden,omitempty"` // "match", "updated" or "mismatch"
}

// DeclarationView is one declaration of a ReportView.
type DeclarationView struct {
	Name        string           `json:"name"`
	DisplayName string           `json:"display_name"`
	Source      string           `json:"source"`
	Status      runner.Status    `json:"status"`
	Error       string           `json:"error,omitempty"`
	Passed      int              `json:"passed"`
	Failed      int              `json:"failed"`
	Invocations []InvocationView `json:"invocations"`
}

// InvocationView is one invocation of a DeclarationView.
type InvocationView struct {
	Index       int          `json:"index"`
	DisplayName string       `json:"display_name"`
	Arguments   []any        `json:"arguments"`
	State       runner.State `json:"state"`
	Error       string       `json:"error,omitempty"`
}

func newReportView(r *runner.Report) (ReportView, error) {
	digest, err := r.Digest()
	if err != nil {
		return ReportView{}, err
	}
	decls := r.Declarations()
	view := ReportView{
		RunID:        r.RunID,
		Name:         r.Name,
		Digest:       digest,
		Summary:      r.Summary(),
		Declarations: make([]DeclarationView, len(decls)),
	}
	for i, d := range decls {
		dv := DeclarationView{
			Name:        d.Name,
			DisplayName: d.DisplayName,
			Source:      d.Source,
			Status:      d.Status,
			Error:       d.ErrorText(),
			Passed:      d.Passed(),
			Failed:      d.Failed(),
			Invocations: make([]InvocationView, len(d.Invocations)),
		}
		for j, inv := range d.Invocations {
			dv.Invocations[j] = InvocationView{
				Index:       inv.Index,
				DisplayName: inv.DisplayName,
				Arguments:   inv.Arguments(),
				State:       inv.State,
				Error:       inv.ErrorText(),
			}
		}
		view.Declarations[i] = dv
	}
	return view, nil
}

// writeReportText prints one line per declaration, then failing
// invocations (every invocation when verbose), then the summary.
func writeReportText(w io.Writer, v ReportView, verbose bool) {
	for _, d := range v.Declarations {
		total := len(d.Invocations)
		switch {
		case d.Status == runner.StatusSetupFailed:
			fmt.Fprintf(w, "! %s: setup failed: %s\n", d.Name, d.Error)
		case d.Status == runner.StatusAborted:
			fmt.Fprintf(w, "! %s: aborted after %d invocation(s): %s\n", d.Name, total, d.Error)
		case d.Failed == 0:
			fmt.Fprintf(w, "✓ %s (%d/%d passed)\n", d.Name, d.Passed, total)
		default:
			fmt.Fprintf(w, "✗ %s (%d/%d passed)\n", d.Name, d.Passed, total)
		}
		for _, inv := range d.Invocations {
			if inv.State == runner.StatePassed {
				if verbose {
					fmt.Fprintf(w, "  ✓ %s\n", inv.DisplayName)
				}
				continue
			}
			fmt.Fprintf(w, "  ✗ %s [%s]: %s\n", inv.DisplayName, inv.State, inv.Error)
		}
	}

	s := v.Summary
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d declarations, %d invocations, %d passed, %d failed, %d setup failed, %d aborted\n",
		s.Declarations, s.Invocations, s.Passed, s.Failed, s.SetupFailed, s.Aborted)
	if verbose {
		fmt.Fprintf(w, "Run: %s (digest %s)\n", v.RunID, v.Digest)
	}
}
