package runner

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/paramsrc/internal/canon"
	"github.com/roach88/paramsrc/internal/coerce"
)

// Snapshot converts the report into a map for canonical JSON serialization.
// Run IDs and sequence numbers are left out so that snapshots of the same
// tests are identical across runs, sequential or parallel.
func (r *Report) Snapshot() map[string]any {
	decls := r.Declarations()
	list := make([]any, len(decls))
	for i, d := range decls {
		list[i] = d.snapshot()
	}
	s := r.Summary()
	return map[string]any{
		"name": r.Name,
		"summary": map[string]any{
			"declarations": s.Declarations,
			"invocations":  s.Invocations,
			"passed":       s.Passed,
			"failed":       s.Failed,
			"setup_failed": s.SetupFailed,
			"aborted":      s.Aborted,
		},
		"declarations": list,
	}
}

func (d *DeclarationReport) snapshot() map[string]any {
	invs := make([]any, len(d.Invocations))
	for i, inv := range d.Invocations {
		invs[i] = inv.snapshot()
	}
	m := map[string]any{
		"name":         d.Name,
		"display_name": d.DisplayName,
		"source":       d.Source,
		"status":       string(d.Status),
		"invocations":  invs,
	}
	if d.Err != nil {
		m["error"] = d.Err.Error()
	}
	return m
}

func (inv Invocation) snapshot() map[string]any {
	m := map[string]any{
		"index":        inv.Index,
		"display_name": inv.DisplayName,
		"arguments":    inv.Arguments(),
		"state":        string(inv.State),
	}
	if inv.Err != nil {
		m["error"] = inv.Err.Error()
	}
	return m
}

// CanonicalJSON returns the canonical JSON encoding of the report snapshot.
func (r *Report) CanonicalJSON() ([]byte, error) {
	data, err := canon.Marshal(r.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", r.RunID, err)
	}
	return data, nil
}

// Digest returns the domain-separated digest of the report snapshot.
func (r *Report) Digest() (string, error) {
	return canon.Digest(canon.DomainReport, r.Snapshot())
}

// Digest returns the domain-separated digest of one declaration's outcome.
// Two runs of an unchanged declaration produce the same digest.
func (d *DeclarationReport) Digest() (string, error) {
	return canon.Digest(canon.DomainDeclaration, d.snapshot())
}

// Arguments returns the invocation's raw values as text, null kept as nil.
func (inv Invocation) Arguments() []any {
	args := make([]any, len(inv.Raw))
	for i, v := range inv.Raw {
		if v != nil {
			args[i] = coerce.Text(v)
		}
	}
	return args
}

// AssertGolden compares the report snapshot against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./... -update
func AssertGolden(t *testing.T, name string, report *Report) {
	t.Helper()

	data, err := report.CanonicalJSON()
	if err != nil {
		t.Fatalf("golden %s: %v", name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

// GoldenMismatchError is returned by CompareGolden when the snapshot differs
// from the stored file.
type GoldenMismatchError struct {
	Path string
}

func (e *GoldenMismatchError) Error() string {
	return fmt.Sprintf("report snapshot differs from %s", e.Path)
}

// CompareGolden compares the report snapshot with the file at path outside
// of a test binary. With update set, the file is (re)written instead.
func CompareGolden(path string, report *Report, update bool) error {
	data, err := report.CanonicalJSON()
	if err != nil {
		return err
	}
	if update {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create golden dir: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write golden file: %w", err)
		}
		return nil
	}
	want, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read golden file: %w", err)
	}
	if !bytes.Equal(want, data) {
		return &GoldenMismatchError{Path: path}
	}
	return nil
}
