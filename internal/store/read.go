package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/paramsrc/internal/runner"
)

// RunRecord is one stored run.
type RunRecord struct {
	ID        string         `json:"id"`
	Seq       int64          `json:"seq"`
	Name      string         `json:"name"`
	Digest    string         `json:"digest"`
	Summary   runner.Summary `json:"summary"`
	CreatedAt time.Time      `json:"created_at"`
}

// OK reports whether every invocation of the run passed and no declaration
// failed to set up or aborted.
func (r RunRecord) OK() bool {
	return r.Summary.Failed == 0 && r.Summary.SetupFailed == 0 && r.Summary.Aborted == 0
}

// DeclarationRecord is one stored declaration outcome.
type DeclarationRecord struct {
	Position    int           `json:"position"`
	Name        string        `json:"name"`
	DisplayName string        `json:"display_name"`
	Source      string        `json:"source"`
	Status      runner.Status `json:"status"`
	Error       string        `json:"error,omitempty"`
	Digest      string        `json:"digest"`
}

// InvocationRecord is one stored invocation.
type InvocationRecord struct {
	Test        string       `json:"test"`
	Index       int          `json:"index"`
	Seq         int64        `json:"seq"`
	DisplayName string       `json:"display_name"`
	Arguments   []any        `json:"arguments"`
	State       runner.State `json:"state"`
	Error       string       `json:"error,omitempty"`
}

const runColumns = `id, seq, name, digest, declarations, invocations, passed, failed, setup_failed, aborted, created_at`

// ListRuns returns stored runs, newest first. A non-empty name restricts
// the list to runs of that report name; limit <= 0 means no limit.
//
// Returns an empty slice (not nil) if no runs match.
func (s *Store) ListRuns(ctx context.Context, name string, limit int) ([]RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if name != "" {
		query += ` WHERE name = ?`
		args = append(args, name)
	}
	query += ` ORDER BY seq DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run, or ErrNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, err
}

// RunDeclarations returns a run's declarations in report order.
func (s *Store) RunDeclarations(ctx context.Context, runID string) ([]DeclarationRecord, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, name, display_name, source, status, error, digest
		FROM declarations
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query declarations: %w", err)
	}
	defer rows.Close()

	decls := []DeclarationRecord{}
	for rows.Next() {
		var d DeclarationRecord
		var status string
		if err := rows.Scan(&d.Position, &d.Name, &d.DisplayName, &d.Source, &status, &d.Error, &d.Digest); err != nil {
			return nil, fmt.Errorf("scan declaration: %w", err)
		}
		d.Status = runner.Status(status)
		decls = append(decls, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate declarations: %w", err)
	}
	return decls, nil
}

// RunInvocations returns a run's invocations ordered by declaration
// position, then index.
func (s *Store) RunInvocations(ctx context.Context, runID string) ([]InvocationRecord, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.test, i.idx, i.seq, i.display_name, i.arguments, i.state, i.error
		FROM invocations i
		JOIN declarations d ON d.run_id = i.run_id AND d.name = i.test
		WHERE i.run_id = ?
		ORDER BY d.position ASC, i.idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	defer rows.Close()

	invs := []InvocationRecord{}
	for rows.Next() {
		var inv InvocationRecord
		var args, state string
		if err := rows.Scan(&inv.Test, &inv.Index, &inv.Seq, &inv.DisplayName, &args, &state, &inv.Error); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		if err := json.Unmarshal([]byte(args), &inv.Arguments); err != nil {
			return nil, fmt.Errorf("unmarshal arguments of %s[%d]: %w", inv.Test, inv.Index, err)
		}
		inv.State = runner.State(state)
		invs = append(invs, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invocations: %w", err)
	}
	return invs, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var r RunRecord
	var created string
	err := row.Scan(
		&r.ID, &r.Seq, &r.Name, &r.Digest,
		&r.Summary.Declarations, &r.Summary.Invocations,
		&r.Summary.Passed, &r.Summary.Failed,
		&r.Summary.SetupFailed, &r.Summary.Aborted,
		&created,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, err
		}
		return RunRecord{}, fmt.Errorf("scan run: %w", err)
	}
	r.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return RunRecord{}, fmt.Errorf("parse created_at of %s: %w", r.ID, err)
	}
	return r, nil
}
