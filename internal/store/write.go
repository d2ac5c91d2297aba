package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/paramsrc/internal/canon"
	"github.com/roach88/paramsrc/internal/runner"
)

// SaveReport stores a finalized report in one transaction and reports
// whether a new run was inserted.
//
// Saving a run whose ID is already stored with the same digest returns
// inserted=false and no error. A different digest under the same ID is an
// error.
func (s *Store) SaveReport(ctx context.Context, report *runner.Report) (inserted bool, err error) {
	if !report.Finalized() {
		return false, fmt.Errorf("save report %s: report is not finalized", report.RunID)
	}
	if report.RunID == "" {
		return false, errors.New("save report: run ID is required")
	}
	digest, err := report.Digest()
	if err != nil {
		return false, fmt.Errorf("save report %s: %w", report.RunID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("save report: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT digest FROM runs WHERE id = ?`, report.RunID).Scan(&existing)
	switch {
	case err == nil:
		if existing != digest {
			return false, fmt.Errorf("save report: run %s already stored with digest %s", report.RunID, existing)
		}
		return false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("save report: lookup run: %w", err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return false, fmt.Errorf("save report: next seq: %w", err)
	}

	sum := report.Summary()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, name, digest, declarations, invocations, passed, failed, setup_failed, aborted, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.RunID,
		seq,
		report.Name,
		digest,
		sum.Declarations,
		sum.Invocations,
		sum.Passed,
		sum.Failed,
		sum.SetupFailed,
		sum.Aborted,
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, fmt.Errorf("save report: insert run: %w", err)
	}

	for pos, d := range report.Declarations() {
		if err := writeDeclaration(ctx, tx, report.RunID, pos, d); err != nil {
			return false, fmt.Errorf("save report %s: %w", report.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("save report: commit: %w", err)
	}
	return true, nil
}

func writeDeclaration(ctx context.Context, tx *sql.Tx, runID string, pos int, d *runner.DeclarationReport) error {
	digest, err := d.Digest()
	if err != nil {
		return fmt.Errorf("declaration %s: %w", d.Name, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO declarations
		(run_id, position, name, display_name, source, status, error, digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		pos,
		d.Name,
		d.DisplayName,
		d.Source,
		string(d.Status),
		d.ErrorText(),
		digest,
	)
	if err != nil {
		return fmt.Errorf("insert declaration %s: %w", d.Name, err)
	}

	for _, inv := range d.Invocations {
		args, err := canon.Marshal(inv.Arguments())
		if err != nil {
			return fmt.Errorf("invocation %s[%d]: marshal arguments: %w", d.Name, inv.Index, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO invocations
			(run_id, test, idx, seq, display_name, arguments, state, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			runID,
			d.Name,
			inv.Index,
			inv.Seq,
			inv.DisplayName,
			string(args),
			string(inv.State),
			inv.ErrorText(),
		)
		if err != nil {
			return fmt.Errorf("insert invocation %s[%d]: %w", d.Name, inv.Index, err)
		}
	}
	return nil
}
