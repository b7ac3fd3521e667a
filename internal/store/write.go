package store

import (
	"context"
	"fmt"
)

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, seq, label)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.Seq, run.Label)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteSolve inserts a solve record.
// Uses ON CONFLICT(run_id, seq) DO NOTHING: a replayed write is ignored.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteSolve(ctx context.Context, rec SolveRecord) error {
	witness, err := marshalWitness(rec.Witness)
	if err != nil {
		return fmt.Errorf("write solve: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO solves
		(run_id, seq, request_fp, implementation, spacetime, theory, status, witness,
		 expansions, backtracks, theory_checks, elapsed_ns, reason, cached)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		rec.RunID,
		rec.Seq,
		rec.RequestFP,
		rec.Implementation,
		rec.Spacetime,
		rec.Theory,
		rec.Status,
		witness,
		rec.Expansions,
		rec.Backtracks,
		rec.TheoryChecks,
		rec.ElapsedNS,
		rec.Reason,
		rec.Cached,
	)
	if err != nil {
		return fmt.Errorf("write solve: %w", err)
	}
	return nil
}
