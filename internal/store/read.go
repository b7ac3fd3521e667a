package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const solveColumns = `run_id, seq, request_fp, implementation, spacetime, theory, status, witness,
	expansions, backtracks, theory_checks, elapsed_ns, reason, cached`

// LookupDefinitive returns the earliest definitive (found or exhausted)
// solve recorded for a request fingerprint. ok is false when none exists.
func (s *Store) LookupDefinitive(ctx context.Context, requestFP string) (rec SolveRecord, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+solveColumns+`
		FROM solves
		WHERE request_fp = ? AND status IN ('found', 'exhausted')
		ORDER BY cached ASC, seq ASC, run_id COLLATE BINARY ASC
		LIMIT 1
	`, requestFP)

	rec, err = scanSolve(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SolveRecord{}, false, nil
	}
	if err != nil {
		return SolveRecord{}, false, fmt.Errorf("lookup definitive: %w", err)
	}
	return rec, true, nil
}

// ReadRun returns every solve in a run ordered by seq.
//
// Returns an empty slice (not nil) if the run has no solves.
func (s *Store) ReadRun(ctx context.Context, runID string) ([]SolveRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+solveColumns+`
		FROM solves
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query solves: %w", err)
	}
	defer rows.Close()

	records := []SolveRecord{}
	for rows.Next() {
		rec, err := scanSolve(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate solves: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSolve(row scanner) (SolveRecord, error) {
	var rec SolveRecord
	var witness string
	err := row.Scan(
		&rec.RunID,
		&rec.Seq,
		&rec.RequestFP,
		&rec.Implementation,
		&rec.Spacetime,
		&rec.Theory,
		&rec.Status,
		&witness,
		&rec.Expansions,
		&rec.Backtracks,
		&rec.TheoryChecks,
		&rec.ElapsedNS,
		&rec.Reason,
		&rec.Cached,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SolveRecord{}, err
		}
		return SolveRecord{}, fmt.Errorf("scan solve: %w", err)
	}
	rec.Witness, err = unmarshalWitness(witness)
	if err != nil {
		return SolveRecord{}, err
	}
	return rec, nil
}
