package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/blokk/internal/geometry"
)

var ErrSolutionNotFound = errors.New("solution not found")

// Solution is the outcome of solving one stored sample. Build holds one
// placed shape per piece, in sample order, and is empty when the sample
// could not be solved.
type Solution struct {
	RunID     string           `json:"run_id"`
	SampleIdx int              `json:"sample_idx"`
	Solved    bool             `json:"solved"`
	Build     []geometry.Shape `json:"build,omitempty"`
	SolvedAt  time.Time        `json:"solved_at"`
}

// InsertSolutions writes solutions in one transaction, replacing any earlier
// outcome for the same sample.
func (db *DB) InsertSolutions(ctx context.Context, solutions []Solution) error {
	if len(solutions) == 0 {
		return nil
	}
	err := retryOnBusy(func() error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO solutions (run_id, sample_idx, solved, build, solved_at)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, s := range solutions {
			var build sql.NullString
			if s.Solved {
				data, err := json.Marshal(s.Build)
				if err != nil {
					return fmt.Errorf("encode build of sample %d: %w", s.SampleIdx, err)
				}
				build = sql.NullString{String: string(data), Valid: true}
			}
			at := s.SolvedAt
			if at.IsZero() {
				at = time.Now()
			}
			if _, err := stmt.ExecContext(ctx, s.RunID, s.SampleIdx, s.Solved, build, at.UnixMilli()); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("insert solutions: %w", err)
	}
	return nil
}

const solutionColumns = `run_id, sample_idx, solved, build, solved_at`

func scanSolution(row rowScanner) (Solution, error) {
	var s Solution
	var build sql.NullString
	var at int64
	if err := row.Scan(&s.RunID, &s.SampleIdx, &s.Solved, &build, &at); err != nil {
		return Solution{}, err
	}
	s.SolvedAt = time.UnixMilli(at)
	if build.Valid && build.String != "" {
		if err := json.Unmarshal([]byte(build.String), &s.Build); err != nil {
			return Solution{}, fmt.Errorf("decode build of sample %d: %w", s.SampleIdx, err)
		}
	}
	return s, nil
}

// GetSolution returns the stored outcome of one sample.
func (db *DB) GetSolution(ctx context.Context, runID string, sampleIdx int) (Solution, error) {
	s, err := scanSolution(db.QueryRowContext(ctx,
		`SELECT `+solutionColumns+` FROM solutions WHERE run_id = ? AND sample_idx = ?`, runID, sampleIdx))
	if errors.Is(err, sql.ErrNoRows) {
		return Solution{}, fmt.Errorf("%w: run %s sample %d", ErrSolutionNotFound, runID, sampleIdx)
	}
	if err != nil {
		return Solution{}, fmt.Errorf("query solution: %w", err)
	}
	return s, nil
}

// ListSolved returns the solved samples of a run in sample order.
func (db *DB) ListSolved(ctx context.Context, runID string) ([]Solution, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+solutionColumns+` FROM solutions WHERE run_id = ? AND solved = 1 ORDER BY sample_idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("query solved: %w", err)
	}
	defer rows.Close()

	var out []Solution
	for rows.Next() {
		s, err := scanSolution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan solution: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RunSummary counts a run's samples and outcomes.
type RunSummary struct {
	Samples  int `json:"samples"`
	Batches  int `json:"batches"`
	Attempts int `json:"attempted"`
	Solved   int `json:"solved"`
}

// Remaining returns how many samples have no recorded outcome.
func (s RunSummary) Remaining() int { return s.Samples - s.Attempts }

// SummarizeRun counts the samples and solutions stored for a run.
func (db *DB) SummarizeRun(ctx context.Context, runID string) (RunSummary, error) {
	var s RunSummary
	err := db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM samples WHERE run_id = ?1),
			(SELECT COUNT(DISTINCT batch_idx) FROM samples WHERE run_id = ?1),
			(SELECT COUNT(*) FROM solutions WHERE run_id = ?1),
			(SELECT COUNT(*) FROM solutions WHERE run_id = ?1 AND solved = 1)`, runID).
		Scan(&s.Samples, &s.Batches, &s.Attempts, &s.Solved)
	if err != nil {
		return RunSummary{}, fmt.Errorf("summarize run %s: %w", runID, err)
	}
	return s, nil
}

// CountSolved returns the number of solved samples in a run.
func (db *DB) CountSolved(ctx context.Context, runID string) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM solutions WHERE run_id = ? AND solved = 1`, runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count solved: %w", err)
	}
	return n, nil
}
