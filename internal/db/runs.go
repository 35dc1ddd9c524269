package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrRunNotFound = errors.New("run not found")

// Run describes one batch: the samples generated for a target volume and
// the strategy they are solved with.
type Run struct {
	RunID          string    `json:"run_id"`
	TargetVolume   int       `json:"target_volume"`
	CubeSize       int       `json:"cube_size"`
	MaxPieceVolume int       `json:"max_piece_volume"`
	Strategy       string    `json:"strategy"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateRun inserts r, assigning a RunID and CreatedAt when they are unset.
func (db *DB) CreateRun(ctx context.Context, r *Run) error {
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	err := retryOnBusy(func() error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO runs (run_id, target_volume, cube_size, max_piece_volume, strategy, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			r.RunID, r.TargetVolume, r.CubeSize, r.MaxPieceVolume, r.Strategy, r.CreatedAt.UnixMilli())
		return err
	})
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.RunID, err)
	}
	return nil
}

const runColumns = `run_id, target_volume, cube_size, max_piece_volume, strategy, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	var created int64
	if err := row.Scan(&r.RunID, &r.TargetVolume, &r.CubeSize, &r.MaxPieceVolume, &r.Strategy, &created); err != nil {
		return Run{}, err
	}
	r.CreatedAt = time.UnixMilli(created)
	return r, nil
}

// GetRun returns the run with the given id, or ErrRunNotFound.
func (db *DB) GetRun(ctx context.Context, runID string) (Run, error) {
	r, err := scanRun(db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return Run{}, fmt.Errorf("query run %s: %w", runID, err)
	}
	return r, nil
}

// ListRuns returns every run, newest first.
func (db *DB) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run together with its samples and solutions.
func (db *DB) DeleteRun(ctx context.Context, runID string) error {
	var n int64
	err := retryOnBusy(func() error {
		res, err := db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("delete run %s: %w", runID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}
