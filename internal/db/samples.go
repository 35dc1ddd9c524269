package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/banshee-data/blokk/internal/partition"
)

// ErrSampleNotFound is returned when a sample index is not stored for a run.
var ErrSampleNotFound = errors.New("sample not found")

// StoredSample is a sample with its position in the run.
type StoredSample struct {
	SampleIdx int `json:"sample_idx"`
	BatchIdx  int `json:"batch_idx"`
	partition.Sample
}

// InsertSamples appends samples to a run, numbering them after any already
// stored. Every batchSize consecutive samples share a batch index and are
// written in one transaction. It returns the number of samples written.
func (db *DB) InsertSamples(ctx context.Context, runID string, samples iter.Seq[partition.Sample], batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	next, err := db.CountSamples(ctx, runID)
	if err != nil {
		return 0, err
	}

	written := 0
	batch := make([]StoredSample, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := retryOnBusy(func() error { return db.insertBatch(ctx, runID, batch) }); err != nil {
			return fmt.Errorf("insert batch %d: %w", batch[0].BatchIdx, err)
		}
		written += len(batch)
		batch = batch[:0]
		return nil
	}

	for s := range samples {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		batch = append(batch, StoredSample{SampleIdx: next, BatchIdx: next / batchSize, Sample: s})
		next++
		// flush on batch boundaries so a batch index never spans transactions
		if next%batchSize == 0 {
			if err := flush(); err != nil {
				return written, err
			}
		}
	}
	if err := flush(); err != nil {
		return written, err
	}
	return written, nil
}

func (db *DB) insertBatch(ctx context.Context, runID string, batch []StoredSample) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO samples (run_id, sample_idx, integer_partition_idx, integer_partition, blokks, batch_idx)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range batch {
		parts, err := json.Marshal(orEmpty(s.Partition))
		if err != nil {
			return err
		}
		ids, err := json.Marshal(orEmpty(s.IDs))
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, runID, s.SampleIdx, s.PartitionIndex, string(parts), string(ids), s.BatchIdx); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// orEmpty keeps nil slices from being stored as JSON null.
func orEmpty(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

// CountSamples returns the number of samples stored for a run.
func (db *DB) CountSamples(ctx context.Context, runID string) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples WHERE run_id = ?`, runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count samples: %w", err)
	}
	return n, nil
}

// CountBatches returns the number of distinct batch indices in a run.
func (db *DB) CountBatches(ctx context.Context, runID string) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT batch_idx) FROM samples WHERE run_id = ?`, runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count batches: %w", err)
	}
	return n, nil
}

// GetBatch returns the samples of one batch in sample order.
func (db *DB) GetBatch(ctx context.Context, runID string, batchIdx int) ([]StoredSample, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT sample_idx, batch_idx, integer_partition_idx, integer_partition, blokks
		FROM samples WHERE run_id = ? AND batch_idx = ?
		ORDER BY sample_idx`, runID, batchIdx)
	if err != nil {
		return nil, fmt.Errorf("query batch %d: %w", batchIdx, err)
	}
	return scanSamples(rows)
}

// GetSample returns one stored sample, or ErrSampleNotFound.
func (db *DB) GetSample(ctx context.Context, runID string, sampleIdx int) (StoredSample, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT sample_idx, batch_idx, integer_partition_idx, integer_partition, blokks
		FROM samples WHERE run_id = ? AND sample_idx = ?`, runID, sampleIdx)
	if err != nil {
		return StoredSample{}, fmt.Errorf("query sample %d: %w", sampleIdx, err)
	}
	samples, err := scanSamples(rows)
	if err != nil {
		return StoredSample{}, err
	}
	if len(samples) == 0 {
		return StoredSample{}, fmt.Errorf("%w: %s/%d", ErrSampleNotFound, runID, sampleIdx)
	}
	return samples[0], nil
}

// StreamSamples calls fn with each batch of a run in order. Every page is
// read fully before fn runs, so fn may write to the same database.
// Iteration stops at the first error from fn.
func (db *DB) StreamSamples(ctx context.Context, runID string, fn func(batchIdx int, batch []StoredSample) error) error {
	after := -1
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var next sql.NullInt64
		err := db.QueryRowContext(ctx, `
			SELECT MIN(batch_idx) FROM samples WHERE run_id = ? AND batch_idx > ?`, runID, after).Scan(&next)
		if err != nil {
			return fmt.Errorf("query next batch: %w", err)
		}
		if !next.Valid {
			return nil
		}
		batchIdx := int(next.Int64)
		batch, err := db.GetBatch(ctx, runID, batchIdx)
		if err != nil {
			return err
		}
		if err := fn(batchIdx, batch); err != nil {
			return err
		}
		after = batchIdx
	}
}

func scanSamples(rows *sql.Rows) ([]StoredSample, error) {
	defer rows.Close()
	var out []StoredSample
	for rows.Next() {
		var s StoredSample
		var parts, ids string
		if err := rows.Scan(&s.SampleIdx, &s.BatchIdx, &s.PartitionIndex, &parts, &ids); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		if err := json.Unmarshal([]byte(parts), &s.Partition); err != nil {
			return nil, fmt.Errorf("decode partition of sample %d: %w", s.SampleIdx, err)
		}
		if err := json.Unmarshal([]byte(ids), &s.IDs); err != nil {
			return nil, fmt.Errorf("decode blokks of sample %d: %w", s.SampleIdx, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
