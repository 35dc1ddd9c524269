// Package db persists batch runs in SQLite: the generated samples, grouped
// into batches, and the outcome of solving each one.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/multierr"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/banshee-data/blokk/internal/monitoring"
)

// DefaultBatchSize is the number of samples grouped under one batch index
// and written in one transaction.
const DefaultBatchSize = 10000

// pragmas are applied to every pooled connection.
var pragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
	"foreign_keys(1)",
}

type DB struct {
	*sql.DB
	path string
}

// OpenDB opens the database at path without touching the schema.
func OpenDB(path string) (*DB, error) {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	db, err := sql.Open("sqlite", path+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		// every new connection would see an empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &DB{DB: db, path: path}, nil
}

// NewDB opens the database at path and applies every pending migration.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	migrations, err := getMigrationsFS()
	if err != nil {
		return nil, multierr.Append(err, db.DB.Close())
	}
	if err := db.MigrateUp(migrations); err != nil {
		return nil, multierr.Append(err, db.DB.Close())
	}
	return db, nil
}

// Path returns the path the database was opened with.
func (db *DB) Path() string { return db.path }

// Close checkpoints the write-ahead log and closes the pool.
func (db *DB) Close() error {
	var err error
	if db.path != ":memory:" {
		if _, cerr := db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("checkpoint: %w", cerr))
		}
	}
	return multierr.Append(err, db.DB.Close())
}

const (
	busyAttempts = 5
	busyBackoff  = 50 * time.Millisecond
)

// retryOnBusy runs fn until it succeeds, fails with something other than
// SQLITE_BUSY or SQLITE_LOCKED, or runs out of attempts.
func retryOnBusy(fn func() error) error {
	var err error
	for attempt := 0; attempt < busyAttempts; attempt++ {
		if err = fn(); err == nil || !isBusy(err) {
			return err
		}
		monitoring.Logf("[db] database busy, retry %d/%d: %v", attempt+1, busyAttempts, err)
		time.Sleep(busyBackoff << attempt)
	}
	return err
}

func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}
