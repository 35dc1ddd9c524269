// Package monitoring holds the diagnostic logger shared by the solver, the
// store and the command line tool.
package monitoring

import (
	"io"
	"log"
	"os"

	"github.com/natefinch/lumberjack"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// FileConfig describes a size-rotated log file.
type FileConfig struct {
	Path       string
	MaxSizeMB  int // rotate after this many megabytes; 0 means 100
	MaxBackups int // old files kept; 0 keeps all
	MaxAgeDays int // old files removed after this many days; 0 keeps all
	Compress   bool
}

// NewFileLogger returns a printf logger writing to a rotating file, and the
// file to close when done. When alsoStderr is set, lines are copied to
// standard error as well.
func NewFileLogger(cfg FileConfig, alsoStderr bool) (func(format string, v ...interface{}), io.Closer) {
	lj := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	var w io.Writer = lj
	if alsoStderr {
		w = io.MultiWriter(lj, os.Stderr)
	}
	return log.New(w, "", log.LstdFlags).Printf, lj
}
