package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/banshee-data/blokk/internal/catalog"
	"github.com/banshee-data/blokk/internal/config"
	"github.com/banshee-data/blokk/internal/monitoring"
	"github.com/banshee-data/blokk/internal/solver"
)

// runFlags are the flags shared by every command that samples, solves or
// touches the database. Only flags set on the command line override the
// config file.
type runFlags struct {
	fs         *flag.FlagSet
	configPath *string

	target    *int
	maxVolume *int
	extent    *bool
	workers   *int
	strategy  *string
	progress  *time.Duration
	batchSize *int
	catalog   *string
	dbPath    *string
	logFile   *string
}

func addRunFlags(fs *flag.FlagSet) *runFlags {
	return &runFlags{
		fs:         fs,
		configPath: fs.String("config", "", "Run config file (.json or .toml)"),
		target:     fs.Int("target", 27, "Target volume, a perfect cube"),
		maxVolume:  fs.Int("max-volume", 0, "Largest piece volume to sample (0 = no cap)"),
		extent:     fs.Bool("extent-filter", false, "Drop pieces that cannot fit the cube"),
		workers:    fs.Int("workers", 0, "Concurrent solver workers (0 = number of CPUs)"),
		strategy:   fs.String("strategy", "pruned", "Search strategy: pruned or exhaustive"),
		progress:   fs.Duration("progress", 5*time.Second, "Progress log interval"),
		batchSize:  fs.Int("batch-size", 10000, "Samples per database batch"),
		catalog:    fs.String("catalog", "", "Piece catalog JSON file (default: built-in set)"),
		dbPath:     fs.String("db", "blokk.db", "SQLite database path"),
		logFile:    fs.String("log-file", "", "Also write logs to this rotating file"),
	}
}

// config loads the config file named by -config, if any, and applies the
// flags that were set explicitly.
func (f *runFlags) config() (*config.RunConfig, error) {
	cfg := config.EmptyRunConfig()
	if *f.configPath != "" {
		loaded, err := config.LoadRunConfig(*f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	over := config.EmptyRunConfig()
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "target":
			over.TargetVolume = f.target
		case "max-volume":
			over.MaxPieceVolume = f.maxVolume
		case "extent-filter":
			over.FilterByExtent = f.extent
		case "workers":
			over.Workers = f.workers
		case "strategy":
			over.Strategy = f.strategy
		case "progress":
			s := f.progress.String()
			over.ProgressInterval = &s
		case "batch-size":
			over.BatchSize = f.batchSize
		case "catalog":
			over.CatalogPath = f.catalog
		case "db":
			over.DatabasePath = f.dbPath
		case "log-file":
			over.LogFile = f.logFile
		}
	})
	cfg.Merge(over)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// setupLogging routes monitoring.Logf to the configured log file as well
// as standard error. The returned closer flushes the file.
func setupLogging(cfg *config.RunConfig) io.Closer {
	path := cfg.GetLogFile()
	if path == "" {
		return nopCloser{}
	}
	logf, closer := monitoring.NewFileLogger(monitoring.FileConfig{
		Path:       path,
		MaxSizeMB:  50,
		MaxBackups: 5,
		Compress:   true,
	}, true)
	monitoring.SetLogger(logf)
	return closer
}

func loadCatalog(cfg *config.RunConfig) (*catalog.Catalog, error) {
	path := cfg.GetCatalogPath()
	if path == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("[catalog] loaded %d pieces from %s", cat.Len(), path)
	return cat, nil
}

// solverOptions translates the solving section of cfg. progress, when set,
// is reported at the configured interval.
func solverOptions(cfg *config.RunConfig, progress func(solver.Progress)) ([]solver.Option, error) {
	strategy, err := solver.ParseStrategy(cfg.GetStrategy())
	if err != nil {
		return nil, err
	}
	opts := []solver.Option{
		solver.WithStrategy(strategy),
		solver.WithWorkers(cfg.GetWorkers()),
		solver.WithExtentFilter(cfg.GetFilterByExtent()),
	}
	if progress != nil {
		opts = append(opts, solver.WithProgress(cfg.GetProgressInterval(), progress))
	}
	return opts, nil
}
