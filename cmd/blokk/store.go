package main

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/banshee-data/blokk/internal/config"
	"github.com/banshee-data/blokk/internal/db"
	"github.com/banshee-data/blokk/internal/monitoring"
	"github.com/banshee-data/blokk/internal/partition"
	"github.com/banshee-data/blokk/internal/solver"
)

func openDB(cfg *config.RunConfig) (*db.DB, error) {
	database, err := db.NewDB(cfg.GetDatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// cmdSample stores every sample of the configured target as a new run.
func cmdSample(ctx context.Context, args []string) error {
	fs := newFlagSet("sample")
	rf := addRunFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := rf.config()
	if err != nil {
		return err
	}
	defer setupLogging(cfg).Close()
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	target := cfg.GetTargetVolume()
	n, err := solver.CubeSize(target)
	if err != nil {
		return err
	}

	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	run := db.Run{
		TargetVolume:   target,
		CubeSize:       n,
		MaxPieceVolume: cfg.GetMaxPieceVolume(),
		Strategy:       cfg.GetStrategy(),
	}
	if err := database.CreateRun(ctx, &run); err != nil {
		return err
	}

	sampler := newSampler(cfg, cat)
	total, err := sampler.Count(ctx, target, run.MaxPieceVolume)
	if err != nil {
		return fmt.Errorf("run %s: %w", run.RunID, err)
	}
	monitoring.Logf("[sample] run %s: storing %s samples for target %d in batches of %s",
		run.RunID, humanize.Comma(int64(total)), target, humanize.Comma(int64(cfg.GetBatchSize())))
	start := time.Now()
	written, err := database.InsertSamples(ctx, run.RunID, sampler.Samples(ctx, target, run.MaxPieceVolume), cfg.GetBatchSize())
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", run.RunID, err)
	}
	monitoring.Logf("[sample] run %s: stored %s samples in %s",
		run.RunID, humanize.Comma(int64(written)), time.Since(start).Round(time.Millisecond))

	fmt.Fprintln(stdout, run.RunID)
	return nil
}

func storedSamples(batch []db.StoredSample) iter.Seq[partition.Sample] {
	return func(yield func(partition.Sample) bool) {
		for _, s := range batch {
			if !yield(s.Sample) {
				return
			}
		}
	}
}

// cmdSolveDB solves the stored samples of a run one batch at a time and
// records every outcome. Re-running replaces earlier outcomes.
func cmdSolveDB(ctx context.Context, args []string) error {
	fs := newFlagSet("solve-db")
	rf := addRunFlags(fs)
	runID := fs.String("run", "", "Run ID (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return fmt.Errorf("-run is required")
	}
	cfg, err := rf.config()
	if err != nil {
		return err
	}
	defer setupLogging(cfg).Close()
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	run, err := database.GetRun(ctx, *runID)
	if err != nil {
		return err
	}
	if cfg.Strategy == nil {
		cfg.Strategy = &run.Strategy
	}
	opts, err := solverOptions(cfg, nil)
	if err != nil {
		return err
	}
	batches, err := database.CountBatches(ctx, run.RunID)
	if err != nil {
		return err
	}

	start := time.Now()
	solved := 0
	err = database.StreamSamples(ctx, run.RunID, func(batchIdx int, batch []db.StoredSample) error {
		solutions := make([]db.Solution, 0, len(batch))
		handle := func(r solver.Result) error {
			solutions = append(solutions, db.Solution{
				RunID:     run.RunID,
				SampleIdx: batch[r.Index].SampleIdx,
				Solved:    r.Solved,
				Build:     r.Build,
			})
			if r.Solved {
				solved++
			}
			return nil
		}
		if err := solver.SolveSamples(ctx, cat, storedSamples(batch), len(batch), run.CubeSize, handle, opts...); err != nil {
			return fmt.Errorf("batch %d: %w", batchIdx, err)
		}
		if err := database.InsertSolutions(ctx, solutions); err != nil {
			return fmt.Errorf("batch %d: %w", batchIdx, err)
		}
		monitoring.Logf("[solve-db] batch %d/%d: %s solved so far, %s elapsed",
			batchIdx+1, batches, humanize.Comma(int64(solved)), time.Since(start).Round(time.Second))
		return nil
	})
	if err != nil {
		return err
	}

	sum, err := database.SummarizeRun(ctx, run.RunID)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "run %s: %s/%s samples solved, %s unattempted\n", run.RunID,
		humanize.Comma(int64(sum.Solved)), humanize.Comma(int64(sum.Samples)), humanize.Comma(int64(sum.Remaining())))
	return nil
}

func cmdRuns(ctx context.Context, args []string) error {
	fs := newFlagSet("runs")
	rf := addRunFlags(fs)
	del := fs.String("delete", "", "Delete this run and everything stored for it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := rf.config()
	if err != nil {
		return err
	}
	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if *del != "" {
		if err := database.DeleteRun(ctx, *del); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "deleted run %s\n", *del)
		return nil
	}

	runs, err := database.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "no runs")
		return nil
	}
	fmt.Fprintf(stdout, "%-36s  %-16s  %6s  %4s  %-10s  %12s  %12s  %10s\n",
		"RUN", "CREATED", "TARGET", "MAX", "STRATEGY", "SAMPLES", "ATTEMPTED", "SOLVED")
	for _, r := range runs {
		sum, err := database.SummarizeRun(ctx, r.RunID)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%-36s  %-16s  %6d  %4d  %-10s  %12s  %12s  %10s\n",
			r.RunID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.TargetVolume, r.MaxPieceVolume, r.Strategy,
			humanize.Comma(int64(sum.Samples)), humanize.Comma(int64(sum.Attempts)), humanize.Comma(int64(sum.Solved)))
	}
	return nil
}

func cmdMigrate(args []string) error {
	fs := newFlagSet("migrate")
	rf := addRunFlags(fs)
	fs.Usage = func() {
		db.MigrateCommand{Out: stderr}.PrintHelp()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := rf.config()
	if err != nil {
		return err
	}
	return db.MigrateCommand{DBPath: cfg.GetDatabasePath(), In: stdin, Out: stdout}.Run(fs.Args())
}
