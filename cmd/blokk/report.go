package main

import (
	"context"
	"fmt"

	"github.com/banshee-data/blokk/internal/catalog"
	"github.com/banshee-data/blokk/internal/db"
	"github.com/banshee-data/blokk/internal/report"
)

// cmdReport writes the partition histogram of a target and, for a stored
// run, an HTML view and STL mesh of its solved builds.
func cmdReport(ctx context.Context, args []string) error {
	fs := newFlagSet("report")
	rf := addRunFlags(fs)
	runID := fs.String("run", "", "Stored run to render (default: histogram of -target only)")
	sampleIdx := fs.Int("sample", -1, "Render only this sample of the run")
	limit := fs.Int("limit", 20, "Render at most this many solved builds (0 = all)")
	out := fs.String("out", "report", "Output directory")
	cells := fs.Int("cells", report.DefaultMeshCells, "STL mesh resolution")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := rf.config()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	e := report.NewExporter(*out)

	if *runID == "" {
		target := cfg.GetTargetVolume()
		counts, err := newSampler(cfg, cat).PartitionCounts(ctx, target, cfg.GetMaxPieceVolume())
		if err != nil {
			return err
		}
		path, err := e.PartitionPNG("partitions.png", target, counts)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, path)
		return nil
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
	// samples were drawn from the stored run's cap, not the flag's
	sampler := newSampler(cfg, cat)
	counts, err := sampler.PartitionCounts(ctx, run.TargetVolume, run.MaxPieceVolume)
	if err != nil {
		return err
	}
	path, err := e.PartitionPNG("partitions.png", run.TargetVolume, counts)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, path)

	var solutions []db.Solution
	if *sampleIdx >= 0 {
		sol, err := database.GetSolution(ctx, run.RunID, *sampleIdx)
		if err != nil {
			return err
		}
		if !sol.Solved {
			return fmt.Errorf("sample %d of run %s has no cover", *sampleIdx, run.RunID)
		}
		solutions = []db.Solution{sol}
	} else {
		if solutions, err = database.ListSolved(ctx, run.RunID); err != nil {
			return err
		}
		if *limit > 0 && len(solutions) > *limit {
			solutions = solutions[:*limit]
		}
	}

	for _, sol := range solutions {
		paths, err := renderSolution(ctx, database, cat, e, run, sol, *cells)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(stdout, p)
		}
	}
	return nil
}

func renderSolution(ctx context.Context, database *db.DB, cat *catalog.Catalog, e *report.Exporter, run db.Run, sol db.Solution, cells int) ([]string, error) {
	sample, err := database.GetSample(ctx, run.RunID, sol.SampleIdx)
	if err != nil {
		return nil, err
	}
	items, err := report.Items(cat, sample.IDs, sol.Build)
	if err != nil {
		return nil, fmt.Errorf("sample %d: %w", sol.SampleIdx, err)
	}
	base := fmt.Sprintf("sample-%06d", sol.SampleIdx)
	title := fmt.Sprintf("Run %s sample %d", run.RunID, sol.SampleIdx)
	html, err := e.BuildHTML(base+".html", title, items, run.CubeSize)
	if err != nil {
		return nil, err
	}
	stl, err := e.BuildSTL(base+".stl", items, cells)
	if err != nil {
		return nil, err
	}
	return []string{html, stl}, nil
}
