package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/banshee-data/blokk/internal/catalog"
	"github.com/banshee-data/blokk/internal/partition"
	"github.com/banshee-data/blokk/internal/report"
	"github.com/banshee-data/blokk/internal/solver"
)

func parseIDs(s string) ([]int, error) {
	var ids []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid piece ID %q", f)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no piece IDs given")
	}
	return ids, nil
}

// printBuild writes one line per placed piece.
func printBuild(cat *catalog.Catalog, ids []int, build solver.Build) {
	for i, s := range build {
		p, err := cat.Piece(ids[i])
		name := ""
		if err == nil {
			name = p.Name
		}
		fmt.Fprintf(stdout, "  %3d %-10s %s\n", ids[i], name, s)
	}
}

func cmdSolve(ctx context.Context, args []string) error {
	fs := newFlagSet("solve")
	rf := addRunFlags(fs)
	idList := fs.String("ids", "", "Comma-separated piece IDs (required)")
	size := fs.Int("size", 0, "Cube side length (default: cube root of the total volume)")
	out := fs.String("out", "", "Write build.html and build.stl to this directory")
	cells := fs.Int("cells", report.DefaultMeshCells, "STL mesh resolution")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := rf.config()
	if err != nil {
		return err
	}
	ids, err := parseIDs(*idList)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	n := *size
	if n == 0 {
		volume := 0
		for _, id := range ids {
			v, err := cat.Volume(id)
			if err != nil {
				return err
			}
			volume += v
		}
		if n, err = solver.CubeSize(volume); err != nil {
			return err
		}
	}

	opts, err := solverOptions(cfg, nil)
	if err != nil {
		return err
	}
	start := time.Now()
	build, ok, err := solver.SolveIDs(ctx, cat, ids, n, opts...)
	if err != nil {
		return err
	}
	elapsed := time.Since(start).Round(time.Millisecond)
	if !ok {
		fmt.Fprintf(stdout, "%s: no cover of the %d-cube (%s)\n", partition.Key(n*n*n, ids), n, elapsed)
		return nil
	}
	fmt.Fprintf(stdout, "%s: solved in %s\n", partition.Key(n*n*n, ids), elapsed)
	printBuild(cat, ids, build)

	if *out == "" {
		return nil
	}
	items, err := report.Items(cat, ids, build)
	if err != nil {
		return err
	}
	e := report.NewExporter(*out)
	title := fmt.Sprintf("%d-cube from %s", n, strings.Trim(fmt.Sprint(ids), "[]"))
	if _, err := e.BuildHTML("build.html", title, items, n); err != nil {
		return err
	}
	_, err = e.BuildSTL("build.stl", items, *cells)
	return err
}

func cmdSolveAll(ctx context.Context, args []string) error {
	fs := newFlagSet("solve-all")
	rf := addRunFlags(fs)
	show := fs.Int("show", 10, "Print at most this many solved builds (-1 = all)")
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
	// the runner logs progress itself; a no-op hook carries the interval
	opts, err := solverOptions(cfg, func(solver.Progress) {})
	if err != nil {
		return err
	}

	target := cfg.GetTargetVolume()
	runner := solver.NewRunner(cat, opts...)
	if err := runner.Start(ctx, target, cfg.GetMaxPieceVolume()); err != nil {
		return err
	}
	results, err := runner.Wait()
	if err != nil {
		return err
	}
	state := runner.State()

	n, _ := solver.CubeSize(target)
	shown := 0
	for _, r := range results {
		if !r.Solved || (*show >= 0 && shown >= *show) {
			continue
		}
		shown++
		fmt.Fprintln(stdout, partition.Key(target, r.Sample.IDs))
		printBuild(cat, r.Sample.IDs, r.Build)
	}
	fmt.Fprintf(stdout, "%s of %s samples cover the %d-cube\n",
		humanize.Comma(int64(state.Solved)), humanize.Comma(int64(len(results))), n)
	return nil
}
