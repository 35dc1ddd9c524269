package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/multierr"

	"github.com/banshee-data/blokk/internal/catalog"
	"github.com/banshee-data/blokk/internal/config"
	"github.com/banshee-data/blokk/internal/partition"
	"github.com/banshee-data/blokk/internal/solver"
)

// newSampler returns a sampler over cat, narrowed to pieces that fit the
// target cube when filter_by_extent is set.
func newSampler(cfg *config.RunConfig, cat *catalog.Catalog) *partition.Sampler {
	s := partition.NewSampler(cat)
	if cfg.GetFilterByExtent() {
		if n, err := solver.CubeSize(cfg.GetTargetVolume()); err == nil && n > 0 {
			s.Filter.CubeSize = n
		}
	}
	return s
}

func formatParts(parts []int) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = strconv.Itoa(p)
	}
	return strings.Join(s, "+")
}

func cmdPartitions(ctx context.Context, args []string) error {
	fs := newFlagSet("partitions")
	rf := addRunFlags(fs)
	counts := fs.Bool("counts", false, "Show the number of samples per partition")
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
	sampler := newSampler(cfg, cat)
	target, maxVolume := cfg.GetTargetVolume(), cfg.GetMaxPieceVolume()

	if !*counts {
		ips, err := sampler.FeasiblePartitions(ctx, target, maxVolume)
		if err != nil {
			return err
		}
		for _, ip := range ips {
			fmt.Fprintf(stdout, "%6d  %s\n", ip.Index, formatParts(ip.Parts))
		}
		return nil
	}
	pcs, err := sampler.PartitionCounts(ctx, target, maxVolume)
	if err != nil {
		return err
	}
	total := 0
	for _, pc := range pcs {
		fmt.Fprintf(stdout, "%6d  %-24s %12s\n", pc.Index, formatParts(pc.Parts), humanize.Comma(int64(pc.Samples)))
		total += pc.Samples
	}
	fmt.Fprintf(stdout, "%d partitions, %s samples\n", len(pcs), humanize.Comma(int64(total)))
	return nil
}

func cmdPlacements(args []string) error {
	fs := newFlagSet("placements")
	rf := addRunFlags(fs)
	id := fs.Int("id", 0, "Piece ID (required)")
	size := fs.Int("size", 3, "Cube side length")
	list := fs.Bool("list", false, "Print every placement")
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
	piece, err := cat.Piece(*id)
	if err != nil {
		return err
	}
	placements, err := cat.Placements(*id, *size)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "piece %d (%s): %d placements in a %d-cube\n", piece.ID, piece.Name, len(placements), *size)
	if *list {
		for _, p := range placements {
			fmt.Fprintln(stdout, p)
		}
	}
	return nil
}

func cmdSamples(ctx context.Context, args []string) error {
	fs := newFlagSet("samples")
	rf := addRunFlags(fs)
	limit := fs.Int("limit", 0, "Stop after this many samples (0 = all)")
	asJSON := fs.Bool("json", false, "Print samples as JSON lines instead of keys")
	countOnly := fs.Bool("count", false, "Only print the number of samples")
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
	sampler := newSampler(cfg, cat)
	target, maxVolume := cfg.GetTargetVolume(), cfg.GetMaxPieceVolume()

	if *countOnly {
		n, err := sampler.Count(ctx, target, maxVolume)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, n)
		return nil
	}
	enc := json.NewEncoder(stdout)
	n := 0
	for s := range sampler.Samples(ctx, target, maxVolume) {
		if *limit > 0 && n >= *limit {
			break
		}
		n++
		if *asJSON {
			if err := enc.Encode(s); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintln(stdout, partition.Key(target, s.IDs))
	}
	return ctx.Err()
}

func cmdCatalog(args []string) (err error) {
	fs := newFlagSet("catalog")
	rf := addRunFlags(fs)
	out := fs.String("o", "", "Write to this file instead of standard output")
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
	if *out == "" {
		return cat.WriteJSON(stdout)
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	return cat.WriteJSON(f)
}
