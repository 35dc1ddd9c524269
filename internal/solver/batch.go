package solver

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/blokk/internal/catalog"
	"github.com/banshee-data/blokk/internal/partition"
)

// ErrNotACube is returned when a target volume has no integer cube root.
var ErrNotACube = errors.New("solver: target volume is not a cube")

// Result is the outcome for one sample of a batch.
type Result struct {
	// Index is the position of the sample in the batch.
	Index  int
	Sample partition.Sample
	Build  Build
	Solved bool
}

// CubeSize returns n such that n³ == volume.
func CubeSize(volume int) (int, error) {
	if volume < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNotACube, volume)
	}
	n := 0
	// m <= volume/m² keeps m³ from overflowing near math.MaxInt.
	for m := 1; m <= volume/(m*m); m++ {
		n = m
	}
	if n*n*n != volume {
		return 0, fmt.Errorf("%w: %d", ErrNotACube, volume)
	}
	return n, nil
}

// SolveAll draws every sample for target from cat and solves each one in a
// cube of side ∛target. It returns one Result per sample in sample order,
// whether or not the sample was solved. maxPieceVolume <= 0 means no cap.
func SolveAll(ctx context.Context, cat *catalog.Catalog, target, maxPieceVolume int, opts ...Option) ([]Result, error) {
	n, err := CubeSize(target)
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	sampler := partition.NewSampler(cat)
	if o.extentFilter && n > 0 {
		sampler.Filter.CubeSize = n
	}
	total, err := sampler.Count(ctx, target, maxPieceVolume)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, total)
	collect := func(r Result) error {
		results = append(results, r)
		if o.handler != nil {
			return o.handler(r)
		}
		return nil
	}
	if err := run(ctx, cat, sampler.Samples(ctx, target, maxPieceVolume), total, n, collect, &o); err != nil {
		return nil, err
	}
	return results, nil
}

// SolveSamples solves each sample in a cube of side cubeSize and passes the
// results to handle in sample order. total is only used for progress
// reports and may be zero when unknown.
func SolveSamples(ctx context.Context, cat *catalog.Catalog, samples iter.Seq[partition.Sample], total, cubeSize int, handle func(Result) error, opts ...Option) error {
	o := buildOptions(opts)
	return run(ctx, cat, samples, total, cubeSize, handle, &o)
}

type job struct {
	index  int
	sample partition.Sample
}

func run(ctx context.Context, cat *catalog.Catalog, samples iter.Seq[partition.Sample], total, cubeSize int, handle func(Result) error, o *options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if o.cache == nil {
		o.cache = cat.Cache()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var done, solved atomic.Int64
	stopProgress := startProgress(o, total, &done, &solved)
	defer stopProgress()

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan job)
	out := make(chan Result)

	g.Go(func() error {
		defer close(jobs)
		i := 0
		for s := range samples {
			select {
			case jobs <- job{index: i, sample: s}:
			case <-gctx.Done():
				return gctx.Err()
			}
			i++
		}
		// A sample sequence bound to ctx ends quietly when it is cancelled.
		return ctx.Err()
	})

	var wg sync.WaitGroup
	for w := 0; w < o.workers; w++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for j := range jobs {
				shapes, err := cat.Shapes(j.sample.IDs)
				if err != nil {
					return fmt.Errorf("sample %d: %w", j.index, err)
				}
				var (
					build Build
					ok    bool
				)
				if cubeSize == 0 && len(shapes) == 0 {
					// The target-0 sample: nothing to place in an empty cube.
					build, ok = Build{}, true
				} else if build, ok, err = solve(gctx, shapes, cubeSize, o); err != nil {
					return fmt.Errorf("sample %d: %w", j.index, err)
				}
				select {
				case out <- Result{Index: j.index, Sample: j.sample, Build: build, Solved: ok}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		wg.Wait()
		close(out)
	}()

	// Workers finish out of order; hold results until their turn.
	pending := make(map[int]Result)
	next := 0
	var handleErr error
	for r := range out {
		if handleErr != nil {
			continue
		}
		pending[r.Index] = r
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			done.Add(1)
			if r.Solved {
				solved.Add(1)
			}
			if err := handle(r); err != nil {
				handleErr = err
				cancel()
				break
			}
		}
	}

	err := g.Wait()
	if handleErr != nil {
		return handleErr
	}
	return err
}

// startProgress reports progress on o.clock until the returned function is
// called, which also sends a final report.
func startProgress(o *options, total int, done, solved *atomic.Int64) func() {
	if o.progress == nil {
		return func() {}
	}
	start := o.clock.Now()
	snapshot := func() Progress {
		return Progress{
			Total:   total,
			Done:    int(done.Load()),
			Solved:  int(solved.Load()),
			Elapsed: o.clock.Since(start),
		}
	}

	ticker := o.clock.NewTicker(o.progressInterval)
	stop := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for {
			select {
			case <-ticker.C():
				o.progress(snapshot())
			case <-stop:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(stop)
		<-finished
		o.progress(snapshot())
	}
}
