package solver

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/banshee-data/blokk/internal/geometry"
	"github.com/banshee-data/blokk/internal/timeutil"
)

// Strategy selects how the placement product is searched.
type Strategy int

const (
	// StrategyPruned walks the product depth first and skips every tuple
	// sharing a colliding prefix. It is the default.
	StrategyPruned Strategy = iota
	// StrategyExhaustive tests every full tuple of the product in order.
	StrategyExhaustive
)

func (s Strategy) String() string {
	switch s {
	case StrategyPruned:
		return "pruned"
	case StrategyExhaustive:
		return "exhaustive"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy accepts "pruned" or "exhaustive", case-insensitively.
// The empty string selects the default.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pruned":
		return StrategyPruned, nil
	case "exhaustive":
		return StrategyExhaustive, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q (want pruned or exhaustive)", s)
	}
}

// Progress is a snapshot of a batch run.
type Progress struct {
	Total   int
	Done    int
	Solved  int
	Elapsed time.Duration
}

type options struct {
	strategy         Strategy
	cache            *geometry.PlacementCache
	workers          int
	handler          func(Result) error
	progress         func(Progress)
	progressInterval time.Duration
	clock            timeutil.Clock
	extentFilter     bool
}

// Option configures Solve and the batch functions.
type Option func(*options)

func buildOptions(opts []Option) options {
	o := options{
		strategy:         StrategyPruned,
		workers:          runtime.NumCPU(),
		progressInterval: 5 * time.Second,
		clock:            timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = 1
	}
	return o
}

// WithStrategy selects the search strategy.
func WithStrategy(s Strategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithCache shares a placement cache between calls. Without it Solve
// computes placements directly and the batch functions use the catalog's
// cache.
func WithCache(c *geometry.PlacementCache) Option {
	return func(o *options) { o.cache = c }
}

// WithWorkers bounds the number of samples solved concurrently.
// Values below 1 are treated as 1. The default is runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithResultHandler receives every batch result in sample order as soon as
// it and all earlier results are available. An error from h stops the run
// and is returned.
func WithResultHandler(h func(Result) error) Option {
	return func(o *options) { o.handler = h }
}

// WithProgress calls fn every interval while a batch runs, and once more
// when it ends.
func WithProgress(interval time.Duration, fn func(Progress)) Option {
	return func(o *options) {
		if interval > 0 {
			o.progressInterval = interval
		}
		o.progress = fn
	}
}

// WithClock replaces the clock used for progress reporting.
func WithClock(c timeutil.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithExtentFilter drops pieces whose bounding extent exceeds the cube size
// before samples are drawn. Such pieces have no placements, so this only
// removes samples that cannot be solved.
func WithExtentFilter(on bool) Option {
	return func(o *options) { o.extentFilter = on }
}
