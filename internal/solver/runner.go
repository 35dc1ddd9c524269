package solver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/banshee-data/blokk/internal/catalog"
	"github.com/banshee-data/blokk/internal/monitoring"
)

// RunStatus is the lifecycle state of a Runner.
type RunStatus string

const (
	RunStatusIdle     RunStatus = "idle"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusError    RunStatus = "error"
)

// RunState is a snapshot of a batch run.
type RunState struct {
	Status         RunStatus  `json:"status"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Target         int        `json:"target_volume"`
	MaxPieceVolume int        `json:"max_piece_volume"`
	Total          int        `json:"total"`
	Done           int        `json:"done"`
	Solved         int        `json:"solved"`
	Error          string     `json:"error,omitempty"`
}

// Running reports whether the run has started and not yet finished.
func (s RunState) Running() bool { return s.Status == RunStatusRunning }

// Runner runs SolveAll in the background and tracks its progress.
type Runner struct {
	cat  *catalog.Catalog
	opts []Option

	mu      sync.RWMutex
	state   RunState
	cancel  context.CancelFunc
	done    chan struct{}
	results []Result
	err     error
}

// NewRunner returns an idle runner. opts are passed to every SolveAll call.
func NewRunner(cat *catalog.Catalog, opts ...Option) *Runner {
	return &Runner{
		cat:   cat,
		opts:  opts,
		state: RunState{Status: RunStatusIdle},
	}
}

// Start begins a batch run for target. It returns an error if a run is
// already in progress.
func (r *Runner) Start(ctx context.Context, target, maxPieceVolume int) error {
	n, err := CubeSize(target)
	if err != nil {
		return err
	}
	o := buildOptions(r.opts)

	r.mu.Lock()
	if r.state.Status == RunStatusRunning {
		r.mu.Unlock()
		return fmt.Errorf("run already in progress")
	}
	now := o.clock.Now()
	r.state = RunState{
		Status:         RunStatusRunning,
		StartedAt:      &now,
		Target:         target,
		MaxPieceVolume: maxPieceVolume,
	}
	r.results = nil
	r.err = nil
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	opts := append(r.opts[:len(r.opts):len(r.opts)], WithProgress(o.progressInterval, r.onProgress(o.progress)))
	// Counting and sampling happen in here, under runCtx.
	go func() {
		defer close(done)
		defer cancel()
		monitoring.Logf("[solve] target %d in a %d-cube (max piece volume %d)", target, n, maxPieceVolume)
		results, err := SolveAll(runCtx, r.cat, target, maxPieceVolume, opts...)
		end := o.clock.Now()

		r.mu.Lock()
		defer r.mu.Unlock()
		r.results = results
		r.err = err
		r.state.CompletedAt = &end
		if err != nil {
			r.state.Status = RunStatusError
			r.state.Error = err.Error()
			monitoring.Logf("[solve] run failed: %v", err)
			return
		}
		r.state.Status = RunStatusComplete
		monitoring.Logf("[solve] done: %s/%s samples solved in %s",
			humanize.Comma(int64(r.state.Solved)), humanize.Comma(int64(len(results))), end.Sub(now).Round(time.Millisecond))
	}()
	return nil
}

// onProgress updates the state and logs, then forwards to next if set.
func (r *Runner) onProgress(next func(Progress)) func(Progress) {
	return func(p Progress) {
		r.mu.Lock()
		r.state.Total = p.Total
		r.state.Done = p.Done
		r.state.Solved = p.Solved
		r.mu.Unlock()

		pct := 100.0
		if p.Total > 0 {
			pct = 100 * float64(p.Done) / float64(p.Total)
		}
		monitoring.Logf("[solve] %s/%s samples (%.1f%%), %s solved, %s elapsed",
			humanize.Comma(int64(p.Done)), humanize.Comma(int64(p.Total)), pct,
			humanize.Comma(int64(p.Solved)), p.Elapsed.Round(time.Second))
		if next != nil {
			next(p)
		}
	}
}

// State returns a copy of the current run state.
func (r *Runner) State() RunState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Stop cancels a running batch. Wait still has to be called to collect it.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// Wait blocks until the current run finishes and returns its results.
// It returns immediately if no run was started.
func (r *Runner) Wait() ([]Result, error) {
	r.mu.RLock()
	done := r.done
	r.mu.RUnlock()
	if done == nil {
		return nil, nil
	}
	<-done

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.results, r.err
}
