// Package api serves stored runs and a background solve over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/blokk/internal/catalog"
	"github.com/banshee-data/blokk/internal/db"
	"github.com/banshee-data/blokk/internal/httputil"
	"github.com/banshee-data/blokk/internal/monitoring"
	"github.com/banshee-data/blokk/internal/partition"
	"github.com/banshee-data/blokk/internal/report"
	"github.com/banshee-data/blokk/internal/solver"
)

// ANSI escape codes for the request log
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server exposes the store and one Runner. Runs started over HTTP use the
// server's base context, so they outlive the request that started them.
type Server struct {
	ctx    context.Context
	db     *db.DB
	cat    *catalog.Catalog
	runner *solver.Runner
}

// NewServer returns a server over database and cat. Background solves use
// runner and stop when ctx is cancelled.
func NewServer(ctx context.Context, database *db.DB, cat *catalog.Catalog, runner *solver.Runner) *Server {
	return &Server{
		ctx:    ctx,
		db:     database,
		cat:    cat,
		runner: runner,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns the routes of the API.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/catalog", s.showCatalog)

	mux.HandleFunc("GET /api/solve", s.showSolve)
	mux.HandleFunc("POST /api/solve", s.startSolve)
	mux.HandleFunc("DELETE /api/solve", s.stopSolve)
	mux.HandleFunc("GET /api/solve/results", s.listSolveResults)

	mux.HandleFunc("GET /api/runs", s.listRuns)
	mux.HandleFunc("GET /api/runs/{run}", s.showRun)
	mux.HandleFunc("DELETE /api/runs/{run}", s.deleteRun)
	mux.HandleFunc("GET /api/runs/{run}/solutions", s.listSolutions)
	mux.HandleFunc("GET /api/runs/{run}/partitions.png", s.partitionChart)
	mux.HandleFunc("GET /api/runs/{run}/samples/{sample}", s.showSample)
	mux.HandleFunc("GET /api/runs/{run}/samples/{sample}/build.html", s.buildChart)
	return mux
}

// RunInfo is a stored run with its progress.
type RunInfo struct {
	db.Run
	Samples  int `json:"samples"`
	Batches  int `json:"batches"`
	Attempts int `json:"attempts"`
	Solved   int `json:"solved"`
}

// SampleInfo is a stored sample with its outcome, if solved yet.
type SampleInfo struct {
	db.StoredSample
	Solution *db.Solution `json:"solution,omitempty"`
}

// SolveRequest starts a background solve.
type SolveRequest struct {
	TargetVolume   int `json:"target_volume"`
	MaxPieceVolume int `json:"max_piece_volume"`
}

// SolvedSample is one covered sample of a background solve.
type SolvedSample struct {
	Key   string       `json:"key"`
	IDs   []int        `json:"blokks"`
	Build solver.Build `json:"build"`
}

func (s *Server) showCatalog(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, s.cat.Pieces())
}

func (s *Server) showSolve(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, s.runner.State())
}

func (s *Server) startSolve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.TargetVolume < 0 || req.MaxPieceVolume < 0 {
		httputil.BadRequest(w, "target_volume and max_piece_volume must be non-negative")
		return
	}
	if s.runner.State().Running() {
		httputil.Conflict(w, "run already in progress")
		return
	}
	if err := s.runner.Start(s.ctx, req.TargetVolume, req.MaxPieceVolume); err != nil {
		if errors.Is(err, solver.ErrNotACube) {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.Conflict(w, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, s.runner.State())
}

func (s *Server) stopSolve(w http.ResponseWriter, r *http.Request) {
	s.runner.Stop()
	httputil.WriteJSON(w, http.StatusAccepted, s.runner.State())
}

func (s *Server) listSolveResults(w http.ResponseWriter, r *http.Request) {
	state := s.runner.State()
	if state.Running() {
		httputil.Conflict(w, "run still in progress")
		return
	}
	results, err := s.runner.Wait()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("run failed: %v", err))
		return
	}
	solved := []SolvedSample{}
	for _, res := range results {
		if res.Solved {
			solved = append(solved, SolvedSample{
				Key:   partition.Key(state.Target, res.Sample.IDs),
				IDs:   res.Sample.IDs,
				Build: res.Build,
			})
		}
	}
	httputil.WriteJSONOK(w, solved)
}

func (s *Server) runInfo(ctx context.Context, run db.Run) (RunInfo, error) {
	sum, err := s.db.SummarizeRun(ctx, run.RunID)
	if err != nil {
		return RunInfo{}, err
	}
	return RunInfo{
		Run:      run,
		Samples:  sum.Samples,
		Batches:  sum.Batches,
		Attempts: sum.Attempts,
		Solved:   sum.Solved,
	}, nil
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.db.ListRuns(r.Context())
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to list runs: %v", err))
		return
	}
	out := make([]RunInfo, 0, len(runs))
	for _, run := range runs {
		info, err := s.runInfo(r.Context(), run)
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("Failed to summarize run %s: %v", run.RunID, err))
			return
		}
		out = append(out, info)
	}
	httputil.WriteJSONOK(w, out)
}

// lookupRun loads the {run} path value, writing the error response itself
// when it fails.
func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (db.Run, bool) {
	run, err := s.db.GetRun(r.Context(), r.PathValue("run"))
	switch {
	case errors.Is(err, db.ErrRunNotFound):
		httputil.NotFound(w, err.Error())
		return db.Run{}, false
	case err != nil:
		httputil.InternalServerError(w, fmt.Sprintf("Failed to load run: %v", err))
		return db.Run{}, false
	}
	return run, true
}

func sampleIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(r.PathValue("sample"))
	if err != nil || idx < 0 {
		httputil.BadRequest(w, "Invalid sample index")
		return 0, false
	}
	return idx, true
}

func (s *Server) showRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	info, err := s.runInfo(r.Context(), run)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to summarize run: %v", err))
		return
	}
	httputil.WriteJSONOK(w, info)
}

func (s *Server) deleteRun(w http.ResponseWriter, r *http.Request) {
	err := s.db.DeleteRun(r.Context(), r.PathValue("run"))
	switch {
	case errors.Is(err, db.ErrRunNotFound):
		httputil.NotFound(w, err.Error())
	case err != nil:
		httputil.InternalServerError(w, fmt.Sprintf("Failed to delete run: %v", err))
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) listSolutions(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	solutions, err := s.db.ListSolved(r.Context(), run.RunID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to list solutions: %v", err))
		return
	}
	if solutions == nil {
		solutions = []db.Solution{}
	}
	httputil.WriteJSONOK(w, solutions)
}

func (s *Server) showSample(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	idx, ok := sampleIndex(w, r)
	if !ok {
		return
	}
	sample, err := s.db.GetSample(r.Context(), run.RunID, idx)
	if errors.Is(err, db.ErrSampleNotFound) {
		httputil.NotFound(w, err.Error())
		return
	} else if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to load sample: %v", err))
		return
	}
	info := SampleInfo{StoredSample: sample}
	sol, err := s.db.GetSolution(r.Context(), run.RunID, idx)
	switch {
	case err == nil:
		info.Solution = &sol
	case !errors.Is(err, db.ErrSolutionNotFound):
		httputil.InternalServerError(w, fmt.Sprintf("Failed to load solution: %v", err))
		return
	}
	httputil.WriteJSONOK(w, info)
}

func (s *Server) buildChart(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	idx, ok := sampleIndex(w, r)
	if !ok {
		return
	}
	sol, err := s.db.GetSolution(r.Context(), run.RunID, idx)
	if errors.Is(err, db.ErrSolutionNotFound) || (err == nil && !sol.Solved) {
		httputil.NotFound(w, fmt.Sprintf("sample %d has no cover", idx))
		return
	} else if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to load solution: %v", err))
		return
	}
	sample, err := s.db.GetSample(r.Context(), run.RunID, idx)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to load sample: %v", err))
		return
	}
	items, err := report.Items(s.cat, sample.IDs, sol.Build)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	title := fmt.Sprintf("Run %s sample %d", run.RunID, idx)
	if err := report.WriteBuildHTML(w, title, items, run.CubeSize); err != nil {
		monitoring.Logf("[api] failed to render build %s/%d: %v", run.RunID, idx, err)
	}
}

func (s *Server) partitionChart(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	counts, err := partition.NewSampler(s.cat).PartitionCounts(r.Context(), run.TargetVolume, run.MaxPieceVolume)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if len(counts) == 0 {
		httputil.NotFound(w, "no feasible partitions")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := report.WritePartitionPNG(w, run.TargetVolume, counts); err != nil {
		monitoring.Logf("[api] failed to render partitions of %s: %v", run.RunID, err)
	}
}
