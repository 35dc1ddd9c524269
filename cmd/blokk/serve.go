package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/banshee-data/blokk/internal/api"
	"github.com/banshee-data/blokk/internal/monitoring"
	"github.com/banshee-data/blokk/internal/solver"
)

// cmdServe serves the API until ctx is cancelled. ready, when set, receives
// the bound address once the listener is up.
func cmdServe(ctx context.Context, args []string, ready func(addr string)) error {
	fs := newFlagSet("serve")
	rf := addRunFlags(fs)
	listen := fs.String("listen", ":8080", "Listen address")
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
	opts, err := solverOptions(cfg, func(solver.Progress) {})
	if err != nil {
		return err
	}
	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	runner := solver.NewRunner(cat, opts...)
	// a background solve is cancelled and drained on the way out
	defer runner.Wait()
	defer runner.Stop()

	server := &http.Server{
		Handler:           api.LoggingMiddleware(api.NewServer(ctx, database, cat, runner).ServeMux()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	ln, err := net.Listen("tcp", *listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", *listen, err)
	}
	monitoring.Logf("[serve] listening on %s (database %s, %d pieces)", ln.Addr(), database.Path(), cat.Len())
	if ready != nil {
		ready(ln.Addr().String())
	}

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(ln)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	monitoring.Logf("[serve] shutting down HTTP server...")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 1*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("[serve] HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			monitoring.Logf("[serve] HTTP server force close error: %v", err)
		}
	}
	return nil
}

// cmdStatus queries a running server, optionally starting or stopping its
// background solve first.
func cmdStatus(ctx context.Context, args []string) error {
	fs := newFlagSet("status")
	url := fs.String("url", "http://localhost:8080", "Base URL of a running blokk serve")
	start := fs.Bool("start", false, "Start a background solve")
	stop := fs.Bool("stop", false, "Stop the background solve")
	target := fs.Int("target", 27, "Target volume for -start")
	maxVolume := fs.Int("max-volume", 0, "Largest piece volume for -start (0 = no cap)")
	timeout := fs.Duration("timeout", 10*time.Second, "Request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *start && *stop {
		return fmt.Errorf("-start and -stop are exclusive")
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	client := api.NewClient(*url, nil)

	var st solver.RunState
	var err error
	switch {
	case *start:
		st, err = client.StartSolve(ctx, *target, *maxVolume)
	case *stop:
		st, err = client.StopSolve(ctx)
	default:
		st, err = client.SolveState(ctx)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "solve: %s", st.Status)
	if st.Status != solver.RunStatusIdle {
		fmt.Fprintf(stdout, ", target %d, %s/%s samples, %s solved",
			st.Target, humanize.Comma(int64(st.Done)), humanize.Comma(int64(st.Total)), humanize.Comma(int64(st.Solved)))
	}
	if st.Error != "" {
		fmt.Fprintf(stdout, " (%s)", st.Error)
	}
	fmt.Fprintln(stdout)

	runs, err := client.Runs(ctx)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintf(stdout, "run %s: target %d, %s/%s samples solved\n",
			r.RunID, r.TargetVolume, humanize.Comma(int64(r.Solved)), humanize.Comma(int64(r.Samples)))
	}
	return nil
}
