package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/blokk/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

// capture redirects the command output for the duration of a test.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var out, errOut bytes.Buffer
	oldOut, oldErr, oldIn := stdout, stderr, stdin
	stdout, stderr, stdin = &out, &errOut, strings.NewReader("")
	t.Cleanup(func() {
		stdout, stderr, stdin = oldOut, oldErr, oldIn
	})
	return &out
}

func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out := capture(t)
	if err := run(context.Background(), args[0], args[1:]); err != nil {
		t.Fatalf("blokk %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// squaresCatalog holds two flat 2x2 squares, which together fill a 2-cube.
const squaresCatalog = `[
  {"id": 1, "name": "Square A", "color": "red", "volume": 4, "shape": [[0,0,0],[1,0,0],[0,1,0],[1,1,0]]},
  {"id": 2, "name": "Square B", "color": "blue", "volume": 4, "shape": [[0,0,0],[1,0,0],[0,1,0],[1,1,0]]}
]`

func TestRun_UnknownCommand(t *testing.T) {
	capture(t)
	if err := run(context.Background(), "bogus", nil); err == nil {
		t.Error("expected an error for an unknown command")
	}
}

func TestRun_HelpFlag(t *testing.T) {
	capture(t)
	err := run(context.Background(), "partitions", []string{"-h"})
	if !errors.Is(err, flag.ErrHelp) {
		t.Errorf("err = %v, want flag.ErrHelp", err)
	}
}

func TestVersion(t *testing.T) {
	if out := runCmd(t, "version"); !strings.HasPrefix(out, "blokk dev") {
		t.Errorf("version output = %q", out)
	}
}

func TestPartitions(t *testing.T) {
	out := runCmd(t, "partitions", "-target", "8", "-max-volume", "4", "-counts")
	if !strings.Contains(out, "3 partitions, 36 samples") {
		t.Errorf("unexpected output:\n%s", out)
	}
	for _, p := range []string{"4+4", "4+3+1", "3+3+2"} {
		if !strings.Contains(out, p) {
			t.Errorf("missing partition %s in:\n%s", p, out)
		}
	}

	out = runCmd(t, "partitions", "-target", "8", "-max-volume", "3")
	if strings.TrimSpace(out) != "12  3+3+2" {
		t.Errorf("feasible partitions = %q", out)
	}
}

func TestSamples(t *testing.T) {
	tests := []struct {
		maxVolume string
		want      string
	}{
		{"3", "1"},
		{"4", "36"},
		{"0", "111"},
	}
	for _, tt := range tests {
		t.Run("max "+tt.maxVolume, func(t *testing.T) {
			out := runCmd(t, "samples", "-target", "8", "-max-volume", tt.maxVolume, "-count")
			if strings.TrimSpace(out) != tt.want {
				t.Errorf("count = %q, want %s", out, tt.want)
			}
		})
	}

	out := runCmd(t, "samples", "-target", "8", "-max-volume", "3")
	if strings.TrimSpace(out) != `{"n":8,"ids":[2,3,4]}` {
		t.Errorf("keys = %q", out)
	}
	out = runCmd(t, "samples", "-target", "8", "-max-volume", "4", "-json", "-limit", "2")
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 2 {
		t.Errorf("got %d JSON lines, want 2", len(lines))
	}
}

func TestConfigFileAndOverride(t *testing.T) {
	cfg := writeFile(t, "run.toml", "target_volume = 8\nmax_piece_volume = 3\n")
	if out := runCmd(t, "samples", "-config", cfg, "-count"); strings.TrimSpace(out) != "1" {
		t.Errorf("config count = %q, want 1", out)
	}
	if out := runCmd(t, "samples", "-config", cfg, "-max-volume", "4", "-count"); strings.TrimSpace(out) != "36" {
		t.Errorf("overridden count = %q, want 36", out)
	}

	capture(t)
	bad := writeFile(t, "bad.toml", "strategy = \"greedy\"\n")
	if err := run(context.Background(), "samples", []string{"-config", bad, "-count"}); err == nil {
		t.Error("expected a validation error")
	}
}

func TestPlacements(t *testing.T) {
	out := runCmd(t, "placements", "-id", "2", "-size", "2")
	if !strings.Contains(out, "12 placements in a 2-cube") {
		t.Errorf("unexpected output %q", out)
	}
	out = runCmd(t, "placements", "-id", "3", "-size", "2", "-list")
	if !strings.Contains(out, "0 placements") {
		t.Errorf("a tromino does not fit a 2-cube, got %q", out)
	}

	capture(t)
	if err := run(context.Background(), "placements", []string{"-id", "999"}); err == nil {
		t.Error("expected an error for an unknown piece")
	}
}

func TestCatalog(t *testing.T) {
	out := runCmd(t, "catalog")
	if !strings.Contains(out, `"name": "Block 36"`) {
		t.Error("catalog output is missing the last piece")
	}
	path := filepath.Join(t.TempDir(), "pieces.json")
	runCmd(t, "catalog", "-o", path)
	if out := runCmd(t, "samples", "-catalog", path, "-target", "8", "-count"); strings.TrimSpace(out) != "111" {
		t.Errorf("reloaded catalog count = %q, want 111", out)
	}
}

func TestSolve(t *testing.T) {
	dir := t.TempDir()
	out := runCmd(t, "solve", "-ids", "1", "-out", dir, "-cells", "8")
	if !strings.Contains(out, "solved") || !strings.Contains(out, "Block 01") {
		t.Errorf("unexpected output:\n%s", out)
	}
	for _, name := range []string{"build.html", "build.stl"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	out = runCmd(t, "solve", "-ids", "5,6", "-size", "2")
	if !strings.Contains(out, "no cover") {
		t.Errorf("unexpected output %q", out)
	}

	capture(t)
	for _, args := range [][]string{
		{"-ids", ""},
		{"-ids", "1,x"},
		{"-ids", "1,2"},   // volume 3 is not a cube
		{"-ids", "1,999"}, // unknown piece
	} {
		if err := run(context.Background(), "solve", args); err == nil {
			t.Errorf("solve %v: expected an error", args)
		}
	}
}

func TestSolveAll(t *testing.T) {
	cat := writeFile(t, "squares.json", squaresCatalog)
	out := runCmd(t, "solve-all", "-catalog", cat, "-target", "8", "-workers", "2")
	if !strings.Contains(out, "1 of 1 samples cover the 2-cube") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "Square B") {
		t.Errorf("solved build not printed:\n%s", out)
	}

	out = runCmd(t, "solve-all", "-target", "8", "-max-volume", "4")
	if !strings.Contains(out, "0 of 36 samples") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestStorePipeline(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "runs.db")
	cat := writeFile(t, "squares.json", squaresCatalog)
	common := []string{"-db", dbPath, "-catalog", cat}

	runID := strings.TrimSpace(runCmd(t, append([]string{"sample", "-target", "8", "-batch-size", "1"}, common...)...))
	if runID == "" {
		t.Fatal("sample did not print a run id")
	}

	out := runCmd(t, append([]string{"solve-db", "-run", runID}, common...)...)
	if !strings.Contains(out, "1/1 samples solved, 0 unattempted") {
		t.Errorf("solve-db output = %q", out)
	}

	out = runCmd(t, "runs", "-db", dbPath)
	if !strings.Contains(out, runID) || !strings.Contains(out, "pruned") {
		t.Errorf("runs output:\n%s", out)
	}

	reportDir := filepath.Join(dir, "report")
	out = runCmd(t, append([]string{"report", "-run", runID, "-out", reportDir, "-cells", "8"}, common...)...)
	for _, name := range []string{"partitions.png", "sample-000000.html", "sample-000000.stl"} {
		path := filepath.Join(reportDir, name)
		if !strings.Contains(out, path) {
			t.Errorf("report did not list %s:\n%s", name, out)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	out = runCmd(t, "migrate", "-db", dbPath, "status")
	if !strings.Contains(out, "Database is up to date") {
		t.Errorf("migrate status:\n%s", out)
	}

	runCmd(t, "runs", "-db", dbPath, "-delete", runID)
	if out := runCmd(t, "runs", "-db", dbPath); strings.TrimSpace(out) != "no runs" {
		t.Errorf("runs after delete = %q", out)
	}

	capture(t)
	if err := run(context.Background(), "solve-db", []string{"-db", dbPath, "-run", runID}); err == nil {
		t.Error("solve-db of a deleted run should fail")
	}
	if err := run(context.Background(), "solve-db", []string{"-db", dbPath}); err == nil {
		t.Error("solve-db without -run should fail")
	}
}

func TestReport_HistogramOnly(t *testing.T) {
	dir := t.TempDir()
	out := runCmd(t, "report", "-target", "8", "-out", dir)
	if strings.TrimSpace(out) != filepath.Join(dir, "partitions.png") {
		t.Errorf("report output = %q", out)
	}
}

func TestServeAndStatus(t *testing.T) {
	out := capture(t)
	dbPath := filepath.Join(t.TempDir(), "serve.db")
	cat := writeFile(t, "squares.json", squaresCatalog)

	ctx, cancel := context.WithCancel(context.Background())
	addrc := make(chan string, 1)
	errc := make(chan error, 1)
	go func() {
		errc <- cmdServe(ctx, []string{"-listen", "127.0.0.1:0", "-db", dbPath, "-catalog", cat},
			func(addr string) { addrc <- addr })
	}()
	var url string
	select {
	case addr := <-addrc:
		url = "http://" + addr
	case err := <-errc:
		t.Fatalf("serve exited early: %v", err)
	}

	if err := run(context.Background(), "status", []string{"-url", url}); err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out.String(), "solve: idle") {
		t.Errorf("status output = %q", out.String())
	}

	out.Reset()
	if err := run(context.Background(), "status", []string{"-url", url, "-start", "-target", "8"}); err != nil {
		t.Fatalf("status -start: %v", err)
	}
	if !strings.Contains(out.String(), "target 8") {
		t.Errorf("status -start output = %q", out.String())
	}

	if err := run(context.Background(), "status", []string{"-url", url, "-start", "-stop"}); err == nil {
		t.Error("expected -start with -stop to fail")
	}

	cancel()
	if err := <-errc; err != nil {
		t.Errorf("serve: %v", err)
	}
}
