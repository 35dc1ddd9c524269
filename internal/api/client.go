package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/banshee-data/blokk/internal/httputil"
	"github.com/banshee-data/blokk/internal/solver"
)

// Client calls a running blokk API server.
type Client struct {
	BaseURL string
	HTTP    httputil.Doer
}

// NewClient returns a client for the server at baseURL. A nil doer uses
// http.DefaultClient.
func NewClient(baseURL string, doer httputil.Doer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: doer}
}

func (c *Client) url(parts ...string) string {
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return c.BaseURL + "/api/" + strings.Join(parts, "/")
}

// SolveState returns the state of the background solve.
func (c *Client) SolveState(ctx context.Context) (solver.RunState, error) {
	var st solver.RunState
	err := httputil.DoJSON(ctx, c.HTTP, http.MethodGet, c.url("solve"), nil, &st)
	return st, err
}

// StartSolve starts a background solve of every sample for target.
func (c *Client) StartSolve(ctx context.Context, target, maxPieceVolume int) (solver.RunState, error) {
	var st solver.RunState
	req := SolveRequest{TargetVolume: target, MaxPieceVolume: maxPieceVolume}
	err := httputil.DoJSON(ctx, c.HTTP, http.MethodPost, c.url("solve"), req, &st)
	return st, err
}

// StopSolve cancels the background solve.
func (c *Client) StopSolve(ctx context.Context) (solver.RunState, error) {
	var st solver.RunState
	err := httputil.DoJSON(ctx, c.HTTP, http.MethodDelete, c.url("solve"), nil, &st)
	return st, err
}

// SolveResults returns the covered samples of the last finished solve.
func (c *Client) SolveResults(ctx context.Context) ([]SolvedSample, error) {
	var out []SolvedSample
	err := httputil.DoJSON(ctx, c.HTTP, http.MethodGet, c.url("solve", "results"), nil, &out)
	return out, err
}

// Runs lists the stored runs with their progress.
func (c *Client) Runs(ctx context.Context) ([]RunInfo, error) {
	var out []RunInfo
	err := httputil.DoJSON(ctx, c.HTTP, http.MethodGet, c.url("runs"), nil, &out)
	return out, err
}

// Run returns one stored run.
func (c *Client) Run(ctx context.Context, runID string) (RunInfo, error) {
	var out RunInfo
	err := httputil.DoJSON(ctx, c.HTTP, http.MethodGet, c.url("runs", runID), nil, &out)
	return out, err
}
