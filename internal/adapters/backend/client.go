// Package backend implementa os contratos de execução e CRUD de workflows
// sobre a API HTTP do backend da plataforma.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/domain"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/ports"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/pkg/types"
)

// Client não faz retry: NetworkError sobe para quem chamou
type Client struct {
	http *resty.Client
}

// Verifica interface
var _ ports.Backend = (*Client)(nil)

type Config struct {
	BaseURL  string
	Timeout  time.Duration
	APIToken string
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if cfg.APIToken != "" {
		c.SetHeader("Authorization", "Bearer "+cfg.APIToken)
	}

	return &Client{http: c}
}

func (c *Client) Close() error {
	return c.http.Close()
}

// do executa a request e decodifica a resposta 2xx em out (se não nil)
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	var (
		resp *resty.Response
		err  error
	)
	switch method {
	case "GET":
		resp, err = req.Get(path)
	case "POST":
		resp, err = req.Post(path)
	case "PUT":
		resp, err = req.Put(path)
	case "DELETE":
		resp, err = req.Delete(path)
	default:
		return fmt.Errorf("unsupported method %s", method)
	}

	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return &domain.NetworkError{Op: op, StatusCode: resp.StatusCode(), Body: truncate(string(resp.Bytes()), 512)}
	}

	if out == nil {
		return nil
	}
	raw := resp.Bytes()
	if len(raw) == 0 {
		return &domain.NetworkError{Op: op, StatusCode: resp.StatusCode(), Err: fmt.Errorf("empty response body")}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.NetworkError{Op: op, StatusCode: resp.StatusCode(), Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// GET /workflows
func (c *Client) List(ctx context.Context) ([]types.WorkflowSummary, error) {
	var out []types.WorkflowSummary
	if err := c.do(ctx, "list workflows", "GET", "/workflows", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// POST /workflows
func (c *Client) Create(ctx context.Context, doc types.Graph) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, "create workflow", "POST", "/workflows", doc, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", &domain.NetworkError{Op: "create workflow", Err: fmt.Errorf("backend returned no workflow id")}
	}
	return out.ID, nil
}

// PUT /workflows/{id}
func (c *Client) Update(ctx context.Context, id string, doc types.Graph) error {
	return c.do(ctx, "update workflow", "PUT", "/workflows/"+url.PathEscape(id), doc, nil)
}

// DELETE /workflows/{id}
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "delete workflow", "DELETE", "/workflows/"+url.PathEscape(id), nil, nil)
}

// POST /workflows/{id}/run
func (c *Client) Submit(ctx context.Context, workflowID string) (types.RunHandle, error) {
	var out types.RunHandle
	if err := c.do(ctx, "submit run", "POST", "/workflows/"+url.PathEscape(workflowID)+"/run", nil, &out); err != nil {
		return types.RunHandle{}, err
	}
	if out.RunID == "" {
		return types.RunHandle{}, &domain.NetworkError{Op: "submit run", Err: fmt.Errorf("backend returned no run id")}
	}
	if out.Status == "" {
		out.Status = types.RunQueued
	}
	return out, nil
}

// GET /runs/{runId}
func (c *Client) Poll(ctx context.Context, runID string) (types.RunState, error) {
	var out types.RunState
	if err := c.do(ctx, "poll run", "GET", "/runs/"+url.PathEscape(runID), nil, &out); err != nil {
		return types.RunState{}, err
	}
	if !out.Status.Valid() {
		return types.RunState{}, &domain.NetworkError{Op: "poll run", Err: fmt.Errorf("unknown run status %q", out.Status)}
	}
	if out.RunID == "" {
		out.RunID = runID
	}
	return out, nil
}
