// Package remote implements the ops boundary over the Qino REST API, so
// the MCP server can serve a workspace hosted by another process.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/qinolabs/qino/internal/apperr"
	"github.com/qinolabs/qino/internal/models"
	"github.com/qinolabs/qino/internal/ops"
)

// Client talks to a running Qino API server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the API mounted at baseURL (e.g.
// "http://localhost:4765/api"). token may be empty when auth is disabled.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

var _ ops.Ops = (*Client)(nil)

type apiError struct {
	Error string `json:"error"`
}

// do performs one request and decodes the response into out (if non-nil).
// Error statuses are mapped back onto the store's sentinel errors so
// callers behave identically against local and remote workspaces.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return fmt.Errorf("remote: encode body: %w", err)
		}
		reqBody = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("remote: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("remote: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.mapError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("remote: decode response: %w", err)
	}
	return nil
}

func (c *Client) mapError(resp *http.Response) error {
	var e apiError
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&e)
	msg := e.Error
	if msg == "" {
		msg = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", apperr.ErrConflict, msg)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", apperr.ErrInvalidInput, msg)
	default:
		return fmt.Errorf("remote: server error (%d): %s", resp.StatusCode, msg)
	}
}

func graphQuery(graphDir string) url.Values {
	q := url.Values{}
	if graphDir != "" {
		q.Set("graph", graphDir)
	}
	return q
}

func (c *Client) ReadConfig(ctx context.Context) (map[string]any, error) {
	var cfg map[string]any
	if err := c.do(ctx, http.MethodGet, "/config", nil, nil, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Client) ReadGraph(ctx context.Context, graphDir string) (*models.GraphDetail, error) {
	var g models.GraphDetail
	if err := c.do(ctx, http.MethodGet, "/graph", graphQuery(graphDir), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *Client) ReadNode(ctx context.Context, graphDir, nodeID string) (*models.NodeDetail, error) {
	var d models.NodeDetail
	path := "/nodes/" + url.PathEscape(nodeID)
	if err := c.do(ctx, http.MethodGet, path, graphQuery(graphDir), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) CreateNode(ctx context.Context, graphDir string, spec models.CreateNodeSpec) (*models.NodeDetail, error) {
	var d models.NodeDetail
	if err := c.do(ctx, http.MethodPost, "/nodes", graphQuery(graphDir), spec, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) WriteAnnotation(ctx context.Context, graphDir, nodeID string, signal models.Signal, body, target string) (string, error) {
	req := map[string]any{"signal": signal, "body": body}
	if target != "" {
		req["target"] = target
	}
	var out struct {
		Filename string `json:"filename"`
	}
	path := "/nodes/" + url.PathEscape(nodeID) + "/annotations"
	if err := c.do(ctx, http.MethodPost, path, graphQuery(graphDir), req, &out); err != nil {
		return "", err
	}
	return out.Filename, nil
}

func (c *Client) ResolveAnnotation(ctx context.Context, graphDir, nodeID, filename string, status models.Status) error {
	path := "/nodes/" + url.PathEscape(nodeID) + "/annotations/" + url.PathEscape(filename) + "/resolve"
	return c.do(ctx, http.MethodPost, path, graphQuery(graphDir), map[string]any{"status": status}, nil)
}

func (c *Client) WriteJournalEntry(ctx context.Context, graphDir string, entry models.JournalEntry) error {
	return c.do(ctx, http.MethodPost, "/journal", graphQuery(graphDir), entry, nil)
}

func (c *Client) UpdateView(ctx context.Context, graphDir, nodeID string, view models.ViewData) error {
	path := "/nodes/" + url.PathEscape(nodeID) + "/view"
	return c.do(ctx, http.MethodPut, path, graphQuery(graphDir), view, nil)
}
