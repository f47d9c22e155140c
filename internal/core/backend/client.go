package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound marks a 404 from the backend. The poller uses it to
// permanently disable the legacy fallback endpoint.
var ErrNotFound = errors.New("endpoint not found")

// Client talks to the generation backend over REST. The base URL is
// runtime-changeable; SetBaseURL takes effect on the next call.
type Client struct {
	mu      sync.RWMutex
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

func (c *Client) SetBaseURL(base string) {
	c.mu.Lock()
	c.baseURL = strings.TrimRight(base, "/")
	c.mu.Unlock()
}

// WebsocketURL derives the push channel endpoint from the base URL
// (http becomes ws, https becomes wss).
func (c *Client) WebsocketURL() string {
	base := c.BaseURL()
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" {
		return "ws://" + strings.TrimPrefix(base, "//") + "/ws/progress"
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/progress"
	return u.String()
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL()+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// ActiveJobs fetches the primary active-jobs snapshot.
func (c *Client) ActiveJobs(ctx context.Context) ([]JobRecord, error) {
	var records []JobRecord
	if err := c.call(ctx, http.MethodGet, "/generation/jobs/active", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// LegacyActiveJobs fetches the deprecated job-status snapshot, used
// only when ActiveJobs fails.
func (c *Client) LegacyActiveJobs(ctx context.Context) ([]JobRecord, error) {
	var records []JobRecord
	if err := c.call(ctx, http.MethodGet, "/generation/job-status", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Results fetches up to limit finished artifacts, newest first.
func (c *Client) Results(ctx context.Context, limit int) ([]ResultRecord, error) {
	var records []ResultRecord
	path := fmt.Sprintf("/generation/results?limit=%d", limit)
	if err := c.call(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SystemStatus fetches the backend status object as loose fields; the
// connection store decides what to keep.
func (c *Client) SystemStatus(ctx context.Context) (map[string]any, error) {
	var fields map[string]any
	if err := c.call(ctx, http.MethodGet, "/system/status", nil, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// Generate submits a generation request.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	var resp GenerateResponse
	if err := c.call(ctx, http.MethodPost, "/generation/generate", req, &resp); err != nil {
		return nil, err
	}
	if resp.JobID == "" {
		return nil, fmt.Errorf("generate: backend returned no job id")
	}
	return &resp, nil
}

// Cancel asks the backend to cancel a job via the primary endpoint.
func (c *Client) Cancel(ctx context.Context, id string) (bool, error) {
	var resp cancelResponse
	path := fmt.Sprintf("/generation/jobs/%s/cancel", url.PathEscape(id))
	if err := c.call(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return false, err
	}
	return resp.Success, nil
}

// LegacyCancel is the fallback cancel endpoint for older backends.
func (c *Client) LegacyCancel(ctx context.Context, id string) (bool, error) {
	var resp cancelResponse
	path := fmt.Sprintf("/generation/jobs/%s/cancel-legacy", url.PathEscape(id))
	if err := c.call(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return false, err
	}
	return resp.Success, nil
}

// DeleteResult removes a finished artifact from the backend.
func (c *Client) DeleteResult(ctx context.Context, id string) error {
	path := fmt.Sprintf("/generation/results/%s", url.PathEscape(id))
	return c.call(ctx, http.MethodDelete, path, nil, nil)
}
