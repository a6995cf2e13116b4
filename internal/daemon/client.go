package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/stavren/modelsync/internal/domain"
)

// Client implements domain.Daemon over the daemon's REST API.
//
// The HTTP client carries no timeout on purpose: a hung request stalls the
// one refresh cycle that issued it, not the poll timer or the push channel,
// and the next natural trigger retries.
type Client struct {
	baseURL    string
	token      func() string // re-read per request so a re-login takes effect
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new daemon API client. token may be nil for
// unauthenticated use (the /token exchange itself).
func NewClient(baseURL string, token func() string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// doRequest performs an authenticated HTTP request and returns the body.
func (c *Client) doRequest(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	c.logger.Debug("daemon request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("daemon request failed", "path", path, "error", err)
		return nil, domain.ErrDaemonOffline
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, domain.ErrAuthFailed
	case http.StatusForbidden:
		return nil, domain.ErrNotAdmin
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("daemon request error", "path", path, "status", resp.StatusCode, "body", string(respBody))
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return respBody, nil
}

// QueueSnapshot returns the daemon's authoritative queue, normalized.
func (c *Client) QueueSnapshot(ctx context.Context) ([]domain.QueueEntry, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/queue", nil)
	if err != nil {
		return nil, err
	}

	var resp queueResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse queue response: %w", err)
	}

	return decodeQueue(resp.Queue), nil
}

// DownloadedIDs returns the daemon's completed-download set.
func (c *Client) DownloadedIDs(ctx context.Context) ([]domain.DownloadedRecord, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/downloaded_ids", nil)
	if err != nil {
		return nil, err
	}

	var resp downloadedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse downloaded response: %w", err)
	}

	return mapDownloaded(resp.Downloaded), nil
}

// Submit posts one manifest to the submission endpoint.
func (c *Client) Submit(ctx context.Context, m domain.Manifest) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/api/download", m)
	return err
}

// SubmitBatch posts several manifests at once.
func (c *Client) SubmitBatch(ctx context.Context, ms []domain.Manifest) (int, int, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/api/batch", map[string]interface{}{
		"manifest": ms,
	})
	if err != nil {
		return 0, 0, err
	}

	var resp batchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, 0, fmt.Errorf("failed to parse batch response: %w", err)
	}
	return resp.Queued, resp.Skipped, nil
}

// Status returns the daemon's running/paused state.
func (c *Client) Status(ctx context.Context) (domain.DaemonStatus, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/status", nil)
	if err != nil {
		return domain.DaemonStatus{}, err
	}

	var status domain.DaemonStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return domain.DaemonStatus{}, fmt.Errorf("failed to parse status response: %w", err)
	}
	return status, nil
}

// Metrics returns aggregate statistics. The typed totals are extracted and
// the full body is kept raw for pass-through display.
func (c *Client) Metrics(ctx context.Context) (domain.Metrics, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/metrics", nil)
	if err != nil {
		return domain.Metrics{}, err
	}

	var metrics domain.Metrics
	if err := json.Unmarshal(body, &metrics); err != nil {
		return domain.Metrics{}, fmt.Errorf("failed to parse metrics response: %w", err)
	}
	metrics.Raw = body
	return metrics, nil
}

// Pause suspends the daemon's download loop.
func (c *Client) Pause(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/api/pause", nil)
	return err
}

// Resume continues a paused daemon.
func (c *Client) Resume(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/api/resume", nil)
	return err
}

// Stop shuts the daemon's download loop down.
func (c *Client) Stop(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/api/stop", nil)
	return err
}

// Login exchanges a username/role pair for a bearer token.
func (c *Client) Login(ctx context.Context, username, role string) (string, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/token", map[string]string{
		"username": username,
		"role":     role,
	})
	if err != nil {
		return "", err
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if resp.AccessToken == "" {
		return "", domain.ErrAuthFailed
	}
	return resp.AccessToken, nil
}
