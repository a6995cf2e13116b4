package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/stavren/modelsync/internal/domain"
)

// Client implements domain.Catalog against the catalog's search API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a catalog search client. apiKey may be empty.
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Search fetches one page of catalog results for the given filters.
func (c *Client) Search(ctx context.Context, filters domain.SearchFilters) (domain.SearchPage, error) {
	query := url.Values{}
	if filters.Limit != "" {
		query.Set("limit", filters.Limit)
	}
	if filters.SearchTerm != "" {
		query.Set("searchTerm", filters.SearchTerm)
	}
	if filters.Type != "" {
		query.Set("types", filters.Type)
	}
	if filters.NSFW {
		query.Set("nsfw", "true")
	} else {
		query.Set("nsfw", "false")
	}
	if filters.Sort != "" {
		query.Set("sort", filters.Sort)
	}
	if filters.Period != "" {
		period := filters.Period
		if period == "All Time" {
			period = "AllTime"
		}
		query.Set("period", period)
	}
	// Only sent when paginating past the first page.
	if filters.Cursor != "" {
		query.Set("cursor", filters.Cursor)
	}

	reqURL := fmt.Sprintf("%s/api/models?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.SearchPage{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.Debug("catalog search", "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("catalog request failed", "error", err)
		return domain.SearchPage{}, domain.ErrDaemonOffline
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.SearchPage{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return domain.SearchPage{}, domain.ErrAuthFailed
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("catalog request error", "status", resp.StatusCode, "body", string(body))
		return domain.SearchPage{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return domain.SearchPage{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return domain.SearchPage{
		Models:     mapModels(parsed.Items),
		NextCursor: parsed.Metadata.NextCursor,
	}, nil
}
