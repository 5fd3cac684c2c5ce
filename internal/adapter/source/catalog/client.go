// Package catalog is the HTTP client for a paginated catalogue server.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/vista/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Vista/1.0"
	itemsPath      = "/api/items"
)

// Client fetches pages of catalogue items
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a catalogue client. A zero timeout uses the default.
func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// doRequest performs an authenticated HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s%s", c.baseURL, path)
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("catalogue request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error("catalogue request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, domain.ErrAuthFailed
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("catalogue request error", "status", resp.StatusCode, "body", string(body))
		var apiErr ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return body, nil
}

// Fetch returns the items in [offset, offset+limit) matching filter
// together with the filtered collection total
func (c *Client) Fetch(ctx context.Context, offset, limit int, filter domain.Filter) (domain.Page[*domain.MediaItem], error) {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))
	if filter.Query != "" {
		query.Set("query", filter.Query)
	}
	if filter.Sort != "" {
		query.Set("sort", filter.Sort)
	}

	body, err := c.doRequest(ctx, http.MethodGet, itemsPath, query)
	if err != nil {
		return domain.Page[*domain.MediaItem]{}, err
	}

	var resp ItemsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return domain.Page[*domain.MediaItem]{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Total < 0 {
		return domain.Page[*domain.MediaItem]{}, errors.New("negative total in response")
	}

	return domain.Page[*domain.MediaItem]{
		Total: resp.Total,
		Items: MapItems(resp.Result, c.baseURL),
	}, nil
}

// Ping checks that the server answers and the token is accepted
func (c *Client) Ping(ctx context.Context) error {
	query := url.Values{}
	query.Set("offset", "0")
	query.Set("limit", "0")
	_, err := c.doRequest(ctx, http.MethodGet, itemsPath, query)
	return err
}
