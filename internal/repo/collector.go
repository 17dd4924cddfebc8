package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/udsstack/uds-monitor/internal/models"
)

// CollectorClient wraps the remote metric collection API. Collections may be
// slow (seconds) and are always bounded by the caller's context.
type CollectorClient struct {
	baseURL     string
	collectPath string
	httpClient  *http.Client
}

// NewCollectorClient constructs a client targeting the configured collection
// endpoint.
func NewCollectorClient(baseURL, collectPath string, timeout time.Duration) *CollectorClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CollectorClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		collectPath: collectPath,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Collect requests metric samples for the account over the lookback window.
// A 401/403 from the provider (or an in-band permission_denied code) maps to
// ErrPermissionDenied; every other failure maps to ErrCollectionFailed.
func (c *CollectorClient) Collect(ctx context.Context, accountKey, organizationKey string, lookback time.Duration, maxSamples int) ([]models.MetricRecord, error) {
	if c == nil {
		return nil, fmt.Errorf("collector client not initialised")
	}
	if c.baseURL == "" {
		return nil, fmt.Errorf("collector base URL not configured")
	}

	payload := map[string]any{
		"account_id":      accountKey,
		"organization_id": organizationKey,
		"lookback":        lookback.String(),
		"max_samples":     maxSamples,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolvePath(c.collectPath), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrCollectionFailed, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w (HTTP %d)", ErrPermissionDenied, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: collector returned %s", ErrCollectionFailed, resp.Status)
	}

	var response struct {
		Metrics []models.MetricRecord `json:"metrics"`
		Error   string                `json:"error"`
		Code    string                `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrCollectionFailed, err)
	}
	if response.Code == "permission_denied" {
		return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, response.Error)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrCollectionFailed, response.Error)
	}

	return response.Metrics, nil
}

func (c *CollectorClient) resolvePath(p string) string {
	if c.baseURL == "" {
		return ""
	}
	cleaned := "/" + strings.TrimLeft(p, "/")
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + cleaned
	}
	u.Path = path.Join(u.Path, cleaned)
	return u.String()
}
