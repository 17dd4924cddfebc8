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

	"github.com/udsstack/uds-monitor/internal/cache"
	"github.com/udsstack/uds-monitor/internal/models"
)

// CatalogClient wraps the remote resource catalog API. Scoping by
// organization and account is enforced by the provider, not here.
type CatalogClient struct {
	baseURL       string
	resourcesPath string
	httpClient    *http.Client
	cache         cache.Provider
	catalogTTL    time.Duration
}

// NewCatalogClient constructs a client targeting the configured catalog
// endpoint. Responses are cached through the provider for catalogTTL when one
// is supplied.
func NewCatalogClient(baseURL, resourcesPath string, timeout time.Duration, cacheProvider cache.Provider, catalogTTL time.Duration) *CatalogClient {
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if catalogTTL < 0 {
		catalogTTL = 0
	}
	return &CatalogClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		resourcesPath: resourcesPath,
		httpClient:    &http.Client{Timeout: timeout},
		cache:         cacheProvider,
		catalogTTL:    catalogTTL,
	}
}

// ListResources fetches the resource catalog for an organization, optionally
// filtered to one account.
func (c *CatalogClient) ListResources(ctx context.Context, organizationKey, accountFilter string) ([]models.ResourceRecord, error) {
	if c == nil {
		return nil, fmt.Errorf("catalog client not initialised")
	}
	if c.baseURL == "" {
		return nil, fmt.Errorf("catalog base URL not configured")
	}

	cacheKey := ""
	if c.catalogTTL > 0 {
		cacheKey = catalogCacheKey(organizationKey, accountFilter)
		if data, err := c.cache.Get(ctx, cacheKey); err == nil {
			var cached []models.ResourceRecord
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	payload := map[string]any{
		"organization_id": organizationKey,
	}
	if accountFilter != "" {
		payload["account_id"] = accountFilter
	}

	var response struct {
		Resources []models.ResourceRecord `json:"resources"`
	}
	if err := c.postJSON(ctx, c.resolvePath(c.resourcesPath), payload, &response); err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}

	if c.catalogTTL > 0 && cacheKey != "" && len(response.Resources) > 0 {
		if data, err := json.Marshal(response.Resources); err == nil {
			_ = c.cache.Set(ctx, cacheKey, data, c.catalogTTL)
		}
	}
	return response.Resources, nil
}

func catalogCacheKey(organizationKey, accountFilter string) string {
	return "catalog:" + organizationKey + ":" + accountFilter
}

func (c *CatalogClient) resolvePath(p string) string {
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

func (c *CatalogClient) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	if endpoint == "" {
		return fmt.Errorf("empty endpoint")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
