// Package intel correlates extracted indicators with external threat intelligence.
package intel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vigilab/incident-triage/internal/model"
)

// Provider is the interface for threat-intelligence lookup backends.
type Provider interface {
	// Fetch returns a ThreatReport covering the given indicator values.
	// A nil report with nil error means the feed had no data.
	Fetch(ctx context.Context, values []string) (*model.ThreatReport, error)
}

// HTTPProvider queries a reputation feed over HTTP.
type HTTPProvider struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPProvider creates an HTTPProvider. timeoutSec 0 uses the 30s default.
func NewHTTPProvider(endpoint, apiKey string, timeoutSec int) *HTTPProvider {
	timeout := 30 * time.Second
	if timeoutSec > 0 {
		timeout = time.Duration(timeoutSec) * time.Second
	}
	return &HTTPProvider{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type lookupRequest struct {
	Indicators []string `json:"indicators"`
}

func (p *HTTPProvider) Fetch(ctx context.Context, values []string) (*model.ThreatReport, error) {
	if len(values) == 0 {
		return nil, nil
	}

	data, err := json.Marshal(lookupRequest{Indicators: values})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.endpoint+"/v1/lookup", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("X-API-Key", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("intel API error %d: %s", resp.StatusCode, truncateBody(body))
	}

	var report model.ThreatReport
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &report, nil
}

// truncateBody limits error response bodies included in error messages.
func truncateBody(body []byte) string {
	const maxLen = 512
	if len(body) <= maxLen {
		return string(body)
	}
	return string(body[:maxLen]) + "... (truncated)"
}

// CachedProvider memoizes Fetch results per indicator set so repeated
// submissions referencing the same infrastructure do not re-query the feed.
type CachedProvider struct {
	inner Provider
	cache *lru.Cache[string, *model.ThreatReport]
}

// NewCachedProvider wraps a Provider with an LRU cache of the given size.
func NewCachedProvider(inner Provider, size int) (*CachedProvider, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, *model.ThreatReport](size)
	if err != nil {
		return nil, fmt.Errorf("create intel cache: %w", err)
	}
	return &CachedProvider{inner: inner, cache: cache}, nil
}

func (c *CachedProvider) Fetch(ctx context.Context, values []string) (*model.ThreatReport, error) {
	key := cacheKey(values)
	if report, ok := c.cache.Get(key); ok {
		return report, nil
	}
	report, err := c.inner.Fetch(ctx, values)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, report)
	return report, nil
}

// cacheKey is order-independent: the same indicator set hits the same entry.
func cacheKey(values []string) string {
	sorted := make([]string, len(values))
	copy(sorted, values)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}
