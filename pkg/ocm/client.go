// Package ocm is a client for the Open Charge Map POI API. It exposes the
// raw upstream record shape; normalization into canonical chargers lives
// in internal/normalize.
package ocm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.openchargemap.io/v3"

// Client performs Open Charge Map API operations.
type Client interface {
	Nearby(ctx context.Context, lat, lng, radiusMiles float64, maxResults int) ([]POI, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outbound request rate. The public OCM tier throttles
// aggressively, so the default is conservative.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an Open Charge Map API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(2), 4),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Nearby fetches raw charging POIs within radiusMiles of the coordinate.
func (c *httpClient) Nearby(ctx context.Context, lat, lng, radiusMiles float64, maxResults int) ([]POI, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "ocm: rate limit wait")
	}

	q := url.Values{}
	q.Set("output", "json")
	q.Set("latitude", fmt.Sprintf("%f", lat))
	q.Set("longitude", fmt.Sprintf("%f", lng))
	q.Set("distance", fmt.Sprintf("%f", radiusMiles))
	q.Set("distanceunit", "Miles")
	q.Set("maxresults", fmt.Sprintf("%d", maxResults))
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/poi?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "ocm: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "ocm: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("ocm: unexpected status %d", resp.StatusCode)
	}

	var pois []POI
	if err := json.NewDecoder(resp.Body).Decode(&pois); err != nil {
		return nil, eris.Wrap(err, "ocm: decode response")
	}

	zap.L().Debug("ocm: nearby fetch",
		zap.Float64("lat", lat),
		zap.Float64("lng", lng),
		zap.Float64("radius_miles", radiusMiles),
		zap.Int("results", len(pois)),
	)
	return pois, nil
}
