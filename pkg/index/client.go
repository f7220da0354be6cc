// Package index provides shared HTTP functionality for package index
// clients: response caching, retry with backoff, circuit breaking, and
// common request headers.
//
// Concrete index protocols live in the subpackages:
//   - pypi: the JSON API exposed by pypi.org
//   - simple: the PEP 503 "simple" HTML API most mirrors expose
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pindown/pindown/pkg/cache"
	"github.com/pindown/pindown/pkg/httputil"
	"github.com/pindown/pindown/pkg/observability"
)

// DefaultCacheTTL is how long index responses are cached by default.
const DefaultCacheTTL = 24 * time.Hour

// Client provides shared HTTP functionality for index API clients.
// It handles caching, retry logic, and common request headers.
// All methods are safe for concurrent use.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	prefix  string
	ttl     time.Duration
	headers map[string]string
	breaker *hostBreaker
}

// NewClient creates a Client with the given cache backend, key prefix and
// TTL. Pass nil for headers if no default headers are needed.
func NewClient(backend cache.Cache, prefix string, ttl time.Duration, headers map[string]string) *Client {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Client{
		http:    httputil.NewCachingClient(),
		cache:   backend,
		prefix:  prefix,
		ttl:     ttl,
		headers: headers,
		breaker: newHostBreaker(),
	}
}

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; on success, v is stored in the cache.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	key = c.prefix + key
	if !refresh {
		if data, ok, _ := c.cache.Get(ctx, key); ok {
			observability.Cache().OnCacheHit(ctx, c.prefix)
			return json.Unmarshal(data, v)
		}
		observability.Cache().OnCacheMiss(ctx, c.prefix)
	}
	if err := httputil.RetryWithBackoff(ctx, fetch); err != nil {
		return err
	}
	if data, err := json.Marshal(v); err == nil {
		_ = c.cache.Set(ctx, key, data, c.ttl)
		observability.Cache().OnCacheSet(ctx, c.prefix, len(data))
	}
	return nil
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
// It uses the client's default headers; retries are the caller's concern
// (wrap calls in [Client.Cached] or [httputil.Retry]).
func (c *Client) Get(ctx context.Context, url string, v any) error {
	body, err := c.doRequest(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return err
	}
	defer body.Close()
	return json.NewDecoder(body).Decode(v)
}

// GetText performs an HTTP GET request and returns the response body as a
// string. Useful for non-JSON endpoints like simple index pages.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	body, err := c.doRequest(ctx, url, nil)
	if err != nil {
		return "", err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	return string(data), err
}

func (c *Client) doRequest(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	host := req.URL.Host
	if !c.breaker.allow(host) {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, host)
	}

	observability.HTTP().OnRequest(ctx, http.MethodGet, host, req.URL.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		c.breaker.failure(host)
		observability.HTTP().OnError(ctx, http.MethodGet, host, req.URL.Path, err)
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	observability.HTTP().OnResponse(ctx, http.MethodGet, host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		if resp.StatusCode >= 500 {
			c.breaker.failure(host)
		}
		return nil, err
	}

	c.breaker.success(host)
	return resp.Body, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
