package httputil

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/rs/dnscache"
)

const (
	defaultTimeout  = 10 * time.Second
	dnsRefreshEvery = 5 * time.Minute
)

// NewClient creates an HTTP client with a standard timeout for index requests.
func NewClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// NewCachingClient creates an HTTP client whose transport resolves hostnames
// through an in-process DNS cache. Checking a manifest hits the same handful
// of index hosts once per requirement, so cached lookups remove most of the
// per-request latency. The cache refreshes stale entries every five minutes
// for the lifetime of the process.
func NewCachingClient() *http.Client {
	resolver := &dnscache.Resolver{}
	go func() {
		ticker := time.NewTicker(dnsRefreshEvery)
		defer ticker.Stop()
		for range ticker.C {
			resolver.Refresh(true)
		}
	}()

	dialer := &net.Dialer{
		Timeout:   defaultTimeout,
		KeepAlive: 30 * time.Second,
	}

	return &http.Client{
		Timeout: defaultTimeout,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return nil, err
				}
				ips, err := resolver.LookupHost(ctx, host)
				if err != nil {
					return nil, err
				}
				var lastErr error
				for _, ip := range ips {
					conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
					if err == nil {
						return conn, nil
					}
					lastErr = err
				}
				return nil, lastErr
			},
			MaxIdleConnsPerHost: 8,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
