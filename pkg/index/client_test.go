package index

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pindown/pindown/pkg/cache"
)

func TestClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		w.Write([]byte(`{"name":"numpy"}`))
	}))
	defer srv.Close()

	c := NewClient(cache.NewNullCache(), "test:", time.Hour, nil)
	var out struct {
		Name string `json:"name"`
	}
	if err := c.Get(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.Name != "numpy" {
		t.Errorf("Name = %q", out.Name)
	}
}

func TestClient_GetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(cache.NewNullCache(), "test:", time.Hour, nil)
	err := c.Get(context.Background(), srv.URL, &struct{}{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get error = %v, want ErrNotFound", err)
	}
}

func TestClient_GetServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(cache.NewNullCache(), "test:", time.Hour, nil)
	err := c.Get(context.Background(), srv.URL, &struct{}{})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("Get error = %v, want ErrNetwork", err)
	}
}

func TestClient_DefaultHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "pindown-test" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(cache.NewNullCache(), "test:", time.Hour, map[string]string{"User-Agent": "pindown-test"})
	if _, err := c.GetText(context.Background(), srv.URL); err != nil {
		t.Fatalf("GetText: %v", err)
	}
}

func TestClient_Cached(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"version":"1.22.2"}`))
	}))
	defer srv.Close()

	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient(backend, "test:", time.Hour, nil)
	ctx := context.Background()

	type payload struct {
		Version string `json:"version"`
	}

	fetch := func(v *payload) func() error {
		return func() error { return c.Get(ctx, srv.URL, v) }
	}

	var first payload
	if err := c.Cached(ctx, "numpy", false, &first, fetch(&first)); err != nil {
		t.Fatalf("Cached: %v", err)
	}

	var second payload
	if err := c.Cached(ctx, "numpy", false, &second, fetch(&second)); err != nil {
		t.Fatalf("Cached: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("HTTP calls = %d, want 1 (second should hit cache)", calls.Load())
	}
	if second.Version != "1.22.2" {
		t.Errorf("cached Version = %q", second.Version)
	}

	// refresh bypasses the cache.
	var third payload
	if err := c.Cached(ctx, "numpy", true, &third, fetch(&third)); err != nil {
		t.Fatalf("Cached refresh: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("HTTP calls = %d, want 2 after refresh", calls.Load())
	}
}

func TestClient_CachedRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"version":"1.0"}`))
	}))
	defer srv.Close()

	c := NewClient(cache.NewNullCache(), "test:", time.Hour, nil)
	ctx := context.Background()

	var out struct {
		Version string `json:"version"`
	}
	err := c.Cached(ctx, "pkg", false, &out, func() error { return c.Get(ctx, srv.URL, &out) })
	if err != nil {
		t.Fatalf("Cached: %v", err)
	}
	if out.Version != "1.0" {
		t.Errorf("Version = %q", out.Version)
	}
	if calls.Load() != 2 {
		t.Errorf("HTTP calls = %d, want 2", calls.Load())
	}
}

func TestHostBreaker_TripsAfterFailures(t *testing.T) {
	hb := newHostBreaker()

	if !hb.allow("dead.example.com") {
		t.Fatal("breaker closed before any failure")
	}
	for i := 0; i < breakerThreshold; i++ {
		hb.failure("dead.example.com")
	}
	if hb.allow("dead.example.com") {
		t.Error("breaker still closed after threshold failures")
	}
	// Other hosts are unaffected.
	if !hb.allow("pypi.org") {
		t.Error("unrelated host tripped")
	}
}
