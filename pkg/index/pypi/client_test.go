package pypi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pindown/pindown/pkg/cache"
	"github.com/pindown/pindown/pkg/index"
)

const numpyResponse = `{
	"info": {
		"name": "numpy",
		"version": "1.26.4",
		"summary": "Fundamental package for array computing in Python",
		"home_page": "https://numpy.org"
	},
	"releases": {
		"1.22.2": [{"yanked": false}],
		"1.26.4": [{"yanked": false}, {"yanked": false}],
		"1.26.3": [{"yanked": true}],
		"2.0.0rc1": [{"yanked": false}],
		"not-a-version": [{"yanked": false}]
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, cache.NewNullCache(), 0)
}

func TestFetchPackage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pypi/numpy/json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(numpyResponse))
	})

	info, err := client.FetchPackage(context.Background(), "NumPy", false)
	if err != nil {
		t.Fatalf("FetchPackage failed: %v", err)
	}

	if info.Name != "numpy" {
		t.Errorf("Name = %q, want %q", info.Name, "numpy")
	}
	if info.Latest != "1.26.4" {
		t.Errorf("Latest = %q, want %q", info.Latest, "1.26.4")
	}
	want := []string{"1.22.2", "1.26.4", "2.0.0rc1"}
	if len(info.Versions) != len(want) {
		t.Fatalf("Versions = %v, want %v", info.Versions, want)
	}
	for i, v := range want {
		if info.Versions[i] != v {
			t.Errorf("Versions[%d] = %q, want %q", i, info.Versions[i], v)
		}
	}
	if info.Summary == "" {
		t.Error("expected a summary")
	}
}

func TestFetchPackageNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchPackage(context.Background(), "no-such-package", false)
	if !errors.Is(err, index.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFetchPackageNormalizesName(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"info": {"name": "typing-extensions", "version": "4.12.2"}, "releases": {"4.12.2": [{"yanked": false}]}}`))
	})

	if _, err := client.FetchPackage(context.Background(), "Typing_Extensions", false); err != nil {
		t.Fatalf("FetchPackage failed: %v", err)
	}
	if gotPath != "/pypi/typing-extensions/json" {
		t.Errorf("path = %q, want normalized name", gotPath)
	}
}

func TestFetchPackageCaching(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(numpyResponse))
	}))
	t.Cleanup(srv.Close)

	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache failed: %v", err)
	}
	client := NewClient(srv.URL, backend, 0)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := client.FetchPackage(ctx, "numpy", false); err != nil {
			t.Fatalf("FetchPackage failed: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", calls)
	}

	if _, err := client.FetchPackage(ctx, "numpy", true); err != nil {
		t.Fatalf("FetchPackage with refresh failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected refresh to bypass cache, got %d calls", calls)
	}
}

func TestPickLatestPrefersFinalRelease(t *testing.T) {
	tests := []struct {
		name     string
		versions []string
		reported string
		want     string
	}{
		{"final over prerelease", []string{"1.0", "2.0.0rc1"}, "2.0.0rc1", "1.0"},
		{"only prereleases", []string{"1.0a1", "1.0b2"}, "", "1.0b2"},
		{"empty set falls back", nil, "3.1", "3.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pickLatest(tt.versions, tt.reported); got != tt.want {
				t.Errorf("pickLatest(%v) = %q, want %q", tt.versions, got, tt.want)
			}
		})
	}
}
