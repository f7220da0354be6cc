// Package resolve checks the packages of a requirements manifest against
// one or more package indexes and computes pin updates.
package resolve

import (
	"context"
	"errors"
	"time"

	"github.com/pindown/pindown/pkg/cache"
	"github.com/pindown/pindown/pkg/index"
	"github.com/pindown/pindown/pkg/index/pypi"
	"github.com/pindown/pindown/pkg/index/simple"
	"github.com/pindown/pindown/pkg/manifest"
)

// Source lists the versions a single index knows for a package.
type Source interface {
	// BaseURL identifies the index.
	BaseURL() string
	// FetchVersions returns all known versions ascending, or
	// [index.ErrNotFound] when the index has no such package.
	FetchVersions(ctx context.Context, pkg string, refresh bool) ([]string, error)
}

// Chain queries indexes in priority order: the primary index first, then
// each extra index, mirroring how pip consults --extra-index-url targets.
type Chain struct {
	sources []Source
}

// NewChain creates a chain over the given sources. Order is significant.
func NewChain(sources ...Source) *Chain {
	return &Chain{sources: sources}
}

// NewChainForManifest builds a chain matching the index directives of a
// manifest. The primary index defaults to pypi.org and is queried over the
// JSON API; a custom --index-url and all --extra-index-url targets are
// treated as PEP 503 simple indexes, which is the format pip expects there.
func NewChainForManifest(m *manifest.Manifest, backend cache.Cache, ttl time.Duration) *Chain {
	var sources []Source
	if m.IndexURL == "" {
		sources = append(sources, pypi.NewClient(pypi.DefaultURL, backend, ttl))
	} else {
		sources = append(sources, simple.NewClient(m.IndexURL, backend, ttl))
	}
	for _, url := range m.ExtraIndexURLs {
		sources = append(sources, simple.NewClient(url, backend, ttl))
	}
	return &Chain{sources: sources}
}

// Sources returns the chained sources in query order.
func (c *Chain) Sources() []Source { return c.sources }

// Lookup asks each source in order and returns the answer of the first
// index that knows the package, along with that index's URL.
//
// Sources that fail with a transient error are skipped in favor of later
// ones; if no source knows the package, the first transient error is
// returned when one occurred, otherwise [index.ErrNotFound].
func (c *Chain) Lookup(ctx context.Context, pkg string, refresh bool) ([]string, string, error) {
	var firstErr error
	for _, src := range c.sources {
		versions, err := src.FetchVersions(ctx, pkg, refresh)
		if err == nil {
			return versions, src.BaseURL(), nil
		}
		if errors.Is(err, index.ErrNotFound) {
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, "", firstErr
	}
	return nil, "", index.ErrNotFound
}
