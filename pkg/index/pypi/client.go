// Package pypi provides a client for the JSON API exposed by pypi.org and
// compatible indexes.
package pypi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pindown/pindown/pkg/cache"
	"github.com/pindown/pindown/pkg/index"
	"github.com/pindown/pindown/pkg/manifest"
	"github.com/pindown/pindown/pkg/manifest/pep440"
)

// DefaultURL is the canonical public index.
const DefaultURL = "https://pypi.org"

// PackageInfo holds release metadata for one package.
//
// Names are normalized following PEP 503 (lowercase, separator runs
// collapsed to hyphens). Versions contains every non-yanked release that
// parses as a valid version, sorted ascending; Latest is the newest final
// release, falling back to the newest pre-release when nothing else exists.
type PackageInfo struct {
	Name     string   // normalized package name
	Latest   string   // latest version (see above)
	Versions []string // all known versions, ascending
	Summary  string   // short description (may be empty)
	HomePage string   // homepage URL (may be empty)
}

// Client provides access to a PyPI-compatible JSON API.
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*index.Client
	baseURL string
}

// NewClient creates a PyPI client for baseURL (use [DefaultURL] for
// pypi.org) with the given cache backend and TTL.
func NewClient(baseURL string, backend cache.Cache, ttl time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		Client:  index.NewClient(backend, "pypi:"+baseURL+":", ttl, nil),
		baseURL: baseURL,
	}
}

// BaseURL returns the index base URL this client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchPackage retrieves release metadata for a package.
//
// The pkg parameter is normalized automatically. If refresh is true, the
// cache is bypassed and a fresh API call is made.
//
// Returns [index.ErrNotFound] if the package doesn't exist and
// [index.ErrNetwork] for HTTP failures.
func (c *Client) FetchPackage(ctx context.Context, pkg string, refresh bool) (*PackageInfo, error) {
	pkg = manifest.NormalizeName(pkg)

	var info PackageInfo
	err := c.Cached(ctx, pkg, refresh, &info, func() error {
		return c.fetch(ctx, pkg, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// FetchVersions lists the versions available for a package, ascending.
// It is a convenience wrapper around [Client.FetchPackage].
func (c *Client) FetchVersions(ctx context.Context, pkg string, refresh bool) ([]string, error) {
	info, err := c.FetchPackage(ctx, pkg, refresh)
	if err != nil {
		return nil, err
	}
	return info.Versions, nil
}

func (c *Client) fetch(ctx context.Context, pkg string, info *PackageInfo) error {
	var data apiResponse
	url := fmt.Sprintf("%s/pypi/%s/json", c.baseURL, pkg)
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, index.ErrNotFound) {
			return fmt.Errorf("%w: %s on %s", err, pkg, c.baseURL)
		}
		return err
	}

	*info = PackageInfo{
		Name:     manifest.NormalizeName(data.Info.Name),
		Versions: collectVersions(data.Releases),
		Summary:  data.Info.Summary,
		HomePage: data.Info.HomePage,
	}
	info.Latest = pickLatest(info.Versions, data.Info.Version)
	return nil
}

// collectVersions extracts every usable release version: yanked releases
// and version strings outside the version scheme are dropped.
func collectVersions(releases map[string][]releaseFile) []string {
	parsed := make([]pep440.Version, 0, len(releases))
	for ver, files := range releases {
		if allYanked(files) {
			continue
		}
		v, err := pep440.Parse(ver)
		if err != nil {
			continue
		}
		parsed = append(parsed, v)
	}

	sortVersions(parsed)

	out := make([]string, len(parsed))
	for i, v := range parsed {
		out[i] = v.Original()
	}
	return out
}

// allYanked reports whether every file of a release was yanked. A release
// with no files at all is also unusable.
func allYanked(files []releaseFile) bool {
	if len(files) == 0 {
		return true
	}
	for _, f := range files {
		if !f.Yanked {
			return false
		}
	}
	return true
}

func sortVersions(vs []pep440.Version) {
	for i := 1; i < len(vs); i++ {
		for j := i; j > 0 && vs[j].Less(vs[j-1]); j-- {
			vs[j], vs[j-1] = vs[j-1], vs[j]
		}
	}
}

// pickLatest chooses the newest final release, preferring the API's own
// info.version when it is present in the usable set. Pre-releases are only
// reported when no final release exists.
func pickLatest(versions []string, reported string) string {
	if len(versions) == 0 {
		return reported
	}
	for i := len(versions) - 1; i >= 0; i-- {
		v, err := pep440.Parse(versions[i])
		if err == nil && !v.IsPrerelease() {
			return versions[i]
		}
	}
	return versions[len(versions)-1]
}

type apiResponse struct {
	Info     apiInfo                  `json:"info"`
	Releases map[string][]releaseFile `json:"releases"`
}

type apiInfo struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Summary  string `json:"summary"`
	HomePage string `json:"home_page"`
}

type releaseFile struct {
	Yanked bool `json:"yanked"`
}
