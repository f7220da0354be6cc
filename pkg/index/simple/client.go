// Package simple provides a client for PEP 503 "simple" package indexes,
// the HTML listing format served by private mirrors and the
// --extra-index-url targets of pip.
package simple

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/pindown/pindown/pkg/cache"
	"github.com/pindown/pindown/pkg/index"
	"github.com/pindown/pindown/pkg/manifest"
	"github.com/pindown/pindown/pkg/manifest/pep440"
)

// Client provides access to a PEP 503 simple index.
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*index.Client
	baseURL string
}

// NewClient creates a simple-index client for baseURL, which should point
// at the index root (for example "https://pypi.org/simple" or a devpi
// mirror). Trailing slashes are tolerated.
func NewClient(baseURL string, backend cache.Cache, ttl time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		Client:  index.NewClient(backend, "simple:"+baseURL+":", ttl, nil),
		baseURL: baseURL,
	}
}

// BaseURL returns the index root URL this client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchVersions lists the versions available for a package, ascending.
//
// Versions are derived from the distribution filenames linked on the
// project page; anchors marked data-yanked and filenames that don't carry
// a parseable version are skipped. Returns [index.ErrNotFound] when the
// index has no page for the package.
func (c *Client) FetchVersions(ctx context.Context, pkg string, refresh bool) ([]string, error) {
	pkg = manifest.NormalizeName(pkg)

	var versions []string
	err := c.Cached(ctx, pkg, refresh, &versions, func() error {
		url := fmt.Sprintf("%s/%s/", c.baseURL, pkg)
		body, err := c.GetText(ctx, url)
		if err != nil {
			if errors.Is(err, index.ErrNotFound) {
				return fmt.Errorf("%w: %s on %s", err, pkg, c.baseURL)
			}
			return err
		}
		versions = extractVersions(pkg, body)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return versions, nil
}

// extractVersions walks the project page and collects the distinct
// versions named by its file links.
func extractVersions(pkg, page string) []string {
	seen := make(map[string]bool)
	var parsed []pep440.Version

	tok := html.NewTokenizer(strings.NewReader(page))
	for {
		tt := tok.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken {
			continue
		}
		name, hasAttr := tok.TagName()
		if string(name) != "a" || !hasAttr {
			continue
		}
		if anchorYanked(tok) {
			continue
		}
		if tok.Next() != html.TextToken {
			continue
		}
		filename := strings.TrimSpace(string(tok.Text()))
		ver, ok := versionFromFilename(pkg, filename)
		if !ok || seen[ver] {
			continue
		}
		v, err := pep440.Parse(ver)
		if err != nil {
			continue
		}
		seen[ver] = true
		parsed = append(parsed, v)
	}

	sortVersions(parsed)
	out := make([]string, len(parsed))
	for i, v := range parsed {
		out[i] = v.Original()
	}
	return out
}

func anchorYanked(tok *html.Tokenizer) bool {
	for {
		key, _, more := tok.TagAttr()
		if string(key) == "data-yanked" {
			return true
		}
		if !more {
			return false
		}
	}
}

// versionFromFilename extracts the version segment of a wheel or sdist
// filename. Wheel names use hyphen-separated fields with an underscored
// package name; sdists use <name>-<version>.<ext>.
func versionFromFilename(pkg, filename string) (string, bool) {
	lower := strings.ToLower(filename)

	if strings.HasSuffix(lower, ".whl") {
		parts := strings.Split(strings.TrimSuffix(filename, ".whl"), "-")
		if len(parts) < 2 {
			return "", false
		}
		if manifest.NormalizeName(parts[0]) != pkg {
			return "", false
		}
		return parts[1], true
	}

	base := filename
	for _, ext := range []string{".tar.gz", ".tar.bz2", ".zip", ".tgz"} {
		if strings.HasSuffix(lower, ext) {
			base = filename[:len(filename)-len(ext)]
			break
		}
	}
	if base == filename {
		return "", false
	}

	// The package name itself may contain hyphens, so match it by
	// normalized prefix rather than splitting on the first hyphen.
	for i := len(base) - 1; i > 0; i-- {
		if base[i] != '-' {
			continue
		}
		if manifest.NormalizeName(base[:i]) == pkg {
			return base[i+1:], true
		}
	}
	return "", false
}

func sortVersions(vs []pep440.Version) {
	for i := 1; i < len(vs); i++ {
		for j := i; j > 0 && vs[j].Less(vs[j-1]); j-- {
			vs[j], vs[j-1] = vs[j-1], vs[j]
		}
	}
}
