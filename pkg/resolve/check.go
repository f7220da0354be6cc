package resolve

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/pindown/pindown/pkg/index"
	"github.com/pindown/pindown/pkg/manifest"
	"github.com/pindown/pindown/pkg/manifest/pep440"
	"github.com/pindown/pindown/pkg/observability"
)

const (
	DefaultWorkers  = 8              // Default concurrent index lookups
	DefaultCacheTTL = 24 * time.Hour // Default index response cache duration
)

// Options configures a manifest check.
type Options struct {
	Workers int                  // Concurrent lookups (default: 8)
	Refresh bool                 // Bypass cached index responses
	Logger  func(string, ...any) // Progress/error callback (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}

// Status classifies one requirement after checking it against the indexes.
type Status string

const (
	// StatusCurrent means the pinned version is the newest release.
	StatusCurrent Status = "current"
	// StatusStale means the pinned version exists but a newer release does.
	StatusStale Status = "stale"
	// StatusMissing means the pinned version is not on any index, or the
	// package itself is unknown to every index.
	StatusMissing Status = "missing"
	// StatusUnpinned means the requirement has no exact pin.
	StatusUnpinned Status = "unpinned"
	// StatusUnknown means every index lookup failed.
	StatusUnknown Status = "unknown"
	// StatusSkipped means the requirement points at a VCS or URL source
	// and has no index to check against.
	StatusSkipped Status = "skipped"
)

// Result is the check outcome for a single requirement.
type Result struct {
	Name        string                `json:"name"`
	Requirement *manifest.Requirement `json:"-"`
	Status      Status                `json:"status"`
	Pinned      string                `json:"pinned,omitempty"` // pinned version, if any
	Latest      string                `json:"latest,omitempty"` // newest release on the answering index
	Source      string                `json:"source,omitempty"` // URL of the index that answered
	Error       string                `json:"error,omitempty"`  // lookup failure, for unknown/missing
	Err         error                 `json:"-"`
}

// Report is the outcome of checking a whole manifest.
type Report struct {
	Path    string   `json:"path"`
	Results []Result `json:"results"`
}

// Counts tallies results per status.
func (r *Report) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, res := range r.Results {
		counts[res.Status]++
	}
	return counts
}

// HasProblems reports whether any requirement is stale, missing, unpinned
// or could not be checked.
func (r *Report) HasProblems() bool {
	for _, res := range r.Results {
		switch res.Status {
		case StatusStale, StatusMissing, StatusUnpinned, StatusUnknown:
			return true
		}
	}
	return false
}

// Checker runs manifest checks against an index chain.
type Checker struct {
	chain *Chain
}

// NewChecker creates a Checker over the given chain.
func NewChecker(chain *Chain) *Checker {
	return &Checker{chain: chain}
}

// Check looks up every requirement of the manifest concurrently and
// returns one Result per requirement, in manifest order.
func (c *Checker) Check(ctx context.Context, m *manifest.Manifest, opts Options) (*Report, error) {
	opts = opts.WithDefaults()

	observability.Check().OnCheckStart(ctx, m.Path, len(m.Requirements))
	start := time.Now()

	jobs := make(chan int)
	results := make([]Result, len(m.Requirements))

	var wg sync.WaitGroup
	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = c.checkOne(ctx, m.Requirements[i], opts)
				opts.Logger("checked %s: %s", results[i].Name, results[i].Status)
			}
		}()
	}

	for i := range m.Requirements {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			observability.Check().OnCheckComplete(ctx, m.Path, time.Since(start), ctx.Err())
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()
	observability.Check().OnCheckComplete(ctx, m.Path, time.Since(start), nil)

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Requirement.Line < results[j].Requirement.Line
	})
	return &Report{Path: m.Path, Results: results}, nil
}

func (c *Checker) checkOne(ctx context.Context, req *manifest.Requirement, opts Options) Result {
	res := Result{Name: req.Normalized(), Requirement: req}

	if req.IsRemote() {
		res.Status = StatusSkipped
		return res
	}

	pinned, hasPin := req.Pinned()
	res.Pinned = pinned

	versions, source, err := c.chain.Lookup(ctx, req.Normalized(), opts.Refresh)
	if err != nil {
		res.Err = err
		res.Error = err.Error()
		if errors.Is(err, index.ErrNotFound) {
			res.Status = StatusMissing
		} else {
			res.Status = StatusUnknown
		}
		return res
	}

	res.Source = source
	res.Latest = latestOf(versions)

	if !hasPin {
		res.Status = StatusUnpinned
		return res
	}
	if !containsVersion(versions, pinned) {
		res.Status = StatusMissing
		return res
	}
	if isStale(pinned, res.Latest) {
		res.Status = StatusStale
		return res
	}
	res.Status = StatusCurrent
	return res
}

// latestOf picks the newest final release from an ascending version list,
// falling back to the newest pre-release when nothing else exists.
func latestOf(versions []string) string {
	if len(versions) == 0 {
		return ""
	}
	for i := len(versions) - 1; i >= 0; i-- {
		if v, err := pep440.Parse(versions[i]); err == nil && !v.IsPrerelease() {
			return versions[i]
		}
	}
	return versions[len(versions)-1]
}

// containsVersion matches by version equivalence rather than spelling, so
// a pin of "1.0" finds a release listed as "1.0.0".
func containsVersion(versions []string, pin string) bool {
	want, err := pep440.Parse(pin)
	if err != nil {
		// Arbitrary-equality pins compare textually.
		for _, v := range versions {
			if v == pin {
				return true
			}
		}
		return false
	}
	for _, v := range versions {
		if got, err := pep440.Parse(v); err == nil && got.Equal(want) {
			return true
		}
	}
	return false
}

func isStale(pinned, latest string) bool {
	if latest == "" {
		return false
	}
	p, err := pep440.Parse(pinned)
	if err != nil {
		return false
	}
	l, err := pep440.Parse(latest)
	if err != nil {
		return false
	}
	return p.Less(l)
}
