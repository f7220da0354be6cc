// Package manifest models pip requirements files: the dependency records
// they contain and the installer directives around them.
//
// A manifest line is one of:
//   - a requirement: "name", "name==1.2.3", "name[extra]>=1.0,<2.0 ; marker"
//   - a direct reference: "name @ https://..." or "git+https://...#egg=name"
//   - a directive: "--index-url", "--extra-index-url", "-r", "-c", "-e"
//   - a comment or blank line
//
// The parser is lenient: lines that do not parse are collected on the
// Manifest rather than aborting, so callers can report every problem in a
// file at once.
package manifest

import (
	"regexp"
	"strings"

	"github.com/pindown/pindown/pkg/manifest/pep440"
)

// Requirement is a single dependency record: at most one package per line,
// with optional version constraints and installer options.
type Requirement struct {
	Name       string     // package name as written (empty for bare archive URLs)
	Extras     []string   // requested extras, e.g. ["s3", "tests"]
	Specifiers pep440.Set // version clauses; empty means "latest"
	Marker     string     // PEP 508 environment marker, without the leading ";"
	Hashes     []string   // --hash=algo:digest values
	URL        string     // direct reference target (name @ URL, or bare archive URL)
	VCS        string     // source-control reference (git+https://...), verbatim
	Editable   bool       // installed with -e
	Options    []string   // unrecognized per-requirement options, verbatim
	Line       int        // 1-based line number in the source file
	Raw        string     // logical line as read (continuations joined, comments stripped)
}

var normalizeRE = regexp.MustCompile(`[-_.]+`)

// NormalizeName converts a package name to its canonical form following
// PEP 503: lowercase, with runs of ".", "-" and "_" collapsed to "-".
func NormalizeName(name string) string {
	return normalizeRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// Normalized returns the requirement's canonical package name.
func (r *Requirement) Normalized() string {
	return NormalizeName(r.Name)
}

// Pinned returns the exactly pinned version and whether the requirement has
// one (an == or === clause, per the exact-equality pin syntax).
func (r *Requirement) Pinned() (string, bool) {
	return r.Specifiers.ExactPin()
}

// IsRemote reports whether the requirement points at a URL or VCS source
// instead of a package index.
func (r *Requirement) IsRemote() bool {
	return r.URL != "" || r.VCS != "" || r.Editable
}

// String renders the requirement as a requirements.txt line in canonical
// form. Per-requirement options and hashes are appended space-separated.
func (r *Requirement) String() string {
	var b strings.Builder

	switch {
	case r.Editable:
		b.WriteString("-e ")
		if r.VCS != "" {
			b.WriteString(r.VCS)
		} else {
			b.WriteString(r.URL)
		}
	case r.VCS != "":
		b.WriteString(r.VCS)
	case r.URL != "" && r.Name == "":
		b.WriteString(r.URL)
	default:
		b.WriteString(r.Name)
		if len(r.Extras) > 0 {
			b.WriteString("[" + strings.Join(r.Extras, ",") + "]")
		}
		if r.URL != "" {
			b.WriteString(" @ " + r.URL)
		} else {
			b.WriteString(r.Specifiers.String())
		}
	}

	if r.Marker != "" {
		b.WriteString(" ; " + r.Marker)
	}
	for _, h := range r.Hashes {
		b.WriteString(" --hash=" + h)
	}
	for _, opt := range r.Options {
		b.WriteString(" " + opt)
	}
	return b.String()
}

// InvalidLine records a line that failed to parse, for later reporting.
type InvalidLine struct {
	Line int
	Raw  string
	Err  error
}

// Manifest is a parsed requirements file.
type Manifest struct {
	Path           string         // source path ("" when parsed from a reader)
	IndexURL       string         // --index-url override, if any
	ExtraIndexURLs []string       // --extra-index-url values, in file order
	Requirements   []*Requirement // dependency records, in file order
	Constraints    []string       // -c/--constraint file references
	Includes       []string       // -r/--requirement file references seen
	Invalid        []InvalidLine  // lines that failed to parse

	indexDirectives int // count of --index-url lines, for duplicate detection
}

// Requirement returns the first requirement whose normalized name matches.
func (m *Manifest) Requirement(name string) (*Requirement, bool) {
	want := NormalizeName(name)
	for _, r := range m.Requirements {
		if r.Name != "" && r.Normalized() == want {
			return r, true
		}
	}
	return nil, false
}

// IndexDirectiveCount returns how many --index-url lines the file contained.
// More than one is almost always a mistake: the last one wins silently.
func (m *Manifest) IndexDirectiveCount() int { return m.indexDirectives }
