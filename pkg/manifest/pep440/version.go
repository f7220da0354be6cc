// Package pep440 implements Python version parsing, ordering and specifier
// matching as defined by PEP 440.
//
// A version has the form [N!]N(.N)*[{a|b|rc}N][.postN][.devN][+local].
// Ordering follows the standard scheme: for the same release number,
//
//	1.0.dev1 < 1.0a1 < 1.0b1 < 1.0rc1 < 1.0 < 1.0.post1
//
// Specifier matching supports ==, !=, <=, >=, <, >, ~= (compatible release),
// === (arbitrary equality) and ==X.Y.* prefix wildcards.
package pep440

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// versionRE matches a PEP 440 version after lowercasing and trimming.
// Spelling variants (alpha, beta, c, pre, preview, rev, r, -N post) are
// accepted and normalized, as the standard requires.
var versionRE = regexp.MustCompile(`^v?` +
	`(?:(\d+)!)?` + // epoch
	`(\d+(?:\.\d+)*)` + // release
	`(?:[-_.]?(a|b|c|rc|alpha|beta|pre|preview)[-_.]?(\d*))?` + // pre
	`(?:(?:[-_.]?(post|rev|r)[-_.]?(\d*))|(?:-(\d+)))?` + // post
	`(?:[-_.]?(dev)[-_.]?(\d*))?` + // dev
	`(?:\+([a-z0-9]+(?:[-_.][a-z0-9]+)*))?$`) // local

// preAliases maps pre-release phase spellings to their canonical form.
var preAliases = map[string]string{
	"a": "a", "alpha": "a",
	"b": "b", "beta": "b",
	"c": "rc", "rc": "rc", "pre": "rc", "preview": "rc",
}

// preRank orders canonical pre-release phases.
var preRank = map[string]int{"a": 0, "b": 1, "rc": 2}

// Version is a parsed PEP 440 version.
type Version struct {
	Epoch   int
	Release []int
	Pre     *PreRelease
	Post    int // -1 if absent
	Dev     int // -1 if absent
	Local   string

	original string
}

// PreRelease is the pre-release segment of a version (e.g. rc1).
type PreRelease struct {
	Phase string // "a", "b" or "rc"
	N     int
}

// Parse parses s as a PEP 440 version. The input is case-insensitive and
// surrounding whitespace is ignored. Returns an error for anything the
// version scheme does not define.
func Parse(s string) (Version, error) {
	original := strings.TrimSpace(s)
	m := versionRE.FindStringSubmatch(strings.ToLower(original))
	if m == nil {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}

	v := Version{Post: -1, Dev: -1, original: original}

	if m[1] != "" {
		v.Epoch, _ = strconv.Atoi(m[1])
	}
	for _, part := range strings.Split(m[2], ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, fmt.Errorf("invalid release segment in %q", s)
		}
		v.Release = append(v.Release, n)
	}
	if m[3] != "" {
		v.Pre = &PreRelease{Phase: preAliases[m[3]], N: atoiOrZero(m[4])}
	}
	switch {
	case m[5] != "":
		v.Post = atoiOrZero(m[6])
	case m[7] != "":
		v.Post = atoiOrZero(m[7])
	}
	if m[8] != "" {
		v.Dev = atoiOrZero(m[9])
	}
	v.Local = m[10]

	return v, nil
}

// MustParse parses s and panics on failure. Use only for literals in tests
// and static tables.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}

// IsPrerelease reports whether the version is a pre-release or dev release.
func (v Version) IsPrerelease() bool {
	return v.Pre != nil || v.Dev >= 0
}

// String returns the canonical form of the version.
func (v Version) String() string {
	var b strings.Builder
	if v.Epoch > 0 {
		fmt.Fprintf(&b, "%d!", v.Epoch)
	}
	for i, n := range v.Release {
		if i > 0 {
			b.WriteByte('.')
		}
		fmt.Fprintf(&b, "%d", n)
	}
	if v.Pre != nil {
		fmt.Fprintf(&b, "%s%d", v.Pre.Phase, v.Pre.N)
	}
	if v.Post >= 0 {
		fmt.Fprintf(&b, ".post%d", v.Post)
	}
	if v.Dev >= 0 {
		fmt.Fprintf(&b, ".dev%d", v.Dev)
	}
	if v.Local != "" {
		fmt.Fprintf(&b, "+%s", v.Local)
	}
	return b.String()
}

// Original returns the version exactly as it appeared in the input.
func (v Version) Original() string { return v.original }

// Compare returns -1, 0 or 1 ordering v against o per PEP 440.
func Compare(v, o Version) int {
	if v.Epoch != o.Epoch {
		return cmpInt(v.Epoch, o.Epoch)
	}
	if c := compareRelease(v.Release, o.Release); c != 0 {
		return c
	}
	if c := cmpInt(preKey(v), preKey(o)); c != 0 {
		return c
	}
	if v.Pre != nil && o.Pre != nil {
		if c := cmpInt(preRank[v.Pre.Phase], preRank[o.Pre.Phase]); c != 0 {
			return c
		}
		if c := cmpInt(v.Pre.N, o.Pre.N); c != 0 {
			return c
		}
	}
	if c := cmpInt(postKey(v), postKey(o)); c != 0 {
		return c
	}
	if c := cmpInt(devKey(v), devKey(o)); c != 0 {
		return c
	}
	return compareLocal(v.Local, o.Local)
}

// Less reports whether v orders before o.
func (v Version) Less(o Version) bool { return Compare(v, o) < 0 }

// Equal reports whether v and o are the same version (local segments included).
func (v Version) Equal(o Version) bool { return Compare(v, o) == 0 }

// WithoutLocal returns a copy of v with the local segment stripped.
// Equality specifiers without a local segment ignore the candidate's local.
func (v Version) WithoutLocal() Version {
	v.Local = ""
	return v
}

const (
	negInf = -1 << 30
	posInf = 1 << 30
)

// preKey positions the pre-release segment on the number line:
// dev-only releases sort before any pre-release, final releases after all.
func preKey(v Version) int {
	switch {
	case v.Pre != nil:
		return 0
	case v.Post < 0 && v.Dev >= 0:
		return negInf
	default:
		return posInf
	}
}

func postKey(v Version) int {
	if v.Post < 0 {
		return negInf
	}
	return v.Post
}

func devKey(v Version) int {
	if v.Dev < 0 {
		return posInf
	}
	return v.Dev
}

// compareRelease compares release tuples with zero padding, so 1.0 == 1.0.0.
func compareRelease(a, b []int) int {
	n := max(len(a), len(b))
	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if av != bv {
			return cmpInt(av, bv)
		}
	}
	return 0
}

// compareLocal compares local version segments: numeric segments compare
// numerically and order after alphanumeric ones; an absent local segment
// orders first.
func compareLocal(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return -1
	}
	if b == "" {
		return 1
	}

	as := splitLocal(a)
	bs := splitLocal(b)
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aNum := parseLocalSegment(as[i])
		bn, bNum := parseLocalSegment(bs[i])
		switch {
		case aNum && bNum:
			if an != bn {
				return cmpInt(an, bn)
			}
		case aNum != bNum:
			if aNum {
				return 1
			}
			return -1
		default:
			if as[i] != bs[i] {
				return strings.Compare(as[i], bs[i])
			}
		}
	}
	return cmpInt(len(as), len(bs))
}

func splitLocal(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '-' || r == '_'
	})
}

func parseLocalSegment(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
