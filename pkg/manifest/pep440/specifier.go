package pep440

import (
	"fmt"
	"strings"
)

// Specifier is a single version clause, e.g. ">=1.0" or "==1.2.*".
type Specifier struct {
	Op      string // ==, !=, <=, >=, <, >, ~=, ===
	Version string // right-hand side, verbatim
}

// String returns the clause in canonical "op version" form without spaces.
func (s Specifier) String() string { return s.Op + s.Version }

// specOps lists operators longest-first so that two-character operators are
// tried before their one-character prefixes.
var specOps = []string{"===", "==", "!=", "<=", ">=", "~=", "<", ">"}

// ParseSpecifier parses a single clause like ">= 1.0" or "==1.2.*".
func ParseSpecifier(s string) (Specifier, error) {
	s = strings.TrimSpace(s)
	for _, op := range specOps {
		if rest, ok := strings.CutPrefix(s, op); ok {
			version := strings.TrimSpace(rest)
			if version == "" {
				return Specifier{}, fmt.Errorf("specifier %q is missing a version", s)
			}
			spec := Specifier{Op: op, Version: version}
			if err := spec.validate(); err != nil {
				return Specifier{}, err
			}
			return spec, nil
		}
	}
	return Specifier{}, fmt.Errorf("specifier %q has no comparison operator", s)
}

func (s Specifier) validate() error {
	if s.Op == "===" {
		// Arbitrary equality compares strings; any non-empty version is legal.
		return nil
	}
	v := s.Version
	if wild, ok := strings.CutSuffix(v, ".*"); ok {
		if s.Op != "==" && s.Op != "!=" {
			return fmt.Errorf("wildcard version only valid with == or !=: %q", s.String())
		}
		v = wild
	}
	if _, err := Parse(v); err != nil {
		return fmt.Errorf("specifier %q: %w", s.String(), err)
	}
	if s.Op == "~=" {
		parsed, _ := Parse(v)
		if len(parsed.Release) < 2 {
			return fmt.Errorf("compatible release clause needs at least two release segments: %q", s.String())
		}
	}
	return nil
}

// Match reports whether version v satisfies the clause.
func (s Specifier) Match(v Version) (bool, error) {
	switch s.Op {
	case "===":
		return v.Original() == strings.TrimSpace(s.Version), nil
	case "==", "!=":
		matched, err := s.matchEquality(v)
		if err != nil {
			return false, err
		}
		if s.Op == "!=" {
			return !matched, nil
		}
		return matched, nil
	case "~=":
		return s.matchCompatible(v)
	case "<=", ">=", "<", ">":
		return s.matchOrdered(v)
	default:
		return false, fmt.Errorf("unknown operator %q", s.Op)
	}
}

func (s Specifier) matchEquality(v Version) (bool, error) {
	if prefix, ok := strings.CutSuffix(s.Version, ".*"); ok {
		spec, err := Parse(prefix)
		if err != nil {
			return false, err
		}
		return matchPrefix(spec, v), nil
	}

	spec, err := Parse(s.Version)
	if err != nil {
		return false, err
	}
	if spec.Local == "" {
		v = v.WithoutLocal()
	}
	return Compare(spec, v) == 0, nil
}

// matchPrefix implements ==X.Y.* matching: the candidate's epoch and leading
// release segments must equal the prefix, zero-padding the shorter side.
func matchPrefix(spec, v Version) bool {
	if spec.Epoch != v.Epoch {
		return false
	}
	for i, n := range spec.Release {
		got := 0
		if i < len(v.Release) {
			got = v.Release[i]
		}
		if got != n {
			return false
		}
	}
	return true
}

func (s Specifier) matchCompatible(v Version) (bool, error) {
	spec, err := Parse(s.Version)
	if err != nil {
		return false, err
	}

	// ~=X.Y.Z is >=X.Y.Z combined with ==X.Y.*.
	if Compare(v.WithoutLocal(), spec) < 0 {
		return false, nil
	}
	prefix := spec
	prefix.Release = spec.Release[:len(spec.Release)-1]
	return matchPrefix(prefix, v), nil
}

func (s Specifier) matchOrdered(v Version) (bool, error) {
	spec, err := Parse(s.Version)
	if err != nil {
		return false, err
	}

	c := Compare(v.WithoutLocal(), spec)
	switch s.Op {
	case "<=":
		return c <= 0, nil
	case ">=":
		return c >= 0, nil
	case "<":
		// <V must not match a pre-release of V unless V is itself one.
		if c < 0 && !spec.IsPrerelease() && v.IsPrerelease() && sameRelease(spec, v) {
			return false, nil
		}
		return c < 0, nil
	default:
		// >V must not match a post-release of V unless V is itself one.
		if c > 0 && spec.Post < 0 && v.Post >= 0 && sameRelease(spec, v) {
			return false, nil
		}
		return c > 0, nil
	}
}

func sameRelease(a, b Version) bool {
	return a.Epoch == b.Epoch && compareRelease(a.Release, b.Release) == 0
}

// Set is a comma-joined collection of clauses; a version must satisfy all.
type Set []Specifier

// ParseSet parses a comma-separated specifier list like ">=1.0, <2.0".
// An empty string yields an empty set, which matches everything.
func ParseSet(s string) (Set, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var set Set
	for _, clause := range strings.Split(s, ",") {
		spec, err := ParseSpecifier(clause)
		if err != nil {
			return nil, err
		}
		set = append(set, spec)
	}
	return set, nil
}

// String returns the set in canonical comma-joined form.
func (set Set) String() string {
	parts := make([]string, len(set))
	for i, s := range set {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}

// Match reports whether v satisfies every clause in the set.
func (set Set) Match(v Version) (bool, error) {
	for _, s := range set {
		ok, err := s.Match(v)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// ExactPin returns the version of an == or === clause if the set contains
// one, and reports whether it does. Wildcard equality is not a pin.
func (set Set) ExactPin() (string, bool) {
	for _, s := range set {
		if s.Op == "===" {
			return s.Version, true
		}
		if s.Op == "==" && !strings.HasSuffix(s.Version, ".*") {
			return s.Version, true
		}
	}
	return "", false
}
