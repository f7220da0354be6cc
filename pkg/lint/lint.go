// Package lint implements manifest-level sanity checks for requirements
// files: every line parses as a valid specifier, names and pinned versions
// follow their respective conventions, index URLs are well-formed, and the
// file is free of duplicates and unsatisfiable pins.
package lint

import (
	"fmt"
	"sort"

	"github.com/pindown/pindown/pkg/errors"
	"github.com/pindown/pindown/pkg/manifest"
	"github.com/pindown/pindown/pkg/manifest/pep440"
)

// Severity classifies a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Rule identifies which check produced a finding.
type Rule string

const (
	RuleParse     Rule = "parse"     // line does not parse as a requirement or directive
	RuleName      Rule = "name"      // package name violates PEP 508
	RuleVersion   Rule = "version"   // pinned version is not a valid version
	RuleURL       Rule = "url"       // index URL or reference URL is malformed
	RuleDuplicate Rule = "duplicate" // same package listed more than once
	RuleConflict  Rule = "conflict"  // specifier set cannot be satisfied
	RuleUnpinned  Rule = "unpinned"  // requirement has no exact pin
	RuleIndex     Rule = "index"     // suspicious index directive usage
)

// Finding is a single lint result.
type Finding struct {
	Rule     Rule     `json:"rule"`
	Severity Severity `json:"severity"`
	Line     int      `json:"line,omitempty"`
	Message  string   `json:"message"`
}

func (f Finding) String() string {
	if f.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s: %s", f.Severity, f.Line, f.Rule, f.Message)
	}
	return fmt.Sprintf("%s: %s: %s", f.Severity, f.Rule, f.Message)
}

// Result collects the findings for one manifest.
type Result struct {
	Findings []Finding `json:"findings"`
}

// HasErrors reports whether any finding has error severity.
func (r *Result) HasErrors() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns the number of error-severity findings.
func (r *Result) Errors() int { return r.count(SeverityError) }

// Warnings returns the number of warning-severity findings.
func (r *Result) Warnings() int { return r.count(SeverityWarning) }

func (r *Result) count(s Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}

func (r *Result) add(rule Rule, sev Severity, line int, format string, args ...any) {
	r.Findings = append(r.Findings, Finding{
		Rule:     rule,
		Severity: sev,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Check runs every check against the manifest and returns the findings
// sorted by line number.
func Check(m *manifest.Manifest) *Result {
	res := &Result{}

	for _, inv := range m.Invalid {
		res.add(RuleParse, SeverityError, inv.Line, "line does not parse: %v", inv.Err)
	}

	checkIndexes(res, m)
	checkRequirements(res, m)
	checkDuplicates(res, m)

	sort.SliceStable(res.Findings, func(i, j int) bool {
		return res.Findings[i].Line < res.Findings[j].Line
	})
	return res
}

func checkIndexes(res *Result, m *manifest.Manifest) {
	if m.IndexURL != "" {
		if err := errors.ValidateIndexURL(m.IndexURL); err != nil {
			res.add(RuleURL, SeverityError, 0, "%s", errors.UserMessage(err))
		}
	}
	for _, u := range m.ExtraIndexURLs {
		if err := errors.ValidateIndexURL(u); err != nil {
			res.add(RuleURL, SeverityError, 0, "%s", errors.UserMessage(err))
		}
	}
	if m.IndexDirectiveCount() > 1 {
		res.add(RuleIndex, SeverityWarning, 0,
			"--index-url given %d times; only the last takes effect", m.IndexDirectiveCount())
	}
}

func checkRequirements(res *Result, m *manifest.Manifest) {
	for _, r := range m.Requirements {
		if r.Name != "" {
			if err := errors.ValidatePythonPackageName(r.Name); err != nil {
				res.add(RuleName, SeverityError, r.Line, "%s", errors.UserMessage(err))
				continue
			}
		}

		switch {
		case r.VCS != "":
			if err := errors.ValidateURL(r.VCS); err != nil {
				res.add(RuleURL, SeverityError, r.Line, "%s", errors.UserMessage(err))
			}
			if r.Name == "" {
				res.add(RuleName, SeverityWarning, r.Line,
					"source-control reference has no #egg= name; installers cannot dedupe it")
			}
		case r.URL != "" && !r.Editable:
			if err := errors.ValidateURL(r.URL); err != nil {
				res.add(RuleURL, SeverityError, r.Line, "%s", errors.UserMessage(err))
			}
		case r.Editable:
			// Local editable paths are not checked; the installer resolves them.
		default:
			checkSpecifiers(res, r)
		}
	}
}

func checkSpecifiers(res *Result, r *manifest.Requirement) {
	pin, pinned := r.Pinned()
	if !pinned {
		res.add(RuleUnpinned, SeverityWarning, r.Line,
			"%s has no exact version pin", r.Name)
		return
	}

	v, err := pep440.Parse(pin)
	if err != nil {
		if isArbitraryPin(r.Specifiers, pin) {
			// === compares strings; a non-standard version is the point.
			return
		}
		res.add(RuleVersion, SeverityError, r.Line,
			"%s is pinned to invalid version %q", r.Name, pin)
		return
	}

	// A pin that fails the requirement's own remaining clauses can never
	// install (e.g. "pkg==1.0,>=2.0" or a double pin).
	ok, err := r.Specifiers.Match(v)
	if err != nil {
		res.add(RuleVersion, SeverityError, r.Line, "%s: %v", r.Name, err)
		return
	}
	if !ok {
		res.add(RuleConflict, SeverityError, r.Line,
			"%s: pinned version %s does not satisfy %s", r.Name, pin, r.Specifiers)
	}
}

func isArbitraryPin(set pep440.Set, pin string) bool {
	for _, s := range set {
		if s.Op == "===" && s.Version == pin {
			return true
		}
	}
	return false
}

func checkDuplicates(res *Result, m *manifest.Manifest) {
	seen := make(map[string]int) // normalized name -> first line
	for _, r := range m.Requirements {
		if r.Name == "" {
			continue
		}
		name := r.Normalized()
		if first, ok := seen[name]; ok {
			res.add(RuleDuplicate, SeverityError, r.Line,
				"%s already listed on line %d", r.Name, first)
			continue
		}
		seen[name] = r.Line
	}
}
