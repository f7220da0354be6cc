package lint

import (
	"strings"
	"testing"

	"github.com/pindown/pindown/pkg/manifest"
)

func parse(t *testing.T, content string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse(strings.NewReader(content), "test")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return m
}

func findRule(res *Result, rule Rule) []Finding {
	var out []Finding
	for _, f := range res.Findings {
		if f.Rule == rule {
			out = append(out, f)
		}
	}
	return out
}

func TestCheck_CleanManifest(t *testing.T) {
	res := Check(parse(t, `--extra-index-url https://mirror.example.com/simple
numpy==1.22.2
Pillow==8.1.2
nibabel==3.2.1
git+https://github.com/NVIDIA/dllogger.git#egg=dllogger
`))

	if res.HasErrors() {
		t.Fatalf("clean manifest has errors: %+v", res.Findings)
	}
	if res.Warnings() != 0 {
		t.Errorf("clean manifest has warnings: %+v", res.Findings)
	}
}

func TestCheck_ParseErrors(t *testing.T) {
	res := Check(parse(t, "==1.0\nnumpy==1.22.2\n"))

	parseFindings := findRule(res, RuleParse)
	if len(parseFindings) != 1 {
		t.Fatalf("parse findings = %+v", res.Findings)
	}
	if parseFindings[0].Line != 1 || parseFindings[0].Severity != SeverityError {
		t.Errorf("finding = %+v", parseFindings[0])
	}
	if !res.HasErrors() {
		t.Error("HasErrors() = false")
	}
}

func TestCheck_Unpinned(t *testing.T) {
	res := Check(parse(t, "scipy\nhorovod>=0.24\nnumpy==1.22.2\n"))

	unpinned := findRule(res, RuleUnpinned)
	if len(unpinned) != 2 {
		t.Fatalf("unpinned findings = %+v", res.Findings)
	}
	for _, f := range unpinned {
		if f.Severity != SeverityWarning {
			t.Errorf("unpinned severity = %s, want warning", f.Severity)
		}
	}
	if res.HasErrors() {
		t.Error("unpinned-only manifest should not have errors")
	}
}

func TestCheck_Duplicates(t *testing.T) {
	// Same package under different spellings still collides (PEP 503).
	res := Check(parse(t, "typing_extensions==4.0.0\ntyping-extensions==4.1.0\n"))

	dups := findRule(res, RuleDuplicate)
	if len(dups) != 1 {
		t.Fatalf("duplicate findings = %+v", res.Findings)
	}
	if dups[0].Line != 2 {
		t.Errorf("duplicate line = %d, want 2", dups[0].Line)
	}
}

func TestCheck_Conflict(t *testing.T) {
	res := Check(parse(t, "pkg==1.0,>=2.0\n"))

	if len(findRule(res, RuleConflict)) != 1 {
		t.Fatalf("conflict findings = %+v", res.Findings)
	}
}

func TestCheck_BadIndexURL(t *testing.T) {
	res := Check(parse(t, "--extra-index-url ftp://mirror/simple\nnumpy==1.22.2\n"))

	if len(findRule(res, RuleURL)) != 1 {
		t.Fatalf("url findings = %+v", res.Findings)
	}
}

func TestCheck_DuplicateIndexDirective(t *testing.T) {
	res := Check(parse(t, `--index-url https://a.example.com/simple
--index-url https://b.example.com/simple
numpy==1.22.2
`))

	idx := findRule(res, RuleIndex)
	if len(idx) != 1 || idx[0].Severity != SeverityWarning {
		t.Fatalf("index findings = %+v", res.Findings)
	}
}

func TestCheck_VCSWithoutEgg(t *testing.T) {
	res := Check(parse(t, "git+https://github.com/u/r.git\n"))

	names := findRule(res, RuleName)
	if len(names) != 1 || names[0].Severity != SeverityWarning {
		t.Fatalf("name findings = %+v", res.Findings)
	}
}

func TestCheck_ArbitraryEqualityPin(t *testing.T) {
	// === is textual; a non-standard version is not a version error.
	res := Check(parse(t, "legacy-pkg===1.0-custom-build\n"))

	if res.HasErrors() {
		t.Fatalf("arbitrary equality flagged: %+v", res.Findings)
	}
}

func TestResult_Counts(t *testing.T) {
	res := Check(parse(t, "==bad\nscipy\nnumpy==1.22.2\n"))

	if res.Errors() != 1 {
		t.Errorf("Errors() = %d, want 1", res.Errors())
	}
	if res.Warnings() != 1 {
		t.Errorf("Warnings() = %d, want 1", res.Warnings())
	}
}

func TestFinding_String(t *testing.T) {
	f := Finding{Rule: RuleUnpinned, Severity: SeverityWarning, Line: 3, Message: "scipy has no exact version pin"}
	want := "warning: line 3: unpinned: scipy has no exact version pin"
	if got := f.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
