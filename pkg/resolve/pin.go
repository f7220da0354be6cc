package resolve

import (
	"github.com/pindown/pindown/pkg/manifest"
	"github.com/pindown/pindown/pkg/manifest/pep440"
)

// Pin rewrites unpinned requirements of the manifest to an exact pin on
// the latest release reported for them, returning how many were changed.
//
// Requirements that are already pinned, skipped, or whose lookup failed
// are left untouched, as are their extras, markers and hashes.
func Pin(m *manifest.Manifest, report *Report) int {
	latest := make(map[int]string)
	for _, res := range report.Results {
		if res.Status == StatusUnpinned && res.Latest != "" {
			latest[res.Requirement.Line] = res.Latest
		}
	}

	changed := 0
	for i := range m.Requirements {
		ver, ok := latest[m.Requirements[i].Line]
		if !ok {
			continue
		}
		m.Requirements[i].Specifiers = pep440.Set{{Op: "==", Version: ver}}
		changed++
	}
	return changed
}
