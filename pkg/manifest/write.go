package manifest

import (
	"io"
	"os"
	"strings"
)

// Render writes the manifest back out as requirements.txt text: index
// directives first, then constraint references, then one requirement per
// line in file order. Comments from the source file are not preserved, so
// rendering is canonical rather than a byte round-trip.
func (m *Manifest) Render(w io.Writer) error {
	var b strings.Builder

	if m.IndexURL != "" {
		b.WriteString("--index-url " + m.IndexURL + "\n")
	}
	for _, u := range m.ExtraIndexURLs {
		b.WriteString("--extra-index-url " + u + "\n")
	}
	for _, c := range m.Constraints {
		b.WriteString("-c " + c + "\n")
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}

	for _, r := range m.Requirements {
		b.WriteString(r.String() + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteFile renders the manifest to path with mode 0644.
func (m *Manifest) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := m.Render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
