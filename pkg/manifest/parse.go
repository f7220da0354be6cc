package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pindown/pindown/pkg/manifest/pep440"
)

// ParseFile reads and parses the requirements file at path.
// -r/--requirement includes are followed relative to the file's directory,
// with cycle detection; their records are merged into the returned Manifest.
// Only I/O failures are returned as errors; malformed lines end up in
// Manifest.Invalid.
func ParseFile(path string) (*Manifest, error) {
	m := &Manifest{Path: path}
	if err := parseFileInto(m, path, map[string]bool{}); err != nil {
		return nil, err
	}
	return m, nil
}

// Parse parses requirements from r without following includes; -r references
// are recorded in Manifest.Includes. name is used for error context only.
func Parse(r io.Reader, name string) (*Manifest, error) {
	m := &Manifest{Path: name}
	if err := parseInto(m, r, "", nil); err != nil {
		return nil, err
	}
	return m, nil
}

func parseFileInto(m *Manifest, path string, seen map[string]bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if seen[abs] {
		return fmt.Errorf("circular -r include: %s", path)
	}
	seen[abs] = true

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return parseInto(m, f, filepath.Dir(path), seen)
}

// parseInto scans logical lines from r into m. If seen is non-nil, include
// directives are followed relative to dir; otherwise they are only recorded.
func parseInto(m *Manifest, r io.Reader, dir string, seen map[string]bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		startLine := lineNo

		line := scanner.Text()
		// Join backslash continuations into one logical line.
		for strings.HasSuffix(strings.TrimRight(line, " \t"), `\`) && scanner.Scan() {
			lineNo++
			line = strings.TrimSuffix(strings.TrimRight(line, " \t"), `\`) + " " + scanner.Text()
		}

		line = stripComment(expandEnv(line))
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "-e ") &&
			!strings.HasPrefix(line, "--editable ") {
			if err := parseDirective(m, line, startLine, dir, seen); err != nil {
				m.Invalid = append(m.Invalid, InvalidLine{Line: startLine, Raw: line, Err: err})
			}
			continue
		}

		req, err := parseRequirement(line)
		if err != nil {
			m.Invalid = append(m.Invalid, InvalidLine{Line: startLine, Raw: line, Err: err})
			continue
		}
		req.Line = startLine
		req.Raw = line
		m.Requirements = append(m.Requirements, req)
	}
	return scanner.Err()
}

// stripComment removes a trailing comment: "#" at line start or preceded by
// whitespace. A "#" inside a URL fragment (e.g. #egg=name) is kept.
func stripComment(line string) string {
	if strings.HasPrefix(strings.TrimLeft(line, " \t"), "#") {
		return ""
	}
	for i := 1; i < len(line); i++ {
		if line[i] == '#' && (line[i-1] == ' ' || line[i-1] == '\t') {
			return line[:i]
		}
	}
	return line
}

var envRE = regexp.MustCompile(`\$\{([A-Z0-9_]+)\}`)

// expandEnv substitutes ${VAR} references from the environment, matching
// pip's variable expansion. Undefined variables are left as written.
func expandEnv(line string) string {
	return envRE.ReplaceAllStringFunc(line, func(match string) string {
		name := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

// parseDirective handles global option lines (those starting with "-").
func parseDirective(m *Manifest, line string, lineNo int, dir string, seen map[string]bool) error {
	opt, arg := splitDirective(line)

	switch opt {
	case "--index-url", "-i":
		if arg == "" {
			return fmt.Errorf("%s requires a URL", opt)
		}
		m.indexDirectives++
		m.IndexURL = arg
	case "--extra-index-url":
		if arg == "" {
			return fmt.Errorf("%s requires a URL", opt)
		}
		m.ExtraIndexURLs = append(m.ExtraIndexURLs, arg)
	case "--requirement", "-r":
		if arg == "" {
			return fmt.Errorf("%s requires a file path", opt)
		}
		m.Includes = append(m.Includes, arg)
		if seen != nil {
			return parseFileInto(m, filepath.Join(dir, arg), seen)
		}
	case "--constraint", "-c":
		if arg == "" {
			return fmt.Errorf("%s requires a file path", opt)
		}
		m.Constraints = append(m.Constraints, arg)
	default:
		// Other installer options (--no-binary, --trusted-host, ...) are the
		// installer's concern; parse them as valid but don't interpret them.
		if !strings.HasPrefix(opt, "-") {
			return fmt.Errorf("unrecognized line %q", line)
		}
	}
	return nil
}

// splitDirective separates "--opt value" or "--opt=value" into opt and value.
func splitDirective(line string) (opt, arg string) {
	if i := strings.IndexAny(line, " \t="); i >= 0 {
		return line[:i], strings.TrimSpace(line[i+1:])
	}
	return line, ""
}

var (
	nameRE = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)`)
	vcsRE  = regexp.MustCompile(`^(git|hg|svn|bzr)\+`)
	eggRE  = regexp.MustCompile(`[#&]egg=([A-Za-z0-9][A-Za-z0-9._-]*)`)
)

// parseRequirement parses a single logical requirement line.
func parseRequirement(line string) (*Requirement, error) {
	req := &Requirement{}

	// Editable installs: "-e <path-or-url>".
	if rest, ok := cutEditable(line); ok {
		req.Editable = true
		line = rest
	}

	// Per-requirement options are space-separated " --opt" tokens.
	spec, opts := splitOptions(line)
	for _, opt := range opts {
		if h, ok := strings.CutPrefix(opt, "--hash="); ok {
			req.Hashes = append(req.Hashes, h)
		} else {
			req.Options = append(req.Options, opt)
		}
	}

	// Environment marker after ";".
	if i := strings.Index(spec, ";"); i >= 0 {
		req.Marker = strings.TrimSpace(spec[i+1:])
		spec = strings.TrimSpace(spec[:i])
	}
	if spec == "" {
		return nil, fmt.Errorf("empty requirement")
	}

	// Source-control references, e.g. git+https://...#egg=name.
	if vcsRE.MatchString(spec) {
		req.VCS = spec
		if m := eggRE.FindStringSubmatch(spec); m != nil {
			req.Name = m[1]
		}
		return req, nil
	}

	// Direct references: "name[extras] @ URL".
	if name, url, ok := strings.Cut(spec, " @ "); ok {
		req.URL = strings.TrimSpace(url)
		if req.URL == "" {
			return nil, fmt.Errorf("direct reference is missing a URL")
		}
		return parseNameExtras(req, strings.TrimSpace(name))
	}

	// Bare archive or local references (URLs and editable paths).
	if strings.Contains(spec, "://") {
		req.URL = spec
		if m := eggRE.FindStringSubmatch(spec); m != nil {
			req.Name = m[1]
		}
		return req, nil
	}
	if req.Editable {
		req.URL = spec
		return req, nil
	}

	// Plain index requirement: name[extras] followed by specifiers.
	nameEnd := nameRE.FindString(spec)
	if nameEnd == "" {
		return nil, fmt.Errorf("invalid requirement %q", spec)
	}
	rest := spec[len(nameEnd):]
	if _, err := parseNameExtras(req, nameEnd+extrasPrefix(rest)); err != nil {
		return nil, err
	}
	rest = rest[len(extrasPrefix(rest)):]

	set, err := pep440.ParseSet(rest)
	if err != nil {
		return nil, fmt.Errorf("invalid requirement %q: %w", spec, err)
	}
	req.Specifiers = set
	return req, nil
}

func cutEditable(line string) (string, bool) {
	if rest, ok := strings.CutPrefix(line, "-e "); ok {
		return strings.TrimSpace(rest), true
	}
	if rest, ok := strings.CutPrefix(line, "--editable "); ok {
		return strings.TrimSpace(rest), true
	}
	return line, false
}

// splitOptions cuts per-requirement options off a line. Options start at the
// first whitespace-separated token beginning with "--".
func splitOptions(line string) (spec string, opts []string) {
	i := strings.Index(line, " --")
	if i < 0 {
		i = strings.Index(line, "\t--")
	}
	if i < 0 {
		return strings.TrimSpace(line), nil
	}
	return strings.TrimSpace(line[:i]), strings.Fields(line[i:])
}

// extrasPrefix returns the leading "[...]" of s, or "".
func extrasPrefix(s string) string {
	if strings.HasPrefix(s, "[") {
		if i := strings.Index(s, "]"); i >= 0 {
			return s[:i+1]
		}
	}
	return ""
}

// parseNameExtras fills req.Name and req.Extras from "name[e1,e2]".
func parseNameExtras(req *Requirement, s string) (*Requirement, error) {
	name, extras := s, ""
	if i := strings.Index(s, "["); i >= 0 {
		j := strings.LastIndex(s, "]")
		if j < i {
			return nil, fmt.Errorf("unterminated extras in %q", s)
		}
		name, extras = s[:i], s[i+1:j]
	}

	if nameRE.FindString(name) != name || name == "" {
		return nil, fmt.Errorf("invalid package name %q", name)
	}
	req.Name = name

	for _, e := range strings.Split(extras, ",") {
		if e = strings.TrimSpace(e); e != "" {
			req.Extras = append(req.Extras, e)
		}
	}
	return req, nil
}
