package stream

import (
	"strings"

	"github.com/gobwas/glob"
)

// Matcher matches slash-separated relative paths against a glob.
// A "*" does not cross directories, "**" does, and a leading "**/" also
// matches files at the top level. Matching is case-sensitive.
//
// Wildcards do not match a path segment starting with a dot: such a segment
// only matches a pattern segment that itself starts with a dot.
type Matcher struct {
	pattern string
	globs   []glob.Glob
	dots    []glob.Glob // pattern segments starting with "."
}

// CompileMatcher compiles pattern.
func CompileMatcher(pattern string) (*Matcher, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, err
	}
	m := &Matcher{pattern: pattern, globs: []glob.Glob{g}}
	for _, seg := range strings.Split(pattern, "/") {
		if !strings.HasPrefix(seg, ".") {
			continue
		}
		dg, err := glob.Compile(seg, '/')
		if err != nil {
			return nil, err
		}
		m.dots = append(m.dots, dg)
	}
	if rest, ok := strings.CutPrefix(pattern, "**/"); ok && rest != "" {
		top, err := glob.Compile(rest, '/')
		if err != nil {
			return nil, err
		}
		m.globs = append(m.globs, top)
	}
	return m, nil
}

// Match reports whether rel matches.
func (m *Matcher) Match(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") && !m.explicitDot(seg) {
			return false
		}
	}
	for _, g := range m.globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

func (m *Matcher) explicitDot(seg string) bool {
	for _, g := range m.dots {
		if g.Match(seg) {
			return true
		}
	}
	return false
}

// String returns the source pattern.
func (m *Matcher) String() string { return m.pattern }
