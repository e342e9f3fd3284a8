package discovery

import (
	"fmt"
	"path"
	"strings"
)

// Pattern is a compiled glob pattern. Segments are matched with path.Match,
// and a "**" segment matches any number of directories (including none).
type Pattern struct {
	raw      string
	segments []string
	negate   bool
}

// CompilePattern parses a glob. A leading "!" turns it into an exclusion.
func CompilePattern(raw string) (*Pattern, error) {
	p := strings.TrimSpace(raw)
	negate := false
	if strings.HasPrefix(p, "!") {
		negate = true
		p = strings.TrimSpace(p[1:])
	}
	p = NormalizePath(p)
	if p == "" || p == "." {
		return nil, fmt.Errorf("empty test file pattern: %q", raw)
	}
	segments := strings.Split(p, "/")
	for _, seg := range segments {
		if seg == "**" {
			continue
		}
		if _, err := path.Match(seg, ""); err != nil {
			return nil, fmt.Errorf("invalid test file pattern %q: %w", raw, err)
		}
	}
	return &Pattern{raw: raw, segments: segments, negate: negate}, nil
}

// String returns the pattern as written
func (p *Pattern) String() string {
	return p.raw
}

// Negated reports whether the pattern excludes files
func (p *Pattern) Negated() bool {
	return p.negate
}

// Match reports whether a slash-separated relative path matches the pattern
func (p *Pattern) Match(rel string) bool {
	return matchSegments(p.segments, strings.Split(NormalizePath(rel), "/"))
}

func matchSegments(pattern, name []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			if len(rest) == 0 {
				return true
			}
			for i := 0; i <= len(name); i++ {
				if matchSegments(rest, name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		ok, err := path.Match(pattern[0], name[0])
		if err != nil || !ok {
			return false
		}
		pattern, name = pattern[1:], name[1:]
	}
	return len(name) == 0
}

// PatternSet evaluates patterns in order; the last matching pattern decides
type PatternSet []*Pattern

// CompilePatterns compiles patterns given one per element or one per line.
// Blank lines and lines starting with "#" are skipped.
func CompilePatterns(raw []string) (PatternSet, error) {
	var set PatternSet
	for _, line := range raw {
		for _, part := range strings.Split(line, "\n") {
			if strings.TrimSpace(part) == "" || strings.HasPrefix(strings.TrimSpace(part), "#") {
				continue
			}
			p, err := CompilePattern(part)
			if err != nil {
				return nil, err
			}
			set = append(set, p)
		}
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no test file pattern given")
	}
	return set, nil
}

// Match reports whether the relative path is selected by the set
func (s PatternSet) Match(rel string) bool {
	matched := false
	for _, p := range s {
		if p.Match(rel) {
			matched = !p.negate
		}
	}
	return matched
}
