package discovery

import (
	"path"
	"strings"
)

// Filter filters test files by name pattern
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// FilterByName filters test files by a wildcard pattern applied to the file name.
// Supports patterns like "*user.test.ts" or "*payment*"; a pattern without
// wildcards matches as a substring.
func (f *Filter) FilterByName(files []string, pattern string) []string {
	if pattern == "" {
		return files
	}

	wildcard := strings.ContainsAny(pattern, "*?[")
	var filtered []string
	for _, file := range files {
		name := path.Base(NormalizePath(file))

		if !wildcard {
			if strings.Contains(name, pattern) {
				filtered = append(filtered, file)
			}
			continue
		}

		if matched, err := path.Match(pattern, name); err == nil && matched {
			filtered = append(filtered, file)
			continue
		}

		// "*payment*" style patterns fall back to an ordered substring match
		if strings.Contains(pattern, "*") && containsInOrder(name, strings.Split(pattern, "*")) {
			filtered = append(filtered, file)
		}
	}

	return filtered
}

func containsInOrder(name string, parts []string) bool {
	nonEmpty := false
	for _, part := range parts {
		if part == "" {
			continue
		}
		nonEmpty = true
		i := strings.Index(name, part)
		if i < 0 {
			return false
		}
		name = name[i+len(part):]
	}
	return nonEmpty
}
