package discovery

import (
	"path"
	"path/filepath"
	"strings"
)

// NormalizePath converts a test file path into the form used as a lookup key:
// forward slashes, cleaned, without a leading "./".
// Test reports produced from a different working directory representation
// (e.g. "./src/a.test.ts" or "src\a.test.ts") then match the discovered files.
func NormalizePath(p string) string {
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(filepath.ToSlash(p), `\`, "/")
	p = path.Clean(p)
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}

// NormalizePaths normalizes every path, dropping empty entries
func NormalizePaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if n := NormalizePath(p); n != "" && n != "." {
			out = append(out, n)
		}
	}
	return out
}
