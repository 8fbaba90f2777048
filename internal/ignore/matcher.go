package ignore

import (
	"github.com/temirov/dirsnap/internal/utils"
)

// Matcher tests project-relative paths against an ordered set of expanded ignore patterns.
type Matcher struct {
	globs []glob
	seen  map[string]struct{}
}

// NewMatcher expands every line and returns a matcher holding the resulting patterns.
func NewMatcher(lines ...string) *Matcher {
	matcher := &Matcher{seen: make(map[string]struct{})}
	matcher.Add(lines...)
	return matcher
}

// Add expands lines and appends patterns that are not already present.
func (matcher *Matcher) Add(lines ...string) {
	if matcher.seen == nil {
		matcher.seen = make(map[string]struct{})
	}
	for _, line := range lines {
		for _, pattern := range ExpandPattern(line) {
			normalizedPattern := utils.NormalizeSeparators(pattern)
			if _, exists := matcher.seen[normalizedPattern]; exists {
				continue
			}
			matcher.seen[normalizedPattern] = struct{}{}
			matcher.globs = append(matcher.globs, compileGlob(normalizedPattern))
		}
	}
}

// Patterns returns the expanded patterns in insertion order.
func (matcher *Matcher) Patterns() []string {
	if matcher == nil {
		return nil
	}
	patterns := make([]string, 0, len(matcher.globs))
	for _, compiled := range matcher.globs {
		patterns = append(patterns, compiled.source)
	}
	return patterns
}

// Len reports the number of expanded patterns.
func (matcher *Matcher) Len() int {
	if matcher == nil {
		return 0
	}
	return len(matcher.globs)
}

// Matches reports whether relativePath, taken relative to the project root, is ignored.
func (matcher *Matcher) Matches(relativePath string) bool {
	if matcher == nil {
		return false
	}
	normalizedPath := utils.NormalizeSeparators(relativePath)
	for _, compiled := range matcher.globs {
		if compiled.match(normalizedPath) {
			return true
		}
	}
	return false
}
