package md5verify

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/gobwas/glob"
)

// ExcludeMatcher decides which files and directories a walk skips. Patterns
// use glob syntax with '/' as separator and are tried against both the base
// name and the slash separated path relative to the walk root, so "*.tmp"
// matches at any depth and "cache/**" only below the top level cache directory.
type ExcludeMatcher struct {
	patterns []string
	globs    []glob.Glob
}

// NewExcludeMatcher compiles patterns. Empty patterns are ignored.
func NewExcludeMatcher(patterns []string) (*ExcludeMatcher, error) {
	m := &ExcludeMatcher{}
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if err := m.AddPattern(pattern); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// AddPattern compiles and adds a pattern.
func (m *ExcludeMatcher) AddPattern(pattern string) error {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return fmt.Errorf("invalid exclude pattern: %s - %w", pattern, err)
	}
	m.patterns = append(m.patterns, pattern)
	m.globs = append(m.globs, g)
	return nil
}

// ShouldExclude checks relativePath (relative to the walk root) against every pattern.
func (m *ExcludeMatcher) ShouldExclude(relativePath string) bool {
	if m == nil || len(m.globs) == 0 {
		return false
	}

	normalisedPath := filepath.ToSlash(relativePath)
	base := path.Base(normalisedPath)
	for _, g := range m.globs {
		if g.Match(normalisedPath) || g.Match(base) {
			return true
		}
	}
	return false
}

// Patterns returns the source patterns in the order they were added.
func (m *ExcludeMatcher) Patterns() []string {
	if m == nil {
		return nil
	}
	return m.patterns
}

// HasPatterns returns true if there are any exclude patterns
func (m *ExcludeMatcher) HasPatterns() bool {
	return m != nil && len(m.globs) > 0
}
