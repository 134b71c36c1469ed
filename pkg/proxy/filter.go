package proxy

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FilterConfig defines include/exclude patterns for traffic recording.
// Patterns are doublestar globs; `**` matches across path segments.
// Hosts match case-insensitively, paths case-sensitively.
type FilterConfig struct {
	IncludePaths []string `json:"includePaths,omitempty" yaml:"includePaths,omitempty"`
	ExcludePaths []string `json:"excludePaths,omitempty" yaml:"excludePaths,omitempty"`
	IncludeHosts []string `json:"includeHosts,omitempty" yaml:"includeHosts,omitempty"`
	ExcludeHosts []string `json:"excludeHosts,omitempty" yaml:"excludeHosts,omitempty"`
}

// NewFilterConfig creates an empty filter config (records everything).
func NewFilterConfig() *FilterConfig {
	return &FilterConfig{}
}

// ShouldRecord determines whether a request should be recorded.
// Precedence:
//  1. Matches ANY exclude pattern → not recorded
//  2. Include patterns exist AND matches NONE → not recorded
//  3. Otherwise → recorded
func (f *FilterConfig) ShouldRecord(host, path string) bool {
	hostKey := strings.ToLower(stripPort(host))

	for _, pattern := range f.ExcludeHosts {
		if matchGlob(strings.ToLower(pattern), hostKey) {
			return false
		}
	}
	for _, pattern := range f.ExcludePaths {
		if matchGlob(pattern, path) {
			return false
		}
	}

	if len(f.IncludeHosts) > 0 {
		matched := false
		for _, pattern := range f.IncludeHosts {
			if matchGlob(strings.ToLower(pattern), hostKey) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(f.IncludePaths) > 0 {
		for _, pattern := range f.IncludePaths {
			if matchGlob(pattern, path) {
				return true
			}
		}
		return false
	}

	return true
}

// matchGlob matches a doublestar glob against a string. A malformed
// pattern matches nothing.
func matchGlob(pattern, s string) bool {
	ok, err := doublestar.Match(pattern, s)
	return err == nil && ok
}

func stripPort(host string) string {
	if i := strings.LastIndex(host, ":"); i > 0 && !strings.Contains(host[i:], "]") {
		return host[:i]
	}
	return host
}
