// Package rules compiles user-supplied gitignore-syntax exclusion patterns
// into an override set consulted during traversal. Override matches are always
// excluded, regardless of what ignore files would otherwise allow.
package rules

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"
)

const (
	// errorRootNotAbsoluteFormat reports an override build against a relative root.
	errorRootNotAbsoluteFormat = "override root '%s' is not an absolute path"
	// warningInvalidPatternFormat reports a dropped exclusion pattern.
	warningInvalidPatternFormat = "Warning: Invalid exclude pattern '%s': %v (Ignoring)"

	negationPrefix        = "!"
	directoryPatternSlash = "/"
)

// OverrideSet holds compiled exclusion patterns registered against a root.
// The zero-pattern set excludes nothing.
type OverrideSet struct {
	root     string
	matcher  *ignore.GitIgnore
	patterns []string
}

// Build compiles rawPatterns into an OverrideSet for the given absolute root.
// Patterns that fail gitignore-syntax validation are reported through warn and
// omitted; they never abort the build. Build itself fails only when the root
// is unusable for pattern registration.
func Build(rootPath string, rawPatterns []string, warn func(message string)) (*OverrideSet, error) {
	if warn == nil {
		warn = func(string) {}
	}
	if !filepath.IsAbs(rootPath) {
		return nil, fmt.Errorf(errorRootNotAbsoluteFormat, rootPath)
	}

	var validPatterns []string
	for _, rawPattern := range rawPatterns {
		trimmedPattern := strings.TrimSpace(rawPattern)
		if trimmedPattern == "" {
			continue
		}
		if validationError := validatePattern(trimmedPattern); validationError != nil {
			warn(fmt.Sprintf(warningInvalidPatternFormat, rawPattern, validationError))
			continue
		}
		validPatterns = append(validPatterns, trimmedPattern)
	}

	overrideSet := &OverrideSet{root: rootPath, patterns: validPatterns}
	if len(validPatterns) > 0 {
		overrideSet.matcher = ignore.CompileIgnoreLines(validPatterns...)
	}
	return overrideSet, nil
}

// Patterns returns the accepted patterns in registration order.
func (overrideSet *OverrideSet) Patterns() []string {
	return overrideSet.patterns
}

// Excluded reports whether the path, given relative to the override root in
// forward-slash form, matches any registered exclusion pattern. Directory
// candidates are additionally evaluated with a trailing slash so that
// directory-only patterns such as "vendor/" apply.
func (overrideSet *OverrideSet) Excluded(relativePath string, isDirectory bool) bool {
	if overrideSet == nil || overrideSet.matcher == nil {
		return false
	}
	if overrideSet.matcher.MatchesPath(relativePath) {
		return true
	}
	if isDirectory {
		return overrideSet.matcher.MatchesPath(relativePath + directoryPatternSlash)
	}
	return false
}

// validatePattern checks a single gitignore-syntax pattern for glob validity.
// The negation prefix and directory suffix are not part of the glob body.
func validatePattern(pattern string) error {
	body := strings.TrimPrefix(pattern, negationPrefix)
	body = strings.TrimSuffix(body, directoryPatternSlash)
	if body == "" {
		return fmt.Errorf("empty pattern")
	}
	_, compileError := glob.Compile(body)
	return compileError
}
