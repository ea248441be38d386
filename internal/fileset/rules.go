// Package fileset selects files with ordered glob rules and copies or
// removes them on an afero filesystem.
//
// Rules follow the include/exclude list convention used by build tools:
// patterns are evaluated in order, a leading "!" negates, and the last rule
// that matches a path decides whether it is selected. That lets a list
// exclude a whole directory and then re-include a single file from it.
//
// Patterns are slash-separated and relative to the walk root, with
// doublestar semantics ("**" spans directories, "{a,b}" alternates).
package fileset

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

type rule struct {
	pattern string
	negate  bool
}

// Rules is an ordered list of include/exclude glob patterns plus a set of
// directory patterns that are pruned from the walk entirely.
type Rules struct {
	rules []rule
	prune []string
}

// NewRules builds a rule list from patterns. Invalid patterns are reported
// up front rather than silently never matching.
func NewRules(patterns ...string) (*Rules, error) {
	r := &Rules{}
	if err := r.Add(patterns...); err != nil {
		return nil, err
	}
	return r, nil
}

// MustRules is NewRules for pattern lists that are known to be valid.
func MustRules(patterns ...string) *Rules {
	r, err := NewRules(patterns...)
	if err != nil {
		panic(err)
	}
	return r
}

// Add appends patterns to the rule list.
func (r *Rules) Add(patterns ...string) error {
	for _, p := range patterns {
		negate := strings.HasPrefix(p, "!")
		p = normalize(strings.TrimPrefix(p, "!"))
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
		r.rules = append(r.rules, rule{pattern: p, negate: negate})
	}
	return nil
}

// ExcludeDir excludes everything below the directories matching pattern and
// prunes them from the walk, so large trees such as node_modules are never
// read.
func (r *Rules) ExcludeDir(pattern string) error {
	pattern = normalize(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid glob pattern %q", pattern)
	}
	r.prune = append(r.prune, pattern)
	return r.Add("!" + pattern + "/**")
}

// Match reports whether rel (a slash-separated path relative to the walk
// root) is selected.
func (r *Rules) Match(rel string) bool {
	rel = normalize(rel)
	selected := false
	for _, ru := range r.rules {
		if ok, _ := doublestar.Match(ru.pattern, rel); ok {
			selected = !ru.negate
		}
	}
	return selected
}

// Pruned reports whether a directory should be skipped entirely.
func (r *Rules) Pruned(rel string) bool {
	rel = normalize(rel)
	for _, p := range r.prune {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Patterns returns the rule list in its "!"-prefixed text form.
func (r *Rules) Patterns() []string {
	out := make([]string, 0, len(r.rules))
	for _, ru := range r.rules {
		if ru.negate {
			out = append(out, "!"+ru.pattern)
		} else {
			out = append(out, ru.pattern)
		}
	}
	return out
}

// Join builds a slash pattern from segments, dropping "." and empty ones,
// so that a src of "." yields "**/*.map" rather than "./**/*.map".
func Join(segments ...string) string {
	var parts []string
	for _, s := range segments {
		if s == "" || s == "." || s == "./" {
			continue
		}
		parts = append(parts, strings.Trim(s, "/"))
	}
	if len(parts) == 0 {
		return "."
	}
	return path.Join(parts...)
}

func normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}
