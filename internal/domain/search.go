// Package domain implements the search-replace reconciliation engine: match
// scanning, the match registry, and the staleness-checked replacer, driven by
// a session coordinator.
package domain

import (
	"regexp"

	m "github.com/marsh-hen/refix/internal/model"
)

// Search is a compiled, immutable SearchSpec. Compilation failures surface as
// config errors before any scan starts.
type Search struct {
	spec    m.SearchSpec
	re      *regexp.Regexp // nil in fixed-strings mode
	pathRe  *regexp.Regexp // nil when no path filter is set
	literal string
}

// CompileSearch validates spec and compiles its patterns.
func CompileSearch(spec m.SearchSpec) (*Search, error) {
	if spec.Pattern == "" {
		return nil, m.NewConfigError("search", "pattern must not be empty", nil)
	}

	s := &Search{spec: spec}

	if spec.FixedStrings {
		s.literal = spec.Pattern
	} else {
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, m.NewConfigError("search", "invalid regular expression", err)
		}

		s.re = re
	}

	if spec.PathPattern != "" {
		re, err := regexp.Compile(spec.PathPattern)
		if err != nil {
			return nil, m.NewConfigError("path pattern", "invalid regular expression", err)
		}

		s.pathRe = re
	}

	return s, nil
}

// Spec returns the originating spec.
func (s *Search) Spec() m.SearchSpec {
	return s.spec
}

// Fixed reports whether the search is in fixed-strings mode.
func (s *Search) Fixed() bool {
	return s.re == nil
}

// PathFilter returns the candidate-path predicate, or nil when every path
// qualifies. The pattern uses "contains a match" semantics: it is not
// anchored to the whole relative path.
func (s *Search) PathFilter() func(rel string) bool {
	if s.pathRe == nil {
		return nil
	}

	return s.pathRe.MatchString
}
