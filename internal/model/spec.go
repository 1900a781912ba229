// Package model defines the data structures for a search-replace session.
package model

// Path represents a file system path.
type Path string

// SearchSpec describes one search invocation. It is created once per search
// and never mutated afterwards.
type SearchSpec struct {
	// Pattern is the search text: a regular expression unless FixedStrings
	// is set, in which case it is a case-sensitive literal.
	Pattern string

	// FixedStrings selects literal substring matching instead of regex.
	FixedStrings bool

	// PathPattern, when non-empty, is an unanchored regular expression that
	// must match somewhere in each candidate file's path relative to Root.
	PathPattern string

	// IncludeHidden includes files and directories whose name starts with
	// a dot.
	IncludeHidden bool

	// Root is the directory to search. Defaults to the current directory.
	Root Path
}

// ReplaceSpec holds the replacement template. In regex mode the template may
// reference capture groups positionally ($1, ${2}); $$ produces a literal
// dollar sign. In fixed-strings mode the template is inserted verbatim.
type ReplaceSpec struct {
	Template string
}
