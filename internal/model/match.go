package model

// MatchID identifies a match for the lifetime of one search session. IDs are
// assigned by the registry in aggregation order and never reused within a
// session.
type MatchID int

// Match is one located occurrence of the search pattern within one line of
// one file. Everything except Included is immutable after creation.
type Match struct {
	ID MatchID

	// LineNumber is 1-based.
	LineNumber int

	// Line is the byte-exact snapshot of the whole line at scan time,
	// without its terminator. Staleness checking compares against it.
	Line string

	// Start and End are byte offsets of the matched span within Line.
	Start int
	End   int

	// Captures holds the text of capture groups 1..n. Groups that did not
	// participate in the match are empty strings. Nil in fixed-string mode.
	Captures []string

	// Included marks the match for replacement. Defaults to true; mutated
	// only by the operator through the registry.
	Included bool
}

// FileScanResult groups the matches found in a single file, in line order and
// increasing start offset within a line.
type FileScanResult struct {
	// Path is the absolute path of the file.
	Path Path

	// Rel is the path relative to the search root, slash-separated.
	Rel string

	Matches []Match
}

// ScanNotice records a path that was skipped during scanning: binary content,
// unreadable files or directories. Notices are informational and never abort
// a search.
type ScanNotice struct {
	Path   Path
	Reason string
}
