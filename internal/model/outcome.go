package model

// OutcomeKind classifies the result of attempting one replacement.
type OutcomeKind string

const (
	// OutcomeApplied means the match was substituted and written back.
	OutcomeApplied OutcomeKind = "applied"
	// OutcomeSkipped means the operator had disabled the match.
	OutcomeSkipped OutcomeKind = "skipped"
	// OutcomeStale means the file's content at the match location no longer
	// equals the scan-time snapshot, so no substitution was attempted.
	OutcomeStale OutcomeKind = "stale"
	// OutcomeFailedIO means the owning file could not be read or written.
	OutcomeFailedIO OutcomeKind = "io-error"
)

// ReplacementOutcome is the per-match result of the apply phase.
type ReplacementOutcome struct {
	MatchID    MatchID
	LineNumber int
	Kind       OutcomeKind

	// Err carries the underlying reason for OutcomeFailedIO.
	Err error
}

// FileReport groups the outcomes for one file. Err is set when the file as a
// whole failed to read or write, in which case every included match carries
// OutcomeFailedIO.
type FileReport struct {
	Path     Path
	Rel      string
	Outcomes []ReplacementOutcome
	Err      error
}

// ReplaceSummary aggregates outcomes across all files for the final report.
type ReplaceSummary struct {
	Applied int
	Skipped int
	Stale   int
	Failed  int

	// Errors lists stale and failed outcomes with their file for display.
	Errors []ReplaceError
}

// ReplaceError is one displayable failure in the final report.
type ReplaceError struct {
	Rel        string
	LineNumber int
	Kind       OutcomeKind
	Reason     string
}

// Add folds a file report into the summary.
func (s *ReplaceSummary) Add(report FileReport) {
	for _, o := range report.Outcomes {
		switch o.Kind {
		case OutcomeApplied:
			s.Applied++
		case OutcomeSkipped:
			s.Skipped++
		case OutcomeStale:
			s.Stale++
			s.Errors = append(s.Errors, ReplaceError{
				Rel:        report.Rel,
				LineNumber: o.LineNumber,
				Kind:       o.Kind,
				Reason:     "file changed since search",
			})
		case OutcomeFailedIO:
			s.Failed++
			reason := "i/o error"
			if o.Err != nil {
				reason = o.Err.Error()
			} else if report.Err != nil {
				reason = report.Err.Error()
			}
			s.Errors = append(s.Errors, ReplaceError{
				Rel:        report.Rel,
				LineNumber: o.LineNumber,
				Kind:       o.Kind,
				Reason:     reason,
			})
		}
	}
}
