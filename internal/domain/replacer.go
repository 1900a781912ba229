package domain

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/marsh-hen/refix/internal/adapter"
	m "github.com/marsh-hen/refix/internal/model"
)

// replacer applies the included matches of one file against its current
// on-disk content. Validation is per match, application is per file: one
// stale match does not block the others, but a failed write fails every match
// that would have been applied to that file.
type replacer struct {
	fs  adapter.FileSystem
	log zerolog.Logger
}

// applyFile re-reads the file, re-validates each included match against its
// line snapshot, substitutes all still-valid matches, and writes the result
// back atomically. The returned report carries one outcome per match, in
// match order.
func (r *replacer) applyFile(search *Search, template string, file m.FileScanResult) m.FileReport {
	report := m.FileReport{Path: file.Path, Rel: file.Rel}

	if includedCount(file.Matches) == 0 {
		report.Outcomes = skippedOutcomes(file.Matches)

		return report
	}

	content, err := r.fs.ReadFile(file.Path)
	if err != nil {
		r.log.Warn().Str("file", string(file.Path)).Err(err).Msg("apply: read failed")
		report.Err = err
		report.Outcomes = failedOutcomes(file.Matches, err)

		return report
	}

	lines := strings.Split(string(content), "\n")
	outcomes := make([]m.ReplacementOutcome, len(file.Matches))
	perLine := make(map[int][]int) // line number -> indices of valid included matches

	for i, match := range file.Matches {
		outcomes[i] = m.ReplacementOutcome{MatchID: match.ID, LineNumber: match.LineNumber}

		switch {
		case !match.Included:
			outcomes[i].Kind = m.OutcomeSkipped
		case match.LineNumber > len(lines), lines[match.LineNumber-1] != match.Line:
			outcomes[i].Kind = m.OutcomeStale
		default:
			outcomes[i].Kind = m.OutcomeApplied
			perLine[match.LineNumber] = append(perLine[match.LineNumber], i)
		}
	}

	report.Outcomes = outcomes

	if len(perLine) == 0 {
		return report
	}

	for lineNumber, indices := range perLine {
		lines[lineNumber-1] = substituteLine(search, template, file.Matches, indices)
	}

	if err := r.fs.WriteFileAtomic(file.Path, []byte(strings.Join(lines, "\n"))); err != nil {
		r.log.Warn().Str("file", string(file.Path)).Err(err).Msg("apply: write failed")
		report.Err = err

		for _, indices := range perLine {
			for _, i := range indices {
				outcomes[i].Kind = m.OutcomeFailedIO
				outcomes[i].Err = err
			}
		}
	}

	return report
}

// substituteLine rebuilds one line from the original snapshot, replacing each
// valid match's span. Offsets are relative to the original line and matches
// are non-overlapping in increasing order, so segments can be concatenated
// without shifting.
func substituteLine(search *Search, template string, matches []m.Match, indices []int) string {
	var b strings.Builder

	line := matches[indices[0]].Line
	prev := 0

	for _, i := range indices {
		match := matches[i]
		b.WriteString(line[prev:match.Start])
		b.WriteString(replacementText(search, template, match))
		prev = match.End
	}

	b.WriteString(line[prev:])

	return b.String()
}

// replacementText computes one match's replacement. Fixed-strings mode
// inserts the template verbatim; regex mode expands capture references.
func replacementText(search *Search, template string, match m.Match) string {
	if search.Fixed() {
		return template
	}

	return expandTemplate(template, match.Line[match.Start:match.End], match.Captures)
}

func includedCount(matches []m.Match) int {
	n := 0

	for _, match := range matches {
		if match.Included {
			n++
		}
	}

	return n
}

func skippedOutcomes(matches []m.Match) []m.ReplacementOutcome {
	outcomes := make([]m.ReplacementOutcome, len(matches))
	for i, match := range matches {
		outcomes[i] = m.ReplacementOutcome{MatchID: match.ID, LineNumber: match.LineNumber, Kind: m.OutcomeSkipped}
	}

	return outcomes
}

// failedOutcomes marks included matches as failed with err and the rest as
// skipped, for files that could not be read at all.
func failedOutcomes(matches []m.Match, err error) []m.ReplacementOutcome {
	outcomes := make([]m.ReplacementOutcome, len(matches))

	for i, match := range matches {
		outcomes[i] = m.ReplacementOutcome{MatchID: match.ID, LineNumber: match.LineNumber}
		if match.Included {
			outcomes[i].Kind = m.OutcomeFailedIO
			outcomes[i].Err = err
		} else {
			outcomes[i].Kind = m.OutcomeSkipped
		}
	}

	return outcomes
}
