package domain

import (
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"

	m "github.com/marsh-hen/refix/internal/model"
)

// binarySniffLen bounds the NUL-byte probe at the head of a file.
const binarySniffLen = 8192

// scanFile locates every match of the search in content. It is pure: no
// mutation, no I/O, so files can be scanned fully in parallel. Binary or
// undecodable content yields a notice instead of a result.
//
// Lines are split on '\n' only; a '\r' before the terminator stays inside the
// snapshot. That keeps snapshots byte-for-byte equal to what the replacer's
// re-read will produce, which is what staleness checking depends on.
func scanFile(search *Search, path m.Path, rel string, content []byte) (m.FileScanResult, *m.ScanNotice) {
	if reason := undecodableReason(content); reason != "" {
		return m.FileScanResult{}, &m.ScanNotice{Path: path, Reason: reason}
	}

	result := m.FileScanResult{Path: path, Rel: rel}

	for i, line := range strings.Split(string(content), "\n") {
		for _, match := range matchLine(search, line) {
			match.LineNumber = i + 1
			result.Matches = append(result.Matches, match)
		}
	}

	return result, nil
}

func undecodableReason(content []byte) string {
	probe := content
	if len(probe) > binarySniffLen {
		probe = probe[:binarySniffLen]
	}

	if bytes.IndexByte(probe, 0) >= 0 {
		return "binary content"
	}

	if !utf8.Valid(content) {
		return "not valid UTF-8"
	}

	return ""
}

// matchLine finds all non-overlapping matches in one line, in increasing
// start-offset order. Line number and ID are filled in by the callers.
func matchLine(search *Search, line string) []m.Match {
	if search.Fixed() {
		return matchLineFixed(search.literal, line)
	}

	return matchLineRegex(search.re, line)
}

func matchLineFixed(literal, line string) []m.Match {
	var matches []m.Match

	for offset := 0; ; {
		i := strings.Index(line[offset:], literal)
		if i < 0 {
			break
		}

		start := offset + i
		matches = append(matches, m.Match{
			Line:     line,
			Start:    start,
			End:      start + len(literal),
			Included: true,
		})
		offset = start + len(literal)
	}

	return matches
}

func matchLineRegex(re *regexp.Regexp, line string) []m.Match {
	locs := re.FindAllStringSubmatchIndex(line, -1)
	if locs == nil {
		return nil
	}

	matches := make([]m.Match, 0, len(locs))

	for _, loc := range locs {
		match := m.Match{
			Line:     line,
			Start:    loc[0],
			End:      loc[1],
			Included: true,
		}

		groups := len(loc)/2 - 1
		if groups > 0 {
			match.Captures = make([]string, groups)
			for g := 1; g <= groups; g++ {
				lo, hi := loc[2*g], loc[2*g+1]
				if lo >= 0 && hi >= 0 {
					match.Captures[g-1] = line[lo:hi]
				}
			}
		}

		matches = append(matches, match)
	}

	return matches
}
