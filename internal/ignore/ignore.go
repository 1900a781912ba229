// Package ignore implements gitignore-style exclusion rules for the tree
// walker. Rule files (.gitignore, .ignore) are parsed per directory and
// stacked: files closer to a path win over files above them, and within one
// file the last matching rule wins. Pattern matching is delegated to
// doublestar, whose `*`/`**` semantics match gitignore's.
package ignore

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Names lists the rule files consulted in each directory, in ascending
// precedence order.
var Names = []string{".gitignore", ".ignore"}

type rule struct {
	pattern string
	negate  bool
	dirOnly bool
}

// File holds the parsed rules of one ignore file, scoped to the directory it
// was found in.
type File struct {
	// base is the slash-separated path of the containing directory relative
	// to the walk root; empty for the root itself.
	base  string
	rules []rule
}

// Parse builds a File from raw ignore-file content. base is the containing
// directory relative to the walk root ("" for the root). Blank lines and
// comments are dropped; unparseable lines are skipped rather than failing the
// whole file.
func Parse(base string, content []byte) *File {
	f := &File{base: base}

	for _, raw := range strings.Split(string(content), "\n") {
		line := strings.TrimSuffix(raw, "\r")
		if r, ok := parseLine(line); ok {
			f.rules = append(f.rules, r)
		}
	}

	return f
}

func parseLine(line string) (rule, bool) {
	line = trimTrailingSpace(line)
	if line == "" {
		return rule{}, false
	}

	var r rule

	switch {
	case strings.HasPrefix(line, "#"):
		return rule{}, false
	case strings.HasPrefix(line, `\#`), strings.HasPrefix(line, `\!`):
		line = line[1:]
	case strings.HasPrefix(line, "!"):
		r.negate = true
		line = line[1:]
	}

	if strings.HasSuffix(line, "/") {
		r.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}

	if line == "" {
		return rule{}, false
	}

	// A separator anywhere but the end anchors the pattern to the ignore
	// file's directory; otherwise it matches at any depth below it.
	anchored := strings.Contains(line, "/")
	line = strings.TrimPrefix(line, "/")

	if anchored {
		r.pattern = line
	} else {
		r.pattern = "**/" + line
	}

	return r, true
}

// trimTrailingSpace drops unescaped trailing spaces per the gitignore format.
func trimTrailingSpace(line string) string {
	for strings.HasSuffix(line, " ") && !strings.HasSuffix(line, `\ `) {
		line = strings.TrimSuffix(line, " ")
	}

	return strings.ReplaceAll(line, `\ `, " ")
}

// Match reports this file's opinion on rel, a slash-separated path relative
// to the walk root. matched is false when no rule applies, in which case
// ignored is meaningless.
func (f *File) Match(rel string, isDir bool) (ignored, matched bool) {
	sub, ok := relativeTo(rel, f.base)
	if !ok {
		return false, false
	}

	// Last matching rule wins.
	for i := len(f.rules) - 1; i >= 0; i-- {
		r := f.rules[i]
		if r.dirOnly && !isDir {
			continue
		}

		if ok, err := doublestar.Match(r.pattern, sub); err == nil && ok {
			return !r.negate, true
		}
	}

	return false, false
}

// relativeTo rewrites rel (relative to the walk root) as a path relative to
// base, reporting false when rel is not under base.
func relativeTo(rel, base string) (string, bool) {
	if base == "" {
		return rel, true
	}

	if rel == base {
		return ".", true
	}

	if strings.HasPrefix(rel, base+"/") {
		return rel[len(base)+1:], true
	}

	return "", false
}

// Stack is the ordered chain of ignore files from the walk root down to the
// current directory. Deeper files take precedence.
type Stack []*File

// Push returns a new stack with f appended; the receiver is unchanged so
// sibling directories can share a prefix.
func (s Stack) Push(f *File) Stack {
	out := make(Stack, len(s), len(s)+1)
	copy(out, s)

	return append(out, f)
}

// Ignored reports whether rel is excluded by the stack. The deepest file with
// an opinion decides.
func (s Stack) Ignored(rel string, isDir bool) bool {
	for i := len(s) - 1; i >= 0; i-- {
		if ignored, matched := s[i].Match(rel, isDir); matched {
			return ignored
		}
	}

	return false
}
