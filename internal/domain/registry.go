package domain

import (
	"fmt"
	"sort"
	"sync"

	m "github.com/marsh-hen/refix/internal/model"
)

// Registry holds every match found in one search session, grouped by file and
// individually addressable by MatchID. Matches are never removed; a new
// search discards the whole registry. The mutex only guards against the
// interactive front end toggling while the apply phase takes its snapshot —
// the front end is the sole mutator of inclusion flags.
type Registry struct {
	mu       sync.Mutex
	files    map[string]*m.FileScanResult
	byID     map[m.MatchID]*m.Match
	next     m.MatchID
	included int
	total    int
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		files: make(map[string]*m.FileScanResult),
		byID:  make(map[m.MatchID]*m.Match),
	}
}

// Add stores a scan result, assigning stable IDs to its matches, and returns
// the stored copy. Called only by the session's aggregator goroutine.
func (r *Registry) Add(res m.FileScanResult) m.FileScanResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := &m.FileScanResult{Path: res.Path, Rel: res.Rel, Matches: res.Matches}
	r.files[res.Rel] = stored

	for i := range stored.Matches {
		match := &stored.Matches[i]
		match.ID = r.next
		r.next++
		r.byID[match.ID] = match
		r.total++

		if match.Included {
			r.included++
		}
	}

	return copyResult(stored)
}

// Toggle flips one match's inclusion flag and returns the new state. An
// unknown id is a caller contract violation.
func (r *Registry) Toggle(id m.MatchID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	match, ok := r.byID[id]
	if !ok {
		panic(fmt.Sprintf("registry: unknown match id %d", id))
	}

	match.Included = !match.Included
	if match.Included {
		r.included++
	} else {
		r.included--
	}

	return match.Included
}

// SetFile sets the inclusion flag for every match in one file.
func (r *Registry) SetFile(rel string, included bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, ok := r.files[rel]
	if !ok {
		return
	}

	for i := range file.Matches {
		r.setLocked(&file.Matches[i], included)
	}
}

// SetAll sets the inclusion flag for every match in the session.
func (r *Registry) SetAll(included bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, file := range r.files {
		for i := range file.Matches {
			r.setLocked(&file.Matches[i], included)
		}
	}
}

func (r *Registry) setLocked(match *m.Match, included bool) {
	if match.Included == included {
		return
	}

	match.Included = included
	if included {
		r.included++
	} else {
		r.included--
	}
}

// IncludedCount returns the number of currently included matches.
func (r *Registry) IncludedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.included
}

// TotalCount returns the number of matches in the session.
func (r *Registry) TotalCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.total
}

// FileCount returns the number of files with at least one match.
func (r *Registry) FileCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.files)
}

// Files returns a deep-copied snapshot of all scan results, sorted by
// relative path. Scan completion order across files is unspecified, so
// presentation always sorts.
func (r *Registry) Files() []m.FileScanResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]m.FileScanResult, 0, len(r.files))
	for _, file := range r.files {
		out = append(out, copyResult(file))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Rel < out[j].Rel })

	return out
}

func copyResult(file *m.FileScanResult) m.FileScanResult {
	out := m.FileScanResult{Path: file.Path, Rel: file.Rel}
	out.Matches = append(out.Matches, file.Matches...)

	return out
}
