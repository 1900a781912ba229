package domain

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/marsh-hen/refix/internal/model"
)

// fakeFS is an in-memory FileSystem with injectable failures.
type fakeFS struct {
	files    map[string][]byte
	readErr  error
	writeErr error
	writes   int
}

func newFakeFS() *fakeFS {
	return &fakeFS{files: make(map[string][]byte)}
}

func (f *fakeFS) ReadFile(path m.Path) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}

	content, ok := f.files[string(path)]
	if !ok {
		return nil, errors.New("no such file")
	}

	return content, nil
}

func (f *fakeFS) WriteFileAtomic(path m.Path, content []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}

	f.files[string(path)] = content
	f.writes++

	return nil
}

func scanInto(t *testing.T, search *Search, fs *fakeFS, path string) m.FileScanResult {
	t.Helper()

	content, err := fs.ReadFile(m.Path(path))
	require.NoError(t, err)

	res, notice := scanFile(search, m.Path(path), path, content)
	require.Nil(t, notice)

	for i := range res.Matches {
		res.Matches[i].ID = m.MatchID(i)
	}

	return res
}

func kinds(report m.FileReport) []m.OutcomeKind {
	out := make([]m.OutcomeKind, len(report.Outcomes))
	for i, o := range report.Outcomes {
		out[i] = o.Kind
	}

	return out
}

func TestReplacer_ApplyFile(t *testing.T) {
	newReplacer := func(fs *fakeFS) *replacer {
		return &replacer{fs: fs, log: zerolog.Nop()}
	}

	t.Run("applies included matches and writes once", func(t *testing.T) {
		fs := newFakeFS()
		fs.files["a.txt"] = []byte("old one\nold two\n")
		search := mustCompile(t, m.SearchSpec{Pattern: "old", FixedStrings: true})
		file := scanInto(t, search, fs, "a.txt")

		report := newReplacer(fs).applyFile(search, "new", file)

		require.NoError(t, report.Err)
		assert.Equal(t, []m.OutcomeKind{m.OutcomeApplied, m.OutcomeApplied}, kinds(report))
		assert.Equal(t, "new one\nnew two\n", string(fs.files["a.txt"]))
		assert.Equal(t, 1, fs.writes)
	})

	t.Run("disabled match is skipped and its line untouched", func(t *testing.T) {
		fs := newFakeFS()
		fs.files["a.txt"] = []byte("old one\nold two\n")
		search := mustCompile(t, m.SearchSpec{Pattern: "old", FixedStrings: true})
		file := scanInto(t, search, fs, "a.txt")
		file.Matches[1].Included = false

		report := newReplacer(fs).applyFile(search, "new", file)

		assert.Equal(t, []m.OutcomeKind{m.OutcomeApplied, m.OutcomeSkipped}, kinds(report))
		assert.Equal(t, "new one\nold two\n", string(fs.files["a.txt"]))
	})

	t.Run("no included matches means no file access at all", func(t *testing.T) {
		fs := newFakeFS()
		fs.files["a.txt"] = []byte("old\n")
		search := mustCompile(t, m.SearchSpec{Pattern: "old", FixedStrings: true})
		file := scanInto(t, search, fs, "a.txt")
		file.Matches[0].Included = false
		fs.readErr = errors.New("must not be read")

		report := newReplacer(fs).applyFile(search, "new", file)

		require.NoError(t, report.Err)
		assert.Equal(t, []m.OutcomeKind{m.OutcomeSkipped}, kinds(report))
	})

	t.Run("changed line is stale, unchanged lines still apply", func(t *testing.T) {
		fs := newFakeFS()
		fs.files["a.txt"] = []byte("old one\nold two\n")
		search := mustCompile(t, m.SearchSpec{Pattern: "old", FixedStrings: true})
		file := scanInto(t, search, fs, "a.txt")

		// The world changes between scan and apply.
		fs.files["a.txt"] = []byte("old one\nold two \n")

		report := newReplacer(fs).applyFile(search, "new", file)

		assert.Equal(t, []m.OutcomeKind{m.OutcomeApplied, m.OutcomeStale}, kinds(report))
		assert.Equal(t, "new one\nold two \n", string(fs.files["a.txt"]))
	})

	t.Run("file shrank below the match line", func(t *testing.T) {
		fs := newFakeFS()
		fs.files["a.txt"] = []byte("one\ntwo\nold three\n")
		search := mustCompile(t, m.SearchSpec{Pattern: "old", FixedStrings: true})
		file := scanInto(t, search, fs, "a.txt")

		fs.files["a.txt"] = []byte("one\n")

		report := newReplacer(fs).applyFile(search, "new", file)

		assert.Equal(t, []m.OutcomeKind{m.OutcomeStale}, kinds(report))
		assert.Equal(t, "one\n", string(fs.files["a.txt"]))
		assert.Equal(t, 0, fs.writes, "all-stale file must not be rewritten")
	})

	t.Run("unchanged file never reports stale", func(t *testing.T) {
		fs := newFakeFS()
		fs.files["a.txt"] = []byte("x old y old z\n")
		search := mustCompile(t, m.SearchSpec{Pattern: "old", FixedStrings: true})
		file := scanInto(t, search, fs, "a.txt")

		report := newReplacer(fs).applyFile(search, "new", file)

		for _, kind := range kinds(report) {
			assert.NotEqual(t, m.OutcomeStale, kind)
		}
		assert.Equal(t, "x new y new z\n", string(fs.files["a.txt"]))
	})

	t.Run("regex capture expansion", func(t *testing.T) {
		fs := newFakeFS()
		fs.files["a.txt"] = []byte("9 - foo\n")
		search := mustCompile(t, m.SearchSpec{Pattern: `(\d) - (\w+)`})
		file := scanInto(t, search, fs, "a.txt")

		report := newReplacer(fs).applyFile(search, `($2) "$1"`, file)

		assert.Equal(t, []m.OutcomeKind{m.OutcomeApplied}, kinds(report))
		assert.Equal(t, "(foo) \"9\"\n", string(fs.files["a.txt"]))
	})

	t.Run("fixed mode inserts the template verbatim", func(t *testing.T) {
		fs := newFakeFS()
		fs.files["a.txt"] = []byte("old\n")
		search := mustCompile(t, m.SearchSpec{Pattern: "old", FixedStrings: true})
		file := scanInto(t, search, fs, "a.txt")

		report := newReplacer(fs).applyFile(search, "$1", file)

		assert.Equal(t, []m.OutcomeKind{m.OutcomeApplied}, kinds(report))
		assert.Equal(t, "$1\n", string(fs.files["a.txt"]))
	})

	t.Run("replacement shorter and longer than the match on one line", func(t *testing.T) {
		fs := newFakeFS()
		fs.files["a.txt"] = []byte("old, old, old\n")
		search := mustCompile(t, m.SearchSpec{Pattern: "old", FixedStrings: true})
		file := scanInto(t, search, fs, "a.txt")
		file.Matches[1].Included = false

		report := newReplacer(fs).applyFile(search, "brand-new", file)

		assert.Equal(t, []m.OutcomeKind{m.OutcomeApplied, m.OutcomeSkipped, m.OutcomeApplied}, kinds(report))
		assert.Equal(t, "brand-new, old, brand-new\n", string(fs.files["a.txt"]))
	})

	t.Run("read failure fails included matches and skips the rest", func(t *testing.T) {
		fs := newFakeFS()
		fs.files["a.txt"] = []byte("old\nold\n")
		search := mustCompile(t, m.SearchSpec{Pattern: "old", FixedStrings: true})
		file := scanInto(t, search, fs, "a.txt")
		file.Matches[1].Included = false

		readErr := errors.New("permission denied")
		fs.readErr = readErr

		report := newReplacer(fs).applyFile(search, "new", file)

		require.ErrorIs(t, report.Err, readErr)
		assert.Equal(t, []m.OutcomeKind{m.OutcomeFailedIO, m.OutcomeSkipped}, kinds(report))
		assert.ErrorIs(t, report.Outcomes[0].Err, readErr)
	})

	t.Run("write failure fails every would-be-applied match uniformly", func(t *testing.T) {
		fs := newFakeFS()
		fs.files["a.txt"] = []byte("old\nold\n")
		search := mustCompile(t, m.SearchSpec{Pattern: "old", FixedStrings: true})
		file := scanInto(t, search, fs, "a.txt")

		writeErr := errors.New("disk full")
		fs.writeErr = writeErr

		report := newReplacer(fs).applyFile(search, "new", file)

		require.ErrorIs(t, report.Err, writeErr)
		assert.Equal(t, []m.OutcomeKind{m.OutcomeFailedIO, m.OutcomeFailedIO}, kinds(report))
		assert.Equal(t, "old\nold\n", string(fs.files["a.txt"]), "content unchanged on failed write")
	})

	t.Run("file without trailing newline survives round trip", func(t *testing.T) {
		fs := newFakeFS()
		fs.files["a.txt"] = []byte("old end")
		search := mustCompile(t, m.SearchSpec{Pattern: "old", FixedStrings: true})
		file := scanInto(t, search, fs, "a.txt")

		newReplacer(fs).applyFile(search, "new", file)

		assert.Equal(t, "new end", string(fs.files["a.txt"]))
	})

	t.Run("crlf lines survive round trip", func(t *testing.T) {
		fs := newFakeFS()
		fs.files["a.txt"] = []byte("old one\r\nkeep\r\n")
		search := mustCompile(t, m.SearchSpec{Pattern: "old", FixedStrings: true})
		file := scanInto(t, search, fs, "a.txt")

		newReplacer(fs).applyFile(search, "new", file)

		assert.Equal(t, "new one\r\nkeep\r\n", string(fs.files["a.txt"]))
	})
}
