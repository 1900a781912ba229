package adapter

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/marsh-hen/refix/internal/model"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func collectPaths(t *testing.T, root string, opts WalkOptions) []string {
	t.Helper()

	walker := NewLocalTreeWalker(zerolog.Nop())

	var rels []string
	err := walker.Walk(context.Background(), m.Path(root), opts, func(_ m.Path, rel string) error {
		rels = append(rels, rel)
		return nil
	})
	require.NoError(t, err)
	sort.Strings(rels)

	return rels
}

func TestLocalTreeWalker_Walk(t *testing.T) {
	t.Run("yields nested files with slash-relative paths", func(t *testing.T) {
		root := t.TempDir()
		writeTestFile(t, filepath.Join(root, "a.txt"), "a")
		writeTestFile(t, filepath.Join(root, "sub", "b.txt"), "b")

		rels := collectPaths(t, root, WalkOptions{})

		assert.Equal(t, []string{"a.txt", "sub/b.txt"}, rels)
	})

	t.Run("skips hidden entries unless included", func(t *testing.T) {
		root := t.TempDir()
		writeTestFile(t, filepath.Join(root, "visible.txt"), "v")
		writeTestFile(t, filepath.Join(root, ".secret"), "s")
		writeTestFile(t, filepath.Join(root, ".config", "inner.txt"), "i")

		rels := collectPaths(t, root, WalkOptions{})
		assert.Equal(t, []string{"visible.txt"}, rels)

		rels = collectPaths(t, root, WalkOptions{IncludeHidden: true})
		assert.Contains(t, rels, ".secret")
		assert.Contains(t, rels, ".config/inner.txt")
	})

	t.Run("always prunes .git even with hidden included", func(t *testing.T) {
		root := t.TempDir()
		writeTestFile(t, filepath.Join(root, ".git", "HEAD"), "ref")
		writeTestFile(t, filepath.Join(root, "code.go"), "package x")

		rels := collectPaths(t, root, WalkOptions{IncludeHidden: true})

		assert.Equal(t, []string{"code.go"}, rels)
	})

	t.Run("honours gitignore rules including negation", func(t *testing.T) {
		root := t.TempDir()
		writeTestFile(t, filepath.Join(root, ".gitignore"), "*.log\n!keep.log\n")
		writeTestFile(t, filepath.Join(root, "trace.log"), "x")
		writeTestFile(t, filepath.Join(root, "keep.log"), "x")
		writeTestFile(t, filepath.Join(root, "main.txt"), "x")

		rels := collectPaths(t, root, WalkOptions{})

		assert.Equal(t, []string{"keep.log", "main.txt"}, rels)
	})

	t.Run("nested ignore file overrides parent", func(t *testing.T) {
		root := t.TempDir()
		writeTestFile(t, filepath.Join(root, ".gitignore"), "*.tmp\n")
		writeTestFile(t, filepath.Join(root, "sub", ".gitignore"), "!special.tmp\n")
		writeTestFile(t, filepath.Join(root, "top.tmp"), "x")
		writeTestFile(t, filepath.Join(root, "sub", "special.tmp"), "x")
		writeTestFile(t, filepath.Join(root, "sub", "other.tmp"), "x")

		rels := collectPaths(t, root, WalkOptions{})

		assert.Equal(t, []string{"sub/special.tmp"}, rels)
	})

	t.Run("ignored directories are pruned recursively", func(t *testing.T) {
		root := t.TempDir()
		writeTestFile(t, filepath.Join(root, ".gitignore"), "vendor/\n")
		writeTestFile(t, filepath.Join(root, "vendor", "dep", "dep.go"), "x")
		writeTestFile(t, filepath.Join(root, "app.go"), "x")

		rels := collectPaths(t, root, WalkOptions{})

		assert.Equal(t, []string{"app.go"}, rels)
	})

	t.Run("path filter applies to files only", func(t *testing.T) {
		root := t.TempDir()
		writeTestFile(t, filepath.Join(root, "bar.txt"), "x")
		writeTestFile(t, filepath.Join(root, "bar", "file.txt"), "x")
		writeTestFile(t, filepath.Join(root, "other.txt"), "x")

		rels := collectPaths(t, root, WalkOptions{
			PathFilter: func(rel string) bool { return strings.Contains(rel, "bar") },
		})

		assert.Equal(t, []string{"bar.txt", "bar/file.txt"}, rels)
	})

	t.Run("does not follow symlinked directories", func(t *testing.T) {
		root := t.TempDir()
		outside := t.TempDir()
		writeTestFile(t, filepath.Join(outside, "out.txt"), "x")
		writeTestFile(t, filepath.Join(root, "in.txt"), "x")

		if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}

		rels := collectPaths(t, root, WalkOptions{})

		assert.Equal(t, []string{"in.txt"}, rels)
	})

	t.Run("cancelled context stops the walk", func(t *testing.T) {
		root := t.TempDir()
		writeTestFile(t, filepath.Join(root, "a.txt"), "x")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		walker := NewLocalTreeWalker(zerolog.Nop())
		err := walker.Walk(ctx, m.Path(root), WalkOptions{}, func(m.Path, string) error {
			t.Fatal("callback must not run after cancellation")
			return nil
		})

		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("unreadable directory produces a notice and continues", func(t *testing.T) {
		if os.Getuid() == 0 {
			t.Skip("permission bits are ignored for root")
		}

		root := t.TempDir()
		writeTestFile(t, filepath.Join(root, "ok.txt"), "x")
		locked := filepath.Join(root, "locked")
		require.NoError(t, os.MkdirAll(locked, 0o755))
		require.NoError(t, os.Chmod(locked, 0o000))
		t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

		var notices []m.ScanNotice
		walker := NewLocalTreeWalker(zerolog.Nop())

		var rels []string
		err := walker.Walk(context.Background(), m.Path(root), WalkOptions{
			Notice: func(n m.ScanNotice) { notices = append(notices, n) },
		}, func(_ m.Path, rel string) error {
			rels = append(rels, rel)
			return nil
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"ok.txt"}, rels)
		require.Len(t, notices, 1)
		assert.Contains(t, notices[0].Reason, "unreadable directory")
	})
}
