// Package adapter contains filesystem and infrastructure adapters for refix.
package adapter

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/marsh-hen/refix/internal/ignore"
	m "github.com/marsh-hen/refix/internal/model"
)

// WalkFunc receives each candidate file: its absolute path and its
// slash-separated path relative to the walk root.
type WalkFunc func(path m.Path, rel string) error

// WalkOptions controls traversal filtering.
type WalkOptions struct {
	// IncludeHidden visits entries whose name starts with a dot.
	IncludeHidden bool

	// PathFilter, when non-nil, must return true for a relative path to be
	// yielded. It is consulted for files only; directories are always
	// descended into so nested candidates are not lost.
	PathFilter func(rel string) bool

	// Notice, when non-nil, receives non-fatal traversal problems such as
	// unreadable directories.
	Notice func(m.ScanNotice)
}

// TreeWalker abstracts ignore-aware directory traversal so the domain layer
// can be tested without touching the disk.
type TreeWalker interface {
	// Walk yields candidate files under root, pruning ignored and hidden
	// entries. It stops early when fn or the context returns an error.
	Walk(ctx context.Context, root m.Path, opts WalkOptions, fn WalkFunc) error
}

// LocalTreeWalker traverses the real filesystem. Symlinks are never followed,
// which also makes symlink cycles a non-issue. A `.git` directory is always
// pruned regardless of the hidden policy.
type LocalTreeWalker struct {
	log zerolog.Logger
}

// NewLocalTreeWalker constructs a LocalTreeWalker.
func NewLocalTreeWalker(log zerolog.Logger) *LocalTreeWalker {
	return &LocalTreeWalker{log: log}
}

// Walk implements TreeWalker.
func (w *LocalTreeWalker) Walk(ctx context.Context, root m.Path, opts WalkOptions, fn WalkFunc) error {
	abs, err := filepath.Abs(string(root))
	if err != nil {
		return err
	}

	return w.walkDir(ctx, abs, "", ignore.Stack{}, opts, fn)
}

func (w *LocalTreeWalker) walkDir(ctx context.Context, dir, rel string, stack ignore.Stack, opts WalkOptions, fn WalkFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.log.Warn().Str("dir", dir).Err(err).Msg("skipping unreadable directory")
		w.notify(opts, m.Path(dir), "unreadable directory: "+err.Error())

		return nil
	}

	stack = w.loadIgnoreFiles(dir, rel, stack)

	for _, entry := range entries {
		name := entry.Name()
		entryRel := path.Join(rel, name)
		entryAbs := filepath.Join(dir, name)
		isDir := entry.IsDir()

		if entry.Type()&fs.ModeSymlink != 0 {
			continue
		}

		if isDir && name == ".git" {
			continue
		}

		if !opts.IncludeHidden && len(name) > 0 && name[0] == '.' {
			continue
		}

		if stack.Ignored(entryRel, isDir) {
			continue
		}

		if isDir {
			if err := w.walkDir(ctx, entryAbs, entryRel, stack, opts, fn); err != nil {
				return err
			}

			continue
		}

		if !entry.Type().IsRegular() {
			continue
		}

		if opts.PathFilter != nil && !opts.PathFilter(entryRel) {
			continue
		}

		if err := fn(m.Path(entryAbs), entryRel); err != nil {
			return err
		}
	}

	return nil
}

// loadIgnoreFiles parses the rule files present in dir, pushing each onto a
// copy of the stack. Hidden-file policy does not apply to rule files: they
// drive filtering even when hidden entries are excluded.
func (w *LocalTreeWalker) loadIgnoreFiles(dir, rel string, stack ignore.Stack) ignore.Stack {
	for _, name := range ignore.Names {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}

		stack = stack.Push(ignore.Parse(rel, content))
	}

	return stack
}

func (w *LocalTreeWalker) notify(opts WalkOptions, p m.Path, reason string) {
	if opts.Notice != nil {
		opts.Notice(m.ScanNotice{Path: p, Reason: reason})
	}
}
