package adapter

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

const appName = "refix"

// DefaultLogFile returns the per-user log file location,
// e.g. ~/.cache/refix/refix.log on Linux.
func DefaultLogFile() (string, error) {
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(cache, appName, appName+".log"), nil
}

// NewFileLogger builds a zerolog logger writing to the default log file. The
// TUI owns the terminal, so diagnostics go to a file instead of stderr. When
// the log file cannot be opened the logger discards output rather than
// failing startup.
func NewFileLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.WarnLevel
	}

	var out io.Writer = io.Discard

	if path, err := DefaultLogFile(); err == nil {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				out = f
			}
		}
	}

	return zerolog.New(out).With().Timestamp().Logger().Level(lvl)
}
