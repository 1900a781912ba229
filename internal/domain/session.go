package domain

import (
	"context"
	"errors"
	"io"
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/marsh-hen/refix/internal/adapter"
	m "github.com/marsh-hen/refix/internal/model"
)

// channelBuffer decouples producer rate from the consuming front end without
// letting an idle consumer stall workers immediately.
const channelBuffer = 64

// ErrNoSearch is returned by Commit when no search has been run.
var ErrNoSearch = errors.New("no search has been performed")

// Session coordinates one search-replace cycle: a cancellable scan phase that
// populates the registry, followed by a commit phase that applies the
// included matches file by file.
type Session struct {
	walker   adapter.TreeWalker
	fs       adapter.FileSystem
	log      zerolog.Logger
	workers  int
	registry *Registry
	search   *Search
}

// NewSession constructs a Session with a worker count of GOMAXPROCS.
func NewSession(walker adapter.TreeWalker, fs adapter.FileSystem, log zerolog.Logger) *Session {
	return &Session{
		walker:   walker,
		fs:       fs,
		log:      log,
		workers:  runtime.GOMAXPROCS(0),
		registry: NewRegistry(),
	}
}

// SetWorkers overrides the scan and apply pool size.
func (s *Session) SetWorkers(n int) {
	if n > 0 {
		s.workers = n
	}
}

// Registry exposes the current match collection for the front end's toggle
// operations.
func (s *Session) Registry() *Registry {
	return s.registry
}

// Scan is a handle on an in-flight scan phase. Results and Notices are closed
// when the scan finishes; Wait reports the walker's terminal error (notably
// context.Canceled after an operator abort).
type Scan struct {
	Results <-chan m.FileScanResult
	Notices <-chan m.ScanNotice
	done    chan error
}

// Wait blocks until the scan has fully stopped.
func (sc *Scan) Wait() error {
	return <-sc.done
}

type scanTarget struct {
	path m.Path
	rel  string
}

// Search validates spec, discards any previous session state, and starts the
// scan phase: the walker feeds a bounded worker pool, workers scan files in
// parallel, and a single aggregator assigns IDs and streams results out.
// Cancelling ctx stops dispatch between file units; in-flight files finish.
func (s *Session) Search(ctx context.Context, spec m.SearchSpec) (*Scan, error) {
	search, err := CompileSearch(spec)
	if err != nil {
		return nil, err
	}

	if spec.Root == "" {
		spec.Root = "."
	}

	info, err := os.Stat(string(spec.Root))
	if err != nil {
		return nil, m.NewConfigError("directory", "cannot read search root", err)
	}

	if !info.IsDir() {
		return nil, m.NewConfigError("directory", "search root is not a directory", nil)
	}

	// Stat succeeds on a directory whose entries cannot be listed; probe a
	// read so an unusable root fails up front instead of scanning nothing.
	dir, err := os.Open(string(spec.Root))
	if err != nil {
		return nil, m.NewConfigError("directory", "cannot read search root", err)
	}

	_, err = dir.Readdirnames(1)
	_ = dir.Close()

	if err != nil && !errors.Is(err, io.EOF) {
		return nil, m.NewConfigError("directory", "cannot read search root", err)
	}

	s.search = search
	s.registry = NewRegistry()

	results := make(chan m.FileScanResult, channelBuffer)
	notices := make(chan m.ScanNotice, channelBuffer)
	scanned := make(chan m.FileScanResult, channelBuffer)
	targets := make(chan scanTarget, channelBuffer)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(targets)

		return s.walker.Walk(gctx, spec.Root, adapter.WalkOptions{
			IncludeHidden: spec.IncludeHidden,
			PathFilter:    search.PathFilter(),
			Notice:        func(n m.ScanNotice) { sendNotice(gctx, notices, n) },
		}, func(path m.Path, rel string) error {
			select {
			case targets <- scanTarget{path: path, rel: rel}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	var workers errgroup.Group
	for range s.workers {
		workers.Go(func() error {
			s.scanWorker(gctx, search, targets, scanned, notices)

			return nil
		})
	}

	go func() {
		_ = workers.Wait()
		close(scanned)
	}()

	done := make(chan error, 1)

	go func() {
		for res := range scanned {
			stored := s.registry.Add(res)
			select {
			case results <- stored:
			case <-ctx.Done():
				// Consumer gone; keep aggregating so the registry stays
				// consistent with what was scanned.
			}
		}

		done <- g.Wait()
		close(results)
		close(notices)
	}()

	return &Scan{Results: results, Notices: notices, done: done}, nil
}

// scanWorker drains targets even after cancellation so the dispatcher never
// blocks; it just stops doing work.
func (s *Session) scanWorker(ctx context.Context, search *Search, targets <-chan scanTarget, scanned chan<- m.FileScanResult, notices chan<- m.ScanNotice) {
	for target := range targets {
		if ctx.Err() != nil {
			continue
		}

		content, err := s.fs.ReadFile(target.path)
		if err != nil {
			s.log.Warn().Str("file", string(target.path)).Err(err).Msg("scan: read failed")
			sendNotice(ctx, notices, m.ScanNotice{Path: target.path, Reason: "unreadable file: " + err.Error()})

			continue
		}

		res, notice := scanFile(search, target.path, target.rel, content)
		if notice != nil {
			s.log.Debug().Str("file", string(target.path)).Str("reason", notice.Reason).Msg("scan: skipped")
			sendNotice(ctx, notices, *notice)

			continue
		}

		if len(res.Matches) == 0 {
			continue
		}

		select {
		case scanned <- res:
		case <-ctx.Done():
		}
	}
}

// sendNotice drops notices once nobody is listening; they are informational.
func sendNotice(ctx context.Context, notices chan<- m.ScanNotice, n m.ScanNotice) {
	select {
	case notices <- n:
	case <-ctx.Done():
	default:
	}
}

// Commit starts the apply phase over the registry's current state and streams
// one report per file. The apply phase is not cancellable mid-file: every
// dispatched file either completes a full re-validate+write or is untouched.
func (s *Session) Commit(_ context.Context, spec m.ReplaceSpec) (<-chan m.FileReport, error) {
	if s.search == nil {
		return nil, ErrNoSearch
	}

	files := s.registry.Files()
	reports := make(chan m.FileReport, channelBuffer)
	apply := &replacer{fs: s.fs, log: s.log}

	var g errgroup.Group
	g.SetLimit(s.workers)

	go func() {
		for _, file := range files {
			g.Go(func() error {
				reports <- apply.applyFile(s.search, spec.Template, file)

				return nil
			})
		}

		_ = g.Wait()
		close(reports)
	}()

	return reports, nil
}
