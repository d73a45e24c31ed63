// Package watch observes the compose root and rescans it when project
// directories or compose files change.
//
// The watcher never mutates anything. A rescan refreshes the index gauges
// and logs what changed, which makes edits made outside the API visible in
// metrics and logs.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/composed/internal/compose"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// DefaultDebounce is the quiet period before a rescan.
const DefaultDebounce = 500 * time.Millisecond

// Scanner rescans the compose root.
type Scanner interface {
	Root() string
	Scan(ctx context.Context) (compose.ScanResult, error)
}

// Watcher rescans the compose root after filesystem changes settle.
type Watcher struct {
	scanner  Scanner
	debounce time.Duration
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	scans    chan compose.ScanResult
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
}

// New creates a Watcher. A non-positive debounce uses DefaultDebounce.
func New(scanner Scanner, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if scanner == nil {
		return nil, errors.New("scanner is required for watcher")
	}
	if logger == nil {
		return nil, errors.New("logger is required for watcher")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}

	return &Watcher{
		scanner:  scanner,
		debounce: debounce,
		logger:   logger,
		watcher:  fw,
		scans:    make(chan compose.ScanResult, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start watches the root and its immediate subdirectories and runs an
// initial scan. Watching continues in the background until Stop is called
// or ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	root := w.scanner.Root()
	if err := w.watcher.Add(root); err != nil {
		return fmt.Errorf("watching compose root %s: %w", root, err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("reading compose root: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			w.addDir(filepath.Join(root, e.Name()))
		}
	}

	w.rescan(ctx)
	w.started.Store(true)
	go w.run(ctx)
	return nil
}

// Stop ends watching and waits for the background loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		_ = w.watcher.Close()
	})
	if w.started.Load() {
		<-w.done
	}
}

// Scans delivers the result of each rescan. Results are dropped when the
// previous one has not been read.
func (w *Watcher) Scans() <-chan compose.ScanResult {
	return w.scans
}

func (w *Watcher) addDir(dir string) {
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("cannot watch project directory", zap.String("dir", dir), zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	root := w.scanner.Root()
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevant(root, event) {
				continue
			}
			// New project directories need their own watch.
			if event.Has(fsnotify.Create) && filepath.Dir(event.Name) == root {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.addDir(event.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.logger.Info("compose root changed", zap.String("root", root))
			w.rescan(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("filesystem watcher error", zap.Error(err))
		}
	}
}

// relevant keeps events for project directories and compose files.
func relevant(root string, event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}
	if filepath.Dir(event.Name) == root {
		return true
	}
	base := filepath.Base(event.Name)
	for _, name := range compose.FileNames {
		if base == name {
			return true
		}
	}
	return false
}

func (w *Watcher) rescan(ctx context.Context) {
	res, err := w.scanner.Scan(ctx)
	if err != nil {
		w.logger.Warn("compose root rescan failed", zap.Error(err))
		return
	}
	w.logger.Debug("compose root rescanned",
		zap.Int("projects", len(res.Projects)),
		zap.Int("skipped", len(res.Skipped)),
	)
	select {
	case w.scans <- res:
	default:
	}
}
