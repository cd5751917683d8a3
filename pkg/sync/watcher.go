package sync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/macropower/rat/pkg/log"
	"github.com/macropower/rat/pkg/project"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher re-syncs projects whenever the rule source tree changes.
//
// Every directory under the source tree is registered with fsnotify, and
// directories created later are picked up from their create events.
// Events are debounced so editor save bursts produce one sync.
type Watcher struct {
	watcher     *fsnotify.Watcher
	syncer      *Syncer
	watchedDirs map[string]struct{}
	projects    []*project.Project
	debounce    time.Duration
}

// WatcherOpt is an option that configures a [Watcher].
type WatcherOpt func(*Watcher)

// NewWatcher creates a [Watcher] that syncs the given projects through
// the syncer on every source change.
func NewWatcher(syncer *Syncer, projects []*project.Project, opts ...WatcherOpt) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	w := &Watcher{
		watcher:     fsWatcher,
		syncer:      syncer,
		projects:    projects,
		watchedDirs: map[string]struct{}{},
		debounce:    defaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// WithDebounce sets how long the watcher waits after the last event
// before syncing.
func WithDebounce(d time.Duration) WatcherOpt {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// Watch blocks, syncing all projects whenever rule files change, until
// the context is canceled.
func (w *Watcher) Watch(ctx context.Context) error {
	logger := log.WithContext(ctx)

	err := w.watchSource(ctx)
	if err != nil {
		return err
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if !w.handleEvent(ctx, evt) {
				continue
			}

			logger.DebugContext(ctx, "source changed",
				slog.String("event", evt.Op.String()),
				slog.String("path", evt.Name),
			)

			resetTimer(timer, w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}

			logger.ErrorContext(ctx, "file watcher", slog.Any("err", err))

		case <-timer.C:
			_, err := w.syncer.SyncAll(ctx, w.projects)
			if err != nil {
				// Keep watching: the next change retries.
				logger.ErrorContext(ctx, "sync on change", slog.Any("err", err))
			}
		}
	}
}

// Close stops the underlying file watcher.
func (w *Watcher) Close() {
	err := w.watcher.Close()
	if err != nil {
		slog.Error("close file watcher", slog.Any("err", err))
	}
}

// handleEvent maintains directory watches and reports whether the event
// should trigger a sync.
func (w *Watcher) handleEvent(ctx context.Context, evt fsnotify.Event) bool {
	if evt.Has(fsnotify.Chmod) {
		return false
	}

	if _, ok := w.watchedDirs[evt.Name]; ok {
		if evt.Has(fsnotify.Remove) || evt.Has(fsnotify.Rename) {
			w.forgetDir(ctx, evt.Name)
		}

		return true
	}

	if evt.Has(fsnotify.Create) {
		info, err := os.Stat(evt.Name)
		if err == nil && info.IsDir() {
			// A directory moved in can already contain rule files, so
			// it both gets watched and triggers a sync.
			err := w.watchTree(ctx, evt.Name)
			if err != nil {
				log.WithContext(ctx).ErrorContext(ctx, "watch new directory",
					slog.String("path", evt.Name),
					slog.Any("err", err),
				)
			}

			return true
		}
	}

	return filepath.Ext(evt.Name) == ".md"
}

// watchSource registers every directory under the rule source tree.
func (w *Watcher) watchSource(ctx context.Context) error {
	err := w.watchTree(ctx, w.syncer.planner.SourceDir())
	if err != nil {
		return fmt.Errorf("watch source: %w", err)
	}

	log.WithContext(ctx).DebugContext(ctx, "watching source",
		slog.String("path", w.syncer.planner.SourceDir()),
		slog.Int("dirs", len(w.watchedDirs)),
	)

	return nil
}

func (w *Watcher) watchTree(ctx context.Context, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		return w.watchDir(ctx, path)
	})
}

func (w *Watcher) watchDir(ctx context.Context, dir string) error {
	if _, ok := w.watchedDirs[dir]; ok {
		return nil
	}

	err := w.watcher.Add(dir)
	if err != nil {
		return fmt.Errorf("watch %q: %w", dir, err)
	}

	w.watchedDirs[dir] = struct{}{}

	log.WithContext(ctx).DebugContext(ctx, "watching directory", slog.String("path", dir))

	return nil
}

func (w *Watcher) forgetDir(ctx context.Context, dir string) {
	logger := log.WithContext(ctx)

	prefix := dir + string(filepath.Separator)
	for watched := range w.watchedDirs {
		if watched != dir && !strings.HasPrefix(watched, prefix) {
			continue
		}

		err := w.watcher.Remove(watched)
		if err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
			logger.ErrorContext(ctx, "remove directory watch",
				slog.String("path", watched),
				slog.Any("err", err),
			)
		}

		delete(w.watchedDirs, watched)
	}
}

func resetTimer(timer *time.Timer, d time.Duration) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}

	timer.Reset(d)
}
