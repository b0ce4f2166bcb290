package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"foxo/pkg/logger"
)

// debounceWindow coalesces bursts of filesystem events into one re-ingest.
// Editors and file copies fire many events for a single logical change.
const debounceWindow = 2 * time.Second

// Ingester triggers a full re-ingestion of the data folder.
type Ingester interface {
	Reingest(ctx context.Context) error
}

// Watcher watches the data folder and re-ingests when its contents change.
type Watcher struct {
	folder   string
	ingester Ingester
	debounce time.Duration
	log      *logger.Logger
}

// New creates a Watcher over the given folder.
func New(folder string, ingester Ingester, log *logger.Logger) *Watcher {
	return &Watcher{
		folder:   folder,
		ingester: ingester,
		debounce: debounceWindow,
		log:      log,
	}
}

// Run watches the folder until the context is cancelled. Events are debounced
// so one batch of file changes triggers one re-ingest.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating filesystem watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.folder); err != nil {
		return fmt.Errorf("watching %s: %w", w.folder, err)
	}
	w.log.Info(fmt.Sprintf("Watching %s for changes", w.folder))

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.log.Debug(fmt.Sprintf("Filesystem event: %s", event))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("Filesystem watcher error")

		case <-timerC:
			timer = nil
			timerC = nil
			w.log.Info("Data folder changed, re-ingesting")
			if err := w.ingester.Reingest(ctx); err != nil {
				w.log.WithError(err).Error("Re-ingestion after file change failed")
			}
		}
	}
}
