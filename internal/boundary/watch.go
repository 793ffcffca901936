package boundary

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// watchDebounce coalesces the burst of events an editor or copy produces.
const watchDebounce = 250 * time.Millisecond

// Watch reloads a local boundary file whenever it is written or replaced and
// passes each successfully decoded document to onChange. It blocks until ctx
// is done. Reload failures are logged and the previous document stays in use.
func (l *Loader) Watch(ctx context.Context, path string, onChange func(*Document)) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return eris.Wrapf(err, "boundary: resolve %s", path)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "boundary: create watcher")
	}
	defer w.Close() //nolint:errcheck

	// Watch the directory so atomic rename-over replacements are seen.
	if err := w.Add(filepath.Dir(target)); err != nil {
		return eris.Wrapf(err, "boundary: watch %s", filepath.Dir(target))
	}

	log := zap.L().With(zap.String("component", "boundary.watch"), zap.String("path", target))
	log.Info("watching boundary file")

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isRelevant(ev, target) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			doc, err := l.Load(ctx, target)
			if err != nil {
				log.Warn("boundary reload failed", zap.Error(err))
				continue
			}
			log.Info("boundary reloaded", zap.Int("features", doc.Len()))
			onChange(doc)
		}
	}
}

func isRelevant(ev fsnotify.Event, target string) bool {
	if filepath.Clean(ev.Name) != target {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
