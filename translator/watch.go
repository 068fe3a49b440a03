package translator

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watch runs an initial batch pass, then re-runs the batch whenever a source
// file changes. Rapid successive writes (editors often write a file several
// times within milliseconds) are coalesced through a debounce window. All
// re-runs happen on one goroutine, so two passes never overlap: changes that
// arrive mid-pass queue behind it. Watch returns only when ctx is canceled;
// errors inside a single re-run are reported and do not stop the loop.
func Watch(ctx context.Context, opts Options) error {
	if result, err := RunBatch(ctx, opts); err != nil {
		log.WithField("error", err).Error("initial batch failed")
	} else if err := result.Err(); err != nil {
		log.WithField("error", err).Warn("initial batch had failures")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addRecursive(watcher, opts.SourceDir); err != nil {
		return err
	}

	debounce := debounceWindow(opts.Config)
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// New directories must join the watch set.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addRecursive(watcher, event.Name)
				}
			}
			if !relevantChange(event) {
				continue
			}
			log.WithFields(log.Fields{"file": event.Name, "op": event.Op.String()}).Debug("source change")
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			result, err := RunBatch(ctx, opts)
			if err != nil {
				log.WithField("error", err).Error("re-translation failed")
				continue
			}
			if err := result.Err(); err != nil {
				log.WithField("error", err).Warn("re-translation had failures")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithField("error", err).Warn("watcher error")
		}
	}
}

func relevantChange(event fsnotify.Event) bool {
	if filepath.Ext(event.Name) != sourceExt {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
}

func debounceWindow(cfg *Config) time.Duration {
	if cfg != nil && cfg.DebounceMs > 0 {
		return time.Duration(cfg.DebounceMs) * time.Millisecond
	}
	return 250 * time.Millisecond
}
