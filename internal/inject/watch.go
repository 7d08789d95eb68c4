package inject

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch re-injects pages as they change on disk. root is the OS path
// of the clone the Injector's filesystem is rooted at; the watch ends
// when ctx is cancelled. Useful while a mirror run is writing pages.
func (i *Injector) Watch(ctx context.Context, root string, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// fsnotify does not recurse; register every directory, plus new
	// ones as they appear.
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		return watcher.Add(p)
	})
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", slog.String("error", err.Error()))
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			rel, err := filepath.Rel(root, event.Name)
			if err != nil {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, statErr := i.fs.Stat(rel); statErr == nil && info.IsDir() {
					if addErr := watcher.Add(event.Name); addErr != nil {
						logger.Warn("cannot watch new directory",
							slog.String("dir", event.Name),
							slog.String("error", addErr.Error()),
						)
					}
					continue
				}
			}

			if !strings.HasSuffix(rel, ".html") {
				continue
			}
			changed, err := i.InjectFile(filepath.ToSlash(rel))
			if err != nil {
				logger.Warn("injection failed",
					slog.String("file", rel),
					slog.String("error", err.Error()),
				)
				continue
			}
			if changed {
				logger.Info("bootstrap injected", slog.String("file", rel))
			}
		}
	}
}
