package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch backs up whenever files under the configured source directories
// change. Events are debounced: a burst of writes triggers one backup run
// after the filesystem has been quiet for the debounce interval. Returns
// when ctx is cancelled.
func (a *App) Watch(ctx context.Context, debounce time.Duration) error {
	if len(a.cfg.Sources) == 0 {
		return fmt.Errorf("no source directories configured")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range a.cfg.Sources {
		if err := watchTree(watcher, dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	a.logger.Info("watching for changes", "sources", len(a.cfg.Sources))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			// New subdirectories need their own watch.
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := watchTree(watcher, ev.Name); err != nil {
						a.logger.Warn("cannot watch new directory", "path", ev.Name, "error", err)
					}
				}
			}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("watch error", "error", err)

		case <-timer.C:
			result, err := a.Backup()
			if err != nil {
				a.logger.Error("watch-triggered backup failed", "error", err)
				continue
			}
			a.logger.Info("watch-triggered backup finished",
				"created", result.Created, "skipped", result.Skipped, "failed", len(result.Errors))
		}
	}
}

// watchTree adds dir and all its subdirectories to the watcher.
func watchTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return watcher.Add(p)
	})
}
