package catalog

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrNotWatchable is returned by Watch for catalogs without a disk root.
var ErrNotWatchable = errors.New("catalog is not backed by a directory")

// watchDebounce coalesces editor save bursts into one reload.
const watchDebounce = 200 * time.Millisecond

// Watch reloads the catalog when YAML under the persona, governance or
// standards directories changes, then calls onChange with the reload
// result. It blocks until ctx is cancelled.
func (c *Catalog) Watch(ctx context.Context, onChange func(error)) error {
	if c.dir == "" {
		return ErrNotWatchable
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, sub := range []string{PersonasDir, GovernanceDir, StandardsDir} {
		root := filepath.Join(c.dir, sub)
		// fsnotify is not recursive; standards keep one directory per standard.
		walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return filepath.SkipDir
				}
				return err
			}
			if d.IsDir() {
				return watcher.Add(p)
			}
			return nil
		})
		if walkErr != nil {
			return walkErr
		}
	}

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}
			if !isYAML(event.Name) || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(watchDebounce)
			pending = timer.C
		case <-pending:
			pending = nil
			err := c.Reload()
			if err != nil {
				c.logger.Warn("catalog reload failed", "error", err)
			} else {
				c.logger.Info("catalog reloaded", "source", c.Source())
			}
			if onChange != nil {
				onChange(err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("catalog watcher error", "error", err)
		}
	}
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
