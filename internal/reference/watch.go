package reference

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch refreshes the catalog whenever the reference directory changes and
// then calls onChange. It blocks until ctx is cancelled.
func (c *Catalog) Watch(ctx context.Context, dir string, onChange func([]Option)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				c.logger.Debug("reference directory changed", "file", event.Name)
				opts, err := c.Refresh(ctx)
				if err != nil {
					c.logger.Error("reference refresh failed", "error", err)
					return
				}
				if onChange != nil {
					onChange(opts)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Error("watcher error", "error", err)
		}
	}
}
