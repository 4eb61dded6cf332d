package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrNotWatchable is returned by Watch for URL sources.
var ErrNotWatchable = errors.New("catalog source is not a local file")

// DefaultDebounce is how long Watch waits after the last change before reloading.
const DefaultDebounce = 300 * time.Millisecond

// Watch reloads the catalog whenever its file changes, until ctx is
// cancelled. The parent directory is watched rather than the file itself,
// so editors that save by rename are picked up. Bursts of events are
// collapsed into one reload.
func (s *Store) Watch(ctx context.Context, debounce time.Duration) error {
	if s.source.IsRemote() {
		return ErrNotWatchable
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	path, err := filepath.Abs(s.source.Path())
	if err != nil {
		return fmt.Errorf("watch catalog: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch catalog: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch catalog: %w", err)
	}
	s.logger.Info("watching catalog file", "path", path)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				if ctx.Err() != nil {
					return
				}
				s.logger.Debug("catalog file changed", "path", path, "op", event.Op.String())
				_, _ = s.Load(ctx)
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("catalog watcher error", "error", err)
		}
	}
}
