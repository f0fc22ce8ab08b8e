package discovery

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// SemaphoreWatcher triggers an out-of-band sweep as soon as a semaphore file
// is removed, instead of waiting for the janitor's next tick. The sweep
// itself (registry.Sweep) remains the single source of truth via os.Stat;
// this is purely a latency optimization.
//
// Grounded on wudi-gateway's internal/config/watcher.go, which watches a
// config file's parent directory with fsnotify rather than the file itself
// (inotify doesn't reliably track a path across replace-by-rename).
type SemaphoreWatcher struct {
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	onTrip  func()
}

func NewSemaphoreWatcher(logger *zap.Logger, onTrip func()) (*SemaphoreWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &SemaphoreWatcher{watcher: w, logger: logger, onTrip: onTrip}, nil
}

// Watch starts watching path's parent directory for removal/rename events.
func (s *SemaphoreWatcher) Watch(path string) error {
	return s.watcher.Add(filepath.Dir(path))
}

// Run processes fsnotify events until ctx is cancelled.
func (s *SemaphoreWatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			_ = s.watcher.Close()
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				if s.logger != nil {
					s.logger.Info("semaphore directory event, triggering sweep", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
				}
				if s.onTrip != nil {
					s.onTrip()
				}
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			if s.logger != nil {
				s.logger.Warn("semaphore watcher error", zap.Error(err))
			}
		}
	}
}
