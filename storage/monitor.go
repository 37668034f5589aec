package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"hotel-bookings/utils"

	"github.com/fsnotify/fsnotify"
)

// FileMonitor reports writes to a single input file.
// It watches the parent directory so that editors replacing the file are seen too.
type FileMonitor struct {
	path    string
	settle  time.Duration
	watcher *fsnotify.Watcher
	logger  *utils.Logger
}

// NewFileMonitor starts watching path. Bursts of writes closer than settle are reported once.
func NewFileMonitor(path string, settle time.Duration, logger *utils.Logger) (*FileMonitor, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &FileMonitor{
		path:    abs,
		settle:  settle,
		watcher: watcher,
		logger:  logger,
	}, nil
}

// Watch calls handler after each settled change until ctx is done
func (m *FileMonitor) Watch(ctx context.Context, handler func(path string)) error {
	defer m.watcher.Close()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != m.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			m.logger.Debug("Change detected: %s (%s)", event.Name, event.Op)
			timer.Reset(m.settle)
		case <-timer.C:
			handler(m.path)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", m.path, err)
		}
	}
}
