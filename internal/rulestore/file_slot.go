package rulestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"compliance/internal/logger"
	"compliance/pkg/fileutil"
)

// FileSlot stores each key as <dir>/<key>.json.
type FileSlot struct {
	dir string
}

func NewFileSlot(dir string) *FileSlot {
	return &FileSlot{dir: dir}
}

func (s *FileSlot) Path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileSlot) Load(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *FileSlot) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(s.Path(key), data, 0o644)
}

const defaultDebounce = 250 * time.Millisecond

// Watch calls onChange after the file for key is written or replaced by
// another process. Bursts of events are collapsed into one call per debounce
// interval. Watch blocks until ctx is done.
func (s *FileSlot) Watch(ctx context.Context, key string, debounce time.Duration, log logger.Logger, onChange func(ctx context.Context)) error {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: atomic writes replace the file via rename.
	if err := watcher.Add(s.dir); err != nil {
		return err
	}

	target := filepath.Clean(s.Path(key))
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	pending := false
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = true
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Errorw("Rule slot watcher error", "dir", s.dir, "error", err)

		case <-ticker.C:
			if pending {
				pending = false
				onChange(ctx)
			}
		}
	}
}
