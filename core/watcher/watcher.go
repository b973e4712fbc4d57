package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nholloway/viewmill/core/cache"
	"github.com/nholloway/viewmill/core/logger"
	"github.com/nholloway/viewmill/core/models"
)

const debounceDelay = 500 * time.Millisecond

// FileWatcherImpl is the dev-mode reload loop: it watches the views root
// recursively and fires a debounced OnChange with the batch of changed view
// files. The compiler cache invalidates itself through its own triggers;
// this watcher exists to drive eager recompiles and console feedback while
// developing.
type FileWatcherImpl struct {
	FileWatcher *models.FileWatcher
	Cache       *cache.CompilerCache

	pending map[string]struct{}
}

func NewFileWatcher(rootDir string, excludePaths []string, cc *cache.CompilerCache) (*FileWatcherImpl, error) {
	fw, err := models.NewFileWatcher(rootDir, excludePaths)
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &FileWatcherImpl{
		FileWatcher: fw,
		Cache:       cc,
		pending:     make(map[string]struct{}),
	}, nil
}

func (fw *FileWatcherImpl) Watch() error {
	if err := fw.addWatchersRecursively(fw.FileWatcher.RootDir); err != nil {
		return fmt.Errorf("failed to add watchers: %w", err)
	}

	if err := fw.FileWatcher.OnStart(); err != nil {
		logger.Error("Watcher.OnStart failed: %v", err)
	}

	for {
		select {
		case event, ok := <-fw.FileWatcher.Watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			if fw.shouldExcludePath(event.Name) {
				continue
			}

			logger.Debug("File event: %s %s", event.Op, event.Name)

			if strings.HasSuffix(event.Name, ".tmpl") {
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					if fw.Cache != nil {
						fw.Cache.Invalidate(fw.logicalPath(event.Name))
					}
				}
				fw.recordChange(event.Name)
			}

			if event.Has(fsnotify.Create) {
				if stat, err := os.Stat(event.Name); err == nil && stat.IsDir() {
					logger.Debug("Adding watcher for new directory: %s", event.Name)
					fw.FileWatcher.Watcher.Add(event.Name)
				}
			}

		case err, ok := <-fw.FileWatcher.Watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			logger.Error("Watcher error: %v", err)
		}
	}
}

// recordChange batches a changed view and (re)arms the debounce timer.
func (fw *FileWatcherImpl) recordChange(name string) {
	fw.FileWatcher.Mutex.Lock()
	defer fw.FileWatcher.Mutex.Unlock()

	fw.pending[fw.logicalPath(name)] = struct{}{}

	if fw.FileWatcher.DebounceTimer != nil {
		fw.FileWatcher.DebounceTimer.Stop()
	}

	fw.FileWatcher.DebounceTimer = time.AfterFunc(debounceDelay, func() {
		fw.FileWatcher.Mutex.Lock()
		changed := make([]string, 0, len(fw.pending))
		for p := range fw.pending {
			changed = append(changed, p)
		}
		fw.pending = make(map[string]struct{})
		fw.FileWatcher.Mutex.Unlock()

		logger.Debug("File changes detected, recompiling %d views...", len(changed))
		if err := fw.FileWatcher.OnChange(changed); err != nil {
			logger.Error("Watcher.OnChange failed: %v", err)
		}
	})
}

func (fw *FileWatcherImpl) Close() error {
	fw.FileWatcher.Mutex.Lock()
	defer fw.FileWatcher.Mutex.Unlock()

	if fw.FileWatcher.DebounceTimer != nil {
		fw.FileWatcher.DebounceTimer.Stop()
	}

	if err := fw.FileWatcher.OnClose(); err != nil {
		logger.Error("Watcher.OnClose failed: %v", err)
	}

	return fw.FileWatcher.Watcher.Close()
}

// logicalPath converts an absolute event path to the slash-separated path
// the cache is keyed by.
func (fw *FileWatcherImpl) logicalPath(name string) string {
	relPath, err := filepath.Rel(fw.FileWatcher.RootDir, name)
	if err != nil {
		return filepath.ToSlash(name)
	}
	return filepath.ToSlash(relPath)
}

func (fw *FileWatcherImpl) shouldExcludePath(path string) bool {
	relPath, err := filepath.Rel(fw.FileWatcher.RootDir, path)
	if err != nil {
		return false
	}

	relPath = filepath.Clean(relPath)

	for _, excludePath := range fw.FileWatcher.ExcludePaths {
		excludePath = filepath.Clean(excludePath)

		if relPath == excludePath {
			return true
		}
		if strings.HasPrefix(relPath, excludePath+string(filepath.Separator)) {
			return true
		}
	}

	return false
}

func (fw *FileWatcherImpl) addWatchersRecursively(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			return nil
		}

		if path != root && fw.shouldExcludePath(path) {
			logger.Debug("Excluding directory: %s", path)
			return filepath.SkipDir
		}

		logger.Debug("Adding watcher for: %s", path)
		if err := fw.FileWatcher.Watcher.Add(path); err != nil {
			return fmt.Errorf("failed to add watcher for %s: %w", path, err)
		}

		return nil
	})
}
