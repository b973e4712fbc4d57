package vfs

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/nholloway/viewmill/core/models"
)

// OS is the on-disk Provider, rooted at a single directory. All logical
// paths handed to it are resolved beneath that root. Every trigger it
// issues shares one fsnotify watcher, created on first use.
type OS struct {
	root string

	hubOnce sync.Once
	hub     *watchHub
	hubErr  error
}

// NewOS creates a Provider over the given root directory.
func NewOS(root string) *OS {
	return &OS{root: root}
}

// Root returns the directory this provider resolves against.
func (o *OS) Root() string {
	return o.root
}

func (o *OS) resolve(path string) string {
	return filepath.Join(o.root, filepath.FromSlash(path))
}

// Stat probes for a regular file at the logical path. Directories report
// as absent: a view path must name a file.
func (o *OS) Stat(path string) (*models.Descriptor, error) {
	info, err := os.Stat(o.resolve(path))
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("stat %s: %w", path, fs.ErrNotExist)
	}
	return &models.Descriptor{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

func (o *OS) Open(path string) (io.ReadCloser, error) {
	return os.Open(o.resolve(path))
}

// Watch issues one trigger covering the whole path set, multiplexed onto
// the provider's shared fsnotify watcher.
func (o *OS) Watch(paths []string) (Trigger, error) {
	o.hubOnce.Do(func() {
		o.hub, o.hubErr = newWatchHub()
	})
	if o.hubErr != nil {
		return nil, o.hubErr
	}
	return o.hub.subscribe(o.root, paths)
}

// Close stops the shared watcher. Triggers already issued stop observing
// changes; a provider is not reusable after Close.
func (o *OS) Close() error {
	if o.hub == nil {
		return nil
	}
	return o.hub.Close()
}
