package vfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/nholloway/viewmill/core/logger"
)

// watchHub multiplexes every trigger issued by an OS provider onto a single
// fsnotify watcher, so the provider consumes one inotify instance no matter
// how many views are cached. Triggers are subscriptions: each one records
// the absolute targets it covers and the directories it holds a reference
// on. Directories are watched while any live subscription references them
// and removed from the watcher when the last reference is dropped.
type watchHub struct {
	watcher *fsnotify.Watcher

	mutex sync.Mutex
	subs  map[*fsTrigger]struct{}
	dirs  map[string]int
}

func newWatchHub() (*watchHub, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	h := &watchHub{
		watcher: watcher,
		subs:    make(map[*fsTrigger]struct{}),
		dirs:    make(map[string]int),
	}
	go h.dispatch()
	return h, nil
}

// fsTrigger is one composite subscription on the hub. It resolves every
// watched path to an absolute target and references the nearest existing
// ancestor directory of each target. Watching the ancestor directory
// instead of the file itself is what makes not-yet-existing targets
// watchable: their eventual creation arrives as an event inside a
// directory the hub already observes.
type fsTrigger struct {
	expired atomic.Bool
	hub     *watchHub
	targets []string
	dirs    []string
}

func (h *watchHub) subscribe(root string, paths []string) (*fsTrigger, error) {
	t := &fsTrigger{hub: h}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		target := filepath.Clean(filepath.Join(root, filepath.FromSlash(p)))
		t.targets = append(t.targets, target)
		dirs[nearestExistingDir(filepath.Dir(target))] = struct{}{}
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for dir := range dirs {
		if h.dirs[dir] == 0 {
			if err := h.watcher.Add(dir); err != nil {
				h.dropDirsLocked(t.dirs)
				t.dirs = nil
				return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
			}
		}
		h.dirs[dir]++
		t.dirs = append(t.dirs, dir)
	}
	h.subs[t] = struct{}{}
	return t, nil
}

func (h *watchHub) dispatch() {
	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			h.deliver(event)
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			// A broken watch can no longer prove freshness for anyone,
			// so err on the side of expiring every live subscription.
			logger.Warn("Watch error, expiring all triggers: %v", err)
			h.expireAll()
		}
	}
}

func (h *watchHub) deliver(event fsnotify.Event) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for t := range h.subs {
		if t.matches(event.Name) {
			logger.Debug("Trigger expired by %s on %s", event.Op, event.Name)
			h.fireLocked(t)
		}
	}
}

func (h *watchHub) expireAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for t := range h.subs {
		h.fireLocked(t)
	}
}

// fireLocked flips a subscription to expired and drops its directory
// references. The expiry flag is monotonic: the trigger stays expired even
// though its directories may no longer be watched.
func (h *watchHub) fireLocked(t *fsTrigger) {
	t.expired.Store(true)
	delete(h.subs, t)
	h.dropDirsLocked(t.dirs)
	t.dirs = nil
}

func (h *watchHub) dropDirsLocked(dirs []string) {
	for _, dir := range dirs {
		h.dirs[dir]--
		if h.dirs[dir] <= 0 {
			delete(h.dirs, dir)
			h.watcher.Remove(dir)
		}
	}
}

// unsubscribe detaches a released subscription without expiring it.
func (h *watchHub) unsubscribe(t *fsTrigger) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, live := h.subs[t]; !live {
		return
	}
	delete(h.subs, t)
	h.dropDirsLocked(t.dirs)
	t.dirs = nil
}

// Close tears down the shared watcher. Live subscriptions stop receiving
// events; their expiry flags keep whatever value they last had.
func (h *watchHub) Close() error {
	h.mutex.Lock()
	for t := range h.subs {
		delete(h.subs, t)
		t.dirs = nil
	}
	h.dirs = make(map[string]int)
	h.mutex.Unlock()
	return h.watcher.Close()
}

// Expired reports whether any watched path has changed since the trigger
// was issued.
func (t *fsTrigger) Expired() bool {
	return t.expired.Load()
}

// Release detaches the trigger from the hub so its directories can stop
// being watched. Safe to call more than once and after expiry.
func (t *fsTrigger) Release() {
	t.hub.unsubscribe(t)
}

// matches reports whether an event on name affects any watched target:
// either the target itself, or a directory the target lives beneath (the
// creation of an intermediate directory on the way to a still-missing
// target must expire the trigger so the next compile watches deeper).
func (t *fsTrigger) matches(name string) bool {
	name = filepath.Clean(name)
	for _, target := range t.targets {
		if name == target {
			return true
		}
		if strings.HasPrefix(target, name+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// nearestExistingDir walks up from dir until it finds a directory that
// exists on disk. The filesystem root always exists, so the walk ends.
func nearestExistingDir(dir string) string {
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
