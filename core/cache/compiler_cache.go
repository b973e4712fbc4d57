package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"sync/atomic"

	"github.com/nholloway/viewmill/core/logger"
	"github.com/nholloway/viewmill/core/models"
	"github.com/nholloway/viewmill/core/paths"
	"github.com/nholloway/viewmill/core/vfs"
	"golang.org/x/sync/singleflight"
)

// CompilerCache memoizes view compilation keyed by normalized path and
// invalidates entries when the view file or any of its ancestor import
// files change on disk. GetOrAdd is the sole public operation.
type CompilerCache struct {
	fs          vfs.Provider
	precompiled *PrecompiledSet
	config      *Config

	entries map[string]*entry
	mutex   sync.RWMutex

	// group collapses concurrent misses for the same key into a single
	// compile.
	group singleflight.Group

	hits          atomic.Int64
	misses        atomic.Int64
	invalidations atomic.Int64
	statProbes    atomic.Int64
}

// New creates a cache over the given file provider. The precompiled set may
// be nil; views found in it are served as-is forever and never recompiled.
func New(fsp vfs.Provider, precompiled *PrecompiledSet, config *Config) *CompilerCache {
	if config == nil {
		config = DefaultConfig()
	}
	cache := &CompilerCache{
		fs:          fsp,
		precompiled: precompiled,
		config:      config,
		entries:     make(map[string]*entry),
	}
	logger.Debug("Created compiler cache with import file %q and %d precompiled views",
		config.ImportFileName, precompiled.Len())
	return cache
}

// GetOrAdd returns the compiled artifact for viewPath, compiling it via
// compile only when no valid cached entry exists. The callback is invoked
// at most once per call and not at all on a valid hit, a precompiled match,
// or a missing file. A failing compile caches nothing and the error is
// returned to the caller as-is.
func (cc *CompilerCache) GetOrAdd(viewPath string, compile models.CompileFunc) (*Result, error) {
	if viewPath == "" {
		return nil, fmt.Errorf("view path cannot be empty")
	}
	key := paths.Normalize(viewPath)

	cc.mutex.RLock()
	e, exists := cc.entries[key]
	cc.mutex.RUnlock()

	if exists {
		if e.valid() {
			cc.count(&cc.hits)
			logger.Debug("CompilerCache: Hit for %s", key)
			return e.result(), nil
		}
		cc.count(&cc.invalidations)
		logger.Debug("CompilerCache: Entry for %s expired, recompiling", key)
	}
	cc.count(&cc.misses)

	v, err, _ := cc.group.Do(key, func() (any, error) {
		return cc.rebuild(viewPath, key, compile)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// rebuild runs the miss path for one key. Only one rebuild per key is in
// flight at a time; late arrivals share the leader's result.
func (cc *CompilerCache) rebuild(viewPath, key string, compile models.CompileFunc) (*Result, error) {
	// A racer may have published a fresh entry between our lookup and the
	// singleflight admission.
	cc.mutex.RLock()
	e, exists := cc.entries[key]
	cc.mutex.RUnlock()
	if exists && e.valid() {
		return e.result(), nil
	}

	cc.count(&cc.statProbes)
	desc, err := cc.fs.Stat(viewPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cc.publishNotFound(viewPath, key)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", viewPath, err)
	}

	if artifact, ok := cc.precompiled.Lookup(key); ok {
		cc.publish(key, &entry{
			artifact:    artifact,
			precompiled: true,
		})
		logger.Debug("CompilerCache: Pinned precompiled view %s", key)
		return found(artifact, true), nil
	}

	artifact, err := compile(desc)
	if err != nil {
		// Nothing is cached for a failed compile; every call surfaces
		// the error until the source changes.
		return nil, err
	}
	if artifact == nil {
		return nil, fmt.Errorf("compile produced no artifact for %s", viewPath)
	}

	trigger, err := cc.fs.Watch(cc.watchSet(viewPath))
	if err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", viewPath, err)
	}

	cc.publish(key, &entry{
		artifact: artifact,
		trigger:  trigger,
	})
	logger.Debug("CompilerCache: Compiled and cached %s", key)
	return found(artifact, false), nil
}

// publishNotFound records a missing file so repeated lookups short-circuit.
// The entry is backed by a trigger on the exact path: creating the file
// later expires it and the next lookup compiles for real.
func (cc *CompilerCache) publishNotFound(viewPath, key string) (*Result, error) {
	trigger, err := cc.fs.Watch([]string{viewPath})
	if err != nil {
		// Without a trigger a cached miss would never notice the file
		// appearing, so report the miss without caching it.
		logger.Warn("CompilerCache: Cannot watch missing file %s: %v", viewPath, err)
		return NotFound, nil
	}
	cc.publish(key, &entry{
		trigger:  trigger,
		notFound: true,
	})
	logger.Debug("CompilerCache: Cached missing file %s", key)
	return NotFound, nil
}

// watchSet is the view file plus every ancestor import file, existing or
// not. Import files are watched regardless of existence: creating one later
// must also invalidate the view.
func (cc *CompilerCache) watchSet(viewPath string) []string {
	set := []string{viewPath}
	for imp := range paths.ImportChain(viewPath, cc.config.ImportFileName) {
		set = append(set, imp)
	}
	return set
}

func (cc *CompilerCache) publish(key string, e *entry) {
	cc.mutex.Lock()
	stale := cc.entries[key]
	cc.entries[key] = e
	cc.mutex.Unlock()

	if stale != nil {
		stale.release()
	}
}

func (e *entry) result() *Result {
	if e.notFound {
		return NotFound
	}
	return found(e.artifact, true)
}

// Invalidate drops the entry for a single path, if present.
func (cc *CompilerCache) Invalidate(viewPath string) {
	key := paths.Normalize(viewPath)

	cc.mutex.Lock()
	defer cc.mutex.Unlock()

	if e, exists := cc.entries[key]; exists {
		delete(cc.entries, key)
		e.release()
		cc.count(&cc.invalidations)
		logger.Debug("CompilerCache: Invalidated %s", key)
	}
}

func (cc *CompilerCache) count(counter *atomic.Int64) {
	if cc.config.EnableMetrics {
		counter.Add(1)
	}
}

// Clear drops every entry.
func (cc *CompilerCache) Clear() {
	cc.mutex.Lock()
	defer cc.mutex.Unlock()

	count := len(cc.entries)
	for _, e := range cc.entries {
		e.release()
	}
	cc.entries = make(map[string]*entry)
	if cc.config.EnableMetrics {
		cc.invalidations.Add(int64(count))
	}
	logger.Info("Cleared compiler cache, invalidated %d entries", count)
}

// GetMetrics returns a snapshot of the cache counters.
func (cc *CompilerCache) GetMetrics() *Metrics {
	cc.mutex.RLock()
	total := len(cc.entries)
	cc.mutex.RUnlock()

	metrics := &Metrics{
		Hits:          cc.hits.Load(),
		Misses:        cc.misses.Load(),
		Invalidations: cc.invalidations.Load(),
		StatProbes:    cc.statProbes.Load(),
		TotalEntries:  total,
	}
	metrics.CalculateHitRate()
	return metrics
}

// LogStats writes the current counters to the debug log.
func (cc *CompilerCache) LogStats() {
	m := cc.GetMetrics()
	logger.Debug("Cache stats: Hits=%d, Misses=%d, Hit Rate=%.1f%%, Entries=%d, Invalidations=%d, Stat Probes=%d",
		m.Hits, m.Misses, m.HitRate, m.TotalEntries, m.Invalidations, m.StatProbes)
}
