package cache

import (
	"github.com/nholloway/viewmill/core/models"
	"github.com/nholloway/viewmill/core/vfs"
)

// entry is one published cache record. Entries are immutable: invalidation
// replaces the whole entry under the write lock, it never mutates one in
// place, so a reader holding an entry can use it without further locking.
type entry struct {
	// artifact is nil if and only if notFound is set.
	artifact *models.Artifact

	// trigger covers the view file and its ancestor import files for
	// runtime-compiled entries, and the exact missing path for notFound
	// entries so a later creation is observed.
	trigger vfs.Trigger

	// precompiled entries return their fixed artifact forever; trigger
	// expiry never forces a recompile for them.
	precompiled bool

	notFound bool
}

// valid reports whether the entry may still be served. Precompiled entries
// are immune to content-based invalidation.
func (e *entry) valid() bool {
	if e.precompiled {
		return true
	}
	return e.trigger == nil || !e.trigger.Expired()
}

// release returns the entry's watch resources to the provider. Called
// whenever the entry is dropped or superseded so watches do not outlive
// the entries that own them.
func (e *entry) release() {
	if e.trigger != nil {
		e.trigger.Release()
	}
}
