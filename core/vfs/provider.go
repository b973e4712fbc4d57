package vfs

import (
	"io"

	"github.com/nholloway/viewmill/core/models"
)

// Trigger is a one-shot expiry flag bound to a set of watched paths. It
// starts out live and flips to expired when any watched path is created,
// written, renamed, or removed. The flag is monotonic: once expired a
// trigger never recovers and must be discarded and re-acquired.
// Release returns the trigger's watch resources to the provider. The cache
// releases a trigger whenever the entry owning it is dropped or superseded;
// the expiry flag keeps its value after release.
type Trigger interface {
	Expired() bool
	Release()
}

// Provider is the file-system collaborator the cache compiles against.
// Paths are logical, slash-separated, and relative to the provider's root.
type Provider interface {
	// Stat probes a file's existence. Absent files report an error
	// satisfying errors.Is(err, fs.ErrNotExist).
	Stat(path string) (*models.Descriptor, error)

	// Open returns the file's content for compilation.
	Open(path string) (io.ReadCloser, error)

	// Watch issues a single composite trigger covering every given path.
	// Paths that do not exist yet must still be covered: their later
	// creation expires the trigger.
	Watch(paths []string) (Trigger, error)
}
