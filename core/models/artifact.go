package models

import "time"

// Artifact is the compiled output of a single view file. The cache treats it
// as an opaque immutable value: the same *Artifact is handed back to every
// caller until the entry that owns it is invalidated, so callers may compare
// artifacts by pointer to detect recompilation.
type Artifact struct {
	Source     string    `json:"source"`
	Program    any       `json:"-"`
	Checksum   uint64    `json:"checksum"`
	CompiledAt time.Time `json:"compiled_at"`
}

// CompileFunc turns a stat-ed source file into an artifact. Implementations
// must be safe to call more than once for the same file; the cache calls it
// at most once per GetOrAdd invocation and not at all on a valid hit.
type CompileFunc func(desc *Descriptor) (*Artifact, error)
