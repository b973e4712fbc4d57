package cache

import (
	"fmt"

	"github.com/nholloway/viewmill/core/models"
	"github.com/nholloway/viewmill/core/paths"
)

// PrecompiledSet is the fixed path-to-artifact table supplied at cache
// construction. Views in the set bypass runtime compilation entirely and
// are never invalidated by file changes. The set is immutable once built
// and needs no locking.
type PrecompiledSet struct {
	artifacts map[string]*models.Artifact
}

// NewPrecompiledSet validates and normalizes the supplied table. Empty
// paths, nil artifacts, and paths that collide after normalization are
// construction-time errors, not lookup-time surprises.
func NewPrecompiledSet(views map[string]*models.Artifact) (*PrecompiledSet, error) {
	set := &PrecompiledSet{artifacts: make(map[string]*models.Artifact, len(views))}
	for path, artifact := range views {
		if path == "" {
			return nil, fmt.Errorf("precompiled set contains an empty path")
		}
		if artifact == nil {
			return nil, fmt.Errorf("precompiled set has no artifact for %s", path)
		}
		key := paths.Normalize(path)
		if _, dup := set.artifacts[key]; dup {
			return nil, fmt.Errorf("precompiled set has duplicate entries for %s", key)
		}
		set.artifacts[key] = artifact
	}
	return set, nil
}

// Lookup returns the fixed artifact for a normalized key.
func (s *PrecompiledSet) Lookup(key string) (*models.Artifact, bool) {
	if s == nil {
		return nil, false
	}
	artifact, ok := s.artifacts[key]
	return artifact, ok
}

// Len returns the number of precompiled views.
func (s *PrecompiledSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.artifacts)
}
