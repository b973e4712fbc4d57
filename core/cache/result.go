package cache

import "github.com/nholloway/viewmill/core/models"

type resultKind int

const (
	kindNotFound resultKind = iota
	kindFound
)

// Result is the outcome of a GetOrAdd call.
type Result struct {
	kind resultKind

	// Artifact is the compiled view. Nil for NotFound.
	Artifact *models.Artifact

	// FromCache reports whether the artifact was already available and no
	// compile work was performed for this call.
	FromCache bool
}

// NotFound is the shared sentinel returned for every path with no backing
// file. Callers branch on it by identity: res == cache.NotFound.
var NotFound = &Result{kind: kindNotFound}

func found(artifact *models.Artifact, fromCache bool) *Result {
	return &Result{kind: kindFound, Artifact: artifact, FromCache: fromCache}
}

// Found reports whether the result carries an artifact.
func (r *Result) Found() bool {
	return r.kind == kindFound
}
