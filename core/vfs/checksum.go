package vfs

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
)

// Checksum computes the xxhash-64 digest of a file's content, used to stamp
// artifacts with the source state they were compiled from.
func Checksum(p Provider, path string) (uint64, error) {
	f, err := p.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return h.Sum64(), nil
}
