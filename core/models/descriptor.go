package models

import "time"

// Descriptor is the result of a successful existence probe on a source file.
type Descriptor struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}
