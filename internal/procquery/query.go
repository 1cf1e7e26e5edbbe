// Package procquery is the narrow view of the OS process table used by the
// supervisor: liveness, tree kills, resource enumeration and image-name
// snapshots.
package procquery

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Info describes one entry of the process table.
type Info struct {
	PID       int       `json:"pid"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
	RSS       uint64    `json:"rss"`
}

// Query is implemented by System and by test fakes.
type Query interface {
	// IsAlive reports whether pid currently names a running process.
	IsAlive(pid int) bool
	// KillTree force-kills pid and all of its descendants.
	KillTree(pid int) error
	// KillByImageName force-kills every process whose image matches name.
	// An empty name is a no-op.
	KillByImageName(name string) error
	// ListProcesses enumerates processes with creation time and resident
	// memory. It returns an empty slice when enumeration fails.
	ListProcesses(ctx context.Context) []Info
	// SnapshotImageNames returns the lowercase image names currently
	// running, through a path that does not depend on ListProcesses.
	SnapshotImageNames(ctx context.Context) ImageSet
	// CanRank reports whether ListProcesses is usable on this host.
	CanRank() bool
}

// ImageSet is a set of lowercase process image names.
type ImageSet map[string]struct{}

// NewImageSet builds a set from names, lowercasing and trimming each one.
// Empty names are skipped.
func NewImageSet(names ...string) ImageSet {
	set := make(ImageSet, len(names))
	for _, name := range names {
		if n := NormalizeImage(name); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// NormalizeImage lowercases and trims an image name.
func NormalizeImage(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Has reports whether name (case-insensitive) is in the set.
func (s ImageSet) Has(name string) bool {
	_, ok := s[NormalizeImage(name)]
	return ok
}

// Len returns the number of names in the set.
func (s ImageSet) Len() int {
	return len(s)
}

// Union returns a new set holding the names of s and other.
func (s ImageSet) Union(other ImageSet) ImageSet {
	out := make(ImageSet, len(s)+len(other))
	for name := range s {
		out[name] = struct{}{}
	}
	for name := range other {
		out[name] = struct{}{}
	}
	return out
}

// Minus returns a new set holding the names of s that are not in other.
func (s ImageSet) Minus(other ImageSet) ImageSet {
	out := make(ImageSet)
	for name := range s {
		if _, ok := other[name]; !ok {
			out[name] = struct{}{}
		}
	}
	return out
}

// Names returns the names in sorted order.
func (s ImageSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
