// Package quarantine tracks block roots fork choice or the DAG referenced
// but does not yet have the body for, so the sync layer knows what to
// backfill. The pool only ever appends to it.
package quarantine

import (
	"sync"

	"github.com/prysmaticlabs/attestationpool/primitives"
)

// Quarantine is an append-only set of roots known to be missing.
type Quarantine interface {
	AddMissing(root primitives.Root)
}

// Set is a simple in-memory Quarantine.
type Set struct {
	mu    sync.Mutex
	roots map[primitives.Root]struct{}
}

// NewSet returns an empty Quarantine.
func NewSet() *Set {
	return &Set{roots: make(map[primitives.Root]struct{})}
}

// AddMissing records root as missing.
func (s *Set) AddMissing(root primitives.Root) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roots[root] = struct{}{}
}

// Missing returns every root currently quarantined.
func (s *Set) Missing() []primitives.Root {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]primitives.Root, 0, len(s.roots))
	for r := range s.roots {
		out = append(out, r)
	}
	return out
}
