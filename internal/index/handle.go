package index

import "sync/atomic"

// Handle publishes index snapshots to concurrent readers. Readers
// Load the current snapshot and keep using it for the duration of a
// query; a rebuild or append constructs a complete replacement and
// Swaps it in. No reader ever observes a partially built index.
type Handle struct {
	ptr atomic.Pointer[Snapshot]
}

// NewHandle creates a handle publishing the given snapshot.
// The snapshot may be nil if no index is loaded yet.
func NewHandle(s *Snapshot) *Handle {
	h := &Handle{}
	if s != nil {
		h.ptr.Store(s)
	}
	return h
}

// Load returns the current snapshot, or nil if none is published.
func (h *Handle) Load() *Snapshot {
	return h.ptr.Load()
}

// Swap publishes a fully built replacement snapshot.
func (h *Handle) Swap(s *Snapshot) {
	h.ptr.Store(s)
}
