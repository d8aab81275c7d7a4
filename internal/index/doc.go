// Package index provides the in-memory scoring form of a persisted
// index: an immutable Snapshot with precomputed term weights, and a
// Handle that swaps fully built snapshots in atomically so concurrent
// readers never observe a partially written index.
package index
