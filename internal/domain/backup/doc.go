// Package backup provides the bounded, durable snapshot log for GameWarden.
//
// A Snapshot is an immutable save-code capture; the Store keeps at most
// Capacity of them, oldest first, and persists every mutation before
// reporting success so a crash never loses an acknowledged snapshot.
//
// Persistence Layout:
//   - One JSON record per line (saved_at RFC3339, save_code opaque)
//   - Plain append while under capacity
//   - Atomic temp-file + rename rewrite when the bound evicts
//
// Concurrency:
//   - Store methods are safe for concurrent use; the Coordinator is the
//     only writer in practice, ops endpoints read concurrently.
//
// Example Usage:
//
//	store, err := backup.Load(cfg.Store.Path(), cfg.Store.Capacity)
//	err = store.Push(backup.NewSnapshot(code))
//	snap, ok := store.Latest()
package backup
