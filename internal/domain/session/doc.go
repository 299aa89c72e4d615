// Package session manages the lifecycle of a single game session and
// serializes every caller that wants to touch it.
//
// Components:
//   - Driver/Connector: the opaque automation handle and how to get one
//   - Session: inactive/active state machine around one driver
//   - Coordinator: mutex-guarded owner of the session and backup store
//
// Concurrency Model:
//
// The Session itself is not thread safe. The Coordinator is the only
// entry point for concurrent callers; WithSession admits exactly one
// closure at a time, and the lock is held for the closure's full
// duration including driver I/O. Progress samples live in a separate
// ring with its own lock so trend reads never queue behind a slow
// driver call.
//
// Example Usage:
//
//	coord := session.NewCoordinator(session.New(connector), store)
//	err := coord.WithSession(func(s *session.Session) error {
//		return s.Start(ctx, saveCode)
//	})
//	err = coord.BackupNow(ctx)
package session
