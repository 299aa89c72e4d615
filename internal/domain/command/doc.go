// Package command parses chat commands and dispatches them against the
// session coordinator.
//
// Verbs:
//   - start <code>: begin a session from a save code
//   - resume: begin a session from the latest stored snapshot
//   - screenshot: capture the rendered game
//   - details: report progress counters and trend
//   - backup: snapshot the save code on demand
//   - stop: read the final code and release the session
//
// Each command runs under one exclusive coordinator hold, so concurrent
// senders see strictly before-or-after results. Replies stream through
// a send callback while the command executes; errors return to the
// caller for rendering.
package command
