// Package main is the entry point for the GameWarden daemon.
//
// The daemon keeps an incremental browser game running unattended: it
// drives the game through a WebDriver endpoint, takes periodic save-code
// snapshots into a bounded on-disk store, and exposes the whole thing
// over a chat-style command gateway.
//
// Architecture:
//
//	Chat client (WebSocket /stream) → Command dispatcher → Session coordinator → Game driver (WebDriver or sim)
//	                                                      → Backup store (JSONL)
//
// The server provides:
//   - REST API for status, backups, one-shot commands, and export
//   - WebSocket streaming for interactive command sessions
//   - Scheduled save-code snapshots with FIFO eviction
//   - Prometheus metrics, rate limiting, optional token auth
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Against a local chromedriver
//	./wardend -port 8600 -driver-url http://localhost:9515
//
//	# Without a browser (simulated game, useful for development)
//	./wardend -driver sim -dev
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown with a final snapshot
package main
