// Package http provides HTTP handlers for the warden REST surface.
//
// This package implements all HTTP endpoints using the Gin framework:
// health and status reporting, the backup store listing, one-shot
// command execution, and the data directory export.
//
// Endpoints:
//   - Health: / and /health
//   - Operations: /status, /backups
//   - Commands: /command (one-shot; /stream is the streaming variant)
//   - Export: /export (tar.gz of the data directory)
//
// Replies from /command mirror the websocket frames: progress messages
// arrive in order, attachments are base64 with a sniffed MIME type, and
// save codes appear only in /stop replies, never in listings.
//
// Example Usage:
//
//	handlers := http.NewHandlers(coord, dispatcher, profile, dataDir, logger)
//	router.GET("/health", handlers.Health)
//	router.POST("/command", handlers.RunCommand)
package http
