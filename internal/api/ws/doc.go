// Package ws provides WebSocket handling for the streaming command
// surface.
//
// This package implements the /stream endpoint: clients send chat-style
// commands and receive the replies as they are produced, including
// progress messages that arrive before slow browser work finishes.
// Commands are dispatched concurrently per frame; serialization against
// the one game session happens in the coordinator, not here.
//
// Message Types (Client → Server):
//   - command: Run a chat command, optionally with a correlation id
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - system: Connection established
//   - reply: One command reply, in order, with optional attachment
//   - complete: Command finished successfully
//   - error: Command failed; message starts with "Error: "
//   - pong: Keep-alive answer
//
// Example Usage:
//
//	handler := ws.NewHandler(dispatcher, logger).WithMetrics(metrics)
//	router.GET("/stream", handler.HandleConnection)
package ws
