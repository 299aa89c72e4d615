package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/GameWarden/internal/domain/command"
	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/logging"
	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/monitoring"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// Frame is one inbound client message.
type Frame struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Text string `json:"text,omitempty"`
}

// Handler manages WebSocket connections for the command stream.
type Handler struct {
	dispatcher *command.Dispatcher
	log        *logging.Logger
	metrics    *monitoring.Metrics
	sanitizer  *bluemonday.Policy
}

// NewHandler creates a new WebSocket handler.
func NewHandler(dispatcher *command.Dispatcher, log *logging.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		log:        log,
		sanitizer:  bluemonday.StrictPolicy(),
	}
}

// WithMetrics adds metrics tracking to the handler.
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// client serializes writes to one connection. Commands run on their own
// goroutines and gorilla allows only a single concurrent writer.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) send(data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(data)
}

// HandleConnection handles WebSocket upgrade and messages. Each command
// frame is dispatched on its own goroutine so a slow driver operation
// never blocks the read loop; the coordinator serializes the session
// work itself.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	cl := &client{conn: conn}

	// In-flight commands are cancelled when the client goes away, then
	// waited out before the connection closes under them.
	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	if err := cl.send(map[string]interface{}{
		"type":      "system",
		"message":   "Connected to GameWarden",
		"timestamp": time.Now().Unix(),
	}); err != nil {
		h.log.Warn("WebSocket welcome failed", zap.Error(err))
		return
	}

	for {
		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("WebSocket read error", zap.Error(err))
			}
			break
		}

		if h.metrics != nil {
			h.metrics.RecordWSMessage("in", frame.Type)
		}

		switch frame.Type {
		case "command":
			id := frame.ID
			if id == "" {
				id = uuid.New().String()
			}
			wg.Add(1)
			go func(id, text string) {
				defer wg.Done()
				h.runCommand(ctx, cl, id, text)
			}(id, frame.Text)
		case "ping":
			_ = cl.send(map[string]interface{}{"type": "pong"})
		default:
			h.sendError(cl, "", "unknown message type")
		}
	}
}

func (h *Handler) runCommand(ctx context.Context, cl *client, id, text string) {
	err := h.dispatcher.Dispatch(ctx, text, func(r command.Reply) error {
		if h.metrics != nil {
			h.metrics.RecordWSMessage("out", "reply")
		}
		return cl.send(h.replyFrame(id, r))
	})
	if err != nil {
		h.sendError(cl, id, err.Error())
		return
	}

	_ = cl.send(map[string]interface{}{
		"type":      "complete",
		"id":        id,
		"timestamp": time.Now().Unix(),
	})
}

func (h *Handler) replyFrame(id string, r command.Reply) map[string]interface{} {
	frame := map[string]interface{}{
		"type":      "reply",
		"id":        id,
		"text":      r.Text,
		"timestamp": time.Now().Unix(),
	}
	if r.Pre {
		frame["pre"] = true
	}
	if r.Attachment != nil {
		frame["attachment"] = map[string]interface{}{
			"name": r.Attachment.Name,
			"mime": mimetype.Detect(r.Attachment.Data).String(),
			"data": r.Attachment.Data,
		}
	}
	return frame
}

// sendError reports a failed command. Error text can carry content from
// external systems (driver responses, script exceptions), so it is
// stripped of markup before clients render it. Reply text is never
// sanitized: save codes must round-trip byte for byte.
func (h *Handler) sendError(cl *client, id, msg string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage("out", "error")
	}

	frame := map[string]interface{}{
		"type":      "error",
		"message":   "Error: " + h.sanitizer.Sanitize(msg),
		"timestamp": time.Now().Unix(),
	}
	if id != "" {
		frame["id"] = id
	}
	_ = cl.send(frame)
}
