package http

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/GameWarden/internal/domain/command"
	"github.com/GriffinCanCode/GameWarden/internal/domain/session"
	"github.com/GriffinCanCode/GameWarden/internal/game"
	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/export"
	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/logging"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	coord      *session.Coordinator
	dispatcher *command.Dispatcher
	profile    game.Profile
	dataDir    string
	log        *logging.Logger
	started    time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(
	coord *session.Coordinator,
	dispatcher *command.Dispatcher,
	profile game.Profile,
	dataDir string,
	log *logging.Logger,
) *Handlers {
	return &Handlers{
		coord:      coord,
		dispatcher: dispatcher,
		profile:    profile,
		dataDir:    dataDir,
		log:        log,
		started:    time.Now(),
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "GameWarden",
		"version": "0.1.0",
	})
}

// Health handles detailed health check. It reads only state guarded by
// the store's own lock, so a long-running command never blocks it.
func (h *Handlers) Health(c *gin.Context) {
	store := h.coord.Store()

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"profile": h.profile.Name,
		"store": gin.H{
			"snapshots": store.Len(),
			"capacity":  store.Capacity(),
		},
	})
}

// Status reports the full operational view: session state, backup store
// fill, and the fitted production trend. It takes the session lock, so
// it reflects completed operations only and waits out any command in
// flight.
func (h *Handlers) Status(c *gin.Context) {
	var active bool
	_ = h.coord.WithSession(func(s *session.Session) error {
		active = s.Active()
		return nil
	})

	store := h.coord.Store()
	storeInfo := gin.H{
		"snapshots": store.Len(),
		"capacity":  store.Capacity(),
	}
	if latest, ok := h.coord.LatestBackup(); ok {
		storeInfo["latest_saved_at"] = latest.SavedAt
	}

	perHour, samples := h.coord.Trend()

	c.JSON(http.StatusOK, gin.H{
		"session": gin.H{
			"active": active,
		},
		"profile":        h.profile.Name,
		"uptime_seconds": time.Since(h.started).Seconds(),
		"store":          storeInfo,
		"trend": gin.H{
			"per_hour": perHour,
			"samples":  samples,
		},
	})
}

// backupInfo is one store entry without its save code. Codes hold the
// entire game state and only leave the store through /stop.
type backupInfo struct {
	SavedAt   time.Time `json:"saved_at"`
	SizeBytes int       `json:"size_bytes"`
}

// ListBackups lists stored snapshots, newest last
func (h *Handlers) ListBackups(c *gin.Context) {
	entries := h.coord.Store().Entries()

	infos := make([]backupInfo, 0, len(entries))
	for _, snap := range entries {
		infos = append(infos, backupInfo{
			SavedAt:   snap.SavedAt,
			SizeBytes: len(snap.SaveCode),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"backups":  infos,
		"count":    len(infos),
		"capacity": h.coord.Store().Capacity(),
	})
}

// commandRequest is the body of POST /command.
type commandRequest struct {
	Text string `json:"text" binding:"required"`
}

type replyPayload struct {
	Text       string             `json:"text"`
	Pre        bool               `json:"pre,omitempty"`
	Attachment *attachmentPayload `json:"attachment,omitempty"`
}

type attachmentPayload struct {
	Name string `json:"name"`
	Mime string `json:"mime"`
	Data []byte `json:"data"`
}

// RunCommand executes one chat command and returns all replies it
// produced. Replies streamed before a failure are kept in the error
// response so progress messages are never lost.
func (h *Handlers) RunCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	replies := make([]replyPayload, 0, 2)
	err := h.dispatcher.Dispatch(c.Request.Context(), req.Text, func(r command.Reply) error {
		replies = append(replies, toPayload(r))
		return nil
	})
	if err != nil {
		c.JSON(commandStatus(err), gin.H{
			"error":   err.Error(),
			"replies": replies,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"replies": replies,
	})
}

func toPayload(r command.Reply) replyPayload {
	p := replyPayload{Text: r.Text, Pre: r.Pre}
	if r.Attachment != nil {
		p.Attachment = &attachmentPayload{
			Name: r.Attachment.Name,
			Mime: mimetype.Detect(r.Attachment.Data).String(),
			Data: r.Attachment.Data,
		}
	}
	return p
}

// commandStatus maps command outcomes onto HTTP status codes. State
// conflicts are client-resolvable, so they get a 409 rather than a 500.
func commandStatus(err error) int {
	switch {
	case errors.Is(err, command.ErrInvalidCommand):
		return http.StatusBadRequest
	case errors.Is(err, command.ErrInstanceNotStarted),
		errors.Is(err, command.ErrInstanceAlreadyStarted),
		errors.Is(err, command.ErrNoBackupsFound):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Export streams the data directory as a tar.gz archive
func (h *Handlers) Export(c *gin.Context) {
	if _, err := os.Stat(h.dataDir); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "data directory not found"})
		return
	}

	filename := "warden-data-" + time.Now().Format("20060102-150405") + ".tar.gz"
	c.Header("Content-Type", "application/gzip")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	stats, err := export.Archive(c.Request.Context(), h.dataDir, c.Writer)
	if err != nil {
		// Headers are already on the wire; all that is left is to cut
		// the stream and log what happened.
		h.log.Error("Data export failed", zap.Error(err))
		c.Abort()
		return
	}

	h.log.Info("Data exported",
		zap.Int("files", stats.Files),
		zap.Int64("bytes", stats.Bytes),
	)
}
