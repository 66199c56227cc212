package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/news-composer/internal/blocks"
	"github.com/news-composer/internal/config"
	"github.com/news-composer/internal/models"
	"github.com/news-composer/internal/service"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

// EditorHandler handles editing session endpoints
type EditorHandler struct {
	services *service.Services
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewEditorHandler creates a new EditorHandler
func NewEditorHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *EditorHandler {
	origins := cfg.Server.AllowedOrigins
	return &EditorHandler{
		services: services,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || matchOrigin(origins, origin) != ""
			},
		},
		log: log.With().Str("handler", "editor").Logger(),
	}
}

// Open handles POST /v1/editor/sessions
func (h *EditorHandler) Open(c *gin.Context) {
	var req models.OpenSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.services.Editor.Open(c.Request.Context(), req.ArticleID)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Get handles GET /v1/editor/sessions/:session_id
func (h *EditorHandler) Get(c *gin.Context) {
	view, err := h.services.Editor.Get(c.Param("session_id"))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Close handles DELETE /v1/editor/sessions/:session_id
func (h *EditorHandler) Close(c *gin.Context) {
	err := h.services.Editor.Close(c.Request.Context(), c.Param("session_id"))
	if errors.Is(err, service.ErrSessionNotFound) {
		writeServiceError(c, h.log, err)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("session_id", c.Param("session_id")).Msg("Session closed without saving")
		c.JSON(http.StatusBadGateway, gin.H{"error": "session closed but content could not be saved", "details": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// AddBlock handles POST /v1/editor/sessions/:session_id/blocks
func (h *EditorHandler) AddBlock(c *gin.Context) {
	var req models.AddBlockRequest
	if !bindJSON(c, &req) {
		return
	}

	sessionID := c.Param("session_id")
	block, added, err := h.services.Editor.AddBlock(sessionID, blocks.Type(req.Type))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	h.respond(c, status, sessionID, added, gin.H{"block": block})
}

// UpdateBlock handles PATCH /v1/editor/sessions/:session_id/blocks/:block_id
func (h *EditorHandler) UpdateBlock(c *gin.Context) {
	var req models.UpdateBlockRequest
	if !bindJSON(c, &req) {
		return
	}

	sessionID := c.Param("session_id")
	changed, err := h.services.Editor.UpdateBlock(sessionID, c.Param("block_id"), req.Data)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	h.respond(c, http.StatusOK, sessionID, changed, nil)
}

// RemoveBlock handles DELETE /v1/editor/sessions/:session_id/blocks/:block_id
func (h *EditorHandler) RemoveBlock(c *gin.Context) {
	sessionID := c.Param("session_id")
	changed, err := h.services.Editor.RemoveBlock(sessionID, c.Param("block_id"))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	h.respond(c, http.StatusOK, sessionID, changed, nil)
}

// DuplicateBlock handles POST /v1/editor/sessions/:session_id/blocks/:block_id/duplicate
func (h *EditorHandler) DuplicateBlock(c *gin.Context) {
	sessionID := c.Param("session_id")
	block, changed, err := h.services.Editor.DuplicateBlock(sessionID, c.Param("block_id"))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	status := http.StatusOK
	if changed {
		status = http.StatusCreated
	}
	h.respond(c, status, sessionID, changed, gin.H{"block": block})
}

// Reorder handles POST /v1/editor/sessions/:session_id/reorder
func (h *EditorHandler) Reorder(c *gin.Context) {
	var req models.ReorderRequest
	if !bindJSON(c, &req) {
		return
	}

	sessionID := c.Param("session_id")
	changed, err := h.services.Editor.Reorder(sessionID, *req.From, *req.To)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	h.respond(c, http.StatusOK, sessionID, changed, nil)
}

// Drag handles POST /v1/editor/sessions/:session_id/drag
func (h *EditorHandler) Drag(c *gin.Context) {
	var req models.DragEventRequest
	if !bindJSON(c, &req) {
		return
	}

	sessionID := c.Param("session_id")
	_, moved, err := h.services.Editor.Drag(sessionID, &req)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	h.respond(c, http.StatusOK, sessionID, moved, nil)
}

// Key handles POST /v1/editor/sessions/:session_id/keys
func (h *EditorHandler) Key(c *gin.Context) {
	var req models.KeyRequest
	if !bindJSON(c, &req) {
		return
	}

	sessionID := c.Param("session_id")
	moved, err := h.services.Editor.Key(sessionID, req.BlockID, req.Key)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	h.respond(c, http.StatusOK, sessionID, moved, nil)
}

// Preview handles GET /v1/editor/sessions/:session_id/preview
func (h *EditorHandler) Preview(c *gin.Context) {
	outputs, err := h.services.Editor.Preview(c.Param("session_id"))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocks": outputs})
}

// Forms handles GET /v1/editor/sessions/:session_id/forms
func (h *EditorHandler) Forms(c *gin.Context) {
	forms, err := h.services.Editor.Forms(c.Param("session_id"))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"forms": forms})
}

// Save handles POST /v1/editor/sessions/:session_id/save. Persistence failures
// are returned to the caller with the failed save status.
func (h *EditorHandler) Save(c *gin.Context) {
	status, err := h.services.Editor.Save(c.Request.Context(), c.Param("session_id"))
	if errors.Is(err, service.ErrSessionNotFound) {
		writeServiceError(c, h.log, err)
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to save content", "save": status})
		return
	}
	c.JSON(http.StatusOK, gin.H{"save": status})
}

// Stream handles GET /v1/editor/sessions/:session_id/ws. Every change to the
// session, and every carousel rotation, is pushed as a preview event.
func (h *EditorHandler) Stream(c *gin.Context) {
	sessionID := c.Param("session_id")
	events, cancel, err := h.services.Editor.Subscribe(sessionID)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to upgrade connection")
		return
	}
	defer conn.Close()

	// Initial snapshot so the client does not wait for the first change
	if outputs, err := h.services.Editor.Preview(sessionID); err == nil {
		view, _ := h.services.Editor.Get(sessionID)
		initial := models.PreviewEvent{Type: "preview", SessionID: sessionID, Blocks: outputs}
		if view != nil {
			initial.Save = view.Save
		}
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(initial); err != nil {
			return
		}
	}

	// The client sends nothing; reading only detects a closed connection
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.log.Debug().Err(err).Str("session_id", sessionID).Msg("Preview stream closed unexpectedly")
				}
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case event, ok := <-events:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

// respond writes a mutation result with the session state after it
func (h *EditorHandler) respond(c *gin.Context, status int, sessionID string, changed bool, extra gin.H) {
	view, err := h.services.Editor.Get(sessionID)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	body := gin.H{"changed": changed, "session": view}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}
