//go:build linux

package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/termstack/termstack/internal/id"
	"github.com/termstack/termstack/internal/session"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	sessions *session.Manager
}

// NewHandlers creates a new handler set.
func NewHandlers(sessions *session.Manager) *Handlers {
	return &Handlers{sessions: sessions}
}

// Root reports service identity.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "termstack",
		"version": "0.3.0",
	})
}

// Health reports liveness plus the current session count.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"sessions": len(h.sessions.List()),
	})
}

// CreateSessionRequest is the POST /sessions body. All fields are
// optional; unset fields take the configured defaults.
type CreateSessionRequest struct {
	Shell      string            `json:"shell"`
	WorkingDir string            `json:"working_dir"`
	Rows       uint16            `json:"rows"`
	Cols       uint16            `json:"cols"`
	Env        map[string]string `json:"env"`
}

// CreateSession spawns a new terminal session.
func (h *Handlers) CreateSession(c *gin.Context) {
	// An empty body is a valid request: everything has defaults.
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	info, err := h.sessions.Create(session.CreateRequest{
		Shell:      req.Shell,
		WorkingDir: req.WorkingDir,
		Rows:       req.Rows,
		Cols:       req.Cols,
		Env:        req.Env,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, info)
}

// ListSessions returns all known sessions.
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.sessions.List()
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetSession returns one session's state.
func (h *Handlers) GetSession(c *gin.Context) {
	info, err := h.sessions.Get(id.SessionID(c.Param("id")))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// CloseSession kills a session's child (SIGHUP, or SIGKILL with
// ?force=true) and removes it from the inventory.
func (h *Handlers) CloseSession(c *gin.Context) {
	sid := id.SessionID(c.Param("id"))

	force := c.Query("force") == "true"
	if err := h.sessions.Kill(sid, force); err != nil {
		h.renderError(c, err)
		return
	}
	if err := h.sessions.Remove(sid); err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"closed": string(sid)})
}

// ResizeRequest is the POST /sessions/:id/resize body.
type ResizeRequest struct {
	Rows uint16 `json:"rows" binding:"required"`
	Cols uint16 `json:"cols" binding:"required"`
}

// ResizeSession applies new terminal geometry.
func (h *Handlers) ResizeSession(c *gin.Context) {
	var req ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessions.Resize(id.SessionID(c.Param("id")), req.Rows, req.Cols); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": req.Rows, "cols": req.Cols})
}

// WriteRequest is the POST /sessions/:id/input body.
type WriteRequest struct {
	Input string `json:"input" binding:"required"`
}

// WriteSession sends input bytes to a session's terminal.
func (h *Handlers) WriteSession(c *gin.Context) {
	var req WriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessions.Write(id.SessionID(c.Param("id")), []byte(req.Input)); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"written": len(req.Input)})
}

// ReadSession drains and returns a session's buffered output.
func (h *Handlers) ReadSession(c *gin.Context) {
	out, err := h.sessions.Read(id.SessionID(c.Param("id")))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"output": string(out),
		"length": len(out),
	})
}

func (h *Handlers) renderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrClosed):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
