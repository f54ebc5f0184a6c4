//go:build linux

package ws

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/termstack/termstack/internal/id"
	"github.com/termstack/termstack/internal/logging"
	"github.com/termstack/termstack/internal/monitoring"
	"github.com/termstack/termstack/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the CORS layer and deployment
		// configuration, not per-connection here.
		return true
	},
}

// Message is a client-to-server control message.
type Message struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
	Rows uint16 `json:"rows,omitempty"`
	Cols uint16 `json:"cols,omitempty"`
}

// Handler attaches WebSocket connections to terminal sessions.
type Handler struct {
	sessions *session.Manager
	log      *logging.Logger
	metrics  *monitoring.Metrics
}

// NewHandler creates a new WebSocket handler. metrics may be nil.
func NewHandler(sessions *session.Manager, log *logging.Logger, metrics *monitoring.Metrics) *Handler {
	return &Handler{sessions: sessions, log: log, metrics: metrics}
}

// HandleConnection upgrades the request and streams the session
// identified by the :id route parameter.
func (h *Handler) HandleConnection(c *gin.Context) {
	sid := id.SessionID(c.Param("id"))

	// Validate before upgrading so a bad ID gets a proper HTTP status.
	if _, err := h.sessions.Get(sid); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}

	output, cancel, err := h.sessions.Attach(sid)
	if err != nil {
		h.sendJSON(conn, nil, gin.H{"type": "error", "error": err.Error()})
		return
	}
	defer cancel()

	// Replay whatever accumulated before this attachment.
	if backlog, err := h.sessions.Read(sid); err == nil && len(backlog) > 0 {
		conn.WriteMessage(websocket.BinaryMessage, backlog)
	}

	// Concurrent writers (output pump and control responses) must not
	// interleave frames.
	var writeMu sync.Mutex

	done := make(chan struct{})
	go h.pumpOutput(conn, &writeMu, sid, output, done)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			// Client went away: detach so the pump unblocks.
			cancel()
			break
		}
		if h.metrics != nil {
			h.metrics.WSMessages.WithLabelValues(msg.Type).Inc()
		}

		switch msg.Type {
		case "input":
			if err := h.sessions.Write(sid, []byte(msg.Data)); err != nil {
				h.sendJSON(conn, &writeMu, gin.H{"type": "error", "error": err.Error()})
			}
		case "resize":
			// Resize failures are the ignorable kind: the session may
			// be racing its own exit.
			h.sessions.Resize(sid, msg.Rows, msg.Cols)
		case "ping":
			h.sendJSON(conn, &writeMu, gin.H{"type": "pong"})
		default:
			h.sendJSON(conn, &writeMu, gin.H{"type": "error", "error": "unknown message type"})
		}
	}

	<-done
}

// pumpOutput forwards session output to the client until the stream
// ends, then reports the exit outcome.
func (h *Handler) pumpOutput(conn *websocket.Conn, writeMu *sync.Mutex, sid id.SessionID, output <-chan []byte, done chan<- struct{}) {
	defer close(done)

	for chunk := range output {
		writeMu.Lock()
		err := conn.WriteMessage(websocket.BinaryMessage, chunk)
		writeMu.Unlock()
		if err != nil {
			return
		}
	}

	// Stream closed: the child exited.
	exit := gin.H{"type": "exit"}
	if info, err := h.sessions.Get(sid); err == nil && info.Exit != nil {
		exit["code"] = info.Exit.Code
		exit["signaled"] = info.Exit.Signaled
		if info.Exit.Signaled {
			exit["signal"] = info.Exit.Signal
		}
	}
	h.sendJSON(conn, writeMu, exit)

	writeMu.Lock()
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
	writeMu.Unlock()
}

func (h *Handler) sendJSON(conn *websocket.Conn, writeMu *sync.Mutex, v any) {
	if writeMu != nil {
		writeMu.Lock()
		defer writeMu.Unlock()
	}
	if err := conn.WriteJSON(v); err != nil {
		h.log.Debug("websocket write failed", zap.Error(err))
	}
}
