//go:build linux

package server

import (
	"net"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/termstack/termstack/internal/api/middleware"
	"github.com/termstack/termstack/internal/config"
	httpapi "github.com/termstack/termstack/internal/http"
	"github.com/termstack/termstack/internal/logging"
	"github.com/termstack/termstack/internal/monitoring"
	"github.com/termstack/termstack/internal/session"
	"github.com/termstack/termstack/internal/ws"
)

// Server wraps the HTTP router and its dependencies.
type Server struct {
	router   *gin.Engine
	sessions *session.Manager
	log      *logging.Logger
}

// New creates a server instance from configuration.
func New(cfg *config.Config, log *logging.Logger) *Server {
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := monitoring.NewMetrics()

	sessions := session.NewManager(session.Config{
		Shell:      cfg.Terminal.Shell,
		Rows:       cfg.Terminal.Rows,
		Cols:       cfg.Terminal.Cols,
		CellWidth:  cfg.Terminal.CellWidth,
		CellHeight: cfg.Terminal.CellHeight,
		BufferSize: cfg.Terminal.BufferSize,
	}, log.Named("session"), metrics)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(monitoring.Middleware(metrics))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := httpapi.NewHandlers(sessions)
	wsHandler := ws.NewHandler(sessions, log.Named("ws"), metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", func(c *gin.Context) {
		metrics.UpdateUptime()
		promhttp.Handler().ServeHTTP(c.Writer, c.Request)
	})

	router.POST("/sessions", handlers.CreateSession)
	router.GET("/sessions", handlers.ListSessions)
	router.GET("/sessions/:id", handlers.GetSession)
	router.DELETE("/sessions/:id", handlers.CloseSession)
	router.POST("/sessions/:id/resize", handlers.ResizeSession)
	router.POST("/sessions/:id/input", handlers.WriteSession)
	router.GET("/sessions/:id/output", handlers.ReadSession)
	router.GET("/sessions/:id/stream", wsHandler.HandleConnection)

	return &Server{
		router:   router,
		sessions: sessions,
		log:      log,
	}
}

// Run starts the server on host:port and blocks.
func (s *Server) Run(host, port string) error {
	addr := net.JoinHostPort(host, port)
	s.log.Sugar().Infof("listening on %s", addr)
	return s.router.Run(addr)
}

// Close force-kills all active sessions.
func (s *Server) Close() error {
	s.sessions.Shutdown()
	return nil
}
