// Package bridge exposes the radio state and command path over HTTP:
// JSON snapshot endpoints, command POSTs, and a live push stream for
// the dashboard.
package bridge

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/echo-gravitas/openhamclock/pkg/config"
	"github.com/echo-gravitas/openhamclock/pkg/logging"
	"github.com/echo-gravitas/openhamclock/pkg/protocol"
	"github.com/echo-gravitas/openhamclock/pkg/state"
)

// Sender is the slice of the transport the server needs.
type Sender interface {
	Send(frame []byte) bool
}

// Server handles the HTTP and push-stream side of the bridge.
type Server struct {
	cfg       *config.Config
	store     *state.Store
	codec     protocol.Codec
	transport Sender
	version   string

	engine *gin.Engine
	http   *http.Server
}

func NewServer(cfg *config.Config, store *state.Store, codec protocol.Codec, transport Sender, version string) *Server {
	s := &Server{
		cfg:       cfg,
		store:     store,
		codec:     codec,
		transport: transport,
		version:   version,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), corsMiddleware())

	router.GET("/", s.handleInfo)
	router.GET("/status", s.handleStatus)
	router.GET("/stream", s.handleStream)
	router.GET("/ws", s.handleWebSocket)
	router.POST("/freq", s.handleSetFrequency)
	router.POST("/mode", s.handleSetMode)
	router.POST("/ptt", s.handleSetPTT)

	s.engine = router
	return s
}

// corsMiddleware allows browser dashboards on any origin to reach the
// bridge; it trusts its local network boundary.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins serving on the configured address. Blocks until the
// listener fails or Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Web.BindAddress, s.cfg.Web.Port)
	s.http = &http.Server{Addr: addr, Handler: s.engine}

	logging.Infof("bridge", "listening on http://%s", addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server, waiting for in-flight requests up
// to the context deadline. Push-stream connections end when their
// clients are gone.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
