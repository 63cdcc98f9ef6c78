package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/qrdrop/api/controllers"
	"github.com/moyoez/qrdrop/optical"
	"github.com/moyoez/qrdrop/store"
	"github.com/moyoez/qrdrop/tool"
	"github.com/moyoez/qrdrop/transfer"
)

const basePath = "/api/qrdrop/v1"

// Server is the local control API used by a UI layer to drive the store,
// the sender and the receiver.
type Server struct {
	listen string
	engine *gin.Engine
	server *http.Server
	mu     sync.RWMutex
}

// NewServer wires the controllers onto a gin engine.
func NewServer(listen string, st *store.Store, renderer *optical.Renderer, receiver *transfer.Receiver) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	files := controllers.NewFilesController(st, renderer)
	receive := controllers.NewReceiveController(receiver)

	v1 := engine.Group(basePath)
	{
		v1.GET("/files", files.HandleList)
		v1.POST("/files/:category", files.HandleUpload)
		v1.DELETE("/files/:category/:name", files.HandleDelete)
		v1.GET("/files/:category/:name/qr", files.HandleQRCode)

		v1.GET("/receive", receive.HandleState)
		v1.POST("/receive", receive.HandleReceive)
		v1.POST("/receive/reset", receive.HandleReset)
	}

	return &Server{listen: listen, engine: engine}
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks serving the API.
func (s *Server) Start() error {
	s.mu.Lock()
	s.server = &http.Server{
		Addr:    s.listen,
		Handler: s.engine,
	}
	srv := s.server
	s.mu.Unlock()

	tool.DefaultLogger.Infof("[API] Starting control API on http://%s%s", s.listen, basePath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("control API stopped: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		tool.DefaultLogger.Debugf("[API] %s %s -> %d", c.Request.Method, c.Request.URL.Path, c.Writer.Status())
	}
}
