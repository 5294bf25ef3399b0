// Package server exposes the engine over HTTP.
//
// The front end is intentionally thin: it calls only RunQuery, the stats
// accessors, and the engine lifecycle. Nothing else in the core is reachable
// from here.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kartikbazzad/minipg/internal/config"
	"github.com/kartikbazzad/minipg/internal/engine"
)

type Server struct {
	cfg    *config.Config
	logger *zap.SugaredLogger
	engine *engine.Engine
	http   *http.Server
}

func New(cfg *config.Config, log *zap.SugaredLogger, eng *engine.Engine) *Server {
	s := &Server{cfg: cfg, logger: log, engine: eng}
	s.http = &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: s.Router(),
	}
	return s
}

// Router builds the gin handler; exposed separately so tests can drive it
// without a listener.
func (s *Server) Router() *gin.Engine {
	if !s.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/query", s.handleQuery)
	router.GET("/engine-status", s.handleStatus)
	router.GET("/stats/:table", s.handleStats)
	return router
}

// requestLogger tags each request with a uuid and logs the outcome.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Header("X-Request-ID", requestID)
		start := time.Now()

		c.Next()

		s.logger.Infow("request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

type queryRequest struct {
	Query string `json:"query" binding:"required"`
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"query\": \"...\"}"})
		return
	}

	status, rows := s.engine.RunQuery(req.Query)
	resp := gin.H{"status": status}
	if rows != nil {
		resp["rows"] = rows
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleStatus(c *gin.Context) {
	info, err := s.engine.Info()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) handleStats(c *gin.Context) {
	doc, err := s.engine.StatsDocument(c.Param("table"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", doc)
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	s.logger.Infof("HTTP server listening on %s", s.cfg.HTTP.Addr)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("HTTP server failed: %v", err)
		}
	}()
}

// Stop shuts the listener down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server stopping")
	return s.http.Shutdown(ctx)
}
