// Package server exposes a finished programme snapshot over HTTP, read-only:
// the engine runs offline, the viewer only serves its output.
package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/confplan/confplan/internal/models"
	"github.com/confplan/confplan/pkg/config"
	"github.com/confplan/confplan/pkg/logger"
)

// Server serves one loaded programme.
type Server struct {
	cfg     *config.Config
	log     *zap.Logger
	prog    *models.Program
	metrics *metrics
	engine  *gin.Engine
}

// New builds the router around the given programme snapshot.
func New(cfg *config.Config, log *zap.Logger, prog *models.Program) *Server {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	s := &Server{
		cfg:     cfg,
		log:     log,
		prog:    prog,
		metrics: newMetrics(reg),
	}
	s.metrics.observeProgram(prog.Metadata)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(log))
	r.Use(s.metrics.middleware())
	r.Use(corsMiddleware(cfg.Serve.AllowedOrigins))

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")
	{
		api.GET("/program", s.getProgram)
		api.GET("/program/metadata", s.getMetadata)
		api.GET("/program/days/:day", s.getDay)
	}

	s.engine = r
	return s
}

// Run blocks serving HTTP on the configured port.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.cfg.Serve.Port)
	s.log.Info("programme viewer listening", zap.String("addr", addr))
	return s.engine.Run(addr)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getProgram(c *gin.Context) {
	c.JSON(http.StatusOK, s.prog)
}

func (s *Server) getMetadata(c *gin.Context) {
	c.JSON(http.StatusOK, s.prog.Metadata)
}

func (s *Server) getDay(c *gin.Context) {
	want := c.Param("day")
	for _, day := range s.prog.Days {
		if fmt.Sprint(day.Day) == want {
			c.JSON(http.StatusOK, day)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "day not found"})
}

func corsMiddleware(allowed []string) gin.HandlerFunc {
	allowAll := len(allowed) == 0
	allowedSet := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
		}
		allowedSet[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowedSet[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
