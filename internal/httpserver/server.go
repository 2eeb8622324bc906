package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sitepulse/pulse/internal/beacon"
	"github.com/sitepulse/pulse/internal/i18n"
	"github.com/sitepulse/pulse/internal/localestore"
	"github.com/sitepulse/pulse/internal/model"
	"github.com/sitepulse/pulse/internal/monitor"
)

// QueryStore is the narrow store contract required by the HTTP API.
type QueryStore interface {
	model.SchemaQuerier
	TotalSnapshotCount(opts model.QueryOpts) (int64, error)
	RecentSnapshots(limit int, opts model.QueryOpts) ([]model.VitalsSnapshot, error)
}

// BaselineLister exposes the stored baselines for the API.
type BaselineLister interface {
	All() []model.Baseline
}

// DetectionLog records and reads back locale-detection events.
type DetectionLog interface {
	Append(record model.LocaleDetectionRecord) localestore.Result
	History() (model.DetectionHistory, error)
}

// Deps bundles the subsystems the API surfaces.
type Deps struct {
	Processor beacon.EnvelopeProcessor
	Monitor   *monitor.Manager
	Baselines BaselineLister
	Resolver  *i18n.Resolver
	Validator *i18n.Validator
	History   DetectionLog
}

// Server provides the HTTP API for beacon ingestion, monitoring, and i18n.
type Server struct {
	addr      string
	store     QueryStore
	deps      Deps
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, store QueryStore, deps Deps) *Server {
	if addr == "" {
		addr = "0.0.0.0:3000"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		store:  store,
		deps:   deps,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	s.registerRoutes(r)

	s.server = &http.Server{
		Handler:           r,
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/api/health", s.handleHealth)
	r.POST("/api/beacon", s.handleBeacon)
	r.POST("/api/monitor/run", s.handleMonitorRun)
	r.GET("/api/monitor/summary", s.handleMonitorSummary)
	r.GET("/api/baselines", s.handleBaselines)
	r.GET("/api/i18n/config", s.handleI18nConfig)
	r.GET("/api/i18n/validate", s.handleI18nValidate)
	r.GET("/api/i18n/history", s.handleI18nHistory)
	r.GET("/api/schema", s.handleSchema)
	r.POST("/api/query", s.handleQuery)
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	sampleCount, err := s.store.TotalSnapshotCount(model.QueryOpts{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read health metrics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"uptime":       time.Since(s.startTime).String(),
		"sample_count": sampleCount,
	})
}
