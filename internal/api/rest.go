// Package api provides the REST API handlers and server for Reelhouse.
// It exposes library scanning, asset generation, repair, playback progress
// and settings endpoints, plus real-time updates via WebSocket.
package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maszaen/reelhouse/internal/db"
	"github.com/maszaen/reelhouse/internal/eventbus"
	"github.com/maszaen/reelhouse/internal/logger"
	"github.com/maszaen/reelhouse/internal/metrics"
	"github.com/maszaen/reelhouse/internal/progress"
	"github.com/maszaen/reelhouse/internal/services"
)

type RESTServer struct {
	router     *gin.Engine
	httpServer *http.Server
	db         *sql.DB
	repo       *db.Repository
	eventBus   eventbus.Publisher
	library    *services.LibraryService
	generator  *services.GeneratorService
	repairer   *services.RepairService
	settings   *services.SettingsService
	progress   *progress.Store
	metrics    *metrics.MetricsService
	hub        *WebSocketHub
	startTime  time.Time
}

// ServerDeps contains all dependencies required for the REST server
type ServerDeps struct {
	DB         *sql.DB
	Repository *db.Repository
	EventBus   eventbus.Publisher
	Library    *services.LibraryService
	Generator  *services.GeneratorService
	Repairer   *services.RepairService
	Settings   *services.SettingsService
	Progress   *progress.Store
	Metrics    *metrics.MetricsService
}

func NewRESTServer(deps ServerDeps) *RESTServer {
	// Set Gin to release mode for production (suppresses debug warnings)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Request ID middleware for correlation/tracing
	r.Use(func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = fmt.Sprintf("%d-%d", time.Now().UnixNano(), c.Request.ContentLength)
		}
		c.Set("request_id", reqID)
		c.Header("X-Request-ID", reqID)
		c.Next()
	})

	// Custom recovery middleware with enhanced logging
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		reqID := c.GetString("request_id")
		logger.Errorf("[PANIC RECOVERY] request_id=%s path=%s method=%s error=%v",
			reqID, c.Request.URL.Path, c.Request.Method, recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":      ErrMsgInternalError,
			"request_id": reqID,
		})
	}))

	// CORS middleware - configurable via REELHOUSE_CORS_ORIGIN env var.
	// If not set, no CORS header is emitted and the browser enforces
	// same-origin. Set to "*" only for development.
	corsOrigins := os.Getenv("REELHOUSE_CORS_ORIGIN")
	allowedOrigins := make(map[string]bool)
	if corsOrigins != "" {
		for _, origin := range strings.Split(corsOrigins, ",") {
			allowedOrigins[strings.TrimSpace(origin)] = true
		}
	}

	r.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if corsOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" && allowedOrigins[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	s := &RESTServer{
		router:    r,
		db:        deps.DB,
		repo:      deps.Repository,
		eventBus:  deps.EventBus,
		library:   deps.Library,
		generator: deps.Generator,
		repairer:  deps.Repairer,
		settings:  deps.Settings,
		progress:  deps.Progress,
		metrics:   deps.Metrics,
		hub:       NewWebSocketHub(deps.EventBus),
		startTime: time.Now(),
	}

	s.setupRoutes()

	return s
}

func (s *RESTServer) setupRoutes() {
	// Prometheus metrics endpoint at root level (standard convention)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	s.router.GET("/", s.handleRoot)

	api := s.router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/system/info", s.handleSystemInfo)
		api.POST("/system/backup", s.handleBackup)
		api.GET("/events", s.handleEvents)

		api.POST("/scan", s.handleScan)
		api.GET("/movies", s.handleMovies)
		api.POST("/generate", s.handleGenerate)
		api.POST("/repair/:mode", s.handleRepair)

		api.GET("/playback", s.handlePlaybackGet)
		api.POST("/playback", s.handlePlaybackSave)
		api.DELETE("/playback", s.handlePlaybackClear)

		api.GET("/settings", s.handleSettingsGet)
		api.PUT("/settings", s.handleSettingsUpdate)

		api.GET("/ws", func(c *gin.Context) {
			s.hub.HandleConnection(c)
		})
	}
}

func (s *RESTServer) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *RESTServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
