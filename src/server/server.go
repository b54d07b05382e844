package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"signalscan/src/logger"
	"signalscan/src/models"
	"signalscan/src/vault"
)

// -----------------------------------------------------------------------------
// Control hooks the REST layer exposes. Implemented by the pipeline
// components; the server never imports them directly.
// -----------------------------------------------------------------------------

type ScanControl interface {
	ForceScan() error
}

type NewsControl interface {
	ForceRefresh() error
}

// ChannelState is the categorizer's live view consumed by the REST layer.
type ChannelState interface {
	Memberships() map[models.Channel][]string
	Records() map[string]models.EnrichedRecord
}

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

type Server struct {
	Config *models.Config
	Logger *logger.Logger
	Store  *vault.Store
	Scan   ScanControl
	News   NewsControl
	State  ChannelState

	engine *gin.Engine
	httpd  *http.Server

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan *models.HubMessage
	register   chan *Client
	unregister chan *Client

	clientsMu sync.RWMutex
	started   time.Time
	hubDone   chan struct{}
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

// NewServer builds the REST and websocket surface. The Scan, News, and
// State hooks are attached by the caller once the pipeline components
// exist, before Start is called.
func NewServer(cfg *models.Config, store *vault.Store) *Server {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		Config:  cfg,
		Logger:  logger.NewLogger("Server"),
		Store:   store,
		engine:  gin.New(),
		clients: make(map[*Client]struct{}),
		// Buffered queue so a burst of categorized events never blocks a scanner.
		broadcast:  make(chan *models.HubMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		hubDone:    make(chan struct{}),
	}
	s.engine.Use(gin.Recovery())

	// CORS for local dashboards only.
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/channels", s.getChannels)
	s.engine.GET("/api/news", s.getNews)
	s.engine.GET("/api/halts", s.getHalts)
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/config", s.getConfig)

	// Control endpoints
	s.engine.POST("/api/scan", s.postScan)
	s.engine.POST("/api/news/refresh", s.postNewsRefresh)
	s.engine.POST("/api/reset", s.postReset)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.started = time.Now()
	s.Logger.Info("Starting server on %s", addr)

	go s.handleWebsockets()

	s.httpd = &http.Server{Addr: addr, Handler: s.engine}
	if err := s.httpd.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *Server) Stop() error {
	close(s.hubDone)

	if s.httpd == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpd.Shutdown(ctx)
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *Server) getChannels(c *gin.Context) {
	c.JSON(200, gin.H{
		"channels": s.State.Memberships(),
		"records":  s.State.Records(),
	})
}

// -----------------------------------------------------------------------------

func (s *Server) getNews(c *gin.Context) {
	c.JSON(200, gin.H{
		"breaking": s.Store.LoadBreakingNews(),
		"general":  s.Store.LoadGeneralNews(),
	})
}

// -----------------------------------------------------------------------------

func (s *Server) getHalts(c *gin.Context) {
	c.JSON(200, gin.H{
		"active":  s.Store.LoadActiveHalts(),
		"history": s.Store.LoadHaltHistory(),
	})
}

// -----------------------------------------------------------------------------

func (s *Server) getHealth(c *gin.Context) {
	s.clientsMu.RLock()
	connections := len(s.clients)
	s.clientsMu.RUnlock()

	c.JSON(200, gin.H{
		"status":         "ok",
		"connections":    connections,
		"uptime_seconds": int(time.Since(s.started).Seconds()),
	})
}

// -----------------------------------------------------------------------------

// getConfig returns the non-secret scan settings.
func (s *Server) getConfig(c *gin.Context) {
	c.JSON(200, gin.H{
		"channel_rules": s.Config.Rules,
		"intervals": gin.H{
			"prefilter": s.Config.Scan.PrefilterInterval,
			"validator": s.Config.Scan.ValidatorInterval,
			"news":      s.Config.Scan.NewsInterval,
			"halts":     s.Config.Scan.HaltInterval,
		},
	})
}

// -----------------------------------------------------------------------------

func (s *Server) postScan(c *gin.Context) {
	if err := s.Scan.ForceScan(); err != nil {
		c.JSON(409, gin.H{"error": err.Error()})
		return
	}
	c.JSON(202, gin.H{"status": "scan triggered"})
}

// -----------------------------------------------------------------------------

func (s *Server) postNewsRefresh(c *gin.Context) {
	if err := s.News.ForceRefresh(); err != nil {
		c.JSON(409, gin.H{"error": err.Error()})
		return
	}
	c.JSON(202, gin.H{"status": "refresh triggered"})
}

// -----------------------------------------------------------------------------

func (s *Server) postReset(c *gin.Context) {
	if err := s.Store.ResetDaily(); err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"status": "daily reset complete"})
}
