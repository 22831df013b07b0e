// Package server exposes the retrieval engine over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orbitalbio/graphrag"
	"github.com/orbitalbio/graphrag/pkg/config"
	"github.com/orbitalbio/graphrag/pkg/server/handlers"
)

// Server represents the HTTP server
type Server struct {
	config *config.Config
	router *gin.Engine
	engine graphrag.GraphRAG
	server *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, engine graphrag.GraphRAG) *Server {
	return &Server{
		config: cfg,
		engine: engine,
	}
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	// Set gin mode
	gin.SetMode(s.config.Server.Mode)

	// Create router
	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())

	// Setup routes
	s.setupRoutes()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

// setupRoutes sets up all the routes
func (s *Server) setupRoutes() {
	// Create handlers
	healthHandler := handlers.NewHealthHandler(s.engine)
	queryHandler := handlers.NewQueryHandler(s.engine)
	ingestHandler := handlers.NewIngestHandler(s.engine)
	adminHandler := handlers.NewAdminHandler(s.engine)

	// Health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.LivenessCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/query", queryHandler.Query)
		v1.GET("/entity/:name/relationships", queryHandler.EntityRelationships)
		v1.GET("/entity/:name/network", queryHandler.EntityNetwork)

		ingest := v1.Group("/ingest")
		{
			ingest.POST("/documents", ingestHandler.AddDocuments)
			ingest.POST("/triples", ingestHandler.AddTriples)
		}

		admin := v1.Group("/admin")
		{
			admin.POST("/schema", adminHandler.InitializeSchema)
			admin.DELETE("/wipe", adminHandler.Wipe)
		}

		stats := v1.Group("/stats")
		{
			stats.GET("/graph", adminHandler.GraphStatistics)
			stats.GET("/vector", adminHandler.VectorStatistics)
		}
	}
}

// Start starts the server
func (s *Server) Start() error {
	fmt.Printf("Starting server on %s\n", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	fmt.Println("Stopping server...")
	return s.server.Shutdown(ctx)
}

// Handler returns the underlying HTTP handler, which tests use.
func (s *Server) Handler() http.Handler {
	return s.router
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
