package ui

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"querymind/app"
	"querymind/domain/core"
	"querymind/domain/result"
)

// Server exposes the reflection engine over HTTP: one endpoint to run a
// reflection, plus cache statistics and invalidation.
type Server struct {
	router  *gin.Engine
	service *app.ReflectionService
	schema  *result.Schema
	dataset core.DatasetID
}

// NewServer creates the web server for the reflection API
func NewServer(service *app.ReflectionService, schema *result.Schema, dataset core.DatasetID) *Server {
	s := &Server{
		router:  gin.Default(),
		service: service,
		schema:  schema,
		dataset: dataset,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.router.Group("/api")
	{
		api.POST("/reflect", s.handleReflect)
		api.GET("/cache/stats", s.handleCacheStats)
		api.POST("/cache/invalidate", s.handleCacheInvalidate)
	}
	s.router.GET("/health", s.handleHealth)
}

// Run starts the HTTP server on the given port
func (s *Server) Run(port string) error {
	addr := fmt.Sprintf(":%s", port)
	log.Printf("[Server] QueryMind reflection API listening on %s", addr)
	return s.router.Run(addr)
}

type reflectRequest struct {
	Question string `json:"question" binding:"required"`
}

func (s *Server) handleReflect(c *gin.Context) {
	var req reflectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	res, err := s.service.Run(c.Request.Context(), app.Request{
		Question: req.Question,
		Schema:   s.schema,
		Dataset:  s.dataset,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if core.IsExecutionError(err) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.CacheStats())
}

type invalidateRequest struct {
	Layer string `json:"layer"`
}

func (s *Server) handleCacheInvalidate(c *gin.Context) {
	var req invalidateRequest
	// Missing body or layer means "all".
	_ = c.ShouldBindJSON(&req)
	if req.Layer == "" {
		req.Layer = "all"
	}
	if err := s.service.InvalidateCache(req.Layer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invalidated": req.Layer})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
