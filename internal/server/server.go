package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/littlelittle-hq/newswire/internal/domain"
	"github.com/littlelittle-hq/newswire/internal/logger"
	"github.com/littlelittle-hq/newswire/internal/store"
	"github.com/littlelittle-hq/newswire/pkg/publishers"
)

// Pipeline runs one full aggregation. Satisfied by aggregate.Aggregator.
type Pipeline interface {
	Run(ctx context.Context) domain.AggregatedResult
}

// Server exposes the aggregation pipeline over HTTP. The news endpoint is
// called directly from browser clients, hence the permissive CORS policy.
type Server struct {
	agg   Pipeline
	store *store.Store
	pubs  []publishers.Publisher
	log   logger.Logger
}

// New builds a Server. store and pubs may be nil/empty.
func New(agg Pipeline, st *store.Store, pubs []publishers.Publisher, log logger.Logger) *Server {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Server{
		agg:   agg,
		store: st,
		pubs:  pubs,
		log:   log,
	}
}

// Router constructs the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api/news")
	api.POST("/aggregate", s.handleAggregate)
	api.GET("/status", s.handleStatus)

	return r
}

// corsMiddleware allows browser clients from any origin to call the API.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// aggregateRequest is the optional request body. The category hint is accepted
// for forward compatibility but does not narrow the pipeline: the full registry
// is always processed and filtering stays a client concern.
type aggregateRequest struct {
	Category string `json:"category"`
}

// handleAggregate runs one full aggregation and returns the payload. Both the
// success and the fallback outcome are HTTP 200: callers must inspect the
// success flag, not the status code.
func (s *Server) handleAggregate(c *gin.Context) {
	var req aggregateRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.Category != "" {
		s.log.DebugObj("category hint received", "aggregate_hint", map[string]any{
			"category": req.Category,
		})
	}

	resp := s.runPipeline(c.Request.Context())
	if resp.Success {
		c.Header("Cache-Control", "public, max-age=300")
	}
	c.JSON(http.StatusOK, resp)
}

// runPipeline executes the aggregation and converts a catastrophic failure in
// the merge stage into the fixed fallback payload. Per-feed failures never
// reach this recovery; they are absorbed inside the aggregator.
func (s *Server) runPipeline(ctx context.Context) (resp newsResponse) {
	defer func() {
		if r := recover(); r != nil {
			s.log.ErrorObj("aggregation pipeline failed", "aggregate_panic", map[string]any{
				"panic": fmt.Sprint(r),
			})
			resp = fallbackResponse(fmt.Sprintf("news aggregation failed: %v", r))
		}
	}()

	result := s.agg.Run(ctx)
	resp = successResponse(result)

	if len(s.pubs) > 0 {
		evt := digestEvent(result)
		go publishers.PublishAll(context.Background(), s.pubs, evt, s.log)
	}
	return resp
}

// handleHealth reports liveness.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleStatus reports per-feed fetch health from the local store.
func (s *Server) handleStatus(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}

	records, err := s.store.Snapshot()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": true, "feeds": records})
}
