package server

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/maxcollombin/gn-rag-stack/internal/cache"
	"github.com/maxcollombin/gn-rag-stack/internal/model"
	"github.com/maxcollombin/gn-rag-stack/internal/rag"
)

// Server exposes the query API: retrieval, retrieval+generation and health.
type Server struct {
	engine       *rag.Engine
	orchestrator *rag.Orchestrator
	embeddings   *cache.Embeddings
	responses    *cache.Responses
	logger       *zap.Logger
}

func New(engine *rag.Engine, orchestrator *rag.Orchestrator, embeddings *cache.Embeddings, responses *cache.Responses, logger *zap.Logger) *Server {
	return &Server{
		engine:       engine,
		orchestrator: orchestrator,
		embeddings:   embeddings,
		responses:    responses,
		logger:       logger,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.POST("/rag", s.RAG)
	r.GET("/search", s.Search)
	r.GET("/search-fast", s.SearchFast)
	r.GET("/health", s.Health)

	return r
}

type RAGRequest struct {
	Query      string  `json:"query"`
	NumResults int     `json:"num_results"`
	MinScore   float64 `json:"min_score"`
}

type Performance struct {
	SearchTime     float64  `json:"search_time"`
	GenerationTime *float64 `json:"generation_time,omitempty"`
	TotalTime      float64  `json:"total_time"`
}

type RAGResponse struct {
	Query       string               `json:"query"`
	Response    string               `json:"response"`
	Sources     []model.SearchResult `json:"sources"`
	Status      string               `json:"status"`
	Performance Performance          `json:"performance"`
}

// RAG retrieves sources and synthesizes an answer. Generation failures
// degrade to partial_success; the sources are always returned once
// retrieval succeeded.
func (s *Server) RAG(c *gin.Context) {
	var req RAGRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query required"})
		return
	}
	if req.NumResults <= 0 {
		req.NumResults = rag.DefaultNumResults
	}

	start := time.Now()
	sources, err := s.engine.Search(c.Request.Context(), req.Query, req.NumResults, req.MinScore)
	if err != nil {
		s.searchError(c, err)
		return
	}
	searchTime := time.Since(start)

	generationStart := time.Now()
	answer := s.orchestrator.Answer(c.Request.Context(), req.Query, sources)
	generationTime := time.Since(generationStart)

	resp := RAGResponse{
		Query:    req.Query,
		Response: answer.Text,
		Sources:  sources,
		Status:   "success",
		Performance: Performance{
			SearchTime: roundSeconds(searchTime),
			TotalTime:  roundSeconds(time.Since(start)),
		},
	}
	if answer.Degraded {
		resp.Status = "partial_success"
	} else {
		gt := roundSeconds(generationTime)
		resp.Performance.GenerationTime = &gt
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) Search(c *gin.Context) {
	query := c.Query("query")
	numResults, _ := strconv.Atoi(c.DefaultQuery("num_results", "0"))
	minScore, _ := strconv.ParseFloat(c.DefaultQuery("min_score", "0"), 64)

	results, err := s.engine.Search(c.Request.Context(), query, numResults, minScore)
	if err != nil {
		s.searchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) SearchFast(c *gin.Context) {
	results, err := s.engine.SearchFast(c.Request.Context(), c.Query("query"))
	if err != nil {
		s.searchError(c, err)
		return
	}
	if results == nil {
		results = []model.Document{}
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"cache_stats": gin.H{
			"embedding_cache_size": s.embeddings.Len(),
			"response_cache_size":  s.responses.Len(),
		},
	})
}

func (s *Server) searchError(c *gin.Context, err error) {
	if errors.Is(err, rag.ErrEmptyQuery) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.logger.Error("search failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
