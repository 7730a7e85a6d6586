package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cognicore/triage/pkg/triage/dashboard"
	"github.com/cognicore/triage/pkg/triage/inference"
	"github.com/cognicore/triage/pkg/triage/internalerr"
	"github.com/cognicore/triage/pkg/triage/labels"
)

// Classifier is the query-side dependency of the server.
type Classifier interface {
	Classify(ctx context.Context, query string) (inference.Result, error)
	Schema() labels.Schema
}

// Server exposes classification and dashboard data over HTTP. Everything it
// serves is built before NewServer and only read afterwards.
type Server struct {
	router     *gin.Engine
	classifier Classifier
	stats      dashboard.Stats
	charts     []dashboard.Chart
	logger     *zap.Logger
}

// NewServer wires routes around a classifier and a precomputed dashboard.
func NewServer(classifier Classifier, stats dashboard.Stats, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(requestID(), accessLog(logger), gin.Recovery())

	s := &Server{
		router:     router,
		classifier: classifier,
		stats:      stats,
		charts:     stats.Charts(),
		logger:     logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Ping route for health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	s.router.GET("/go", s.classify)

	api := s.router.Group("/api")
	api.GET("/dashboard", s.getDashboard)
	api.GET("/schema", s.getSchema)
}

type classifyResponse struct {
	Query  string         `json:"query"`
	Labels []labels.Label `json:"classification_result"`
}

// classify handles GET /go?query=...
func (s *Server) classify(c *gin.Context) {
	query := c.Query("query")

	res, err := s.classifier.Classify(c.Request.Context(), query)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, internalerr.ErrSchemaDrift) {
			status = http.StatusInternalServerError
		}
		s.logger.Error("classification failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err))
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	out := classifyResponse{Query: query, Labels: res.Labels}
	if out.Labels == nil {
		out.Labels = []labels.Label{}
	}
	c.JSON(http.StatusOK, out)
}

// getDashboard handles GET /api/dashboard
func (s *Server) getDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"total_rows": s.stats.TotalRows,
		"charts":     s.charts,
	})
}

// getSchema handles GET /api/schema
func (s *Server) getSchema(c *gin.Context) {
	sc := s.classifier.Schema()
	c.JSON(http.StatusOK, gin.H{
		"categories":  sc.Names(),
		"fingerprint": sc.Fingerprint(),
	})
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
