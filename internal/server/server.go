// Package server provides the HTTP API for mitsumori.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/mitsumori/internal/config"
	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/internal/storage"
)

// Engine answers prediction and recommendation queries. *predictor.Predictor implements it.
type Engine interface {
	PredictPrice(ctx context.Context, req *models.PredictionRequest) (*models.PredictionResult, error)
	RecommendByHouseID(ctx context.Context, id, limit int) (*models.RecommendationResult, error)
	RecommendByFeatures(ctx context.Context, req *models.RecommendationRequest) (*models.RecommendationResult, error)
	Health() models.Health
}

// Server is the HTTP server for the mitsumori API.
type Server struct {
	engine  Engine
	storage storage.Storage
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies. store may be nil, in which case
// predictions are not recorded and the history endpoints answer 501.
func NewServer(engine Engine, store storage.Storage, cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		engine:  engine,
		storage: store,
		config:  cfg,
		logger:  logger,
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/ml", func(r chi.Router) {
			r.Get("/health", s.handleMLHealth)
			r.Post("/predict", s.handlePredict)
			r.Post("/recommend", s.handleRecommendByFeatures)
			r.Get("/recommend/{houseId}", s.handleRecommendByID)
		})
		r.Get("/predictions", s.handleListPredictions)
		r.Get("/predictions/{id}", s.handleGetPrediction)
		r.Get("/status", s.handleStatus)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
