package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/internal/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMLHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"health":  s.engine.Health(),
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req models.PredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := s.engine.PredictPrice(r.Context(), &req)
	if err != nil {
		s.respondEngineError(w, "prediction failed", err)
		return
	}
	if s.storage != nil {
		rec := models.NewPredictionRecord(&req, result)
		rec.ID = uuid.NewString()
		if err := s.storage.SavePrediction(r.Context(), rec); err != nil {
			s.logger.Warn("failed to record prediction", zap.Error(err))
		} else {
			result.PredictionID = rec.ID
		}
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleRecommendByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "houseId"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid house id")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	s.logger.Debug("recommend by id request", zap.Int("house_id", id), zap.Int("limit", limit))
	result, err := s.engine.RecommendByHouseID(r.Context(), id, limit)
	if err != nil {
		s.respondEngineError(w, "recommendation failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleRecommendByFeatures(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := s.engine.RecommendByFeatures(r.Context(), &req)
	if err != nil {
		s.respondEngineError(w, "recommendation failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleListPredictions(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusNotImplemented, "prediction history not enabled")
		return
	}
	q := r.URL.Query()
	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	limit = models.ClampLimit(limit, defaultPageSize, maxPageSize)

	ctx := r.Context()
	recs, err := s.storage.ListPredictions(ctx, offset, limit)
	if err != nil {
		s.logger.Error("list predictions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.storage.CountPredictions(ctx)
	if err != nil {
		s.logger.Error("count predictions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"total":       total,
		"offset":      offset,
		"limit":       limit,
		"predictions": recs,
	})
}

func (s *Server) handleGetPrediction(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusNotImplemented, "prediction history not enabled")
		return
	}
	rec, err := s.storage.GetPrediction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondEngineError(w, "get prediction failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"prediction": rec,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := models.Status{Health: s.engine.Health()}
	if s.storage != nil {
		count, err := s.storage.CountPredictions(r.Context())
		if err != nil {
			s.logger.Error("status: count predictions failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		status.Predictions = &count
	}
	if s.config != nil {
		status.Config = &models.StatusConfig{
			ArtifactsDir:    s.config.Artifacts.Dir,
			ArtifactsFormat: s.config.Artifacts.Format,
			DatabasePath:    s.config.Storage.DatabasePath,
			DefaultLimit:    s.config.Engine.DefaultLimit,
			MaxLimit:        s.config.Engine.MaxLimit,
		}
		paths := append([]string{s.config.Artifacts.Dir}, storage.DatabaseFiles(s.config.Storage.DatabasePath)...)
		if diskBytes, err := storage.DiskUsageBytes(paths...); err == nil {
			status.DiskUsageBytes = &diskBytes
		} else {
			s.logger.Warn("status: disk usage failed", zap.Error(err))
		}
	}
	s.respondJSON(w, http.StatusOK, status)
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrModelNotLoaded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondEngineError(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, zap.Error(err))
	} else {
		s.logger.Debug(msg, zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]interface{}{"success": false, "error": message})
}
