// Package storage defines the persistence interface for prediction history.
package storage

import (
	"context"

	"github.com/hyperjump/mitsumori/internal/models"
)

// Storage defines prediction history operations.
type Storage interface {
	SavePrediction(ctx context.Context, rec *models.PredictionRecord) error
	GetPrediction(ctx context.Context, id string) (*models.PredictionRecord, error)
	ListPredictions(ctx context.Context, offset, limit int) ([]*models.PredictionRecord, error)
	CountPredictions(ctx context.Context) (int64, error)

	Close() error
}
