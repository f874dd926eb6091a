// Package predictor is the engine facade: it owns the loaded artifacts and answers
// price prediction and recommendation queries.
package predictor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/mitsumori/internal/features"
	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/internal/validation"
	"github.com/hyperjump/mitsumori/pkg/utils"
)

const (
	defaultLimit = 5
	similarCount = 3

	confidenceLow  = 0.85
	confidenceHigh = 1.15
	districtBonus  = 0.15
	titleMaxRunes  = 100
)

// Options tunes query limits and the price cache. PriceCacheSize <= 0 disables the cache.
type Options struct {
	DefaultLimit   int
	MaxLimit       int
	PriceCacheSize int
}

// Predictor answers queries against a loaded Snapshot. All methods are safe for concurrent use.
type Predictor struct {
	state  atomic.Int32
	snap   atomic.Pointer[Snapshot]
	opts   Options
	logger *zap.Logger

	// mu orders publishing a loaded snapshot against Close.
	mu        sync.Mutex
	abandoned bool
}

// New returns an unloaded Predictor.
func New(logger *zap.Logger, opts Options) *Predictor {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = defaultLimit
	}
	return &Predictor{opts: opts, logger: logger}
}

// State returns the current load state.
func (p *Predictor) State() State {
	return State(p.state.Load())
}

// Load runs loader and publishes its snapshot. On failure the Predictor stays unloaded.
// A Close that arrives while the loader runs wins: the snapshot is released unpublished.
func (p *Predictor) Load(ctx context.Context, loader Loader) error {
	p.mu.Lock()
	if !p.state.CompareAndSwap(int32(StateUnloaded), int32(StateLoading)) {
		p.mu.Unlock()
		return fmt.Errorf("cannot load: predictor is %s", p.State())
	}
	p.abandoned = false
	p.mu.Unlock()

	start := time.Now()
	snap, err := loader.Load(ctx)
	if err != nil {
		p.state.Store(int32(StateUnloaded))
		p.logger.Error("failed to load models", zap.Error(err))
		return fmt.Errorf("failed to load models: %w", err)
	}

	p.mu.Lock()
	if p.abandoned {
		p.state.Store(int32(StateUnloaded))
		p.mu.Unlock()
		p.logger.Info("predictor closed during load, discarding models")
		if err := snap.Close(); err != nil {
			p.logger.Warn("failed to release discarded models", zap.Error(err))
		}
		return ErrClosed
	}
	snap.prices = newPriceCache(p.opts.PriceCacheSize)
	p.snap.Store(snap)
	p.state.Store(int32(StateReady))
	p.mu.Unlock()

	p.logger.Info("models ready",
		zap.Int("corpus_size", snap.Index.Size()),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// ErrClosed is returned by a Load whose Predictor was closed before the load finished.
var ErrClosed = errors.New("predictor closed during load")

// Close releases the inference sessions and returns the Predictor to unloaded. While a
// load is in flight it only marks that load to be discarded when it finishes.
func (p *Predictor) Close() error {
	p.mu.Lock()
	if p.State() == StateLoading {
		p.abandoned = true
		p.mu.Unlock()
		return nil
	}
	snap := p.snap.Swap(nil)
	p.state.Store(int32(StateUnloaded))
	p.mu.Unlock()
	if snap == nil {
		return nil
	}
	return snap.Close()
}

func (p *Predictor) snapshot() (*Snapshot, error) {
	if p.State() != StateReady {
		return nil, models.ErrModelNotLoaded
	}
	snap := p.snap.Load()
	if snap == nil {
		return nil, models.ErrModelNotLoaded
	}
	return snap, nil
}

// Health reports load state and corpus size.
func (p *Predictor) Health() models.Health {
	snap, err := p.snapshot()
	if err != nil {
		return models.Health{Status: "not loaded"}
	}
	return models.Health{
		Status:     "healthy",
		Loaded:     true,
		CorpusSize: snap.Index.Size(),
		Models: models.ModelStatus{
			Prediction:     snap.Pricing != nil,
			Recommendation: snap.Index != nil,
		},
	}
}

// PredictPrice estimates the price of the described house.
func (p *Predictor) PredictPrice(ctx context.Context, req *models.PredictionRequest) (*models.PredictionResult, error) {
	snap, err := p.snapshot()
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: empty request", models.ErrInvalidRequest)
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}

	vec := snap.PredictionSchema.Assemble(features.PredictionFeatures(req, snap.PredictionVocab))
	price, ok := snap.prices.Get(vec)
	if !ok {
		price, err = snap.Pricing.Predict(ctx, vec)
		if err != nil {
			return nil, p.logFailure("price prediction", err)
		}
		snap.prices.Set(vec, price)
	}

	area := *req.Area
	lat, lng := features.Coordinates(req.Lat, req.Lng)
	return &models.PredictionResult{
		Success:                true,
		PredictedPrice:         price,
		PredictedPriceBillions: billions(price),
		ConfidenceInterval: models.ConfidenceInterval{
			Lower: utils.Round(price * confidenceLow),
			Upper: utils.Round(price * confidenceHigh),
		},
		PricePerM2:    utils.Round(price / area),
		SimilarHouses: similarHouses(snap.Index, area, req.District, lat, lng, similarCount),
	}, nil
}

// logFailure logs dimension mismatches loudly; they mean the artifacts disagree.
func (p *Predictor) logFailure(op string, err error) error {
	if errors.Is(err, models.ErrDimensionMismatch) {
		p.logger.Error("vector width mismatch between artifacts", zap.String("operation", op), zap.Error(err))
	}
	return err
}

func billions(price float64) float64 {
	return utils.RoundTo(price/1e9, 2)
}
