package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/mitsumori/internal/config"
	"github.com/hyperjump/mitsumori/internal/features"
	"github.com/hyperjump/mitsumori/internal/inference"
	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/internal/npy"
	"github.com/hyperjump/mitsumori/internal/vector"
)

// Loader produces a Snapshot.
type Loader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (*Snapshot, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context) (*Snapshot, error) {
	return f(ctx)
}

// FileLoader reads the artifacts named in cfg.
type FileLoader struct {
	artifacts config.ArtifactsConfig
	opts      inference.Options
	logger    *zap.Logger
}

// NewFileLoader returns a loader for the artifacts described by cfg.
func NewFileLoader(cfg *config.Config, logger *zap.Logger) *FileLoader {
	return &FileLoader{
		artifacts: cfg.Artifacts,
		opts: inference.Options{
			InputName:   cfg.ONNX.InputName,
			OutputName:  cfg.ONNX.OutputName,
			LibraryPath: cfg.Runtime.LibraryPath,
		},
		logger: logger,
	}
}

// Load reads metadata, corpus and matrix concurrently, then opens the scaler and model
// sessions, which need the schema widths. The first failure aborts the load.
func (l *FileLoader) Load(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	a := &l.artifacts
	l.logger.Info("loading artifacts", zap.String("dir", a.Dir), zap.String("format", a.Format))

	var (
		predSchema features.Schema
		predVocab  *features.Vocabularies
		recSchema  features.Schema
		recVocab   *features.Vocabularies
		houses     []models.House
		matrix     *npy.Array
	)
	g := new(errgroup.Group)
	g.Go(func() (err error) {
		predSchema, err = features.LoadSchema(a.Path(a.Prediction.Features))
		return err
	})
	g.Go(func() (err error) {
		predVocab, err = features.LoadVocabularies(a.Path(a.Prediction.Encoders))
		return err
	})
	g.Go(func() (err error) {
		recSchema, err = features.LoadSchema(a.Path(a.Recommendation.Features))
		return err
	})
	g.Go(func() (err error) {
		recVocab, err = features.LoadVocabularies(a.Path(a.Recommendation.Encoders))
		return err
	})
	g.Go(func() (err error) {
		houses, err = LoadHouses(a.Path(a.Recommendation.Houses))
		return err
	})
	g.Go(func() (err error) {
		matrix, err = npy.Load(a.Path(a.Recommendation.Matrix))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	index, err := vector.NewIndex(houses, matrix)
	if err != nil {
		return nil, err
	}

	format := inference.Format(a.Format)
	var predScaler, predModel, recScaler inference.Transformer
	g = new(errgroup.Group)
	g.Go(func() (err error) {
		predScaler, err = inference.NewTransformer(format, inference.RoleScaler,
			a.Path(a.Prediction.Scaler), predSchema.Width(), predSchema.Width(), l.opts)
		return err
	})
	g.Go(func() (err error) {
		predModel, err = inference.NewTransformer(format, inference.RoleModel,
			a.Path(a.Prediction.Model), predSchema.Width(), 1, l.opts)
		return err
	})
	g.Go(func() (err error) {
		recScaler, err = inference.NewTransformer(format, inference.RoleScaler,
			a.Path(a.Recommendation.Scaler), recSchema.Width(), recSchema.Width(), l.opts)
		return err
	})
	closeAll := func() {
		for _, t := range []inference.Transformer{predScaler, predModel, recScaler} {
			if t != nil {
				_ = t.Close()
			}
		}
	}
	if err := g.Wait(); err != nil {
		closeAll()
		return nil, err
	}

	snap, err := NewBuilder().
		PredictionSchema(predSchema).
		PredictionVocabularies(predVocab).
		Pricing(predScaler, predModel).
		RecommendationSchema(recSchema).
		RecommendationVocabularies(recVocab).
		RecommendationScaler(recScaler).
		Index(index).
		Build()
	if err != nil {
		closeAll()
		return nil, err
	}

	l.warnUnproduced("prediction", predSchema.Missing(features.PredictionFeatures(
		&models.PredictionRequest{Area: models.Float(1)}, predVocab)))
	l.warnUnproduced("recommendation", recSchema.Missing(features.RecommendationFeatures(
		&models.RecommendationRequest{Price: models.Float(1), Area: models.Float(1)}, recVocab)))

	l.logger.Info("artifacts loaded",
		zap.Int("prediction_features", predSchema.Width()),
		zap.Int("recommendation_features", recSchema.Width()),
		zap.Int("houses", index.Size()),
		zap.Duration("elapsed", time.Since(start)))
	return snap, nil
}

func (l *FileLoader) warnUnproduced(schema string, names []string) {
	if len(names) == 0 {
		return
	}
	l.logger.Warn("schema features not produced by the feature engineer, they will be 0",
		zap.String("schema", schema), zap.Strings("features", names))
}

// LoadHouses reads the corpus records. Bare NaN values are read as missing.
func LoadHouses(path string) ([]models.House, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	data = nullBareNaN(data)
	var houses []models.House
	if err := json.Unmarshal(data, &houses); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", models.ErrCorruptArtifact, path, err)
	}
	return houses, nil
}

var (
	nanToken  = []byte("NaN")
	nullToken = []byte("null")
)

// nullBareNaN rewrites the unquoted NaN and -NaN values pandas writes into JSON as null.
// String contents are copied untouched.
func nullBareNaN(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString, escaped := false, false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			out = append(out, c)
		case c == '-' && bytes.HasPrefix(data[i+1:], nanToken):
			out = append(out, nullToken...)
			i += len(nanToken)
		case bytes.HasPrefix(data[i:], nanToken):
			out = append(out, nullToken...)
			i += len(nanToken) - 1
		default:
			out = append(out, c)
		}
	}
	return out
}
