package predictor

import (
	"fmt"

	"github.com/hyperjump/mitsumori/internal/features"
	"github.com/hyperjump/mitsumori/internal/inference"
	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/internal/vector"
)

// Snapshot is everything the engine reads at query time. Its fields are not reassigned
// once published; the price cache synchronizes itself.
type Snapshot struct {
	PredictionSchema     features.Schema
	PredictionVocab      *features.Vocabularies
	Pricing              *inference.Pipeline
	RecommendationSchema features.Schema
	RecommendationVocab  *features.Vocabularies
	Scaler               *inference.Pipeline
	Index                *vector.Index

	prices *priceCache
}

// Close releases the inference sessions.
func (s *Snapshot) Close() error {
	err := s.Pricing.Close()
	if sErr := s.Scaler.Close(); sErr != nil && err == nil {
		err = sErr
	}
	return err
}

// Builder collects the loaded pieces of a Snapshot. Each setter writes a distinct
// field, so setters may run from different goroutines.
type Builder struct {
	predictionSchema     features.Schema
	predictionVocab      *features.Vocabularies
	pricing              *inference.Pipeline
	recommendationSchema features.Schema
	recommendationVocab  *features.Vocabularies
	scaler               inference.Transformer
	index                *vector.Index
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) PredictionSchema(s features.Schema) *Builder {
	b.predictionSchema = s
	return b
}

func (b *Builder) PredictionVocabularies(v *features.Vocabularies) *Builder {
	b.predictionVocab = v
	return b
}

// Pricing sets the scaler and regressor of the price model.
func (b *Builder) Pricing(scaler, model inference.Transformer) *Builder {
	b.pricing = &inference.Pipeline{Scaler: scaler, Model: model}
	return b
}

func (b *Builder) RecommendationSchema(s features.Schema) *Builder {
	b.recommendationSchema = s
	return b
}

func (b *Builder) RecommendationVocabularies(v *features.Vocabularies) *Builder {
	b.recommendationVocab = v
	return b
}

func (b *Builder) RecommendationScaler(t inference.Transformer) *Builder {
	b.scaler = t
	return b
}

func (b *Builder) Index(x *vector.Index) *Builder {
	b.index = x
	return b
}

// Build checks that every piece is present and that the recommendation schema matches
// the corpus matrix width.
func (b *Builder) Build() (*Snapshot, error) {
	switch {
	case len(b.predictionSchema) == 0:
		return nil, missing("prediction feature schema")
	case b.predictionVocab == nil:
		return nil, missing("prediction encoders")
	case b.pricing == nil || b.pricing.Scaler == nil || b.pricing.Model == nil:
		return nil, missing("prediction scaler or model")
	case len(b.recommendationSchema) == 0:
		return nil, missing("recommendation feature schema")
	case b.recommendationVocab == nil:
		return nil, missing("recommendation encoders")
	case b.scaler == nil:
		return nil, missing("recommendation scaler")
	case b.index == nil:
		return nil, missing("recommendation corpus")
	}
	if b.recommendationSchema.Width() != b.index.Width() {
		return nil, fmt.Errorf("%w: recommendation schema has %d features, corpus matrix has %d columns",
			models.ErrCorruptArtifact, b.recommendationSchema.Width(), b.index.Width())
	}
	return &Snapshot{
		PredictionSchema:     b.predictionSchema,
		PredictionVocab:      b.predictionVocab,
		Pricing:              b.pricing,
		RecommendationSchema: b.recommendationSchema,
		RecommendationVocab:  b.recommendationVocab,
		Scaler:               &inference.Pipeline{Scaler: b.scaler},
		Index:                b.index,
	}, nil
}

func missing(what string) error {
	return fmt.Errorf("%w: %s not loaded", models.ErrCorruptArtifact, what)
}
