package inference

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/mitsumori/internal/models"
)

// Pipeline runs a scaler stage and, optionally, a model stage.
type Pipeline struct {
	Scaler Transformer
	Model  Transformer
}

// Predict scales input, runs the model and returns its first output value.
func (p *Pipeline) Predict(ctx context.Context, input []float64) (float64, error) {
	if p == nil || p.Scaler == nil || p.Model == nil {
		return 0, models.ErrModelNotLoaded
	}
	scaled, err := p.Scaler.Transform(ctx, input)
	if err != nil {
		return 0, wrapStage("scaler", err)
	}
	out, err := p.Model.Transform(ctx, scaled)
	if err != nil {
		return 0, wrapStage("model", err)
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("%w: model produced no output", models.ErrInference)
	}
	return out[0], nil
}

// Scale runs only the scaler. The output must have the same width as the input.
func (p *Pipeline) Scale(ctx context.Context, input []float64) ([]float64, error) {
	if p == nil || p.Scaler == nil {
		return nil, models.ErrModelNotLoaded
	}
	scaled, err := p.Scaler.Transform(ctx, input)
	if err != nil {
		return nil, wrapStage("scaler", err)
	}
	if len(scaled) != len(input) {
		return nil, fmt.Errorf("%w: scaler returned %d values for %d inputs", models.ErrInference, len(scaled), len(input))
	}
	return scaled, nil
}

// Close releases both stages.
func (p *Pipeline) Close() error {
	if p == nil {
		return nil
	}
	var err error
	if p.Scaler != nil {
		err = p.Scaler.Close()
	}
	if p.Model != nil {
		if mErr := p.Model.Close(); mErr != nil && err == nil {
			err = mErr
		}
	}
	return err
}

func wrapStage(stage string, err error) error {
	return fmt.Errorf("%s stage: %w", stage, asInference(err))
}

// asInference makes sure stage failures always match models.ErrInference.
func asInference(err error) error {
	if errors.Is(err, models.ErrInference) {
		return err
	}
	return fmt.Errorf("%w: %v", models.ErrInference, err)
}
