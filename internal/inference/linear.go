package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hyperjump/mitsumori/internal/models"
)

// StandardScaler applies z = (x - mean) / scale per column. A zero scale leaves the
// centred value unscaled, matching scikit-learn's handling of constant columns.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// LoadStandardScaler reads {"mean": [...], "scale": [...]} and checks it has width columns.
func LoadStandardScaler(path string, width int) (*StandardScaler, error) {
	var s StandardScaler
	if err := readJSON(path, &s); err != nil {
		return nil, err
	}
	if len(s.Mean) != width || len(s.Scale) != width {
		return nil, fmt.Errorf("%w: scaler %s has %d means and %d scales, schema has %d features",
			models.ErrCorruptArtifact, path, len(s.Mean), len(s.Scale), width)
	}
	return &s, nil
}

// Transform standardizes input.
func (s *StandardScaler) Transform(_ context.Context, input []float64) ([]float64, error) {
	if err := checkWidth(input, len(s.Mean)); err != nil {
		return nil, err
	}
	out := make([]float64, len(input))
	for i, x := range input {
		out[i] = x - s.Mean[i]
		if s.Scale[i] != 0 {
			out[i] /= s.Scale[i]
		}
	}
	return out, nil
}

// Close is a no-op.
func (s *StandardScaler) Close() error {
	return nil
}

// LinearRegressor computes intercept + Σ coef_i·x_i.
type LinearRegressor struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

// LoadLinearRegressor reads {"coef": [...], "intercept": x} and checks it has width coefficients.
func LoadLinearRegressor(path string, width int) (*LinearRegressor, error) {
	var m LinearRegressor
	if err := readJSON(path, &m); err != nil {
		return nil, err
	}
	if len(m.Coef) != width {
		return nil, fmt.Errorf("%w: model %s has %d coefficients, schema has %d features",
			models.ErrCorruptArtifact, path, len(m.Coef), width)
	}
	return &m, nil
}

// Transform returns a single-element prediction.
func (m *LinearRegressor) Transform(_ context.Context, input []float64) ([]float64, error) {
	if err := checkWidth(input, len(m.Coef)); err != nil {
		return nil, err
	}
	y := m.Intercept
	for i, x := range input {
		y += m.Coef[i] * x
	}
	return []float64{y}, nil
}

// Close is a no-op.
func (m *LinearRegressor) Close() error {
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: parse %s: %v", models.ErrCorruptArtifact, path, err)
	}
	return nil
}
