// Package inference runs pre-trained scaler and regression artifacts against feature vectors.
package inference

import (
	"context"
	"fmt"

	"github.com/hyperjump/mitsumori/internal/models"
)

// Transformer is one opaque pre-trained stage: a vector in, a vector out.
// Implementations must be safe for concurrent Transform calls.
type Transformer interface {
	Transform(ctx context.Context, input []float64) ([]float64, error)
	Close() error
}

// Format identifies how artifacts are stored on disk.
type Format string

const (
	// FormatONNX loads artifacts with ONNX Runtime. Requires CGO and the onnxruntime library.
	FormatONNX Format = "onnx"
	// FormatJSON loads linear artifacts (standard scaler, linear regressor) exported as JSON.
	FormatJSON Format = "json"
)

// Role tells the factory which kind of JSON artifact to expect.
type Role string

const (
	RoleScaler Role = "scaler"
	RoleModel  Role = "model"
)

// Options configures artifact loading.
type Options struct {
	InputName   string
	OutputName  string
	LibraryPath string
}

// NewTransformer loads the artifact at path. in is the expected input width; out the output
// width (1 for a regressor).
func NewTransformer(format Format, role Role, path string, in, out int, opts Options) (Transformer, error) {
	switch format {
	case FormatONNX, "":
		t, err := NewONNXTransformer(path, in, out, opts)
		if err != nil {
			return nil, err
		}
		return t, nil
	case FormatJSON:
		switch role {
		case RoleScaler:
			s, err := LoadStandardScaler(path, in)
			if err != nil {
				return nil, err
			}
			return s, nil
		case RoleModel:
			m, err := LoadLinearRegressor(path, in)
			if err != nil {
				return nil, err
			}
			return m, nil
		default:
			return nil, fmt.Errorf("unknown artifact role: %s", role)
		}
	default:
		return nil, fmt.Errorf("unknown artifact format: %s (supported: onnx, json)", format)
	}
}

func checkWidth(input []float64, want int) error {
	if len(input) != want {
		return fmt.Errorf("%w: input has %d features, stage expects %d", models.ErrInference, len(input), want)
	}
	return nil
}
