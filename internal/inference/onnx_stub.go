//go:build !cgo
// +build !cgo

package inference

import (
	"context"
	"errors"
)

// ONNXTransformer stub type when built without CGO (see onnx.go for real implementation).
type ONNXTransformer struct{}

// NewONNXTransformer returns an error when built without CGO (ONNX not available).
func NewONNXTransformer(_ string, _, _ int, _ Options) (*ONNXTransformer, error) {
	return nil, errors.New("ONNX artifacts require CGO; build with CGO_ENABLED=1 and onnxruntime, or use artifacts.format: json")
}

// Transform is not available without CGO.
func (t *ONNXTransformer) Transform(_ context.Context, _ []float64) ([]float64, error) {
	return nil, errors.New("ONNX not available")
}

// Close is a no-op without CGO.
func (t *ONNXTransformer) Close() error {
	return nil
}
