package inference

import "context"

// FuncTransformer adapts a plain function to Transformer. Used as a fixed-function stage in tests.
type FuncTransformer func(input []float64) ([]float64, error)

// Transform calls f.
func (f FuncTransformer) Transform(_ context.Context, input []float64) ([]float64, error) {
	return f(input)
}

// Close is a no-op.
func (f FuncTransformer) Close() error {
	return nil
}

// Identity returns a stage that copies its input.
func Identity() FuncTransformer {
	return func(input []float64) ([]float64, error) {
		return append([]float64(nil), input...), nil
	}
}
