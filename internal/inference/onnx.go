//go:build cgo
// +build cgo

package inference

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/mitsumori/internal/models"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	defaultInputName  = "float_input"
	defaultOutputName = "variable"
)

var envMu sync.Mutex

// initEnvironment initializes ONNX Runtime once per process.
func initEnvironment(libraryPath string) error {
	envMu.Lock()
	defer envMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}
	return nil
}

// ONNXTransformer runs a single-input, single-output ONNX graph on [1, in] float32 tensors.
// Tensors are allocated per call, so concurrent Transform calls share nothing mutable.
type ONNXTransformer struct {
	session *ort.DynamicAdvancedSession
	path    string
	in      int
	out     int
}

// NewONNXTransformer opens the ONNX artifact at path.
func NewONNXTransformer(path string, in, out int, opts Options) (*ONNXTransformer, error) {
	if in <= 0 || out <= 0 {
		return nil, fmt.Errorf("invalid tensor widths in=%d out=%d", in, out)
	}
	if err := initEnvironment(opts.LibraryPath); err != nil {
		return nil, err
	}
	inputName := opts.InputName
	if inputName == "" {
		inputName = defaultInputName
	}
	outputName := opts.OutputName
	if outputName == "" {
		outputName = defaultOutputName
	}
	session, err := ort.NewDynamicAdvancedSession(path, []string{inputName}, []string{outputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create ONNX session for %s: %v", models.ErrCorruptArtifact, path, err)
	}
	return &ONNXTransformer{session: session, path: path, in: in, out: out}, nil
}

// Transform runs the graph on input.
func (t *ONNXTransformer) Transform(ctx context.Context, input []float64) ([]float64, error) {
	if err := checkWidth(input, t.in); err != nil {
		return nil, err
	}
	data := make([]float32, len(input))
	for i, v := range input {
		data[i] = float32(v)
	}
	inputTensor, err := ort.NewTensor(ort.NewShape(1, int64(t.in)), data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create input tensor: %v", models.ErrInference, err)
	}
	defer inputTensor.Destroy()
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(t.out)))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create output tensor: %v", models.ErrInference, err)
	}
	defer outputTensor.Destroy()

	if err := t.session.Run([]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor}); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrInference, t.path, err)
	}

	raw := outputTensor.GetData()
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = float64(v)
	}
	return out, nil
}

// Close destroys the session.
func (t *ONNXTransformer) Close() error {
	if t.session == nil {
		return nil
	}
	err := t.session.Destroy()
	t.session = nil
	return err
}
