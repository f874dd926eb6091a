package features

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hyperjump/mitsumori/internal/models"
)

// Values holds named feature values for one request.
type Values map[string]float64

// Schema is the ordered list of feature names a scaler and model were fit with.
type Schema []string

// LoadSchema reads a JSON array of feature names.
func LoadSchema(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feature schema: %w", err)
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("%w: parse feature schema %s: %v", models.ErrCorruptArtifact, path, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: feature schema %s is empty", models.ErrCorruptArtifact, path)
	}
	return Schema(names), nil
}

// Width is the number of columns the schema produces.
func (s Schema) Width() int {
	return len(s)
}

// Assemble lays values out in schema order. Names the request did not produce become 0.
func (s Schema) Assemble(values Values) []float64 {
	vec := make([]float64, len(s))
	for i, name := range s {
		vec[i] = values[name]
	}
	return vec
}

// Missing returns the schema names values does not produce, in schema order.
func (s Schema) Missing(values Values) []string {
	var missing []string
	for _, name := range s {
		if _, ok := values[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
