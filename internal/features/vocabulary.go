// Package features turns raw house attributes into the fixed-order numeric vectors
// the pre-trained scaler and model expect.
package features

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hyperjump/mitsumori/internal/models"
)

// UnknownCategory is encoded in place of an empty categorical value.
const UnknownCategory = "Unknown"

// Vocabularies maps a categorical field to its ordered class list. A value's code is its
// position in the list. Immutable after load.
type Vocabularies struct {
	classes map[string][]string
	index   map[string]map[string]int
}

// NewVocabularies builds encoders from field → classes. The first occurrence of a class wins.
func NewVocabularies(classes map[string][]string) *Vocabularies {
	v := &Vocabularies{
		classes: make(map[string][]string, len(classes)),
		index:   make(map[string]map[string]int, len(classes)),
	}
	for field, list := range classes {
		v.classes[field] = append([]string(nil), list...)
		idx := make(map[string]int, len(list))
		for i, c := range list {
			if _, seen := idx[c]; !seen {
				idx[c] = i
			}
		}
		v.index[field] = idx
	}
	return v
}

// LoadVocabularies reads a label-encoder export shaped {"field": {"classes": [...]}}.
// An empty object is valid and encodes every value to 0.
func LoadVocabularies(path string) (*Vocabularies, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabularies: %w", err)
	}
	var raw map[string]struct {
		Classes []string `json:"classes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse vocabularies %s: %v", models.ErrCorruptArtifact, path, err)
	}
	classes := make(map[string][]string, len(raw))
	for field, enc := range raw {
		classes[field] = enc.Classes
	}
	return NewVocabularies(classes), nil
}

// Encode returns the code of value within field, or 0 when the field has no vocabulary
// or the value is not in it. It never fails.
func (v *Vocabularies) Encode(value, field string) int {
	if v == nil {
		return 0
	}
	idx, ok := v.index[field]
	if !ok {
		return 0
	}
	return idx[value]
}

// Fields returns the number of categorical fields with a vocabulary.
func (v *Vocabularies) Fields() int {
	if v == nil {
		return 0
	}
	return len(v.classes)
}

// encodeOrUnknown encodes value, substituting UnknownCategory when it is empty.
func (v *Vocabularies) encodeOrUnknown(value, field string) float64 {
	if value == "" {
		value = UnknownCategory
	}
	return float64(v.Encode(value, field))
}
