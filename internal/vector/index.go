// Package vector provides the house corpus index and exhaustive nearest-neighbour search.
package vector

import (
	"fmt"
	"sort"

	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/internal/npy"
)

// Entry pairs a corpus house with its scaled feature vector.
type Entry struct {
	House  models.House
	Vector []float64
}

// Neighbor is a single search hit. Index is the corpus row.
type Neighbor struct {
	Index    int
	Distance float64
}

// Index is an immutable corpus of houses and their vectors. Safe for concurrent reads.
type Index struct {
	width   int
	entries []Entry
}

// NewIndex pairs houses with the rows of m. The row count must equal the number of houses.
// Each house's ID is set to its row index.
func NewIndex(houses []models.House, m *npy.Array) (*Index, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: feature matrix is missing", models.ErrCorruptArtifact)
	}
	if m.Rows != len(houses) {
		return nil, fmt.Errorf("%w: feature matrix has %d rows, corpus has %d houses",
			models.ErrCorruptArtifact, m.Rows, len(houses))
	}
	if m.Cols <= 0 || len(m.Data) != m.Rows*m.Cols {
		return nil, fmt.Errorf("%w: feature matrix has invalid shape (%d, %d)",
			models.ErrCorruptArtifact, m.Rows, m.Cols)
	}
	entries := make([]Entry, len(houses))
	for i, h := range houses {
		h.ID = i
		vec := make([]float64, m.Cols)
		copy(vec, m.Row(i))
		entries[i] = Entry{House: h, Vector: vec}
	}
	return &Index{width: m.Cols, entries: entries}, nil
}

// Size returns the number of houses in the corpus.
func (x *Index) Size() int {
	if x == nil {
		return 0
	}
	return len(x.entries)
}

// Width returns the vector width.
func (x *Index) Width() int {
	return x.width
}

// Entry returns the house and vector at row i.
func (x *Index) Entry(i int) (Entry, error) {
	if i < 0 || i >= x.Size() {
		return Entry{}, fmt.Errorf("%w: house %d (corpus has %d houses)", models.ErrNotFound, i, x.Size())
	}
	return x.entries[i], nil
}

// Entries returns every corpus entry in row order. Callers must not modify it.
func (x *Index) Entries() []Entry {
	if x == nil {
		return nil
	}
	return x.entries
}

// KNearest returns the min(k, Size()) rows closest to query by Euclidean distance,
// nearest first. Ties keep ascending row order.
func (x *Index) KNearest(query []float64, k int) ([]Neighbor, error) {
	if len(query) != x.width {
		return nil, fmt.Errorf("%w: query has %d features, index has %d",
			models.ErrDimensionMismatch, len(query), x.width)
	}
	if k <= 0 || x.Size() == 0 {
		return []Neighbor{}, nil
	}
	scored := make([]Neighbor, len(x.entries))
	for i, e := range x.entries {
		d, err := EuclideanDistance(query, e.Vector)
		if err != nil {
			return nil, err
		}
		scored[i] = Neighbor{Index: i, Distance: d}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Distance < scored[j].Distance })
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}
