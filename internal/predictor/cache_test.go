package predictor

import (
	"context"
	"math"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/mitsumori/internal/features"
	"github.com/hyperjump/mitsumori/internal/inference"
	"github.com/hyperjump/mitsumori/internal/models"
)

func TestPriceCache_GetSet(t *testing.T) {
	c := newPriceCache(2)
	if _, ok := c.Get([]float64{1}); ok {
		t.Fatal("expected miss")
	}
	c.Set([]float64{1}, 100)
	if v, ok := c.Get([]float64{1}); !ok || v != 100 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set([]float64{2}, 200)
	c.Get([]float64{1}) // 1 is now most recent
	c.Set([]float64{3}, 300)
	if _, ok := c.Get([]float64{2}); ok {
		t.Error("expected 2 to be evicted")
	}
	if _, ok := c.Get([]float64{1}); !ok {
		t.Error("expected 1 to remain")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d", c.Len())
	}
}

func TestPriceCache_KeyIsExact(t *testing.T) {
	c := newPriceCache(4)
	// Evaluated at run time: a constant 0.1 + 0.2 folds to exactly 0.3.
	a, b := 0.1, 0.2
	sum := a + b
	if math.Float64bits(sum) == math.Float64bits(0.3) {
		t.Fatalf("expected %v and 0.3 to differ in the last bit", sum)
	}
	c.Set([]float64{sum}, 1)
	if _, ok := c.Get([]float64{0.3}); ok {
		t.Error("different bit patterns must not collide")
	}
	if v, ok := c.Get([]float64{sum}); !ok || v != 1 {
		t.Errorf("Get(sum) = %v, %v", v, ok)
	}
	c.Set([]float64{1, 2}, 2)
	if _, ok := c.Get([]float64{1}); ok {
		t.Error("prefix must not match")
	}
}

func TestPriceCache_NilIsDisabled(t *testing.T) {
	c := newPriceCache(0)
	if c != nil {
		t.Fatal("capacity 0 should disable the cache")
	}
	c.Set([]float64{1}, 1)
	if _, ok := c.Get([]float64{1}); ok || c.Len() != 0 {
		t.Error("nil cache should never hit")
	}
}

func TestPredictPrice_UsesCache(t *testing.T) {
	var calls atomic.Int32
	model := inference.FuncTransformer(func([]float64) ([]float64, error) {
		calls.Add(1)
		return []float64{fixedPrice}, nil
	})
	base := testSnapshot(t, testHouses())
	snap, err := NewBuilder().
		PredictionSchema(features.Schema{"area", "rooms"}).
		PredictionVocabularies(base.PredictionVocab).
		Pricing(inference.Identity(), model).
		RecommendationSchema(base.RecommendationSchema).
		RecommendationVocabularies(base.RecommendationVocab).
		RecommendationScaler(scaleByHundred()).
		Index(base.Index).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	p := New(zap.NewNop(), Options{PriceCacheSize: 8})
	if err := p.Load(context.Background(), LoaderFunc(func(context.Context) (*Snapshot, error) {
		return snap, nil
	})); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		res, err := p.PredictPrice(ctx, &models.PredictionRequest{Area: models.Float(50)})
		if err != nil {
			t.Fatal(err)
		}
		if res.PredictedPrice != fixedPrice {
			t.Errorf("price = %v", res.PredictedPrice)
		}
	}
	// District is not in the schema, so it does not change the vector.
	if _, err := p.PredictPrice(ctx, &models.PredictionRequest{Area: models.Float(50), District: "Ba Dinh"}); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Errorf("model called %d times, want 1", calls.Load())
	}
	if _, err := p.PredictPrice(ctx, &models.PredictionRequest{Area: models.Float(60)}); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("model called %d times, want 2", calls.Load())
	}
}
