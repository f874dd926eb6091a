package e2e

import (
	"context"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/mitsumori/internal/config"
	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/internal/predictor"
)

const e2eCorpusSize = 120

func loadPredictor(t *testing.T, corpus *Corpus) *predictor.Predictor {
	t.Helper()
	dir := t.TempDir()
	if err := corpus.WriteArtifacts(dir); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{Artifacts: config.ArtifactsConfig{Dir: dir, Format: "json"}}
	config.ApplyDefaults(cfg)

	p := predictor.New(zap.NewNop(), predictor.Options{DefaultLimit: cfg.Engine.DefaultLimit, MaxLimit: cfg.Engine.MaxLimit})
	if err := p.Load(context.Background(), predictor.NewFileLoader(cfg, zap.NewNop())); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestE2E_RecommendByFeaturesFindsSourceHouse(t *testing.T) {
	corpus := BuildCorpus(e2eCorpusSize)
	p := loadPredictor(t, corpus)
	ctx := context.Background()

	if len(corpus.TestCases) == 0 {
		t.Fatal("corpus has no query test cases")
	}
	for _, tc := range corpus.TestCases {
		req := *tc.Request
		req.NRecommendations = 5
		res, err := p.RecommendByFeatures(ctx, &req)
		if err != nil {
			t.Fatalf("%s: %v", tc.Description, err)
		}
		if len(res.Recommendations) != 5 {
			t.Fatalf("%s: got %d recommendations", tc.Description, len(res.Recommendations))
		}
		top := res.Recommendations[0]
		if top.HouseID != tc.ExpectedHouseID {
			t.Errorf("%s: top house = %d, want %d", tc.Description, top.HouseID, tc.ExpectedHouseID)
		}
		// Exact match plus the district bonus.
		if math.Abs(top.SimilarityScore-1.15) > 1e-9 {
			t.Errorf("%s: top score = %v, want 1.15", tc.Description, top.SimilarityScore)
		}
		for i := 1; i < len(res.Recommendations); i++ {
			if res.Recommendations[i].SimilarityScore > res.Recommendations[i-1].SimilarityScore {
				t.Errorf("%s: scores not descending at rank %d", tc.Description, i+1)
			}
		}
	}
}

func TestE2E_RecommendByHouseID(t *testing.T) {
	corpus := BuildCorpus(e2eCorpusSize)
	p := loadPredictor(t, corpus)
	ctx := context.Background()

	for _, id := range []int{0, 1, 59, e2eCorpusSize - 1} {
		res, err := p.RecommendByHouseID(ctx, id, 8)
		if err != nil {
			t.Fatalf("house %d: %v", id, err)
		}
		if res.OriginalHouseID == nil || *res.OriginalHouseID != id {
			t.Errorf("house %d: original id = %v", id, res.OriginalHouseID)
		}
		if len(res.Recommendations) != 8 {
			t.Fatalf("house %d: got %d recommendations", id, len(res.Recommendations))
		}
		for i, r := range res.Recommendations {
			if r.HouseID == id {
				t.Errorf("house %d: recommended itself", id)
			}
			if r.Rank != i+1 {
				t.Errorf("house %d: rank %d at position %d", id, r.Rank, i)
			}
			if r.SimilarityScore > 1 {
				t.Errorf("house %d: score %v above 1 without a district bonus", id, r.SimilarityScore)
			}
			if i > 0 && r.SimilarityScore > res.Recommendations[i-1].SimilarityScore {
				t.Errorf("house %d: scores not descending at rank %d", id, i+1)
			}
		}
	}

	if _, err := p.RecommendByHouseID(ctx, e2eCorpusSize, 5); err == nil {
		t.Error("expected not found for an id past the corpus")
	}
}

func TestE2E_PredictPrice(t *testing.T) {
	corpus := BuildCorpus(e2eCorpusSize)
	p := loadPredictor(t, corpus)

	res, err := p.PredictPrice(context.Background(), &models.PredictionRequest{
		Area:     models.Float(50),
		District: "Ba Dinh",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.PredictedPrice != 50*PricePerSquareMetre {
		t.Errorf("predicted price = %v", res.PredictedPrice)
	}
	if res.PricePerM2 != PricePerSquareMetre {
		t.Errorf("price per m2 = %v", res.PricePerM2)
	}
	if len(res.SimilarHouses) != 3 {
		t.Fatalf("got %d similar houses", len(res.SimilarHouses))
	}
	prevGap := -1.0
	for _, h := range res.SimilarHouses {
		if h.District != "Ba Dinh" {
			t.Errorf("similar house %d in %s, want Ba Dinh", h.ID, h.District)
		}
		gap := math.Abs(h.Area - 50)
		if gap > 30 {
			t.Errorf("similar house %d area %v outside ±30", h.ID, h.Area)
		}
		if gap < prevGap {
			t.Errorf("similar houses not ordered by area gap")
		}
		prevGap = gap
		if h.DistanceKm <= 0 {
			t.Errorf("similar house %d distance = %v", h.ID, h.DistanceKm)
		}
	}
}
