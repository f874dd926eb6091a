// Package integration exercises the HTTP API against real artifacts and storage.
package integration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/mitsumori/internal/cli"
	"github.com/hyperjump/mitsumori/internal/config"
	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/internal/predictor"
	"github.com/hyperjump/mitsumori/internal/server"
	"github.com/hyperjump/mitsumori/internal/storage"
	"github.com/hyperjump/mitsumori/test/e2e"
)

func TestIntegration_API(t *testing.T) {
	dir := t.TempDir()
	corpus := e2e.BuildCorpus(60)
	if err := corpus.WriteArtifacts(dir); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		Storage:   config.StorageConfig{DatabasePath: filepath.Join(dir, "db", "predictions.db")},
		Artifacts: config.ArtifactsConfig{Dir: dir, Format: "json"},
	}
	config.ApplyDefaults(cfg)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	p := predictor.New(zap.NewNop(), predictor.Options{DefaultLimit: cfg.Engine.DefaultLimit, MaxLimit: cfg.Engine.MaxLimit})
	defer p.Close()

	ts := httptest.NewServer(server.NewServer(p, store, cfg, zap.NewNop()).Router())
	defer ts.Close()
	client := cli.NewClient(ts.URL)
	ctx := context.Background()

	// Before the load completes every engine route answers 503.
	if _, err := client.Predict(ctx, &models.PredictionRequest{Area: models.Float(50)}); !errors.Is(err, models.ErrModelNotLoaded) {
		t.Fatalf("predict before load: err = %v, want ErrModelNotLoaded", err)
	}

	if err := p.Load(ctx, predictor.NewFileLoader(cfg, zap.NewNop())); err != nil {
		t.Fatal(err)
	}

	pred, err := client.Predict(ctx, &models.PredictionRequest{Area: models.Float(45), District: "Cau Giay"})
	if err != nil {
		t.Fatal(err)
	}
	if pred.PredictedPrice != 45*e2e.PricePerSquareMetre || pred.PredictionID == "" {
		t.Errorf("prediction = %+v", pred)
	}

	rec, err := store.GetPrediction(ctx, pred.PredictionID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Area != 45 || rec.District != "Cau Giay" {
		t.Errorf("stored record = %+v", rec)
	}

	byID, err := client.RecommendByHouseID(ctx, 10, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(byID.Recommendations) != 4 {
		t.Errorf("got %d recommendations", len(byID.Recommendations))
	}

	tc := corpus.TestCases[2]
	byFeatures, err := client.RecommendByFeatures(ctx, tc.Request)
	if err != nil {
		t.Fatal(err)
	}
	if len(byFeatures.Recommendations) != cfg.Engine.DefaultLimit {
		t.Errorf("got %d recommendations, want the default %d", len(byFeatures.Recommendations), cfg.Engine.DefaultLimit)
	}
	if byFeatures.Recommendations[0].HouseID != tc.ExpectedHouseID {
		t.Errorf("top house = %d, want %d", byFeatures.Recommendations[0].HouseID, tc.ExpectedHouseID)
	}

	if _, err := client.RecommendByHouseID(ctx, 10, cfg.Engine.MaxLimit+1); !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("limit above max_limit: err = %v, want ErrInvalidRequest", err)
	}
	if _, err := client.RecommendByHouseID(ctx, 60, 4); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown house: err = %v, want ErrNotFound", err)
	}
	if _, err := client.RecommendByFeatures(ctx, &models.RecommendationRequest{Area: models.Float(50)}); !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("missing price: err = %v, want ErrInvalidRequest", err)
	}

	st, err := client.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !st.Health.Loaded || st.Health.CorpusSize != 60 {
		t.Errorf("health = %+v", st.Health)
	}
	if st.Predictions == nil || *st.Predictions != 1 {
		t.Errorf("predictions = %v", st.Predictions)
	}
	if st.DiskUsageBytes == nil || *st.DiskUsageBytes <= 0 {
		t.Errorf("disk usage = %v", st.DiskUsageBytes)
	}

	resp, err := http.Get(ts.URL + "/api/v1/predictions")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var list struct {
		Total       int64                     `json:"total"`
		Predictions []models.PredictionRecord `json:"predictions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 1 || len(list.Predictions) != 1 || list.Predictions[0].ID != pred.PredictionID {
		t.Errorf("history = %+v", list)
	}
}
