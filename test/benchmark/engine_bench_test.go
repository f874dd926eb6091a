package benchmark

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/mitsumori/internal/config"
	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/internal/npy"
	"github.com/hyperjump/mitsumori/internal/predictor"
	"github.com/hyperjump/mitsumori/internal/vector"
	"github.com/hyperjump/mitsumori/test/e2e"
)

func loadedPredictor(b *testing.B, n int) *predictor.Predictor {
	b.Helper()
	dir := b.TempDir()
	corpus := e2e.BuildCorpus(n)
	if err := corpus.WriteArtifacts(dir); err != nil {
		b.Fatal(err)
	}
	cfg := &config.Config{Artifacts: config.ArtifactsConfig{Dir: dir, Format: "json"}}
	config.ApplyDefaults(cfg)
	p := predictor.New(zap.NewNop(), predictor.Options{})
	if err := p.Load(context.Background(), predictor.NewFileLoader(cfg, zap.NewNop())); err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = p.Close() })
	return p
}

func BenchmarkKNearest(b *testing.B) {
	const rows, cols = 5000, 16
	houses := make([]models.House, rows)
	data := make([][]float64, rows)
	for i := range data {
		data[i] = make([]float64, cols)
		for j := range data[i] {
			data[i][j] = float64((i*31+j*17)%1000) / 1000
		}
	}
	m, _ := npy.FromRows(data)
	idx, err := vector.NewIndex(houses, m)
	if err != nil {
		b.Fatal(err)
	}
	query := make([]float64, cols)
	query[0] = 0.5
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.KNearest(query, 10)
	}
}

func BenchmarkEuclideanDistance(b *testing.B) {
	x := make([]float64, 64)
	y := make([]float64, 64)
	for i := range x {
		x[i] = float64(i)
		y[i] = float64(64 - i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = vector.EuclideanDistance(x, y)
	}
}

func BenchmarkPredictPrice(b *testing.B) {
	p := loadedPredictor(b, 180)
	ctx := context.Background()
	req := &models.PredictionRequest{Area: models.Float(60), Rooms: models.Float(3), District: "Dong Da"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = p.PredictPrice(ctx, req)
	}
}

func BenchmarkRecommendByFeatures(b *testing.B) {
	p := loadedPredictor(b, 180)
	ctx := context.Background()
	req := e2e.RequestFor(e2e.BuildCorpus(1).Houses[0])
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = p.RecommendByFeatures(ctx, req)
	}
}

func BenchmarkRecommendByHouseID_Parallel(b *testing.B) {
	p := loadedPredictor(b, 180)
	ctx := context.Background()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		id := 0
		for pb.Next() {
			_, _ = p.RecommendByHouseID(ctx, id%180, 5)
			id++
		}
	})
}
