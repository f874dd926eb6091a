// Package e2e provides end-to-end tests over a generated house corpus and artifact bundle.
package e2e

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/hyperjump/mitsumori/internal/features"
	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/internal/npy"
)

// Districts used by the generated corpus.
var Districts = []string{"Ba Dinh", "Cau Giay", "Dong Da", "Hai Ba Trung", "Hoan Kiem", "Tay Ho"}

// PredictionSchema and RecommendationSchema are the feature orders written to the bundle.
var (
	PredictionSchema     = features.Schema{"area", "rooms", "floors", "district_encoded", "distance_from_center"}
	RecommendationSchema = features.Schema{"price", "area", "rooms", "toilets", "floors", "price_per_sqm", "district_encoded"}
)

// PricePerSquareMetre is the single non-zero coefficient of the generated price model.
const PricePerSquareMetre = 1e8

// QueryTestCase is a recommend-by-features query and the house that must rank first.
type QueryTestCase struct {
	Request         *models.RecommendationRequest
	ExpectedHouseID int
	Description     string
}

// Corpus holds the generated houses and query test cases.
type Corpus struct {
	Houses    []models.House
	TestCases []QueryTestCase
}

// BuildCorpus returns n deterministic houses. Attributes cycle with different periods so
// that no two houses share a recommendation vector for n up to 180.
func BuildCorpus(n int) *Corpus {
	houses := make([]models.House, n)
	for i := range houses {
		district := Districts[i%len(Districts)]
		area := 30 + float64((i*7)%90)
		houses[i] = models.House{
			Title:    fmt.Sprintf("Nhà %s %.0f m² #%d", district, area, i),
			Price:    area * (60e6 + 5e6*float64(i%5)),
			Area:     area,
			Rooms:    float64(2 + i%4),
			Toilets:  float64(1 + i%3),
			Floors:   float64(3 + i%4),
			District: district,
			Ward:     fmt.Sprintf("Phuong %d", i%4),
			Lat:      21.0 + float64(i%10)*0.01,
			Lng:      105.78 + float64(i%7)*0.01,
		}
	}
	var cases []QueryTestCase
	for i := 0; i < n; i += 7 {
		cases = append(cases, QueryTestCase{
			Request:         RequestFor(houses[i]),
			ExpectedHouseID: i,
			Description:     houses[i].Title,
		})
	}
	return &Corpus{Houses: houses, TestCases: cases}
}

// RequestFor describes h as a recommend-by-features query.
func RequestFor(h models.House) *models.RecommendationRequest {
	return &models.RecommendationRequest{
		Price:    models.Float(h.Price),
		Area:     models.Float(h.Area),
		Rooms:    models.Float(h.Rooms),
		Toilets:  models.Float(h.Toilets),
		Floors:   models.Float(h.Floors),
		Lat:      models.Float(h.Lat),
		Lng:      models.Float(h.Lng),
		District: h.District,
		Ward:     h.Ward,
	}
}

// Vocabularies returns the district encoder shared by both schemas.
func Vocabularies() map[string]map[string][]string {
	classes := append([]string{features.UnknownCategory}, Districts...)
	return map[string]map[string][]string{
		features.FieldDistrict: {"classes": classes},
	}
}

type scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

type linear struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

// WriteArtifacts writes a JSON-format artifact bundle for c into dir, using the default
// file names. The recommendation scaler is fitted on the corpus and the matrix is the
// scaled corpus.
func (c *Corpus) WriteArtifacts(dir string) error {
	vocab := Vocabularies()
	encoders := make(map[string][]string)
	for field, enc := range vocab {
		encoders[field] = enc["classes"]
	}
	v := features.NewVocabularies(encoders)

	raw := make([][]float64, len(c.Houses))
	for i, h := range c.Houses {
		raw[i] = RecommendationSchema.Assemble(features.RecommendationFeatures(RequestFor(h), v))
	}
	fit := fitScaler(raw)
	scaled := make([][]float64, len(raw))
	for i, row := range raw {
		scaled[i] = fit.apply(row)
	}
	matrix, err := npy.FromRows(scaled)
	if err != nil {
		return err
	}

	width := PredictionSchema.Width()
	identity := scaler{Mean: make([]float64, width), Scale: make([]float64, width)}
	coef := make([]float64, width)
	for i := range identity.Scale {
		identity.Scale[i] = 1
	}
	coef[0] = PricePerSquareMetre

	files := map[string]interface{}{
		"price_prediction_features.json": PredictionSchema,
		"price_prediction_encoders.json": vocab,
		"price_prediction_scaler.json":   identity,
		"price_prediction_model.json":    linear{Coef: coef},
		"recommendation_features.json":   RecommendationSchema,
		"recommendation_encoders.json":   vocab,
		"recommendation_scaler.json":     fit,
		"recommendation_houses.json":     c.Houses,
	}
	for name, content := range files {
		data, err := json.Marshal(content)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0600); err != nil {
			return err
		}
	}
	return npy.Save(filepath.Join(dir, "recommendation_X_scaled.npy"), matrix)
}

// fitScaler computes per-column mean and population standard deviation.
func fitScaler(rows [][]float64) scaler {
	width := len(rows[0])
	s := scaler{Mean: make([]float64, width), Scale: make([]float64, width)}
	n := float64(len(rows))
	for _, row := range rows {
		for j, x := range row {
			s.Mean[j] += x / n
		}
	}
	for _, row := range rows {
		for j, x := range row {
			d := x - s.Mean[j]
			s.Scale[j] += d * d / n
		}
	}
	for j := range s.Scale {
		s.Scale[j] = math.Sqrt(s.Scale[j])
	}
	return s
}

// apply mirrors the engine's scaler arithmetic so query and corpus rows scale identically.
func (s scaler) apply(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, x := range row {
		out[j] = x - s.Mean[j]
		if s.Scale[j] != 0 {
			out[j] /= s.Scale[j]
		}
	}
	return out
}
