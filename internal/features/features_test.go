package features

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/mitsumori/internal/models"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func testVocab() *Vocabularies {
	return NewVocabularies(map[string][]string{
		FieldDistrict: {"Unknown", "Ba Dinh", "Cau Giay", "Dong Da"},
		FieldWard:     {"Dich Vong", "Unknown"},
		FieldLegal:    {"so do"},
	})
}

func TestVocabularies_Encode(t *testing.T) {
	v := testVocab()
	tests := []struct {
		name, value, field string
		want               int
	}{
		{"known value", "Cau Giay", FieldDistrict, 2},
		{"first class", "Unknown", FieldDistrict, 0},
		{"unknown district returns zero", "Hoan Kiem", FieldDistrict, 0},
		{"field without vocabulary", "x", "owner_type", 0},
		{"unknown sentinel at real index", "Unknown", FieldWard, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.Encode(tt.value, tt.field); got != tt.want {
				t.Errorf("Encode(%q, %q) = %d, want %d", tt.value, tt.field, got, tt.want)
			}
		})
	}
}

func TestVocabularies_NilEncodesZero(t *testing.T) {
	var v *Vocabularies
	if got := v.Encode("Cau Giay", FieldDistrict); got != 0 {
		t.Errorf("nil vocabularies Encode = %d, want 0", got)
	}
	if v.Fields() != 0 {
		t.Error("nil vocabularies should report zero fields")
	}
}

func TestVocabularies_DuplicateClassKeepsFirst(t *testing.T) {
	v := NewVocabularies(map[string][]string{"f": {"a", "b", "a"}})
	if got := v.Encode("a", "f"); got != 0 {
		t.Errorf("Encode duplicate = %d, want first index 0", got)
	}
}

func TestLoadVocabularies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encoders.json")
	content := `{"district": {"classes": ["A", "B"]}, "ward": {"classes": []}}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	v, err := LoadVocabularies(path)
	if err != nil {
		t.Fatal(err)
	}
	if v.Fields() != 2 || v.Encode("B", "district") != 1 {
		t.Errorf("unexpected vocabularies: fields=%d", v.Fields())
	}

	empty := filepath.Join(t.TempDir(), "empty.json")
	_ = os.WriteFile(empty, []byte(`{}`), 0600)
	if v, err := LoadVocabularies(empty); err != nil || v.Fields() != 0 {
		t.Errorf("empty encoders: v=%v err=%v", v, err)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	_ = os.WriteFile(bad, []byte(`[1,2]`), 0600)
	if _, err := LoadVocabularies(bad); err == nil {
		t.Error("expected parse error")
	}
}

func TestSchema_AssembleAndMissing(t *testing.T) {
	s := Schema{"area", "one_hot_col", "rooms"}
	vec := s.Assemble(Values{"area": 50, "rooms": 3, "ignored": 9})
	want := []float64{50, 0, 3}
	for i := range want {
		if vec[i] != want[i] {
			t.Fatalf("Assemble = %v, want %v", vec, want)
		}
	}
	missing := s.Missing(Values{"area": 1, "rooms": 1})
	if len(missing) != 1 || missing[0] != "one_hot_col" {
		t.Errorf("Missing = %v", missing)
	}
	if s.Width() != 3 {
		t.Errorf("Width = %d", s.Width())
	}
}

func TestLoadSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "features.json")
	_ = os.WriteFile(path, []byte(`["area", "rooms"]`), 0600)
	s, err := LoadSchema(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(s) != 2 || s[1] != "rooms" {
		t.Errorf("schema = %v", s)
	}
	empty := filepath.Join(dir, "empty.json")
	_ = os.WriteFile(empty, []byte(`[]`), 0600)
	if _, err := LoadSchema(empty); err == nil {
		t.Error("expected error for empty schema")
	}
}

func TestPredictionFeatures_DefaultsCenter(t *testing.T) {
	req := &models.PredictionRequest{
		Area: models.Float(50), Rooms: models.Float(3), Toilets: models.Float(2), Floors: models.Float(4),
	}
	f := PredictionFeatures(req, nil)
	if f["lat"] != CenterLat || f["lng"] != CenterLng {
		t.Errorf("lat/lng = %v/%v, want center", f["lat"], f["lng"])
	}
	if f["distance_from_center"] != 0 {
		t.Errorf("distance_from_center = %v, want 0", f["distance_from_center"])
	}
	if f["width"] != DefaultWidth || f["length"] != DefaultLength || f["has_dimensions"] != 0 {
		t.Errorf("dimension defaults wrong: %v %v %v", f["width"], f["length"], f["has_dimensions"])
	}
}

func TestPredictionFeatures_Derived(t *testing.T) {
	vocab := testVocab()
	req := &models.PredictionRequest{
		Area: models.Float(60), Rooms: models.Float(4), Toilets: models.Float(3), Floors: models.Float(5),
		Width: models.Float(5), Length: models.Float(12), Lat: models.Float(21.0385), Lng: models.Float(105.8642),
		District: "Cau Giay", Ward: "", Legal: "so do", SellerType: "agent",
	}
	f := PredictionFeatures(req, vocab)
	checks := map[string]float64{
		"total_rooms":          7,
		"toilet_room_ratio":    3 / 4.1,
		"area_per_floor":       60 / 5.1,
		"has_dimensions":       1,
		"distance_from_center": math.Sqrt(0.01*0.01 + 0.01*0.01),
		"width_length_ratio":   5 / 12.1,
		"total_floor_area":     300,
		"rooms_per_sqm":        7.0 / 61,
		"district_encoded":     2,
		"ward_encoded":         1, // empty ward encodes as "Unknown"
		"legal_encoded":        0,
		"seller_type_encoded":  0,
		"owner_type_encoded":   0,
		"city_encoded":         0,
		"street_encoded":       0,
		"protection_encoded":   0,
	}
	for name, want := range checks {
		got, ok := f[name]
		if !ok {
			t.Errorf("feature %s missing", name)
			continue
		}
		if !approx(got, want) {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
}

func TestPredictionFeatures_HasDimensionsNeedsBoth(t *testing.T) {
	req := &models.PredictionRequest{Area: models.Float(40), Width: models.Float(4)}
	if f := PredictionFeatures(req, nil); f["has_dimensions"] != 0 {
		t.Errorf("has_dimensions = %v with only width supplied", f["has_dimensions"])
	}
}

func TestPredictionFeatures_ZeroTreatedAsAbsent(t *testing.T) {
	req := &models.PredictionRequest{Area: models.Float(40), Rooms: models.Float(0), Lat: models.Float(0)}
	f := PredictionFeatures(req, nil)
	if f["rooms"] != DefaultRooms || f["lat"] != CenterLat {
		t.Errorf("zero inputs should default: rooms=%v lat=%v", f["rooms"], f["lat"])
	}
}

func TestRecommendationFeatures(t *testing.T) {
	req := &models.RecommendationRequest{
		Price: models.Float(5e9), Area: models.Float(50), Floors: models.Float(3), District: "Dong Da",
	}
	f := RecommendationFeatures(req, testVocab())
	checks := map[string]float64{
		"price":                5e9,
		"area":                 50,
		"price_per_sqm":        1e8,
		"total_rooms":          DefaultRooms + DefaultToilets,
		"area_per_floor":       50 / 3.1,
		"distance_from_center": 0,
		"district_encoded":     3,
	}
	for name, want := range checks {
		if !approx(f[name], want) {
			t.Errorf("%s = %v, want %v", name, f[name], want)
		}
	}
	for _, name := range []string{"owner_type_encoded", "city_encoded", "street_encoded", "protection_encoded"} {
		if _, ok := f[name]; ok {
			t.Errorf("recommendation features must not emit %s", name)
		}
	}
}
