package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/mitsumori/internal/models"
)

func TestValidateStruct_Prediction(t *testing.T) {
	tests := []struct {
		name    string
		req     models.PredictionRequest
		wantErr bool
		field   string
	}{
		{"area only", models.PredictionRequest{Area: models.Float(50)}, false, ""},
		{"missing area", models.PredictionRequest{}, true, "area"},
		{"zero area", models.PredictionRequest{Area: models.Float(0)}, true, "area"},
		{"negative area", models.PredictionRequest{Area: models.Float(-3)}, true, "area"},
		{"negative rooms", models.PredictionRequest{Area: models.Float(50), Rooms: models.Float(-1)}, true, "rooms"},
		{"lat out of range", models.PredictionRequest{Area: models.Float(50), Lat: models.Float(91)}, true, "lat"},
		{"zero rooms allowed", models.PredictionRequest{Area: models.Float(50), Rooms: models.Float(0)}, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateStruct error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, models.ErrInvalidRequest) {
				t.Errorf("error %v does not match ErrInvalidRequest", err)
			}
			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("error %T is not *RequestError", err)
			}
			if reqErr.Fields[0].Field != tt.field {
				t.Errorf("field = %s, want %s", reqErr.Fields[0].Field, tt.field)
			}
		})
	}
}

func TestValidateStruct_RecommendationMessages(t *testing.T) {
	err := ValidateStruct(&models.RecommendationRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "price is required") || !strings.Contains(msg, "area is required") {
		t.Errorf("message = %q", msg)
	}
}
