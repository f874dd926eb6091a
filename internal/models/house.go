// Package models defines core data structures for houses, requests, and engine results.
package models

import "time"

// House is one property of the recommendation corpus. Numeric fields that were
// missing in the export decode as zero.
type House struct {
	ID       int     `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Area     float64 `json:"area"`
	Rooms    float64 `json:"rooms"`
	Toilets  float64 `json:"toilets"`
	Floors   float64 `json:"floors"`
	District string  `json:"district"`
	Ward     string  `json:"ward"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Width    float64 `json:"width"`
	Length   float64 `json:"length"`
}

// PredictionRecord is a stored price prediction together with the inputs that produced it.
type PredictionRecord struct {
	ID              string    `json:"id" db:"id"`
	Area            float64   `json:"area" db:"area"`
	Rooms           *float64  `json:"rooms,omitempty" db:"rooms"`
	Toilets         *float64  `json:"toilets,omitempty" db:"toilets"`
	Floors          *float64  `json:"floors,omitempty" db:"floors"`
	District        string    `json:"district,omitempty" db:"district"`
	Ward            string    `json:"ward,omitempty" db:"ward"`
	Lat             *float64  `json:"lat,omitempty" db:"lat"`
	Lng             *float64  `json:"lng,omitempty" db:"lng"`
	Width           *float64  `json:"width,omitempty" db:"width"`
	Length          *float64  `json:"length,omitempty" db:"length"`
	PredictedPrice  float64   `json:"predicted_price" db:"predicted_price"`
	ConfidenceLower float64   `json:"confidence_lower" db:"confidence_lower"`
	ConfidenceUpper float64   `json:"confidence_upper" db:"confidence_upper"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// NewPredictionRecord builds a record from a request and its result. The caller assigns ID.
func NewPredictionRecord(req *PredictionRequest, res *PredictionResult) *PredictionRecord {
	rec := &PredictionRecord{
		Rooms:           req.Rooms,
		Toilets:         req.Toilets,
		Floors:          req.Floors,
		District:        req.District,
		Ward:            req.Ward,
		Lat:             req.Lat,
		Lng:             req.Lng,
		Width:           req.Width,
		Length:          req.Length,
		PredictedPrice:  res.PredictedPrice,
		ConfidenceLower: res.ConfidenceInterval.Lower,
		ConfidenceUpper: res.ConfidenceInterval.Upper,
	}
	if req.Area != nil {
		rec.Area = *req.Area
	}
	return rec
}
