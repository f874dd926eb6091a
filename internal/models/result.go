package models

// ConfidenceInterval is the fixed ±15% display band around a predicted price.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// SimilarHouse is a display companion attached to a price prediction.
type SimilarHouse struct {
	ID         int     `json:"id"`
	Price      float64 `json:"price"`
	Area       float64 `json:"area"`
	Rooms      float64 `json:"rooms"`
	District   string  `json:"district"`
	Ward       string  `json:"ward"`
	Title      string  `json:"title"`
	DistanceKm float64 `json:"distance_km"`
}

// PredictionResult is the response for a price prediction.
type PredictionResult struct {
	Success                bool               `json:"success"`
	PredictionID           string             `json:"prediction_id,omitempty"`
	PredictedPrice         float64            `json:"predicted_price"`
	PredictedPriceBillions float64            `json:"predicted_price_billions"`
	ConfidenceInterval     ConfidenceInterval `json:"confidence_interval"`
	PricePerM2             float64            `json:"price_per_m2"`
	SimilarHouses          []SimilarHouse     `json:"similar_houses"`
}

// Recommendation is a single ranked neighbour.
type Recommendation struct {
	Rank            int     `json:"rank"`
	HouseID         int     `json:"house_id"`
	SimilarityScore float64 `json:"similarity_score"`
	Price           float64 `json:"price"`
	PriceBillions   float64 `json:"price_billions"`
	Area            float64 `json:"area"`
	Rooms           float64 `json:"rooms"`
	Toilets         float64 `json:"toilets"`
	Floors          float64 `json:"floors"`
	District        string  `json:"district"`
	Ward            string  `json:"ward"`
	Title           string  `json:"title"`
	Lat             float64 `json:"lat"`
	Lng             float64 `json:"lng"`
}

// UserInput echoes the main fields of a recommend-by-features request.
type UserInput struct {
	Price         float64  `json:"price"`
	PriceBillions float64  `json:"price_billions"`
	Area          float64  `json:"area"`
	Rooms         *float64 `json:"rooms,omitempty"`
	District      string   `json:"district,omitempty"`
}

// RecommendationResult is the response for both recommendation operations.
// OriginalHouseID is set for recommend-by-id, UserInput for recommend-by-features.
type RecommendationResult struct {
	Success         bool             `json:"success"`
	OriginalHouseID *int             `json:"original_house_id,omitempty"`
	UserInput       *UserInput       `json:"user_input,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
}

// ModelStatus reports which artifact groups are loaded.
type ModelStatus struct {
	Prediction     bool `json:"prediction"`
	Recommendation bool `json:"recommendation"`
}

// Health is the engine health report.
type Health struct {
	Status     string      `json:"status"`
	Loaded     bool        `json:"loaded"`
	CorpusSize int         `json:"corpus_size"`
	Models     ModelStatus `json:"models"`
}

// StatusConfig is the configuration summary reported by status.
type StatusConfig struct {
	ArtifactsDir    string `json:"artifacts_dir"`
	ArtifactsFormat string `json:"artifacts_format"`
	DatabasePath    string `json:"database_path,omitempty"`
	DefaultLimit    int    `json:"default_limit"`
	MaxLimit        int    `json:"max_limit"`
}

// Status is the engine, history and disk summary.
type Status struct {
	Health         Health        `json:"health"`
	Predictions    *int64        `json:"predictions,omitempty"`
	DiskUsageBytes *int64        `json:"disk_usage_bytes,omitempty"`
	Config         *StatusConfig `json:"config,omitempty"`
}
