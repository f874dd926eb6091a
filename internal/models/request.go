package models

// PredictionRequest carries the raw attributes for a price prediction.
// Optional numeric fields are pointers so that "not supplied" is distinguishable from a value.
type PredictionRequest struct {
	Area       *float64 `json:"area" validate:"required,gt=0"`
	Rooms      *float64 `json:"rooms,omitempty" validate:"omitempty,gte=0"`
	Toilets    *float64 `json:"toilets,omitempty" validate:"omitempty,gte=0"`
	Floors     *float64 `json:"floors,omitempty" validate:"omitempty,gte=0"`
	Width      *float64 `json:"width,omitempty" validate:"omitempty,gte=0"`
	Length     *float64 `json:"length,omitempty" validate:"omitempty,gte=0"`
	Lat        *float64 `json:"lat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Lng        *float64 `json:"lng,omitempty" validate:"omitempty,gte=-180,lte=180"`
	District   string   `json:"district,omitempty"`
	Ward       string   `json:"ward,omitempty"`
	Legal      string   `json:"legal,omitempty"`
	SellerType string   `json:"seller_type,omitempty"`
}

// RecommendationRequest carries the attributes for a recommend-by-features query.
type RecommendationRequest struct {
	Price            *float64 `json:"price" validate:"required,gt=0"`
	Area             *float64 `json:"area" validate:"required,gt=0"`
	Rooms            *float64 `json:"rooms,omitempty" validate:"omitempty,gte=0"`
	Toilets          *float64 `json:"toilets,omitempty" validate:"omitempty,gte=0"`
	Floors           *float64 `json:"floors,omitempty" validate:"omitempty,gte=0"`
	Width            *float64 `json:"width,omitempty" validate:"omitempty,gte=0"`
	Length           *float64 `json:"length,omitempty" validate:"omitempty,gte=0"`
	Lat              *float64 `json:"lat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Lng              *float64 `json:"lng,omitempty" validate:"omitempty,gte=-180,lte=180"`
	District         string   `json:"district,omitempty"`
	Ward             string   `json:"ward,omitempty"`
	Legal            string   `json:"legal,omitempty"`
	SellerType       string   `json:"seller_type,omitempty"`
	NRecommendations int      `json:"n_recommendations,omitempty" validate:"gte=0"`
}

// ClampLimit returns n when it is positive, def otherwise, never more than max (when max > 0).
func ClampLimit(n, def, max int) int {
	if n <= 0 {
		n = def
	}
	if max > 0 && n > max {
		n = max
	}
	return n
}

// Float returns a pointer to v. Handy for building requests.
func Float(v float64) *float64 {
	return &v
}
