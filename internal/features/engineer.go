package features

import (
	"math"

	"github.com/hyperjump/mitsumori/internal/models"
)

// Reference point ("center") used for distance_from_center and as the default location.
const (
	CenterLat = 21.0285
	CenterLng = 105.8542
)

// Defaults for optional numeric attributes.
const (
	DefaultRooms   = 3
	DefaultToilets = 2
	DefaultFloors  = 4
	DefaultWidth   = 4.5
	DefaultLength  = 15
)

// Categorical encoder field names.
const (
	FieldDistrict   = "district"
	FieldWard       = "ward"
	FieldLegal      = "legal"
	FieldSellerType = "seller_type"
)

// orDefault treats nil and zero as "not supplied".
func orDefault(v *float64, def float64) float64 {
	if supplied(v) {
		return *v
	}
	return def
}

func supplied(v *float64) bool {
	return v != nil && *v != 0
}

// Coordinates returns lat/lng, falling back to the reference point when absent.
func Coordinates(lat, lng *float64) (float64, float64) {
	return orDefault(lat, CenterLat), orDefault(lng, CenterLng)
}

// DistanceFromCenter is the planar distance in degrees from the reference point.
func DistanceFromCenter(lat, lng float64) float64 {
	return math.Sqrt((lat-CenterLat)*(lat-CenterLat) + (lng-CenterLng)*(lng-CenterLng))
}

// PredictionFeatures derives the price-prediction feature values. The request must carry Area.
func PredictionFeatures(req *models.PredictionRequest, vocab *Vocabularies) Values {
	area := orDefault(req.Area, 0)
	rooms := orDefault(req.Rooms, DefaultRooms)
	toilets := orDefault(req.Toilets, DefaultToilets)
	floors := orDefault(req.Floors, DefaultFloors)
	lat := orDefault(req.Lat, CenterLat)
	lng := orDefault(req.Lng, CenterLng)
	width := orDefault(req.Width, DefaultWidth)
	length := orDefault(req.Length, DefaultLength)

	totalRooms := rooms + toilets
	hasDimensions := 0.0
	if supplied(req.Width) && supplied(req.Length) {
		hasDimensions = 1
	}

	return Values{
		"area":    area,
		"rooms":   rooms,
		"toilets": toilets,
		"floors":  floors,
		"lat":     lat,
		"lng":     lng,
		"width":   width,
		"length":  length,

		"total_rooms":          totalRooms,
		"toilet_room_ratio":    toilets / (rooms + 0.1),
		"area_per_floor":       area / (floors + 0.1),
		"has_dimensions":       hasDimensions,
		"distance_from_center": DistanceFromCenter(lat, lng),
		"width_length_ratio":   width / (length + 0.1),
		"total_floor_area":     area * floors,
		"rooms_per_sqm":        totalRooms / (area + 1),

		"district_encoded":    vocab.encodeOrUnknown(req.District, FieldDistrict),
		"ward_encoded":        vocab.encodeOrUnknown(req.Ward, FieldWard),
		"legal_encoded":       vocab.encodeOrUnknown(req.Legal, FieldLegal),
		"seller_type_encoded": vocab.encodeOrUnknown(req.SellerType, FieldSellerType),

		// Never encoded: the trained model saw these as constant zero.
		"owner_type_encoded": 0,
		"city_encoded":       0,
		"street_encoded":     0,
		"protection_encoded": 0,
	}
}

// RecommendationFeatures derives the recommendation feature values. The request must carry
// Price and Area; the facade rejects it otherwise.
func RecommendationFeatures(req *models.RecommendationRequest, vocab *Vocabularies) Values {
	price := orDefault(req.Price, 0)
	area := orDefault(req.Area, 0)
	rooms := orDefault(req.Rooms, DefaultRooms)
	toilets := orDefault(req.Toilets, DefaultToilets)
	floors := orDefault(req.Floors, DefaultFloors)
	lat := orDefault(req.Lat, CenterLat)
	lng := orDefault(req.Lng, CenterLng)

	pricePerSqm := 0.0
	if area != 0 {
		pricePerSqm = price / area
	}

	return Values{
		"price":   price,
		"area":    area,
		"rooms":   rooms,
		"toilets": toilets,
		"floors":  floors,
		"lat":     lat,
		"lng":     lng,
		"width":   orDefault(req.Width, DefaultWidth),
		"length":  orDefault(req.Length, DefaultLength),

		"price_per_sqm":        pricePerSqm,
		"total_rooms":          rooms + toilets,
		"area_per_floor":       area / (floors + 0.1),
		"distance_from_center": DistanceFromCenter(lat, lng),

		"district_encoded":    vocab.encodeOrUnknown(req.District, FieldDistrict),
		"ward_encoded":        vocab.encodeOrUnknown(req.Ward, FieldWard),
		"legal_encoded":       vocab.encodeOrUnknown(req.Legal, FieldLegal),
		"seller_type_encoded": vocab.encodeOrUnknown(req.SellerType, FieldSellerType),
	}
}
