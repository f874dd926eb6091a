// Package geo computes great-circle distances between coordinates.
package geo

import (
	"math"

	"github.com/hyperjump/mitsumori/pkg/utils"
)

// EarthRadiusKm is the mean earth radius used for distances.
const EarthRadiusKm = 6371.0

// HaversineKm returns the distance between two points in kilometres, rounded to one decimal.
// A zero coordinate means the location is unknown and yields 0.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	if lat1 == 0 || lng1 == 0 || lat2 == 0 || lng2 == 0 {
		return 0
	}
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return utils.RoundTo(EarthRadiusKm*c, 1)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
