package predictor

import (
	"math"
	"sort"

	"github.com/hyperjump/mitsumori/internal/geo"
	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/internal/vector"
)

const (
	nearAreaM2  = 30
	widerAreaM2 = 50
)

// similarHouses picks display companions for a prediction: houses of close area in the same
// district, topped up with any house of roughly similar area when there are too few.
// The top-up may repeat houses already selected.
func similarHouses(index *vector.Index, area float64, district string, lat, lng float64, limit int) []models.SimilarHouse {
	entries := index.Entries()
	candidates := make([]models.House, 0, limit)
	for _, e := range entries {
		if district != "" && e.House.District == district && math.Abs(e.House.Area-area) <= nearAreaM2 {
			candidates = append(candidates, e.House)
		}
	}
	if len(candidates) < limit {
		for _, e := range entries {
			if math.Abs(e.House.Area-area) <= widerAreaM2 {
				candidates = append(candidates, e.House)
			}
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return math.Abs(candidates[i].Area-area) < math.Abs(candidates[j].Area-area)
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]models.SimilarHouse, len(candidates))
	for i, h := range candidates {
		out[i] = models.SimilarHouse{
			ID:         h.ID,
			Price:      h.Price,
			Area:       h.Area,
			Rooms:      h.Rooms,
			District:   h.District,
			Ward:       h.Ward,
			Title:      h.Title,
			DistanceKm: geo.HaversineKm(lat, lng, h.Lat, h.Lng),
		}
	}
	return out
}
