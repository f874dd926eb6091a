package predictor

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/mitsumori/internal/features"
	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/internal/validation"
	"github.com/hyperjump/mitsumori/internal/vector"
	"github.com/hyperjump/mitsumori/pkg/utils"
)

// RecommendByHouseID returns the corpus houses nearest to house id, excluding the house itself.
func (p *Predictor) RecommendByHouseID(ctx context.Context, id, limit int) (*models.RecommendationResult, error) {
	snap, err := p.snapshot()
	if err != nil {
		return nil, err
	}
	entry, err := snap.Index.Entry(id)
	if err != nil {
		return nil, err
	}
	limit, err = p.resultLimit(limit)
	if err != nil {
		return nil, err
	}

	neighbors, err := snap.Index.KNearest(entry.Vector, limit+1)
	if err != nil {
		return nil, p.logFailure("recommend by house id", err)
	}
	recs := make([]models.Recommendation, 0, limit)
	for _, n := range neighbors {
		if n.Index == id {
			continue
		}
		if len(recs) == limit {
			break
		}
		rec, err := recommendation(snap.Index, n, vector.Similarity(n.Distance))
		if err != nil {
			return nil, err
		}
		rec.Rank = len(recs) + 1
		recs = append(recs, rec)
	}
	p.logger.Debug("recommend by house id", zap.Int("house_id", id), zap.Int("results", len(recs)))
	return &models.RecommendationResult{
		Success:         true,
		OriginalHouseID: &id,
		Recommendations: recs,
	}, nil
}

// resultLimit resolves a requested result count: non-positive means the default, and a
// count above the configured maximum is rejected rather than cut short.
func (p *Predictor) resultLimit(n int) (int, error) {
	if n <= 0 {
		return p.opts.DefaultLimit, nil
	}
	if p.opts.MaxLimit > 0 && n > p.opts.MaxLimit {
		return 0, fmt.Errorf("%w: limit %d exceeds the maximum of %d", models.ErrInvalidRequest, n, p.opts.MaxLimit)
	}
	return n, nil
}

// RecommendByFeatures returns the corpus houses nearest to the described house. Houses in the
// requested district get a similarity bonus and the list is re-ranked.
func (p *Predictor) RecommendByFeatures(ctx context.Context, req *models.RecommendationRequest) (*models.RecommendationResult, error) {
	snap, err := p.snapshot()
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: empty request", models.ErrInvalidRequest)
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}

	k, err := p.resultLimit(req.NRecommendations)
	if err != nil {
		return nil, err
	}

	values := features.RecommendationFeatures(req, snap.RecommendationVocab)
	query, err := snap.Scaler.Scale(ctx, snap.RecommendationSchema.Assemble(values))
	if err != nil {
		return nil, p.logFailure("recommend by features", err)
	}
	neighbors, err := snap.Index.KNearest(query, k)
	if err != nil {
		return nil, p.logFailure("recommend by features", err)
	}

	type scored struct {
		rec   models.Recommendation
		score float64
	}
	ranked := make([]scored, 0, len(neighbors))
	for _, n := range neighbors {
		score := vector.Similarity(n.Distance)
		rec, err := recommendation(snap.Index, n, score)
		if err != nil {
			return nil, err
		}
		if req.District != "" && rec.District == req.District {
			score += districtBonus
			rec.SimilarityScore = utils.RoundTo(score, 4)
		}
		ranked = append(ranked, scored{rec: rec, score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	recs := make([]models.Recommendation, len(ranked))
	for i, r := range ranked {
		recs[i] = r.rec
		recs[i].Rank = i + 1
	}
	price := *req.Price
	return &models.RecommendationResult{
		Success: true,
		UserInput: &models.UserInput{
			Price:         price,
			PriceBillions: billions(price),
			Area:          *req.Area,
			Rooms:         req.Rooms,
			District:      req.District,
		},
		Recommendations: recs,
	}, nil
}

func recommendation(index *vector.Index, n vector.Neighbor, score float64) (models.Recommendation, error) {
	entry, err := index.Entry(n.Index)
	if err != nil {
		return models.Recommendation{}, err
	}
	h := entry.House
	return models.Recommendation{
		HouseID:         h.ID,
		SimilarityScore: utils.RoundTo(score, 4),
		Price:           h.Price,
		PriceBillions:   billions(h.Price),
		Area:            h.Area,
		Rooms:           h.Rooms,
		Toilets:         h.Toilets,
		Floors:          h.Floors,
		District:        h.District,
		Ward:            h.Ward,
		Title:           utils.Truncate(h.Title, titleMaxRunes),
		Lat:             h.Lat,
		Lng:             h.Lng,
	}, nil
}
