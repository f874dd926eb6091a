// Package cli provides output formatting and a remote client for the mitsumori CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const (
	separator     = "─────────────────────────────────────────────────────────"
	titleMaxRunes = 60
)

// ParseOutputFormat accepts "text" or "json" (case-insensitive).
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("invalid output format %q (use text or json)", s)
	}
}

// WritePrediction writes a price prediction to w in the given format.
func WritePrediction(w io.Writer, res *models.PredictionResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	fmt.Fprintf(w, "\nPredicted price: %s (%.2f billion VND)\n", FormatVND(res.PredictedPrice), res.PredictedPriceBillions)
	fmt.Fprintf(w, "Range:           %s - %s\n",
		FormatVND(res.ConfidenceInterval.Lower), FormatVND(res.ConfidenceInterval.Upper))
	fmt.Fprintf(w, "Price per m²:    %s\n", FormatVND(res.PricePerM2))
	if res.PredictionID != "" {
		fmt.Fprintf(w, "Prediction ID:   %s\n", res.PredictionID)
	}
	if len(res.SimilarHouses) == 0 {
		fmt.Fprintln(w, "\nNo similar houses found.")
		return nil
	}
	fmt.Fprintf(w, "\nSimilar houses (%d)\n", len(res.SimilarHouses))
	for _, h := range res.SimilarHouses {
		fmt.Fprintln(w, separator)
		fmt.Fprintf(w, "#%d | %s | %.0f m² | %.0f rooms | %.1f km\n",
			h.ID, FormatVND(h.Price), h.Area, h.Rooms, h.DistanceKm)
		writeLocation(w, h.District, h.Ward)
		if h.Title != "" {
			fmt.Fprintf(w, "%s\n", utils.Ellipsize(h.Title, titleMaxRunes))
		}
	}
	fmt.Fprintln(w)
	return nil
}

// WriteRecommendations writes a recommendation result to w in the given format.
func WriteRecommendations(w io.Writer, res *models.RecommendationResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	switch {
	case res.OriginalHouseID != nil:
		fmt.Fprintf(w, "\nHouses similar to #%d\n", *res.OriginalHouseID)
	case res.UserInput != nil:
		in := res.UserInput
		fmt.Fprintf(w, "\nHouses matching %.2f billion VND, %.0f m²", in.PriceBillions, in.Area)
		if in.District != "" {
			fmt.Fprintf(w, " in %s", in.District)
		}
		fmt.Fprintln(w)
	}
	if len(res.Recommendations) == 0 {
		fmt.Fprintln(w, "No recommendations.")
		return nil
	}
	for _, r := range res.Recommendations {
		fmt.Fprintln(w, separator)
		fmt.Fprintf(w, "Rank: %d | Score: %.4f | House #%d\n", r.Rank, r.SimilarityScore, r.HouseID)
		fmt.Fprintf(w, "%s (%.2f billion) | %.0f m² | %.0f rooms | %.0f toilets | %.0f floors\n",
			FormatVND(r.Price), r.PriceBillions, r.Area, r.Rooms, r.Toilets, r.Floors)
		writeLocation(w, r.District, r.Ward)
		if r.Title != "" {
			fmt.Fprintf(w, "%s\n", utils.Ellipsize(r.Title, titleMaxRunes))
		}
	}
	fmt.Fprintln(w)
	return nil
}

// WriteStatus writes the engine status to w in the given format.
func WriteStatus(w io.Writer, st *models.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "Status:          %s\n", st.Health.Status)
	fmt.Fprintf(w, "Corpus size:     %d houses\n", st.Health.CorpusSize)
	fmt.Fprintf(w, "Prediction:      %s\n", yesNo(st.Health.Models.Prediction))
	fmt.Fprintf(w, "Recommendation:  %s\n", yesNo(st.Health.Models.Recommendation))
	if st.Predictions != nil {
		fmt.Fprintf(w, "Predictions:     %d recorded\n", *st.Predictions)
	}
	if st.DiskUsageBytes != nil {
		fmt.Fprintf(w, "Disk usage:      %s\n", FormatBytes(*st.DiskUsageBytes))
	}
	if c := st.Config; c != nil {
		fmt.Fprintf(w, "Artifacts:       %s (%s)\n", c.ArtifactsDir, c.ArtifactsFormat)
		if c.DatabasePath != "" {
			fmt.Fprintf(w, "Database:        %s\n", c.DatabasePath)
		}
		fmt.Fprintf(w, "Limits:          default %d, max %d\n", c.DefaultLimit, c.MaxLimit)
	}
	return nil
}

func writeLocation(w io.Writer, district, ward string) {
	switch {
	case district != "" && ward != "":
		fmt.Fprintf(w, "%s, %s\n", ward, district)
	case district != "":
		fmt.Fprintf(w, "%s\n", district)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func yesNo(b bool) string {
	if b {
		return "loaded"
	}
	return "not loaded"
}

// FormatVND renders an amount with thousands separators, e.g. 1.234.567.891 VND.
func FormatVND(amount float64) string {
	n := int64(utils.Round(amount))
	neg := n < 0
	if neg {
		n = -n
	}
	digits := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String() + " VND"
	}
	return b.String() + " VND"
}

// FormatBytes renders a byte count using binary units.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
