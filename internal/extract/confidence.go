package extract

import "github.com/orderlens/orderlens/internal/record"

// Combined-confidence weights. Tunable, not a wire contract: the base
// recognizer confidence contributes 40% and structural finds add fixed
// bonuses, clamped to [0, 100].
const (
	ocrWeight    = 0.4
	orderIDBonus = 25.0
	perItemBonus = 5.0
	itemBonusCap = 20.0
	totalBonus   = 10.0
	dateBonus    = 5.0
)

// Confidence computes the combined confidence for a set of extracted
// fields given the recognizer confidence (0..100).
func Confidence(f *record.Fields, ocrConfidence float64) float64 {
	score := ocrConfidence * ocrWeight

	if ValidOrderID(f.OrderID) {
		score += orderIDBonus
	}
	if n := len(f.Items); n > 0 {
		score += min(float64(n)*perItemBonus, itemBonusCap)
	}
	if f.Total != nil {
		score += totalBonus
	}
	if f.Date != "" {
		score += dateBonus
	}

	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}
