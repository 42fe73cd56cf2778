package record

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidatorConfig tunes status assignment.
type ValidatorConfig struct {
	// ReviewThreshold is the combined-confidence floor below which an
	// otherwise successful record is downgraded to NeedsReview.
	ReviewThreshold float64

	// TotalTolerance is the allowed relative deviation between the
	// detected order total and the sum of item prices before the record
	// is flagged as internally inconsistent.
	TotalTolerance float64
}

// DefaultValidatorConfig returns the default validation thresholds.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		ReviewThreshold: 40.0,
		TotalTolerance:  0.25,
	}
}

// Validator assigns a status to finished records. It never mutates the
// extracted fields.
type Validator struct {
	cfg ValidatorConfig
}

// NewValidator creates a validator with the given thresholds.
func NewValidator(cfg ValidatorConfig) *Validator {
	if cfg.ReviewThreshold <= 0 {
		cfg.ReviewThreshold = DefaultValidatorConfig().ReviewThreshold
	}
	if cfg.TotalTolerance <= 0 {
		cfg.TotalTolerance = DefaultValidatorConfig().TotalTolerance
	}
	return &Validator{cfg: cfg}
}

// Validate assigns Status and an explanatory note to the record based on
// field completeness, confidence and internal consistency.
func (v *Validator) Validate(r *Record) {
	if r.Status == StatusFailed && !r.Fields.HasOrderID() && !r.Fields.HasItems() {
		// Terminal failure from an earlier stage (e.g. undecodable file).
		return
	}

	hasID := r.Fields.HasOrderID()
	hasItems := r.Fields.HasItems()

	switch {
	case hasID && hasItems:
		r.Status = StatusSuccess
	case hasID || hasItems:
		r.Status = StatusNeedsReview
		if r.Note == "" {
			r.Note = "partial data: missing " + missingPart(hasID)
		}
	default:
		r.Status = StatusFailed
		if r.Note == "" {
			r.Note = "no order id or items recognized"
		}
		return
	}

	if r.Status == StatusSuccess && r.Confidence < v.cfg.ReviewThreshold {
		r.Status = StatusNeedsReview
		r.Note = fmt.Sprintf("confidence %.1f below review threshold %.1f", r.Confidence, v.cfg.ReviewThreshold)
	}

	if r.Status == StatusSuccess {
		if note, ok := v.checkTotalConsistency(&r.Fields); !ok {
			r.Status = StatusNeedsReview
			r.Note = note
		}
	}
}

func missingPart(hasID bool) string {
	if hasID {
		return "items"
	}
	return "order id"
}

// checkTotalConsistency compares the detected total against the sum of
// item prices. Only meaningful when both sides are known; unknown sides
// pass trivially.
func (v *Validator) checkTotalConsistency(f *Fields) (string, bool) {
	if f.Total == nil {
		return "", true
	}
	itemSum, known := f.ItemTotal()
	if !known || f.Total.IsZero() {
		return "", true
	}
	diff := f.Total.Sub(itemSum).Abs()
	limit := f.Total.Abs().Mul(decimal.NewFromFloat(v.cfg.TotalTolerance))
	if diff.GreaterThan(limit) {
		return fmt.Sprintf("item prices sum to %s but total is %s", itemSum.StringFixed(2), f.Total.StringFixed(2)), false
	}
	return "", true
}
