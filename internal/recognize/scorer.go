package recognize

import (
	"context"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/orderlens/orderlens/internal/candidate"
	"github.com/orderlens/orderlens/internal/extract"
)

// orderIDScoreBonus lifts any candidate whose text already contains an
// order id above every candidate without one.
const orderIDScoreBonus = 100.0

// Selection is the winning candidate of a scoring run. A zero-text,
// zero-confidence selection is valid: it means no candidate produced
// readable text.
type Selection struct {
	Text       string
	Confidence float64
	Strategy   string
	Inverted   bool
	Score      float64

	// Image is the winning candidate's untouched crop, kept for the AI
	// fallback and debug persistence.
	Image image.Image
}

// ScorerConfig tunes candidate selection.
type ScorerConfig struct {
	// EarlyExitConfidence stops scoring once a candidate reaches this
	// confidence and carries an order id.
	EarlyExitConfidence float64
}

// DefaultScorerConfig returns the standard selection settings.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{EarlyExitConfidence: 70.0}
}

// Scorer runs the recognizer over every candidate and picks the best.
type Scorer struct {
	rec    Recognizer
	cfg    ScorerConfig
	logger *slog.Logger
}

// NewScorer creates a scorer around a recognizer backend.
func NewScorer(rec Recognizer, cfg ScorerConfig, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.EarlyExitConfidence <= 0 {
		cfg.EarlyExitConfidence = DefaultScorerConfig().EarlyExitConfidence
	}
	return &Scorer{rec: rec, cfg: cfg, logger: logger}
}

// Best scores the candidates in priority order and returns the winner.
// Each candidate is recognized in normal and inverted polarity and the
// better sub-variant represents it. A later candidate replaces the
// leader only with a strictly higher score, so ties keep the earlier
// priority. Scoring stops early once a candidate is confidently read
// and carries an order id.
//
// Recognizer failures on individual variants are logged and skipped.
// When every variant fails, the first candidate wins with empty text.
func (s *Scorer) Best(ctx context.Context, cands []candidate.Candidate) (Selection, error) {
	if len(cands) == 0 {
		return Selection{}, nil
	}

	best := Selection{Strategy: cands[0].Name, Image: cands[0].Image, Score: -1}

	for _, c := range cands {
		if err := ctx.Err(); err != nil {
			return best, err
		}

		sel, ok := s.scoreCandidate(ctx, c)
		if !ok {
			continue
		}
		s.logger.Debug("scored candidate",
			"strategy", c.Name,
			"confidence", sel.Confidence,
			"inverted", sel.Inverted,
			"score", sel.Score)

		if sel.Score > best.Score {
			best = sel
			if best.Confidence >= s.cfg.EarlyExitConfidence && extract.ContainsOrderID(best.Text) {
				break
			}
		}
	}

	if best.Score < 0 {
		best.Score = 0
	}
	return best, nil
}

// scoreCandidate recognizes both polarities of one candidate and keeps
// the higher-scoring variant. Returns false when both variants failed.
func (s *Scorer) scoreCandidate(ctx context.Context, c candidate.Candidate) (Selection, bool) {
	variants := []struct {
		img      image.Image
		inverted bool
	}{
		{c.Image, false},
		{imaging.Invert(c.Image), true},
	}

	best := Selection{Score: -1}
	ok := false
	for _, v := range variants {
		res, err := s.rec.Recognize(ctx, v.img)
		if err != nil {
			s.logger.Debug("recognizer variant failed",
				"strategy", c.Name, "inverted", v.inverted, "error", err)
			continue
		}
		score := res.Confidence
		if extract.ContainsOrderID(res.Text) {
			score += orderIDScoreBonus
		}
		if score > best.Score {
			best = Selection{
				Text:       res.Text,
				Confidence: res.Confidence,
				Strategy:   c.Name,
				Inverted:   v.inverted,
				Score:      score,
				Image:      c.Image,
			}
			ok = true
		}
	}
	return best, ok
}
