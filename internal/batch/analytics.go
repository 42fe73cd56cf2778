package batch

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/orderlens/orderlens/internal/record"
)

// Summary aggregates the outcome of one batch run.
type Summary struct {
	Total           int            `json:"total"`
	Success         int            `json:"success"`
	NeedsReview     int            `json:"needs_review"`
	Failed          int            `json:"failed"`
	AIUsed          int            `json:"ai_used"`
	AvgConfidence   float64        `json:"avg_confidence"`
	CropStrategies  map[string]int `json:"crop_strategies"`
	DuplicateGroups int            `json:"duplicate_groups"`
}

// Summarize computes run statistics over the finished batch.
func Summarize(b *record.Batch, duplicateGroups int) Summary {
	s := Summary{
		Total:           b.Len(),
		Success:         b.CountByStatus(record.StatusSuccess),
		NeedsReview:     b.CountByStatus(record.StatusNeedsReview),
		Failed:          b.CountByStatus(record.StatusFailed),
		CropStrategies:  make(map[string]int),
		DuplicateGroups: duplicateGroups,
	}

	var confSum float64
	var confCount int
	for _, r := range b.Records {
		if r.Source != record.SourceOCR || r.AIProvider != "" {
			s.AIUsed++
		}
		if r.Status != record.StatusFailed {
			confSum += r.Confidence
			confCount++
		}
		if r.CropStrategy != "" {
			s.CropStrategies[r.CropStrategy]++
		}
	}
	if confCount > 0 {
		s.AvgConfidence = confSum / float64(confCount)
	}
	return s
}

// AIRate returns the fraction of records that used the AI path.
func (s Summary) AIRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.AIUsed) / float64(s.Total)
}

// Render formats the summary as a human-readable report.
func (s Summary) Render() string {
	p := message.NewPrinter(language.English)
	var sb strings.Builder

	p.Fprintf(&sb, "Processed:        %d file(s)\n", s.Total)
	p.Fprintf(&sb, "  Success:        %d\n", s.Success)
	p.Fprintf(&sb, "  Needs review:   %d\n", s.NeedsReview)
	p.Fprintf(&sb, "  Failed:         %d\n", s.Failed)
	p.Fprintf(&sb, "AI assisted:      %d (%.0f%%)\n", s.AIUsed, s.AIRate()*100)
	p.Fprintf(&sb, "Avg confidence:   %.1f\n", s.AvgConfidence)
	if s.DuplicateGroups > 0 {
		p.Fprintf(&sb, "Duplicate groups: %d\n", s.DuplicateGroups)
	}

	if len(s.CropStrategies) > 0 {
		sb.WriteString("Winning crops:\n")
		names := make([]string, 0, len(s.CropStrategies))
		for name := range s.CropStrategies {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p.Fprintf(&sb, "  %-16s %d\n", name, s.CropStrategies[name])
		}
	}
	return sb.String()
}
