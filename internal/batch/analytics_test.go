package batch

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/orderlens/orderlens/internal/record"
)

func sampleBatch() *record.Batch {
	total := decimal.NewFromFloat(19.99)
	b := &record.Batch{}
	b.Append(&record.Record{
		File:         "a.png",
		Fields:       record.Fields{OrderID: "111-2223334-4455667", Total: &total},
		Confidence:   85,
		Source:       record.SourceOCR,
		Status:       record.StatusSuccess,
		CropStrategy: "Full Image",
	})
	b.Append(&record.Record{
		File:         "b.png",
		Fields:       record.Fields{OrderID: "111-2223334-4455668"},
		Confidence:   55,
		Source:       record.SourceHybrid,
		AIProvider:   "ollama",
		Status:       record.StatusNeedsReview,
		CropStrategy: "No Bottom 20%",
	})
	b.Append(record.NewFailed("c.png", "image decode: boom"))
	return b
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleBatch(), 1)

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Success)
	assert.Equal(t, 1, s.NeedsReview)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.AIUsed)
	assert.Equal(t, 1, s.DuplicateGroups)
	// Failed records carry no meaningful confidence.
	assert.InDelta(t, 70.0, s.AvgConfidence, 0.001)
	assert.Equal(t, 1, s.CropStrategies["Full Image"])
	assert.Equal(t, 1, s.CropStrategies["No Bottom 20%"])
}

func TestSummaryAIRate(t *testing.T) {
	assert.Zero(t, Summary{}.AIRate())
	assert.InDelta(t, 0.25, Summary{Total: 4, AIUsed: 1}.AIRate(), 0.001)
}

func TestSummaryRender(t *testing.T) {
	out := Summarize(sampleBatch(), 1).Render()

	assert.Contains(t, out, "Processed:        3 file(s)")
	assert.Contains(t, out, "Duplicate groups: 1")
	assert.Contains(t, out, "No Bottom 20%")
}
