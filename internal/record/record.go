package record

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Source indicates which extraction path produced a record's fields.
type Source string

const (
	SourceOCR    Source = "ocr"
	SourceAI     Source = "ai"
	SourceHybrid Source = "hybrid"
)

// Status is the validation outcome assigned to a record.
type Status string

const (
	StatusSuccess     Status = "Success"
	StatusNeedsReview Status = "NeedsReview"
	StatusFailed      Status = "Failed"
)

// Item is a single purchased line item.
type Item struct {
	Name     string           `json:"name"`
	Quantity int              `json:"quantity"`
	Price    *decimal.Decimal `json:"price,omitempty"`
}

// Fields holds the extracted order data. Every field is independently
// optional; absence is the zero value (nil pointer / empty string / empty
// slice), never an error.
type Fields struct {
	OrderID        string           `json:"order_id,omitempty"`
	Date           string           `json:"date,omitempty"` // canonical form 2006-01-02
	Total          *decimal.Decimal `json:"total,omitempty"`
	Items          []Item           `json:"items,omitempty"`
	Seller         string           `json:"seller,omitempty"`
	TrackingNumber string           `json:"tracking_number,omitempty"`
}

// HasOrderID reports whether a non-blank order id was extracted.
func (f *Fields) HasOrderID() bool { return strings.TrimSpace(f.OrderID) != "" }

// HasItems reports whether at least one item was extracted.
func (f *Fields) HasItems() bool { return len(f.Items) > 0 }

// ItemTotal sums the known item prices weighted by quantity. The boolean
// is false when no item carries a price.
func (f *Fields) ItemTotal() (decimal.Decimal, bool) {
	sum := decimal.Zero
	known := false
	for _, it := range f.Items {
		if it.Price == nil {
			continue
		}
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(qty))))
		known = true
	}
	return sum, known
}

// Record is the per-image unit of output. It is created once per input
// file, mutated by the fallback orchestrator and validator, and treated
// as frozen once handed to an output writer.
type Record struct {
	File           string  `json:"file"`
	Fields         Fields  `json:"fields"`
	Confidence     float64 `json:"confidence"`     // combined confidence, 0..100
	OCRConfidence  float64 `json:"ocr_confidence"` // winning recognizer confidence, 0..100
	Source         Source  `json:"source"`
	Status         Status  `json:"status"`
	CropStrategy   string  `json:"crop_strategy,omitempty"`
	AIProvider     string  `json:"ai_provider,omitempty"`
	Note           string  `json:"note,omitempty"`
	RawText        string  `json:"raw_text,omitempty"`
	DuplicateGroup string  `json:"duplicate_group,omitempty"`
}

// NewFailed builds a terminal Failed record for a file that could not be
// processed at all (undecodable image, invalid file). Failed records are
// still emitted so output count matches input count.
func NewFailed(file, note string) *Record {
	return &Record{
		File:   file,
		Source: SourceOCR,
		Status: StatusFailed,
		Note:   note,
	}
}

// Batch is the ordered collection of records for one run. File names are
// unique within a batch; duplicate-order grouping is a separate advisory
// annotation added by the duplicate detector.
type Batch struct {
	Records []*Record `json:"records"`
}

// Append adds a record to the batch.
func (b *Batch) Append(r *Record) { b.Records = append(b.Records, r) }

// Len returns the number of records.
func (b *Batch) Len() int { return len(b.Records) }

// CountByStatus returns how many records carry the given status.
func (b *Batch) CountByStatus(s Status) int {
	n := 0
	for _, r := range b.Records {
		if r.Status == s {
			n++
		}
	}
	return n
}
