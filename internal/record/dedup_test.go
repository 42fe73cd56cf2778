package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotateExactOrderID(t *testing.T) {
	d := NewDeduper(DefaultDedupConfig())
	b := &Batch{}
	b.Append(&Record{File: "a.png", Fields: Fields{OrderID: "112-7366306-1726633"}})
	b.Append(&Record{File: "b.png", Fields: Fields{OrderID: "112-7366306-1726633"}})
	b.Append(&Record{File: "c.png", Fields: Fields{OrderID: "701-0000001-0000001"}})

	groups := d.Annotate(b)
	require.Equal(t, 1, groups)
	assert.NotEmpty(t, b.Records[0].DuplicateGroup)
	assert.Equal(t, b.Records[0].DuplicateGroup, b.Records[1].DuplicateGroup)
	assert.Empty(t, b.Records[2].DuplicateGroup)
}

func TestAnnotateApproximateMatch(t *testing.T) {
	d := NewDeduper(DefaultDedupConfig())
	b := &Batch{}
	b.Append(&Record{File: "a.png", Fields: Fields{
		OrderID: "112-7366306-1726633",
		Date:    "2024-03-15",
		Total:   dec("42.97"),
		Items: []Item{
			{Name: "USB-C Cable 6ft"},
			{Name: "Wireless Mouse"},
		},
	}})
	// Same order, OCR missed the order id and garbled one item name.
	b.Append(&Record{File: "b.png", Fields: Fields{
		Date:  "2024-03-15",
		Total: dec("42.97"),
		Items: []Item{
			{Name: "USB-C Cable 6fl"},
			{Name: "Wireless Mouse"},
		},
	}})

	groups := d.Annotate(b)
	require.Equal(t, 1, groups)
	assert.Equal(t, b.Records[0].DuplicateGroup, b.Records[1].DuplicateGroup)
}

func TestAnnotateDifferentOrdersNotGrouped(t *testing.T) {
	d := NewDeduper(DefaultDedupConfig())
	b := &Batch{}
	b.Append(&Record{File: "a.png", Fields: Fields{
		Date:  "2024-03-15",
		Total: dec("42.97"),
		Items: []Item{{Name: "USB-C Cable"}},
	}})
	b.Append(&Record{File: "b.png", Fields: Fields{
		Date:  "2024-04-02",
		Total: dec("13.50"),
		Items: []Item{{Name: "Notebook"}},
	}})

	groups := d.Annotate(b)
	assert.Zero(t, groups)
	assert.Empty(t, b.Records[0].DuplicateGroup)
	assert.Empty(t, b.Records[1].DuplicateGroup)
}

func TestAnnotateSameDateDifferentTotalNotGrouped(t *testing.T) {
	d := NewDeduper(DefaultDedupConfig())
	b := &Batch{}
	b.Append(&Record{File: "a.png", Fields: Fields{
		Date:  "2024-03-15",
		Total: dec("42.97"),
		Items: []Item{{Name: "USB-C Cable"}},
	}})
	b.Append(&Record{File: "b.png", Fields: Fields{
		Date:  "2024-03-15",
		Total: dec("19.99"),
		Items: []Item{{Name: "USB-C Cable"}},
	}})

	assert.Zero(t, d.Annotate(b))
}

func TestAnnotateLowItemOverlapNotGrouped(t *testing.T) {
	d := NewDeduper(DefaultDedupConfig())
	b := &Batch{}
	b.Append(&Record{File: "a.png", Fields: Fields{
		Date:  "2024-03-15",
		Total: dec("42.97"),
		Items: []Item{
			{Name: "USB-C Cable"},
			{Name: "Wireless Mouse"},
			{Name: "Mouse Pad"},
		},
	}})
	b.Append(&Record{File: "b.png", Fields: Fields{
		Date:  "2024-03-15",
		Total: dec("42.97"),
		Items: []Item{
			{Name: "Desk Lamp"},
			{Name: "Power Strip"},
			{Name: "Mouse Pad"},
		},
	}})

	// One shared name out of five distinct: Jaccard 0.2, below 0.5.
	assert.Zero(t, d.Annotate(b))
}

func TestAnnotateDistinctGroupIDs(t *testing.T) {
	d := NewDeduper(DefaultDedupConfig())
	b := &Batch{}
	b.Append(&Record{File: "a.png", Fields: Fields{OrderID: "111-1111111-1111111"}})
	b.Append(&Record{File: "b.png", Fields: Fields{OrderID: "111-1111111-1111111"}})
	b.Append(&Record{File: "c.png", Fields: Fields{OrderID: "222-2222222-2222222"}})
	b.Append(&Record{File: "d.png", Fields: Fields{OrderID: "222-2222222-2222222"}})

	require.Equal(t, 2, d.Annotate(b))
	assert.NotEqual(t, b.Records[0].DuplicateGroup, b.Records[2].DuplicateGroup)
}
