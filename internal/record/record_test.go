package record

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func TestFieldsHasOrderID(t *testing.T) {
	tests := []struct {
		name    string
		orderID string
		want    bool
	}{
		{"present", "112-7366306-1726633", true},
		{"empty", "", false},
		{"whitespace only", "   ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Fields{OrderID: tt.orderID}
			assert.Equal(t, tt.want, f.HasOrderID())
		})
	}
}

func TestFieldsItemTotal(t *testing.T) {
	t.Run("no priced items", func(t *testing.T) {
		f := Fields{Items: []Item{{Name: "USB Cable"}}}
		_, known := f.ItemTotal()
		assert.False(t, known)
	})

	t.Run("quantity defaults to one", func(t *testing.T) {
		f := Fields{Items: []Item{
			{Name: "USB Cable", Price: dec("9.99")},
			{Name: "Batteries", Quantity: 3, Price: dec("4.50")},
		}}
		sum, known := f.ItemTotal()
		require.True(t, known)
		assert.Equal(t, "23.49", sum.StringFixed(2))
	})
}

func TestNewFailed(t *testing.T) {
	r := NewFailed("broken.png", "decode failed")
	assert.Equal(t, "broken.png", r.File)
	assert.Equal(t, StatusFailed, r.Status)
	assert.Equal(t, "decode failed", r.Note)
	assert.False(t, r.Fields.HasOrderID())
}

func TestBatchCountByStatus(t *testing.T) {
	b := &Batch{}
	b.Append(&Record{Status: StatusSuccess})
	b.Append(&Record{Status: StatusSuccess})
	b.Append(&Record{Status: StatusNeedsReview})
	b.Append(NewFailed("x.png", "bad"))

	require.Equal(t, 4, b.Len())
	assert.Equal(t, 2, b.CountByStatus(StatusSuccess))
	assert.Equal(t, 1, b.CountByStatus(StatusNeedsReview))
	assert.Equal(t, 1, b.CountByStatus(StatusFailed))
}
