package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReceipt = `Order placed March 15, 2024
Order # 112-7366306-1726633
Anker USB-C to USB-C Cable 6ft Fast Charging    $12.99
Logitech M330 Silent Wireless Mouse Qty: 2      $24.99
Sold by: TechGear Direct
Tracking: TBA123456789012
Shipping: $0.00
Order Total: $62.97`

func TestParseFullReceipt(t *testing.T) {
	f := Parse(sampleReceipt)

	assert.Equal(t, "112-7366306-1726633", f.OrderID)
	assert.Equal(t, "2024-03-15", f.Date)
	require.NotNil(t, f.Total)
	assert.Equal(t, "62.97", f.Total.StringFixed(2))
	assert.Equal(t, "TechGear Direct", f.Seller)
	assert.Equal(t, "TBA123456789012", f.TrackingNumber)

	require.Len(t, f.Items, 2)
	assert.Equal(t, "Anker USB-C to USB-C Cable 6ft Fast Charging", f.Items[0].Name)
	assert.Equal(t, 1, f.Items[0].Quantity)
	require.NotNil(t, f.Items[0].Price)
	assert.Equal(t, "12.99", f.Items[0].Price.StringFixed(2))
	assert.Equal(t, 2, f.Items[1].Quantity)
}

func TestParseIsPure(t *testing.T) {
	first := Parse(sampleReceipt)
	second := Parse(sampleReceipt)
	assert.Equal(t, first, second)
}

func TestParseEmptyText(t *testing.T) {
	f := Parse("")
	assert.False(t, f.HasOrderID())
	assert.False(t, f.HasItems())
	assert.Nil(t, f.Total)
	assert.Empty(t, f.Date)
}

func TestParseDateFormats(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"month name with comma", "Ordered Jan 5, 2024", "2024-01-05"},
		{"month name abbreviated dot", "Dec. 31 2023", "2023-12-31"},
		{"iso passthrough", "shipped 2024-07-04 morning", "2024-07-04"},
		{"us slashes", "placed on 7/4/2024", "2024-07-04"},
		{"no date", "nothing here", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text).Date)
		})
	}
}

func TestParseTotalLabels(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"order total", "Order Total: $1,234.56", "1234.56"},
		{"grand total", "GRAND TOTAL $99.00", "99.00"},
		{"subtotal fallback", "Subtotal: $10.50", "10.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Parse(tt.text)
			require.NotNil(t, f.Total)
			assert.Equal(t, tt.want, f.Total.StringFixed(2))
		})
	}
}

func TestParseItemsSkipHeuristics(t *testing.T) {
	text := `Order Total: $50.00
Shipping address for this delivery
Qty: 3
Sony WH-1000XM5 Noise Canceling Headphones
short line
lowercase product name that is long enough`

	f := Parse(text)
	require.Len(t, f.Items, 1)
	assert.Equal(t, "Sony WH-1000XM5 Noise Canceling Headphones", f.Items[0].Name)
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"$12.99", "12.99", false},
		{"$1,234.56", "1234.56", false},
		{"999", "999.00", false},
		{"garbage", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseMoney(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.StringFixed(2))
		})
	}
}

func TestValidOrderID(t *testing.T) {
	assert.True(t, ValidOrderID("112-7366306-1726633"))
	assert.False(t, ValidOrderID(""))
	assert.False(t, ValidOrderID("112-7366306"))
	assert.False(t, ValidOrderID("order 112-7366306-1726633"))
}

func TestContainsOrderID(t *testing.T) {
	assert.True(t, ContainsOrderID("blah 112-7366306-1726633 blah"))
	assert.False(t, ContainsOrderID("no id in sight"))
}
