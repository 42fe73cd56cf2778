package extract

import (
	"testing"

	"github.com/orderlens/orderlens/internal/record"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestConfidenceWeights(t *testing.T) {
	tests := []struct {
		name    string
		fields  record.Fields
		ocrConf float64
		want    float64
	}{
		{
			name:    "nothing extracted",
			fields:  record.Fields{},
			ocrConf: 50,
			want:    20, // 50 * 0.4
		},
		{
			name:    "order id only",
			fields:  record.Fields{OrderID: "112-7366306-1726633"},
			ocrConf: 50,
			want:    45, // 20 + 25
		},
		{
			name:    "malformed order id earns nothing",
			fields:  record.Fields{OrderID: "112-7366306"},
			ocrConf: 50,
			want:    20,
		},
		{
			name: "items capped at twenty",
			fields: record.Fields{Items: []record.Item{
				{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}, {Name: "e"}, {Name: "f"},
			}},
			ocrConf: 50,
			want:    40, // 20 + min(30, 20)
		},
		{
			name: "all bonuses",
			fields: record.Fields{
				OrderID: "112-7366306-1726633",
				Date:    "2024-03-15",
				Total:   dec("62.97"),
				Items:   []record.Item{{Name: "a"}, {Name: "b"}},
			},
			ocrConf: 80,
			want:    82, // 32 + 25 + 10 + 10 + 5
		},
		{
			name: "clamped to one hundred",
			fields: record.Fields{
				OrderID: "112-7366306-1726633",
				Date:    "2024-03-15",
				Total:   dec("62.97"),
				Items:   []record.Item{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}},
			},
			ocrConf: 100,
			want:    100,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Confidence(&tt.fields, tt.ocrConf)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}
