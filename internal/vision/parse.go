package vision

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/orderlens/orderlens/internal/extract"
	"github.com/orderlens/orderlens/internal/record"
)

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// ParseResponse converts a model's raw reply into order fields. It
// tolerates markdown code fences and surrounding prose, falling back
// to the outermost JSON object in the text. An error means the reply
// carried no usable data at all; the caller treats that as an empty
// extraction, not a pipeline failure.
func ParseResponse(raw string) (record.Fields, error) {
	content := stripFences(strings.TrimSpace(raw))

	var p payload
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		m := jsonObjectRe.FindString(content)
		if m == "" {
			return record.Fields{}, fmt.Errorf("no JSON object in response: %w", err)
		}
		if err := json.Unmarshal([]byte(m), &p); err != nil {
			return record.Fields{}, fmt.Errorf("malformed JSON object in response: %w", err)
		}
	}
	return p.fields(), nil
}

// stripFences removes a surrounding markdown code fence if present.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], "```") {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

type payload struct {
	OrderID        *string       `json:"order_id"`
	OrderDate      *string       `json:"order_date"`
	Total          *string       `json:"total"`
	Items          []payloadItem `json:"items"`
	Seller         *string       `json:"seller"`
	TrackingNumber *string       `json:"tracking_number"`
}

type payloadItem struct {
	Name     string  `json:"name"`
	Quantity flexInt `json:"quantity"`
	Price    *string `json:"price"`
}

// flexInt accepts a JSON number, a numeric string, or null.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "null" || s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

func (p *payload) fields() record.Fields {
	f := record.Fields{
		OrderID:        deref(p.OrderID),
		Seller:         deref(p.Seller),
		TrackingNumber: deref(p.TrackingNumber),
	}
	if d := deref(p.OrderDate); d != "" {
		f.Date = extract.NormalizeDate(d)
	}
	if t := deref(p.Total); t != "" {
		if d, err := extract.ParseMoney(t); err == nil {
			f.Total = d
		}
	}
	for _, it := range p.Items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		item := record.Item{Name: name, Quantity: int(it.Quantity)}
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
		if pr := deref(it.Price); pr != "" {
			if d, err := extract.ParseMoney(pr); err == nil {
				item.Price = d
			}
		}
		f.Items = append(f.Items, item)
	}
	return f
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
