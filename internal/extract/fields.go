// Package extract turns recognized text into structured order fields
// using pattern rules. Parsing is pure: the same text always yields the
// same fields, and nothing here touches images, providers or the clock.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/orderlens/orderlens/internal/record"
	"github.com/shopspring/decimal"
)

var (
	orderIDRe  = regexp.MustCompile(`\d{3}-\d{7}-\d{7}`)
	priceRe    = regexp.MustCompile(`\$\d{1,3}(?:,\d{3})*(?:\.\d{2})?`)
	dateRe     = regexp.MustCompile(`(?i)(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+(\d{1,2}),?\s+(\d{4})`)
	isoDateRe  = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	slashRe    = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	totalRe    = regexp.MustCompile(`(?i)(?:Order Total|Grand Total|Total|Subtotal)[\s:]*(\$\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`)
	qtyRe      = regexp.MustCompile(`(?i)(?:Qty|Quantity)[.:]?\s*(\d+)`)
	sellerRe   = regexp.MustCompile(`Sold by[:\s]*(.+)`)
	trackingRe = regexp.MustCompile(`(?i)(?:Tracking|Track)[:\s]*([A-Z0-9]{10,})`)

	// Strips prices and order-id tails from a line before judging
	// whether the remainder looks like a product name.
	lineNoiseRe = regexp.MustCompile(`\$[\d,]+\.?\d*|\d{3}-\d{7}.*`)
)

var monthNum = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Lines a product name never appears on. Lowercase substring match.
var skipKeywords = []string{
	"total", "shipping", "tax", "qty", "quantity", "sold by",
	"order", "delivery", "arrives", "return", "refund",
	"customer", "account", "payment", "credit", "gift",
}

// minItemNameLen filters out fragments left over after noise stripping.
const minItemNameLen = 15

// Parse extracts every supported field from recognized text. Fields that
// do not appear are left at their zero value.
func Parse(text string) record.Fields {
	f := record.Fields{
		OrderID:        orderIDRe.FindString(text),
		Date:           firstDate(text),
		Seller:         firstSeller(text),
		TrackingNumber: firstTracking(text),
		Items:          parseItems(text),
	}
	if m := totalRe.FindStringSubmatch(text); m != nil {
		if d, err := ParseMoney(m[1]); err == nil {
			f.Total = d
		}
	}
	return f
}

// ContainsOrderID reports whether the text carries anything shaped like
// an order id. Used by the recognition scorer for its candidate bonus.
func ContainsOrderID(text string) bool { return orderIDRe.MatchString(text) }

// ValidOrderID reports whether s is exactly one well-formed order id.
func ValidOrderID(s string) bool {
	return orderIDRe.FindString(s) == s && s != ""
}

// ParseMoney converts a currency string to a decimal, tolerating a
// leading symbol and thousands separators ("$1,234.56" -> 1234.56).
func ParseMoney(s string) (*decimal.Decimal, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// NormalizeDate converts a date string to 2006-01-02 when it matches a
// known format, otherwise returns the trimmed input unchanged.
func NormalizeDate(s string) string {
	if iso := firstDate(s); iso != "" {
		return iso
	}
	return strings.TrimSpace(s)
}

// firstDate returns the first recognizable date normalized to
// 2006-01-02, or the empty string.
func firstDate(text string) string {
	if m := dateRe.FindStringSubmatch(text); m != nil {
		month, ok := monthNum[strings.ToLower(m[1])[:3]]
		if ok {
			day, _ := strconv.Atoi(m[2])
			year, _ := strconv.Atoi(m[3])
			if day >= 1 && day <= 31 {
				return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
			}
		}
	}
	if m := isoDateRe.FindStringSubmatch(text); m != nil {
		return m[0]
	}
	if m := slashRe.FindStringSubmatch(text); m != nil {
		mo, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if mo >= 1 && mo <= 12 && day >= 1 && day <= 31 {
			return time.Date(year, time.Month(mo), day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		}
	}
	return ""
}

func firstSeller(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if m := sellerRe.FindStringSubmatch(line); m != nil {
			s := strings.TrimSpace(m[1])
			if len(s) > 2 {
				return s
			}
		}
	}
	return ""
}

func firstTracking(text string) string {
	if m := trackingRe.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	return ""
}

// parseItems scans line by line for plausible product names, carrying
// along any price or quantity found on the same line. Duplicate names
// are collapsed, first occurrence wins.
func parseItems(text string) []record.Item {
	var items []record.Item
	seen := make(map[string]struct{})

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		name := strings.TrimSpace(lineNoiseRe.ReplaceAllString(line, ""))
		// A quantity marker on a product line is data, not noise.
		name = strings.TrimSpace(qtyRe.ReplaceAllString(name, ""))
		if len(name) < minItemNameLen || !startsUpper(name) || hasSkipKeyword(name) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		it := record.Item{Name: name, Quantity: 1}
		if m := qtyRe.FindStringSubmatch(line); m != nil {
			if q, err := strconv.Atoi(m[1]); err == nil && q > 0 {
				it.Quantity = q
			}
		}
		if p := priceRe.FindString(line); p != "" {
			if d, err := ParseMoney(p); err == nil {
				it.Price = d
			}
		}
		items = append(items, it)
	}
	return items
}

func startsUpper(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c >= 'A' && c <= 'Z'
}

func hasSkipKeyword(s string) bool {
	lower := strings.ToLower(s)
	for _, kw := range skipKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
