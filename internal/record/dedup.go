package record

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// DedupConfig tunes approximate duplicate matching.
type DedupConfig struct {
	// NameSimilarity is the minimum Jaccard similarity between two
	// records' item-name sets for an approximate match.
	NameSimilarity float64

	// MaxNameDistance is the Levenshtein distance at or below which two
	// normalized item names are considered the same token.
	MaxNameDistance int
}

// DefaultDedupConfig returns the default duplicate-detection thresholds.
func DefaultDedupConfig() DedupConfig {
	return DedupConfig{
		NameSimilarity:  0.5,
		MaxNameDistance: 2,
	}
}

// Deduper groups records that likely describe the same order. Grouping is
// advisory: records are annotated, never merged or dropped.
type Deduper struct {
	cfg DedupConfig
}

// NewDeduper creates a duplicate detector.
func NewDeduper(cfg DedupConfig) *Deduper {
	if cfg.NameSimilarity <= 0 {
		cfg.NameSimilarity = DefaultDedupConfig().NameSimilarity
	}
	if cfg.MaxNameDistance <= 0 {
		cfg.MaxNameDistance = DefaultDedupConfig().MaxNameDistance
	}
	return &Deduper{cfg: cfg}
}

// Annotate assigns DuplicateGroup ids across the batch. Records with the
// same order id always share a group. When one side lacks an order id,
// matching falls back to (date, total, item-name similarity). Must run
// single-threaded after every per-image pipeline has completed.
// Returns the number of groups containing more than one record.
func (d *Deduper) Annotate(b *Batch) int {
	n := b.Len()
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, c int) {
		ra, rc := find(a), find(c)
		if ra != rc {
			parent[rc] = ra
		}
	}

	for i := range n {
		for j := i + 1; j < n; j++ {
			if d.sameOrder(b.Records[i], b.Records[j]) {
				union(i, j)
			}
		}
	}

	groupName := make(map[int]string)
	counts := make(map[int]int)
	for i := range n {
		counts[find(i)]++
	}
	next := 1
	multi := 0
	for i, r := range b.Records {
		root := find(i)
		if counts[root] < 2 {
			continue
		}
		name, ok := groupName[root]
		if !ok {
			name = fmt.Sprintf("dup-%d", next)
			groupName[root] = name
			next++
			multi++
		}
		r.DuplicateGroup = name
	}
	return multi
}

// sameOrder decides whether two records likely describe the same order.
func (d *Deduper) sameOrder(a, b *Record) bool {
	if a.Fields.HasOrderID() && b.Fields.HasOrderID() {
		return a.Fields.OrderID == b.Fields.OrderID
	}
	// Without an order id on both sides, require matching date and total
	// plus sufficiently similar item names.
	if a.Fields.Date == "" || a.Fields.Date != b.Fields.Date {
		return false
	}
	if a.Fields.Total == nil || b.Fields.Total == nil || !a.Fields.Total.Equal(*b.Fields.Total) {
		return false
	}
	return d.itemSimilarity(a.Fields.Items, b.Fields.Items) >= d.cfg.NameSimilarity
}

// itemSimilarity computes Jaccard similarity over normalized item names,
// treating names within a small edit distance as equal.
func (d *Deduper) itemSimilarity(a, b []Item) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	na := normalizeNames(a)
	nb := normalizeNames(b)

	matched := make([]bool, len(nb))
	inter := 0
	for _, x := range na {
		for j, y := range nb {
			if matched[j] {
				continue
			}
			if x == y || levenshtein.ComputeDistance(x, y) <= d.cfg.MaxNameDistance {
				matched[j] = true
				inter++
				break
			}
		}
	}
	union := len(na) + len(nb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func normalizeNames(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		n := strings.ToLower(strings.Join(strings.Fields(it.Name), " "))
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}
