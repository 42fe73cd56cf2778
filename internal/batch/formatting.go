package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/orderlens/orderlens/internal/record"
)

var csvHeader = []string{
	"file", "status", "order_id", "date", "total", "items", "seller",
	"tracking_number", "source", "confidence", "crop_strategy",
	"duplicate_group", "note",
}

// WriteOutput writes the batch in the requested format. Format "all"
// writes csv, json, spreadsheet and report files next to each other,
// deriving names from the configured output file.
func WriteOutput(b *record.Batch, s Summary, format, file string) error {
	switch format {
	case "csv":
		return writeCSV(b, file)
	case "json":
		return writeJSON(b, s, file)
	case "spreadsheet":
		return writeSpreadsheet(b, file)
	case "report":
		return writeReport(b, s, file)
	case "all":
		base := strings.TrimSuffix(file, filepath.Ext(file))
		if err := writeCSV(b, base+".csv"); err != nil {
			return err
		}
		if err := writeJSON(b, s, base+".json"); err != nil {
			return err
		}
		if err := writeSpreadsheet(b, base+".xlsx"); err != nil {
			return err
		}
		return writeReport(b, s, base+".txt")
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func recordRow(r *record.Record) []string {
	return []string{
		r.File,
		string(r.Status),
		r.Fields.OrderID,
		r.Fields.Date,
		moneyString(r.Fields.Total),
		joinItems(r.Fields.Items),
		r.Fields.Seller,
		r.Fields.TrackingNumber,
		string(r.Source),
		fmt.Sprintf("%.1f", r.Confidence),
		r.CropStrategy,
		r.DuplicateGroup,
		r.Note,
	}
}

func joinItems(items []record.Item) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		part := it.Name
		if it.Quantity > 1 {
			part = fmt.Sprintf("%s x%d", part, it.Quantity)
		}
		if it.Price != nil {
			part = fmt.Sprintf("%s @ %s", part, it.Price.StringFixed(2))
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "; ")
}

func moneyString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}

func writeCSV(b *record.Batch, file string) error {
	f, err := os.Create(file) //nolint:gosec // G304: user-chosen output path
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range b.Records {
		if err := w.Write(recordRow(r)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(b *record.Batch, s Summary, file string) error {
	out := struct {
		Summary Summary          `json:"summary"`
		Records []*record.Record `json:"records"`
	}{Summary: s, Records: b.Records}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, append(data, '\n'), 0o644)
}

func writeSpreadsheet(b *record.Batch, file string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Orders"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	rows := [][]string{csvHeader}
	for _, r := range b.Records {
		rows = append(rows, recordRow(r))
	}
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(file)
}

func writeReport(b *record.Batch, s Summary, file string) error {
	var sb strings.Builder
	sb.WriteString(s.Render())

	var review, failed []*record.Record
	for _, r := range b.Records {
		switch r.Status {
		case record.StatusNeedsReview:
			review = append(review, r)
		case record.StatusFailed:
			failed = append(failed, r)
		}
	}
	if len(review) > 0 {
		sb.WriteString("\nNeeds review:\n")
		for _, r := range review {
			fmt.Fprintf(&sb, "  %s (%.1f) %s\n", r.File, r.Confidence, r.Note)
		}
	}
	if len(failed) > 0 {
		sb.WriteString("\nFailed:\n")
		for _, r := range failed {
			fmt.Fprintf(&sb, "  %s %s\n", r.File, r.Note)
		}
	}

	return os.WriteFile(file, []byte(sb.String()), 0o644)
}
