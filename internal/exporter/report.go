package exporter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mpdcli/internal/aggregate"
	"mpdcli/internal/analysis"
	apperrors "mpdcli/internal/errors"
	"mpdcli/internal/premium"
	"mpdcli/internal/share"
)

// WriteDistributionCSV writes the band-by-month loan-volume matrix: one row
// per band plus a closing totals row, one column per month plus a totals
// column.
func (w *Writer) WriteDistributionCSV(name string, result aggregate.Result) error {
	headers := append([]string{"Band"}, result.Months...)
	headers = append(headers, "Total")

	rows := make([][]string, 0, len(result.Bands)+1)
	for _, band := range result.Bands {
		row := make([]string, 0, len(headers))
		row = append(row, band)
		for _, month := range result.Months {
			row = append(row, result.Cell(band, month).String())
		}
		row = append(row, result.BandTotals[band].String())
		rows = append(rows, row)
	}

	totals := make([]string, 0, len(headers))
	totals = append(totals, "Total")
	for _, month := range result.Months {
		totals = append(totals, result.MonthTotals[month].String())
	}
	totals = append(totals, result.GrandTotal.String())
	rows = append(rows, totals)

	return w.writeCSV(name, headers, rows)
}

// WriteLenderShareCSV writes the market-share table: per-lender rows with
// loan sum, LTV split and band percentage for each band, then the Total
// Market summary row.
func (w *Writer) WriteLenderShareCSV(name string, result share.Result) error {
	bands := make([]string, 0, len(result.BandTotals))
	for band := range result.BandTotals {
		bands = append(bands, band)
	}
	premium.SortBands(bands)

	headers := []string{"Lender"}
	for _, band := range bands {
		headers = append(headers,
			band,
			band+" <=80 LTV",
			band+" >80 LTV",
			band+" %")
	}
	headers = append(headers, "Total", "Market %")

	rows := make([][]string, 0, len(result.Lenders)+1)
	for _, lender := range result.Lenders {
		rows = append(rows, shareRow(result.Rows[lender], bands))
	}
	rows = append(rows, shareRow(result.Summary, bands))

	return w.writeCSV(name, headers, rows)
}

func shareRow(row share.LenderRow, bands []string) []string {
	out := make([]string, 0, len(bands)*4+3)
	out = append(out, row.Lender)
	for _, band := range bands {
		stat := row.Bands[band]
		out = append(out,
			stat.Value.String(),
			stat.Below80.String(),
			stat.Above80.String(),
			fmt.Sprintf("%.1f", stat.PctOfBand))
	}
	out = append(out, row.Total.String(), fmt.Sprintf("%.1f", row.PctOfMarket))
	return out
}

// Summary is the JSON report envelope for downstream rendering.
type Summary struct {
	SessionID    string               `json:"session_id"`
	GeneratedAt  time.Time            `json:"generated_at"`
	Stats        analysis.EnrichStats `json:"stats"`
	Distribution aggregate.Result     `json:"distribution"`
	Baseline     aggregate.Result     `json:"market_baseline"`
	Share        share.Result         `json:"lender_share"`
}

// WriteSummaryJSON writes the machine-readable session summary.
func (w *Writer) WriteSummaryJSON(name string, summary Summary) error {
	path := filepath.Join(w.outputDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create output directory", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("failed to create summary JSON", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(summary); err != nil {
		return apperrors.NewStorageError("failed to encode summary JSON", err)
	}

	w.logger.Info("wrote report file", slog.String("path", path))

	return nil
}
