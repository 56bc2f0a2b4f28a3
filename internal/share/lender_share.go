// Package share computes per-lender market-share tables over selected
// premium bands. Inputs are expected to be filtered with the lender stage
// disabled, so the percentages are shares of the filtered-but-not-
// lender-restricted market.
package share

import (
	"sort"

	"github.com/shopspring/decimal"

	"mpdcli/pkg/contracts/domain"
)

// TotalMarketRow is the lender name of the synthetic summary row.
const TotalMarketRow = "Total Market"

var hundred = decimal.NewFromInt(100)

// BandStat is one lender's position in one band.
type BandStat struct {
	Value     decimal.Decimal `json:"value"`
	Below80   decimal.Decimal `json:"below_80"`
	Above80   decimal.Decimal `json:"above_80"`
	PctOfBand float64         `json:"pct_of_band"`
}

// LenderRow is one lender's row across the selected bands.
type LenderRow struct {
	Lender      string              `json:"lender"`
	Bands       map[string]BandStat `json:"bands"`
	Total       decimal.Decimal     `json:"total"`
	PctOfMarket float64             `json:"pct_of_market"`
}

// Result is the lender market-share table.
type Result struct {
	Lenders    []string                   `json:"lenders"`
	Rows       map[string]LenderRow       `json:"rows"`
	BandTotals map[string]decimal.Decimal `json:"band_totals"`
	GrandTotal decimal.Decimal            `json:"grand_total"`
	Summary    LenderRow                  `json:"summary"`
}

// LenderShare builds the market-share table over the selected bands. An empty
// selection means every known band present in the records. Records with an
// empty lender name still count toward band and market totals but get no row
// of their own. The Total Market summary row equals the band and grand totals
// with its percentages pinned at exactly 100 — an identity of the
// construction, not a computed approximation.
func LenderShare(records []domain.EnrichedLoanRecord, selectedBands []string) Result {
	selected := make(map[string]bool, len(selectedBands))
	for _, band := range selectedBands {
		selected[band] = true
	}

	result := Result{
		Rows:       make(map[string]LenderRow),
		BandTotals: make(map[string]decimal.Decimal),
		GrandTotal: decimal.Zero,
	}

	for _, rec := range records {
		if rec.Band == domain.BandUnknown || rec.Band == "" || rec.LoanAmount <= 0 {
			continue
		}
		if len(selected) > 0 && !selected[rec.Band] {
			continue
		}

		amount := decimal.NewFromFloat(rec.LoanAmount)
		result.BandTotals[rec.Band] = result.BandTotals[rec.Band].Add(amount)
		result.GrandTotal = result.GrandTotal.Add(amount)

		if rec.Lender == "" {
			continue
		}

		row, ok := result.Rows[rec.Lender]
		if !ok {
			row = LenderRow{Lender: rec.Lender, Bands: make(map[string]BandStat)}
			result.Lenders = append(result.Lenders, rec.Lender)
		}

		stat := row.Bands[rec.Band]
		stat.Value = stat.Value.Add(amount)
		if rec.HasLTV() {
			if rec.LTV <= 80 {
				stat.Below80 = stat.Below80.Add(amount)
			} else {
				stat.Above80 = stat.Above80.Add(amount)
			}
		}
		row.Bands[rec.Band] = stat
		row.Total = row.Total.Add(amount)
		result.Rows[rec.Lender] = row
	}

	sort.Strings(result.Lenders)

	// Percentages against the lender-free totals.
	for lender, row := range result.Rows {
		for band, stat := range row.Bands {
			stat.PctOfBand = pct(stat.Value, result.BandTotals[band])
			row.Bands[band] = stat
		}
		row.PctOfMarket = pct(row.Total, result.GrandTotal)
		result.Rows[lender] = row
	}

	result.Summary = summaryRow(result)

	return result
}

// summaryRow builds the Total Market row from the already-accumulated totals.
func summaryRow(r Result) LenderRow {
	row := LenderRow{
		Lender:      TotalMarketRow,
		Bands:       make(map[string]BandStat, len(r.BandTotals)),
		Total:       r.GrandTotal,
		PctOfMarket: 100,
	}
	for band, total := range r.BandTotals {
		row.Bands[band] = BandStat{Value: total, PctOfBand: 100}
	}
	return row
}

// pct renders value as a percentage of total, rounded to one decimal place.
func pct(value, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	p, _ := value.Mul(hundred).Div(total).Round(1).Float64()
	return p
}
