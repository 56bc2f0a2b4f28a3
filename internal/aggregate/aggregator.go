// Package aggregate builds the band-by-month loan-volume matrix the
// distribution report renders, plus the lender-free market baseline used as
// the market-share denominator. Sums are decimal so the band, month and grand
// totals agree exactly, not merely within float tolerance.
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"mpdcli/internal/filter"
	"mpdcli/internal/premium"
	"mpdcli/pkg/contracts/domain"
)

// Result is a band-by-month loan-volume matrix with marginal totals.
// Invariant: the band totals, the month totals and the cells each sum to
// GrandTotal — every qualifying record lands in exactly one cell.
type Result struct {
	Bands       []string                              `json:"bands"`
	Months      []string                              `json:"months"`
	Cells       map[string]map[string]decimal.Decimal `json:"cells"`
	BandTotals  map[string]decimal.Decimal            `json:"band_totals"`
	MonthTotals map[string]decimal.Decimal            `json:"month_totals"`
	GrandTotal  decimal.Decimal                       `json:"grand_total"`
}

// Cell returns the loan sum for a band and month (zero when empty).
func (r Result) Cell(band, month string) decimal.Decimal {
	if row, ok := r.Cells[band]; ok {
		if v, ok := row[month]; ok {
			return v
		}
	}
	return decimal.Zero
}

// Aggregate sums loan volumes into band-by-month cells. A record qualifies
// when it has a known band, a month and a positive loan amount; each
// qualifying record contributes to exactly one cell, one band total, one
// month total and the grand total.
func Aggregate(records []domain.EnrichedLoanRecord) Result {
	result := Result{
		Cells:       make(map[string]map[string]decimal.Decimal),
		BandTotals:  make(map[string]decimal.Decimal),
		MonthTotals: make(map[string]decimal.Decimal),
		GrandTotal:  decimal.Zero,
	}

	for _, rec := range records {
		if !qualifies(rec) {
			continue
		}

		amount := decimal.NewFromFloat(rec.LoanAmount)

		row, ok := result.Cells[rec.Band]
		if !ok {
			row = make(map[string]decimal.Decimal)
			result.Cells[rec.Band] = row
			result.Bands = append(result.Bands, rec.Band)
		}
		if _, seen := result.MonthTotals[rec.Month]; !seen {
			result.Months = append(result.Months, rec.Month)
		}

		row[rec.Month] = row[rec.Month].Add(amount)
		result.BandTotals[rec.Band] = result.BandTotals[rec.Band].Add(amount)
		result.MonthTotals[rec.Month] = result.MonthTotals[rec.Month].Add(amount)
		result.GrandTotal = result.GrandTotal.Add(amount)
	}

	premium.SortBands(result.Bands)
	sort.Strings(result.Months)

	return result
}

// MarketBaseline aggregates the records passing every enabled filter except
// the lender selection. This is the "% of market" denominator and must be
// recomputed whenever the non-lender criteria change, independent of which
// lenders are selected.
func MarketBaseline(records []domain.EnrichedLoanRecord, criteria domain.FilterCriteria, flags domain.FilterFlags) Result {
	stages := filter.BuildPipeline(criteria, flags.WithoutLender())
	return Aggregate(filter.Apply(records, stages))
}

// qualifies gates records into the aggregation: known band, month present,
// positive loan amount. Everything else is already accounted for in the
// session's exclusion statistics.
func qualifies(rec domain.EnrichedLoanRecord) bool {
	return rec.Band != domain.BandUnknown && rec.Band != "" &&
		rec.Month != "" && rec.LoanAmount > 0
}
