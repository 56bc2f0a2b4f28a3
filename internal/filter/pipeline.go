// Package filter models the view-selection pipeline as data: an ordered list
// of named {predicate, enabled} stages built from the user's criteria. Call
// sites pass an explicit flags value instead of branching over which filters
// apply, which is what lets market-share views drop just the lender stage.
package filter

import (
	"strings"

	"mpdcli/internal/premium"
	"mpdcli/pkg/contracts/domain"
)

// Predicate decides whether an enriched record passes one criterion.
type Predicate func(domain.EnrichedLoanRecord) bool

// Stage is one toggleable criterion in the pipeline.
type Stage struct {
	Name    string
	Enabled bool
	Pred    Predicate
}

// BuildPipeline assembles the full stage list for the given criteria. Every
// stage is present; flags decide which ones Apply consults.
func BuildPipeline(c domain.FilterCriteria, f domain.FilterFlags) []Stage {
	return []Stage{
		{Name: "date_range", Enabled: f.DateRange, Pred: dateRangePredicate(c)},
		{Name: "lender", Enabled: f.Lender, Pred: setPredicate(c.Lenders, lenderOf)},
		{Name: "premium", Enabled: f.Premium, Pred: premiumPredicate(c)},
		{Name: "product_type", Enabled: f.ProductType, Pred: setPredicate(c.ProductTypes, productOf)},
		{Name: "purchase_type", Enabled: f.PurchaseType, Pred: setPredicate(c.PurchaseTypes, purchaseOf)},
		{Name: "ltv", Enabled: f.LTV, Pred: ltvPredicate(c.LTVBucket)},
		{Name: "term", Enabled: f.Term, Pred: termPredicate(c.TermMonths)},
	}
}

// Apply returns the records passing every enabled stage. The input slice is
// never mutated; the result is a fresh slice over the same record values.
func Apply(records []domain.EnrichedLoanRecord, stages []Stage) []domain.EnrichedLoanRecord {
	out := make([]domain.EnrichedLoanRecord, 0, len(records))
	for _, rec := range records {
		if passes(rec, stages) {
			out = append(out, rec)
		}
	}
	return out
}

func passes(rec domain.EnrichedLoanRecord, stages []Stage) bool {
	for _, s := range stages {
		if s.Enabled && !s.Pred(rec) {
			return false
		}
	}
	return true
}

// dateRangePredicate checks the record month against the inclusive month-key
// range. Month keys compare lexicographically in chronological order.
func dateRangePredicate(c domain.FilterCriteria) Predicate {
	from, to := c.MonthFrom, c.MonthTo
	return func(rec domain.EnrichedLoanRecord) bool {
		if from != "" && rec.Month < from {
			return false
		}
		if to != "" && rec.Month > to {
			return false
		}
		return true
	}
}

// setPredicate builds a membership test over a selection set. An empty set
// passes everything.
func setPredicate(values []string, key func(domain.EnrichedLoanRecord) string) Predicate {
	if len(values) == 0 {
		return passAll
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.TrimSpace(v)] = true
	}
	return func(rec domain.EnrichedLoanRecord) bool {
		return set[key(rec)]
	}
}

// premiumPredicate requires a known premium within the inclusive range. A
// record carrying only a band label passes when the band's interval overlaps
// the range at all; a record with no band fails.
func premiumPredicate(c domain.FilterCriteria) Predicate {
	return func(rec domain.EnrichedLoanRecord) bool {
		if rec.HasPremium() {
			return *rec.PremiumBps >= c.MinPremiumBps && *rec.PremiumBps <= c.MaxPremiumBps
		}
		return premium.Overlaps(rec.Band, c.MinPremiumBps, c.MaxPremiumBps)
	}
}

// ltvPredicate splits at 80% LTV. Records without LTV data pass either
// bucket (lenient default); LTV of exactly 80 counts as below.
func ltvPredicate(bucket domain.LTVBucket) Predicate {
	switch bucket {
	case domain.LTVBelow80:
		return func(rec domain.EnrichedLoanRecord) bool {
			return !rec.HasLTV() || rec.LTV <= 80
		}
	case domain.LTVAbove80:
		return func(rec domain.EnrichedLoanRecord) bool {
			return !rec.HasLTV() || rec.LTV > 80
		}
	default:
		return passAll
	}
}

// termPredicate matches the normalized committed term exactly. A zero
// selector passes everything.
func termPredicate(term int) Predicate {
	if term == domain.TermUnknown {
		return passAll
	}
	return func(rec domain.EnrichedLoanRecord) bool {
		return rec.TermMonths == term
	}
}

func passAll(domain.EnrichedLoanRecord) bool { return true }

func lenderOf(rec domain.EnrichedLoanRecord) string   { return rec.Lender }
func productOf(rec domain.EnrichedLoanRecord) string  { return rec.ProductType }
func purchaseOf(rec domain.EnrichedLoanRecord) string { return rec.PurchaseType }
