// Package swapmatch finds the benchmark swap quote in effect for each loan
// record. A record that cannot be matched is not an error: it is a counted
// exclusion, reported with the volume and per-month miss buckets the report
// surfaces alongside the distribution.
package swapmatch

import (
	"log/slog"
	"sort"
	"time"

	"mpdcli/pkg/contracts/domain"
)

// DefaultToleranceDays is the fallback window for using a quote when none
// precedes the document date.
const DefaultToleranceDays = 5

// Matcher selects the applicable quote per record
type Matcher struct {
	toleranceDays int
	logger        *slog.Logger
}

// New creates a matcher. toleranceDays < 0 selects the default window.
func New(toleranceDays int, logger *slog.Logger) *Matcher {
	if toleranceDays < 0 {
		toleranceDays = DefaultToleranceDays
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{toleranceDays: toleranceDays, logger: logger}
}

// Match returns the quote in effect for the record, or nil when the record is
// excluded. Selection order:
//  1. quotes of the record's normalized term, else quotes of the nearest
//     distinct term present (tie prefers the smaller term);
//  2. the latest quote effective on or before the document date;
//  3. failing that, the quote nearest the document date in either direction,
//     if within the tolerance window.
func (m *Matcher) Match(rec domain.NormalizedLoanRecord, quotes []domain.RateQuote) *domain.RateQuote {
	if !rec.HasTerm() || len(quotes) == 0 {
		return nil
	}

	candidates := quotesForTerm(quotes, rec.TermMonths)
	if len(candidates) == 0 {
		term, ok := nearestTerm(quotes, rec.TermMonths)
		if !ok {
			return nil
		}
		m.logger.Debug("no quotes for term, using nearest",
			slog.Int("record_term", rec.TermMonths),
			slog.Int("matched_term", term))
		candidates = quotesForTerm(quotes, term)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].EffectiveDate.Before(candidates[j].EffectiveDate)
	})

	// Last rate in effect: the latest quote not after the document date.
	var inEffect *domain.RateQuote
	for i := range candidates {
		if candidates[i].EffectiveDate.After(rec.DocumentDate) {
			break
		}
		inEffect = &candidates[i]
	}
	if inEffect != nil {
		return inEffect
	}

	// No preceding quote. Accept the nearest quote in either direction when
	// it falls inside the tolerance window.
	nearest := &candidates[0]
	best := absDuration(nearest.EffectiveDate.Sub(rec.DocumentDate))
	for i := 1; i < len(candidates); i++ {
		if d := absDuration(candidates[i].EffectiveDate.Sub(rec.DocumentDate)); d < best {
			nearest = &candidates[i]
			best = d
		}
	}
	if best <= time.Duration(m.toleranceDays)*24*time.Hour {
		return nearest
	}

	return nil
}

// quotesForTerm copies out the quotes of a single term so the caller can sort
// without disturbing the shared slice.
func quotesForTerm(quotes []domain.RateQuote, term int) []domain.RateQuote {
	var out []domain.RateQuote
	for _, q := range quotes {
		if q.TermMonths == term {
			out = append(out, q)
		}
	}
	return out
}

// nearestTerm picks, among the distinct terms present, the one closest to
// want. Ties prefer the smaller term.
func nearestTerm(quotes []domain.RateQuote, want int) (int, bool) {
	seen := make(map[int]bool)
	terms := make([]int, 0, 4)
	for _, q := range quotes {
		if !seen[q.TermMonths] {
			seen[q.TermMonths] = true
			terms = append(terms, q.TermMonths)
		}
	}
	if len(terms) == 0 {
		return 0, false
	}
	sort.Ints(terms)

	best := terms[0]
	bestDist := abs(terms[0] - want)
	for _, t := range terms[1:] {
		// Strict less keeps the smaller term on a tie (terms are ascending).
		if d := abs(t - want); d < bestDist {
			best = t
			bestDist = d
		}
	}
	return best, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
