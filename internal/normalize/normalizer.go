// Package normalize canonicalizes raw disclosure records: lender aliases,
// LTV spellings, free-text tie-in periods and loosely formatted dates all
// collapse to the normalized form the matching and banding engine expects.
package normalize

import (
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"mpdcli/pkg/contracts/domain"
)

// dateLayouts are tried in order when parsing document dates. Disclosure
// feeds are inconsistent; day-first layouts come last so ISO dates win.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"2 Jan 2006",
	"2 January 2006",
}

// Normalizer canonicalizes raw loan records
type Normalizer struct {
	logger *slog.Logger
}

// New creates a normalizer. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// Normalize canonicalizes a single record. Per-record defects never fail the
// record: missing numeric fields stay zero, an unparseable document date
// defaults to the zero time (month key "0001-01", visibly first in reports)
// and an unbucketable term marks the record TermUnknown.
func (n *Normalizer) Normalize(raw domain.RawLoanRecord) domain.NormalizedLoanRecord {
	rec := domain.NormalizedLoanRecord{
		Lender:       raw.LenderName(),
		DocumentDate: ParseDate(raw.DocumentDate),
		InitialRate:  raw.InitialRate,
		LoanAmount:   raw.LoanAmount,
		LTV:          NormalizeLTV(raw),
		ProductType:  strings.TrimSpace(raw.ProductType),
		PurchaseType: strings.TrimSpace(raw.PurchaseType),
		TermMonths:   NormalizeTerm(raw.TieInPeriod),
	}

	if rec.DocumentDate.IsZero() && strings.TrimSpace(raw.DocumentDate) != "" {
		n.logger.Warn("unparseable document date, using zero-date default",
			slog.String("document_date", raw.DocumentDate),
			slog.String("lender", rec.Lender))
	}

	return rec
}

// NormalizeAll canonicalizes a batch, logging summary counts.
func (n *Normalizer) NormalizeAll(raws []domain.RawLoanRecord) []domain.NormalizedLoanRecord {
	records := make([]domain.NormalizedLoanRecord, 0, len(raws))
	missingLender := 0
	unknownTerm := 0

	for _, raw := range raws {
		rec := n.Normalize(raw)
		if rec.Lender == "" {
			missingLender++
		}
		if !rec.HasTerm() {
			unknownTerm++
		}
		records = append(records, rec)
	}

	n.logger.Info("normalized disclosure records",
		slog.Int("records", len(records)),
		slog.Int("missing_lender", missingLender),
		slog.Int("unknown_term", unknownTerm))

	return records
}

// ParseDate parses a document date, returning the zero time when no layout
// matches. Callers treat the zero time as the documented deterministic
// default rather than an error.
func ParseDate(raw string) time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// NormalizeLTV resolves the LTV field spellings and unit. Values in (0,1) are
// fractions and scale to percent; anything else is assumed to already be a
// percentage. Zero means the source carried no LTV.
func NormalizeLTV(raw domain.RawLoanRecord) float64 {
	v := raw.LoanToValue
	if v == 0 {
		v = raw.LTVPercent
	}
	if v > 0 && v < 1 {
		v *= 100
	}
	return v
}

// NormalizeTerm buckets a tie-in period to 24 or 60 months. Numeric input is
// months; free text ("2 years", "5yr fixed") yields years from its first
// digit run, converted to months. Values outside the 24-27 and 60-63 windows
// return TermUnknown.
func NormalizeTerm(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.TermUnknown
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return bucketMonths(int(math.Round(v)))
	}

	years, ok := leadingDigits(s)
	if !ok {
		return domain.TermUnknown
	}
	return bucketMonths(years * 12)
}

// bucketMonths snaps month counts to the committed-term buckets. The 24-27
// and 60-63 windows absorb the odd extra months lenders quote (e.g. a "2
// year" deal with a 26-month tie-in).
func bucketMonths(p int) int {
	switch {
	case p >= 24 && p <= 27:
		return domain.Term2Year
	case p >= 60 && p <= 63:
		return domain.Term5Year
	default:
		return domain.TermUnknown
	}
}

// leadingDigits extracts the first run of digits anywhere in s.
func leadingDigits(s string) (int, bool) {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			v, err := strconv.Atoi(s[start:i])
			return v, err == nil
		}
	}
	if start >= 0 {
		v, err := strconv.Atoi(s[start:])
		return v, err == nil
	}
	return 0, false
}
