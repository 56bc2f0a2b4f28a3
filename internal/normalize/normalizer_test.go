package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mpdcli/internal/shared/testutil"
	"mpdcli/pkg/contracts/domain"
)

// TestNormalizeTerm tests committed-term bucketing for numeric and free-text
// tie-in periods
func TestNormalizeTerm(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"exact 24 months", "24", domain.Term2Year},
		{"25 months snaps down", "25", domain.Term2Year},
		{"27 months upper edge", "27", domain.Term2Year},
		{"28 months outside window", "28", domain.TermUnknown},
		{"exact 60 months", "60", domain.Term5Year},
		{"63 months upper edge", "63", domain.Term5Year},
		{"30 months unbucketable", "30", domain.TermUnknown},
		{"two years text", "2 years", domain.Term2Year},
		{"2yr fixed", "2yr fixed", domain.Term2Year},
		{"5yr", "5yr", domain.Term5Year},
		{"5 year tracker", "5 year tracker", domain.Term5Year},
		{"3 years unbucketable", "3 years", domain.TermUnknown},
		{"empty", "", domain.TermUnknown},
		{"no digits", "lifetime tracker", domain.TermUnknown},
		{"fractional months", "24.4", domain.Term2Year},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeTerm(tt.input))
		})
	}
}

// TestNormalizeLTV tests the LTV spelling fallback and fraction heuristic
func TestNormalizeLTV(t *testing.T) {
	tests := []struct {
		name     string
		raw      domain.RawLoanRecord
		expected float64
	}{
		{"percent as-is", domain.RawLoanRecord{LoanToValue: 75}, 75},
		{"fraction scaled", domain.RawLoanRecord{LoanToValue: 0.85}, 85},
		{"alternate spelling", domain.RawLoanRecord{LTVPercent: 60}, 60},
		{"primary wins", domain.RawLoanRecord{LoanToValue: 70, LTVPercent: 90}, 70},
		{"missing", domain.RawLoanRecord{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, NormalizeLTV(tt.raw), 1e-9)
		})
	}
}

func TestParseDate(t *testing.T) {
	t.Run("iso date", func(t *testing.T) {
		assert.Equal(t, time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC), ParseDate("2023-04-12"))
	})

	t.Run("day first", func(t *testing.T) {
		assert.Equal(t, time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC), ParseDate("12/04/2023"))
	})

	t.Run("garbage defaults to zero time", func(t *testing.T) {
		assert.True(t, ParseDate("not a date").IsZero())
	})

	t.Run("empty defaults to zero time", func(t *testing.T) {
		assert.True(t, ParseDate("").IsZero())
	})
}

func TestNormalize(t *testing.T) {
	n := New(nil)

	t.Run("base lender preferred over provider", func(t *testing.T) {
		rec := n.Normalize(domain.RawLoanRecord{
			BaseLender: "  HSBC  ",
			Provider:   "HSBC Bank plc",
		})
		assert.Equal(t, "HSBC", rec.Lender)
	})

	t.Run("provider fallback", func(t *testing.T) {
		rec := n.Normalize(domain.RawLoanRecord{Provider: " Barclays "})
		assert.Equal(t, "Barclays", rec.Lender)
	})

	t.Run("no lender still proceeds", func(t *testing.T) {
		rec := n.Normalize(domain.RawLoanRecord{LoanAmount: 100000})
		assert.Equal(t, "", rec.Lender)
		assert.Equal(t, 100000.0, rec.LoanAmount)
	})

	t.Run("missing numerics coerce to zero", func(t *testing.T) {
		rec := n.Normalize(domain.RawLoanRecord{Provider: "NatWest"})
		assert.Zero(t, rec.InitialRate)
		assert.Zero(t, rec.LoanAmount)
	})

	t.Run("full record", func(t *testing.T) {
		rec := n.Normalize(domain.RawLoanRecord{
			BaseLender:   "Nationwide",
			DocumentDate: "2023-06-15",
			InitialRate:  4.25,
			LoanAmount:   250000,
			LoanToValue:  0.9,
			ProductType:  "Fixed",
			PurchaseType: "Remortgage",
			TieInPeriod:  "5 years",
		})

		assert.Equal(t, "Nationwide", rec.Lender)
		assert.Equal(t, time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), rec.DocumentDate)
		assert.InDelta(t, 90, rec.LTV, 1e-9)
		assert.Equal(t, domain.Term5Year, rec.TermMonths)
		assert.Equal(t, "2023-06", rec.MonthKey())
	})
}

func TestNormalizeUnparseableDateWarns(t *testing.T) {
	logger, handler := testutil.NewBufferedLogger(t)
	n := New(logger)

	rec := n.Normalize(domain.RawLoanRecord{
		Provider:     "Halifax",
		DocumentDate: "sometime in spring",
	})

	require.True(t, rec.DocumentDate.IsZero())
	assert.Equal(t, "0001-01", rec.MonthKey())
	assert.True(t, handler.ContainsMessage("unparseable document date"))
}

func TestNormalizeAll(t *testing.T) {
	logger, handler := testutil.NewBufferedLogger(t)
	n := New(logger)

	records := n.NormalizeAll([]domain.RawLoanRecord{
		{Provider: "HSBC", TieInPeriod: "24"},
		{TieInPeriod: "30"},
	})

	require.Len(t, records, 2)
	assert.True(t, records[0].HasTerm())
	assert.False(t, records[1].HasTerm())
	assert.True(t, handler.ContainsMessage("normalized disclosure records"))
}
