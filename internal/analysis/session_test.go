package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mpdcli/internal/config"
	apperrors "mpdcli/internal/errors"
	"mpdcli/internal/filter"
	"mpdcli/internal/shared/testutil"
	"mpdcli/pkg/contracts/domain"
)

func testConfig() *config.Config {
	return &config.Config{
		Bands:    config.BandConfig{MinBps: -60, MaxBps: 560, WidthBps: 20},
		Matching: config.MatchingConfig{ToleranceDays: 5},
		Rates:    config.RateConfig{Unit: "auto"},
	}
}

func testSession(t *testing.T) *Session {
	t.Helper()
	logger, _ := testutil.NewBufferedLogger(t)
	return NewSession(testConfig(), logger)
}

func testQuotes() []domain.RateQuote {
	return []domain.RateQuote{
		{TermMonths: 24, EffectiveDate: date("2023-01-01"), Rate: 0.010},
		{TermMonths: 24, EffectiveDate: date("2023-01-05"), Rate: 0.015},
		{TermMonths: 60, EffectiveDate: date("2023-01-01"), Rate: 0.020},
	}
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestEnrich(t *testing.T) {
	s := testSession(t)

	raws := []domain.RawLoanRecord{
		{BaseLender: "HSBC", DocumentDate: "2023-01-10", InitialRate: 3.99, LoanAmount: 100000, LoanToValue: 75, TieInPeriod: "2 years"},
		{BaseLender: "Barclays", DocumentDate: "2023-01-15", InitialRate: 4.50, LoanAmount: 150000, LoanToValue: 90, TieInPeriod: "5 years"},
		{BaseLender: "NatWest", DocumentDate: "2023-01-20", InitialRate: 4.10, LoanAmount: 80000, TieInPeriod: "lifetime"},
	}

	enriched, err := s.Enrich(context.Background(), raws, testQuotes())
	require.NoError(t, err)
	require.Len(t, enriched, 3)

	hsbc := enriched[0]
	require.NotNil(t, hsbc.PremiumBps)
	assert.Equal(t, 249, *hsbc.PremiumBps)
	assert.Equal(t, "240-260", hsbc.Band)
	assert.Equal(t, "2023-01", hsbc.Month)

	barclays := enriched[1]
	require.NotNil(t, barclays.PremiumBps)
	assert.Equal(t, 250, *barclays.PremiumBps)

	// The unknown-term record stays in the set with no premium.
	natwest := enriched[2]
	assert.Nil(t, natwest.PremiumBps)
	assert.Equal(t, domain.BandUnknown, natwest.Band)

	stats := s.Stats()
	assert.Equal(t, 3, stats.RecordsIn)
	assert.Equal(t, 3, stats.QuotesIn)
	assert.Equal(t, 3, stats.Enriched)
	assert.Equal(t, 1, stats.NullTermRecords)
	assert.Equal(t, 0, stats.Exclusions.Count)
}

func TestEnrichEmptyInputs(t *testing.T) {
	s := testSession(t)

	_, err := s.Enrich(context.Background(), nil, testQuotes())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyInput))

	_, err = s.Enrich(context.Background(), []domain.RawLoanRecord{{BaseLender: "HSBC"}}, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyInput))
}

func TestEnrichRecordsExclusions(t *testing.T) {
	s := testSession(t)

	// Known term but the document predates every quote beyond tolerance.
	raws := []domain.RawLoanRecord{
		{BaseLender: "HSBC", DocumentDate: "2022-10-01", InitialRate: 3.99, LoanAmount: 100000, TieInPeriod: "24"},
	}

	enriched, err := s.Enrich(context.Background(), raws, testQuotes())
	require.NoError(t, err)

	assert.Nil(t, enriched[0].PremiumBps)
	assert.Equal(t, domain.BandUnknown, enriched[0].Band)

	stats := s.Stats()
	assert.Equal(t, 1, stats.Exclusions.Count)
	assert.Equal(t, 100000.0, stats.Exclusions.ExcludedVolume)
	assert.Equal(t, 1, stats.Exclusions.MissesByMonth["2022-10"])
}

func TestCachedFilteredMemoizes(t *testing.T) {
	s := testSession(t)

	raws := []domain.RawLoanRecord{
		{BaseLender: "HSBC", DocumentDate: "2023-01-10", InitialRate: 3.99, LoanAmount: 100000, TieInPeriod: "24"},
		{BaseLender: "Barclays", DocumentDate: "2023-01-15", InitialRate: 4.50, LoanAmount: 150000, TieInPeriod: "60"},
	}
	_, err := s.Enrich(context.Background(), raws, testQuotes())
	require.NoError(t, err)

	computations := 0
	inner := s.applyFilters
	s.applyFilters = func(records []domain.EnrichedLoanRecord, stages []filter.Stage) []domain.EnrichedLoanRecord {
		computations++
		return inner(records, stages)
	}

	criteria := domain.FilterCriteria{Lenders: []string{"HSBC"}}
	flags := domain.FilterFlags{Lender: true}

	first, err := s.CachedFiltered(criteria, flags)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, computations)

	// Same logical state, different selection order: served from cache.
	again, err := s.CachedFiltered(domain.FilterCriteria{Lenders: []string{"HSBC"}}, flags)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, computations)

	// Different flags recompute.
	_, err = s.CachedFiltered(criteria, domain.FilterFlags{})
	require.NoError(t, err)
	assert.Equal(t, 2, computations)
}

func TestInvalidateCacheForcesRecompute(t *testing.T) {
	s := testSession(t)

	raws := []domain.RawLoanRecord{
		{BaseLender: "HSBC", DocumentDate: "2023-01-10", InitialRate: 3.99, LoanAmount: 100000, TieInPeriod: "24"},
	}
	_, err := s.Enrich(context.Background(), raws, testQuotes())
	require.NoError(t, err)

	computations := 0
	s.applyFilters = func(records []domain.EnrichedLoanRecord, stages []filter.Stage) []domain.EnrichedLoanRecord {
		computations++
		return filter.Apply(records, stages)
	}

	criteria := domain.FilterCriteria{Lenders: []string{"HSBC"}}
	flags := domain.FilterFlags{Lender: true}

	_, err = s.CachedFiltered(criteria, flags)
	require.NoError(t, err)
	_, err = s.CachedFiltered(criteria, flags)
	require.NoError(t, err)
	require.Equal(t, 1, computations)

	s.InvalidateCache()

	_, err = s.CachedFiltered(criteria, flags)
	require.NoError(t, err)
	assert.Equal(t, 2, computations)
}

func TestEnrichInvalidatesCache(t *testing.T) {
	s := testSession(t)

	raws := []domain.RawLoanRecord{
		{BaseLender: "HSBC", DocumentDate: "2023-01-10", InitialRate: 3.99, LoanAmount: 100000, TieInPeriod: "24"},
	}
	_, err := s.Enrich(context.Background(), raws, testQuotes())
	require.NoError(t, err)

	criteria := domain.FilterCriteria{Lenders: []string{"HSBC"}}
	flags := domain.FilterFlags{Lender: true}
	_, err = s.CachedFiltered(criteria, flags)
	require.NoError(t, err)

	computations := 0
	s.applyFilters = func(records []domain.EnrichedLoanRecord, stages []filter.Stage) []domain.EnrichedLoanRecord {
		computations++
		return filter.Apply(records, stages)
	}

	// Re-enriching clears the cache, so the same state recomputes.
	_, err = s.Enrich(context.Background(), raws, testQuotes())
	require.NoError(t, err)
	_, err = s.CachedFiltered(criteria, flags)
	require.NoError(t, err)
	assert.Equal(t, 1, computations)
}

func TestAggregateMarketBaselineIgnoresLenderFlag(t *testing.T) {
	s := testSession(t)

	raws := []domain.RawLoanRecord{
		{BaseLender: "HSBC", DocumentDate: "2023-01-10", InitialRate: 3.99, LoanAmount: 100000, TieInPeriod: "24"},
		{BaseLender: "Barclays", DocumentDate: "2023-01-15", InitialRate: 3.80, LoanAmount: 150000, TieInPeriod: "24"},
	}
	_, err := s.Enrich(context.Background(), raws, testQuotes())
	require.NoError(t, err)

	criteria := domain.FilterCriteria{Lenders: []string{"HSBC"}}
	flags := domain.FilterFlags{Lender: true}

	view, err := s.AggregateView(criteria, flags)
	require.NoError(t, err)
	assert.True(t, view.GrandTotal.Equal(decimal.NewFromInt(100000)))

	baseline, err := s.AggregateMarketBaseline(criteria, flags)
	require.NoError(t, err)
	assert.True(t, baseline.GrandTotal.Equal(decimal.NewFromInt(250000)))
}

func TestSessionLenderShare(t *testing.T) {
	s := testSession(t)

	raws := []domain.RawLoanRecord{
		{BaseLender: "HSBC", DocumentDate: "2023-01-10", InitialRate: 3.99, LoanAmount: 100000, LoanToValue: 75, TieInPeriod: "24"},
		{BaseLender: "Barclays", DocumentDate: "2023-01-10", InitialRate: 3.99, LoanAmount: 150000, LoanToValue: 90, TieInPeriod: "24"},
	}
	_, err := s.Enrich(context.Background(), raws, testQuotes())
	require.NoError(t, err)

	result, err := s.LenderShare(domain.FilterCriteria{Lenders: []string{"HSBC"}}, domain.FilterFlags{Lender: true}, nil)
	require.NoError(t, err)

	// The lender selection never narrows the market-share denominator.
	assert.True(t, result.GrandTotal.Equal(decimal.NewFromInt(250000)))
	assert.Equal(t, 40.0, result.Rows["HSBC"].PctOfMarket)
	assert.Equal(t, 60.0, result.Rows["Barclays"].PctOfMarket)
}

func TestSessionIDsAreUnique(t *testing.T) {
	a := testSession(t)
	b := testSession(t)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEmpty(t, a.ID)
}

func TestWithRecovery(t *testing.T) {
	t.Run("no panic passes through", func(t *testing.T) {
		v, err := WithRecovery(nil, "aggregate", PolicyPropagate, func() (int, error) {
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})

	t.Run("error passes through", func(t *testing.T) {
		sentinel := errors.New("boom")
		_, err := WithRecovery(nil, "aggregate", PolicyPropagate, func() (int, error) {
			return 0, sentinel
		})
		assert.ErrorIs(t, err, sentinel)
	})

	t.Run("propagate converts panic to typed error", func(t *testing.T) {
		logger, handler := testutil.NewBufferedLogger(t)
		v, err := WithRecovery(logger, "enrich", PolicyPropagate, func() (int, error) {
			panic("index out of range")
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInternal))
		assert.Zero(t, v)
		assert.True(t, handler.ContainsMessage("operation panicked"))
	})

	t.Run("zero-value policy swallows panic", func(t *testing.T) {
		logger, _ := testutil.NewBufferedLogger(t)
		v, err := WithRecovery(logger, "share", PolicyZeroValue, func() (string, error) {
			panic("boom")
		})
		require.NoError(t, err)
		assert.Equal(t, "", v)
	})
}
