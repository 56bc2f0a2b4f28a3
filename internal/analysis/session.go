// Package analysis owns the per-run session: one enrichment pass producing
// an immutable enriched record set, then any number of filtered views,
// aggregations and market-share tables over it. The session replaces the
// ambient global state of earlier report tooling with an explicit value the
// caller threads through.
package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mpdcli/internal/aggregate"
	"mpdcli/internal/config"
	apperrors "mpdcli/internal/errors"
	"mpdcli/internal/filter"
	"mpdcli/internal/normalize"
	"mpdcli/internal/premium"
	"mpdcli/internal/share"
	"mpdcli/internal/swapmatch"
	"mpdcli/pkg/contracts/domain"
)

// EnrichStats reports what the enrichment pass did with the batch. Per-record
// problems never abort enrichment; they end up here.
type EnrichStats struct {
	RecordsIn       int                       `json:"records_in"`
	QuotesIn        int                       `json:"quotes_in"`
	Enriched        int                       `json:"enriched"`
	NullTermRecords int                       `json:"null_term_records"`
	AnomalousRates  int                       `json:"anomalous_rates"`
	Exclusions      *swapmatch.ExclusionStats `json:"exclusions"`
}

// Session is one analysis run. The enriched set is written once by Enrich and
// treated as immutable afterwards; the filter cache is the only mutable state
// and is cleared whenever the source data changes.
type Session struct {
	ID string

	logger     *slog.Logger
	normalizer *normalize.Normalizer
	matcher    *swapmatch.Matcher
	calculator *premium.Calculator

	records []domain.EnrichedLoanRecord
	quotes  []domain.RateQuote
	stats   EnrichStats
	cache   *filter.Cache

	// applyFilters is the seam the cache memoizes over.
	applyFilters func([]domain.EnrichedLoanRecord, []filter.Stage) []domain.EnrichedLoanRecord
}

// NewSession creates a session from configuration.
func NewSession(cfg *config.Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	logger = logger.With(slog.String("session_id", id))

	return &Session{
		ID:           id,
		logger:       logger,
		normalizer:   normalize.New(logger),
		matcher:      swapmatch.New(cfg.Matching.ToleranceDays, logger),
		calculator:   premium.NewCalculator(cfg.Bands, cfg.Rates.Unit, logger),
		cache:        filter.NewCache(),
		applyFilters: filter.Apply,
	}
}

// Enrich runs the one-shot normalization, matching and banding pass. Only a
// wholly empty record or quote set fails; every per-record issue is absorbed
// into the returned statistics. Any previously cached views are invalidated.
func (s *Session) Enrich(ctx context.Context, raws []domain.RawLoanRecord, quotes []domain.RateQuote) ([]domain.EnrichedLoanRecord, error) {
	start := time.Now()

	if len(raws) == 0 {
		return nil, apperrors.NewEmptyInputError("disclosure")
	}
	if len(quotes) == 0 {
		return nil, apperrors.NewEmptyInputError("quote")
	}

	s.logger.InfoContext(ctx, "starting enrichment",
		slog.Int("records", len(raws)),
		slog.Int("quotes", len(quotes)))

	stats := EnrichStats{
		RecordsIn:  len(raws),
		QuotesIn:   len(quotes),
		Exclusions: swapmatch.NewExclusionStats(),
	}

	normalized := s.normalizer.NormalizeAll(raws)
	enriched := make([]domain.EnrichedLoanRecord, 0, len(normalized))

	for _, rec := range normalized {
		var quote *domain.RateQuote

		if rec.HasTerm() {
			quote = s.matcher.Match(rec, quotes)
			if quote == nil {
				stats.Exclusions.Record(rec)
			}
		} else {
			stats.NullTermRecords++
		}

		bps, anomalous := s.calculator.Premium(rec, quote)
		if anomalous {
			stats.AnomalousRates++
		}

		enriched = append(enriched, domain.EnrichedLoanRecord{
			NormalizedLoanRecord: rec,
			Quote:                quote,
			PremiumBps:           bps,
			Band:                 s.calculator.AssignBand(bps),
			Month:                rec.MonthKey(),
		})
	}

	stats.Enriched = len(enriched)

	s.records = enriched
	s.quotes = quotes
	s.stats = stats
	s.cache.Invalidate()

	s.logger.InfoContext(ctx, "enrichment completed",
		slog.Duration("duration", time.Since(start)),
		slog.Int("enriched", stats.Enriched),
		slog.Int("excluded", stats.Exclusions.Count),
		slog.Int("null_term", stats.NullTermRecords),
		slog.Int("anomalous_rates", stats.AnomalousRates))

	return enriched, nil
}

// Records returns the session's enriched set.
func (s *Session) Records() []domain.EnrichedLoanRecord {
	return s.records
}

// Stats returns the statistics of the last enrichment pass.
func (s *Session) Stats() EnrichStats {
	return s.stats
}

// CachedFiltered returns the records passing the enabled criteria, memoized
// by the canonical (criteria, flags) key. Identical filter states never
// recompute until the cache is invalidated.
func (s *Session) CachedFiltered(criteria domain.FilterCriteria, flags domain.FilterFlags) ([]domain.EnrichedLoanRecord, error) {
	key, err := filter.Key(criteria, flags)
	if err != nil {
		return nil, apperrors.NewValidationError("unserializable filter criteria")
	}

	if records, ok := s.cache.Get(key); ok {
		return records, nil
	}

	records := s.applyFilters(s.records, filter.BuildPipeline(criteria, flags))
	s.cache.Put(key, records)

	s.logger.Debug("filter view computed",
		slog.Int("matched", len(records)),
		slog.Int("cache_size", s.cache.Len()))

	return records, nil
}

// InvalidateCache drops every cached filter view. Call after any change the
// cache key cannot capture, such as reloading source data.
func (s *Session) InvalidateCache() {
	s.cache.Invalidate()
}

// Aggregate builds the full-dataset band-by-month distribution baseline.
func (s *Session) Aggregate() aggregate.Result {
	return aggregate.Aggregate(s.records)
}

// AggregateView aggregates the records passing the enabled criteria.
func (s *Session) AggregateView(criteria domain.FilterCriteria, flags domain.FilterFlags) (aggregate.Result, error) {
	records, err := s.CachedFiltered(criteria, flags)
	if err != nil {
		return aggregate.Result{}, err
	}
	return aggregate.Aggregate(records), nil
}

// AggregateMarketBaseline aggregates with the lender criterion disabled,
// producing the "% of market" denominator. It changes with the date, product
// and purchase filters but never with the lender selection.
func (s *Session) AggregateMarketBaseline(criteria domain.FilterCriteria, flags domain.FilterFlags) (aggregate.Result, error) {
	records, err := s.CachedFiltered(criteria, flags.WithoutLender())
	if err != nil {
		return aggregate.Result{}, err
	}
	return aggregate.Aggregate(records), nil
}

// LenderShare builds the market-share table over the selected bands. The
// underlying view applies every enabled filter except the lender selection,
// so percentages are shares of the filtered market.
func (s *Session) LenderShare(criteria domain.FilterCriteria, flags domain.FilterFlags, selectedBands []string) (share.Result, error) {
	records, err := s.CachedFiltered(criteria, flags.WithoutLender())
	if err != nil {
		return share.Result{}, err
	}
	return share.LenderShare(records, selectedBands), nil
}
