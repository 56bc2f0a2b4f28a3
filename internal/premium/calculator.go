// Package premium derives basis-point premiums over matched swap quotes and
// assigns fixed-width premium bands.
package premium

import (
	"log/slog"
	"math"

	"mpdcli/internal/config"
	"mpdcli/pkg/contracts/domain"
)

const (
	// Bare rate values above this cutoff (in auto mode) are percentages.
	fractionCutoff = 0.5
	// Percentage-scale rates at or above this are anomalous. They are still
	// used, only flagged: auto-correcting would hide the upstream data
	// problem the warning exists to surface.
	anomalousRateThreshold = 15.0
)

// Calculator derives premiums and bands
type Calculator struct {
	minBps   int
	maxBps   int
	widthBps int
	unit     string
	logger   *slog.Logger
}

// NewCalculator creates a calculator from band configuration. unit is the
// declared rate unit of the disclosure source ("auto", "percent" or
// "fraction").
func NewCalculator(bands config.BandConfig, unit string, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{
		minBps:   bands.MinBps,
		maxBps:   bands.MaxBps,
		widthBps: bands.WidthBps,
		unit:     unit,
		logger:   logger,
	}
}

// Premium computes the clamped basis-point premium of a record over its
// matched quote. Returns nil iff quote is nil. The second result reports an
// anomalous initial rate (logged by the caller's stats, value still used).
func (c *Calculator) Premium(rec domain.NormalizedLoanRecord, quote *domain.RateQuote) (*int, bool) {
	if quote == nil {
		return nil, false
	}

	rate, anomalous := c.normalizeRate(rec.InitialRate)
	if anomalous {
		c.logger.Warn("anomalous initial rate, using as-is",
			slog.Float64("initial_rate", rec.InitialRate),
			slog.String("lender", rec.Lender))
	}

	bps := int(math.Round((rate - quote.Rate) * 10000))
	if bps < c.minBps {
		bps = c.minBps
	}
	if bps > c.maxBps {
		bps = c.maxBps
	}
	return &bps, anomalous
}

// AssignBand labels a premium's half-open band: "{lower}-{lower+width}" with
// the lower bound floored to a band boundary. A nil premium maps to
// BandUnknown.
func (c *Calculator) AssignBand(bps *int) string {
	if bps == nil {
		return domain.BandUnknown
	}
	lower := floorDiv(*bps, c.widthBps) * c.widthBps
	return bandLabel(lower, lower+c.widthBps)
}

// normalizeRate converts the raw initial rate to a decimal fraction according
// to the source's declared unit. In auto mode, bare values in
// (fractionCutoff, anomalousRateThreshold) are percentages — a heuristic
// kept for input compatibility; declare the unit per source to avoid it.
func (c *Calculator) normalizeRate(raw float64) (float64, bool) {
	switch c.unit {
	case "percent":
		return raw / 100, raw >= anomalousRateThreshold
	case "fraction":
		return raw, raw >= anomalousRateThreshold/100
	default: // auto
		if raw >= anomalousRateThreshold {
			return raw / 100, true
		}
		if raw > fractionCutoff {
			return raw / 100, false
		}
		return raw, false
	}
}

// floorDiv divides rounding toward negative infinity, so negative premiums
// land in the band below zero rather than straddling it.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
