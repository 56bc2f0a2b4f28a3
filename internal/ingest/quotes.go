package ingest

import (
	"encoding/csv"
	"log/slog"
	"os"
	"strconv"
	"strings"

	apperrors "mpdcli/internal/errors"
	"mpdcli/internal/normalize"
	"mpdcli/pkg/contracts/domain"
)

// percentCutoff separates percent-scale from fraction-scale quote rates when
// the source unit is "auto": no wholesale swap rate in this dataset's range
// reaches 50% as a fraction or drops below 0.5 as a percentage.
const percentCutoff = 0.5

// LoadQuotes reads a swap-quote CSV (term_months, date, rate) into rate
// quotes. unit declares the rate scale ("auto", "percent", "fraction");
// quotes are normalized to decimal fractions. Malformed rows are logged and
// skipped.
func LoadQuotes(path, unit string, logger *slog.Logger) ([]domain.RateQuote, error) {
	if logger == nil {
		logger = slog.Default()
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open quote file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read quote CSV", err)
	}

	quotes := make([]domain.RateQuote, 0, len(rows))
	skipped := 0

	for i, row := range rows {
		if len(row) < 3 {
			skipped++
			continue
		}

		term, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			// Header row or junk; only warn past the first row.
			if i > 0 {
				logger.Warn("skipping quote row with bad term",
					slog.Int("row", i+1),
					slog.String("term", row[0]))
			}
			skipped++
			continue
		}

		date := normalize.ParseDate(row[1])
		if date.IsZero() {
			logger.Warn("skipping quote row with bad date",
				slog.Int("row", i+1),
				slog.String("date", row[1]))
			skipped++
			continue
		}

		rate, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if err != nil {
			logger.Warn("skipping quote row with bad rate",
				slog.Int("row", i+1),
				slog.String("rate", row[2]))
			skipped++
			continue
		}

		quotes = append(quotes, domain.RateQuote{
			TermMonths:    term,
			EffectiveDate: date,
			Rate:          normalizeQuoteRate(rate, unit),
		})
	}

	logger.Info("quote file parsed",
		slog.String("path", path),
		slog.Int("quotes", len(quotes)),
		slog.Int("skipped_rows", skipped))

	if len(quotes) == 0 {
		return nil, apperrors.NewEmptyInputError("quote")
	}

	return quotes, nil
}

// normalizeQuoteRate converts a quote rate to a decimal fraction according to
// the declared source unit.
func normalizeQuoteRate(rate float64, unit string) float64 {
	switch unit {
	case "percent":
		return rate / 100
	case "fraction":
		return rate
	default: // auto
		if rate >= percentCutoff {
			return rate / 100
		}
		return rate
	}
}
