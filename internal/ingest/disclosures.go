// Package ingest loads the two input streams from disk: per-loan disclosure
// workbooks and benchmark swap-quote CSVs. Loaders are deliberately lenient
// at row granularity — a malformed row is logged and skipped, never fatal —
// and strict only about a wholly empty result.
package ingest

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "mpdcli/internal/errors"
	"mpdcli/pkg/contracts/domain"
)

// disclosureColumns maps canonical column names to the header spellings seen
// across disclosure feeds. Matching is case-insensitive on the trimmed
// header; more specific names come first so "base lender" never claims the
// plain "lender" column.
var disclosureColumns = []struct {
	name    string
	aliases []string
}{
	{"base_lender", []string{"base lender", "baselender"}},
	{"provider", []string{"provider", "lender"}},
	{"date", []string{"document date", "doc date", "date"}},
	{"rate", []string{"initial rate", "rate"}},
	{"amount", []string{"loan amount", "advance", "amount"}},
	{"ltv", []string{"ltv %", "ltv percent", "loan to value", "ltv"}},
	{"product", []string{"product type", "product"}},
	{"purchase", []string{"purchase type", "purchase"}},
	{"term", []string{"tie-in period", "tie in period", "committed term", "term"}},
}

// LoadDisclosures reads a disclosure workbook's first sheet into raw loan
// records. The header row is located by its column names; rows with no
// recognizable content are skipped and counted.
func LoadDisclosures(path string, logger *slog.Logger) ([]domain.RawLoanRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open disclosure workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewParsingError("disclosure workbook has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read disclosure sheet", err)
	}

	headerRow, columnMap := findHeader(rows)
	if headerRow < 0 {
		return nil, apperrors.NewParsingError("could not find disclosure header row", nil)
	}

	logger.Info("parsing disclosure workbook",
		slog.String("path", path),
		slog.String("sheet", sheets[0]),
		slog.Int("header_row", headerRow),
		slog.Int("columns", len(columnMap)))

	records := make([]domain.RawLoanRecord, 0, len(rows))
	skipped := 0

	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]

		cell := func(name string) string {
			if idx, ok := columnMap[name]; ok && idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}
		cellFloat := func(name string) float64 {
			v, _ := strconv.ParseFloat(strings.ReplaceAll(cell(name), ",", ""), 64)
			return v
		}

		rec := domain.RawLoanRecord{
			BaseLender:   cell("base_lender"),
			Provider:     cell("provider"),
			DocumentDate: cell("date"),
			InitialRate:  cellFloat("rate"),
			LoanAmount:   cellFloat("amount"),
			LoanToValue:  cellFloat("ltv"),
			ProductType:  cell("product"),
			PurchaseType: cell("purchase"),
			TieInPeriod:  cell("term"),
		}

		// A row carrying neither a lender nor any numbers is formatting noise.
		if rec.LenderName() == "" && rec.InitialRate == 0 && rec.LoanAmount == 0 {
			skipped++
			continue
		}

		records = append(records, rec)
	}

	logger.Info("disclosure workbook parsed",
		slog.Int("records", len(records)),
		slog.Int("skipped_rows", skipped))

	if len(records) == 0 {
		return nil, apperrors.NewEmptyInputError("disclosure")
	}

	return records, nil
}

// findHeader scans the leading rows for one containing a recognizable lender
// column and a rate or amount column, then maps canonical names to column
// indices. Longer alias spellings are tried first so "ltv %" wins over "ltv".
func findHeader(rows [][]string) (int, map[string]int) {
	limit := len(rows)
	if limit > 20 {
		limit = 20
	}

	for i := 0; i < limit; i++ {
		columnMap := mapColumns(rows[i])
		_, hasLender := columnMap["provider"]
		_, hasBase := columnMap["base_lender"]
		_, hasRate := columnMap["rate"]
		_, hasAmount := columnMap["amount"]
		if (hasLender || hasBase) && (hasRate || hasAmount) {
			return i, columnMap
		}
	}
	return -1, nil
}

func mapColumns(header []string) map[string]int {
	columnMap := make(map[string]int)
	claimed := make(map[int]bool)

	for _, col := range disclosureColumns {
		for idx, raw := range header {
			if claimed[idx] {
				continue
			}
			h := strings.ToLower(strings.TrimSpace(raw))
			if h == "" {
				continue
			}
			matched := false
			for _, alias := range col.aliases {
				if h == alias || strings.Contains(h, alias) {
					matched = true
					break
				}
			}
			if matched {
				columnMap[col.name] = idx
				claimed[idx] = true
				break
			}
		}
	}
	return columnMap
}
