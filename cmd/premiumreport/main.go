// premiumreport analyzes mortgage-product disclosure records against
// wholesale swap-rate benchmarks and writes the lender-premium distribution
// report: a band-by-month volume matrix, a lender market-share table and a
// JSON session summary.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"mpdcli/internal/aggregate"
	"mpdcli/internal/analysis"
	"mpdcli/internal/config"
	"mpdcli/internal/exporter"
	"mpdcli/internal/infrastructure"
	"mpdcli/internal/ingest"
	"mpdcli/internal/share"
	"mpdcli/pkg/contracts/domain"
)

func main() {
	configFile := flag.String("config", "mpdcli.yaml", "configuration file path")
	disclosureFile := flag.String("disclosures", "", "disclosure workbook (overrides config)")
	quoteFile := flag.String("quotes", "", "swap-quote CSV (overrides config)")
	outputDir := flag.String("out", "", "report output directory (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if *disclosureFile != "" {
		cfg.Paths.DisclosureFile = *disclosureFile
	}
	if *quoteFile != "" {
		cfg.Paths.QuoteFile = *quoteFile
	}
	if *outputDir != "" {
		cfg.Paths.OutputDir = *outputDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("report generation failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var (
		raws   []domain.RawLoanRecord
		quotes []domain.RateQuote
	)

	// The two inputs are independent files; load them concurrently.
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		raws, err = ingest.LoadDisclosures(cfg.Paths.DisclosureFile, logger)
		return err
	})
	g.Go(func() error {
		var err error
		quotes, err = ingest.LoadQuotes(cfg.Paths.QuoteFile, cfg.Rates.Unit, logger)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	sess := analysis.NewSession(cfg, logger)

	_, err := analysis.WithRecovery(logger, "enrich", analysis.PolicyPropagate,
		func() ([]domain.EnrichedLoanRecord, error) {
			return sess.Enrich(ctx, raws, quotes)
		})
	if err != nil {
		return err
	}

	// The full-dataset distribution plus the lender-free views. The CLI runs
	// unfiltered; interactive callers pass their own criteria and flags.
	var criteria domain.FilterCriteria
	var flags domain.FilterFlags

	distribution := sess.Aggregate()

	baseline, err := analysis.WithRecovery(logger, "market_baseline", analysis.PolicyPropagate,
		func() (aggregate.Result, error) {
			return sess.AggregateMarketBaseline(criteria, flags)
		})
	if err != nil {
		return err
	}

	lenderShare, err := analysis.WithRecovery(logger, "lender_share", analysis.PolicyPropagate,
		func() (share.Result, error) {
			return sess.LenderShare(criteria, flags, cfg.Report.SelectedBands)
		})
	if err != nil {
		return err
	}

	writer := exporter.New(cfg.Paths.OutputDir, logger)
	if err := writer.WriteDistributionCSV("premium_distribution.csv", distribution); err != nil {
		return err
	}
	if err := writer.WriteLenderShareCSV("lender_share.csv", lenderShare); err != nil {
		return err
	}

	summary := exporter.Summary{
		SessionID:    sess.ID,
		GeneratedAt:  time.Now().UTC(),
		Stats:        sess.Stats(),
		Distribution: distribution,
		Baseline:     baseline,
		Share:        lenderShare,
	}
	if err := writer.WriteSummaryJSON("summary.json", summary); err != nil {
		return err
	}

	logger.Info("report generation completed",
		slog.String("output_dir", cfg.Paths.OutputDir),
		slog.String("grand_total", distribution.GrandTotal.String()),
		slog.Int("excluded_loans", sess.Stats().Exclusions.Count))

	return nil
}
