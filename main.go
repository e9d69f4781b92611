package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"catalog-scraper/browser"
	"catalog-scraper/config"
	"catalog-scraper/models"
	"catalog-scraper/scraper/vinted"
	"catalog-scraper/services"
	"catalog-scraper/storage"
	"catalog-scraper/utils"
)

const csvFileName = "items.csv"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog-scraper",
		Short: "Scrape a catalog search per brand and render the items ranked by likes",
		Long: `Open the catalog search, discover its brand filter, crawl every brand's
result pages and write the unique items, sorted by likes, as static HTML
pages (page_1.html, page_2.html, ...) under <output-dir>/<file-stem>/.

Options can also be set through environment variables (CATALOG_URL,
PAGE_SIZE, ...), a .env file, or --config.`,
		SilenceUsage: true,
		RunE:         run,
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	start := time.Now()
	logger := utils.NewLogger()

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		logger.Error("Invalid configuration: %v", err)
		return err
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		logger.Warn("Ignoring log level: %v", err)
	}

	logger.Info("=== Catalog scraper starting ===")
	logger.Info("Config: catalog %s | floor %d | page size %d | driver %s",
		cfg.CatalogURL, cfg.PopularityFloor, cfg.PageSize, cfg.Driver)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	items, stats, err := scrape(ctx, cfg, logger)
	if err != nil {
		logger.Error("Scrape failed, no report written: %v", err)
		return err
	}

	ranked := services.Rank(items)
	if err := writeReport(cfg, logger, ranked); err != nil {
		logger.Error("Report write failed, previous report kept: %v", err)
		return err
	}

	summary := services.NewSummaryService(logger)
	summary.Print(cmd.OutOrStdout(), summary.Generate(ranked, stats))

	logger.Info("Script completed in %.2f seconds", time.Since(start).Seconds())
	return nil
}

// scrape owns the browser for the duration of the crawl.
func scrape(ctx context.Context, cfg *config.Config, logger *utils.Logger) ([]*models.ItemRecord, *models.RunStats, error) {
	b, err := browser.Launch(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("Closing browser: %v", err)
		}
	}()

	return vinted.New(cfg, logger, b).Scrape(ctx)
}

// writeReport stages the HTML pages and the CSV export, then publishes them
// together so a failure leaves the previous report in place.
func writeReport(cfg *config.Config, logger *utils.Logger, ranked []*models.ItemRecord) error {
	stage, err := storage.NewStaging(cfg.ReportDir())
	if err != nil {
		return err
	}
	defer stage.Discard()

	var w storage.ReportWriter = storage.NewHTMLWriter(stage.Dir(), cfg.FileStem, logger)
	pages := services.Paginate(ranked, cfg.PageSize)
	if _, err := w.Write(pages); err != nil {
		return err
	}
	if cfg.CSVExport {
		if err := storage.NewCSVWriter(filepath.Join(stage.Dir(), csvFileName)).Write(ranked); err != nil {
			return err
		}
	}
	if err := stage.Commit(); err != nil {
		return err
	}

	logger.Info("%d report pages written to %s", len(pages), cfg.ReportDir())
	if cfg.CSVExport {
		logger.Info("Ranked items saved to %s", filepath.Join(cfg.ReportDir(), csvFileName))
	}
	logger.Info("Open %s to browse the report", filepath.Join(cfg.ReportDir(), storage.PageFileName(1)))
	return nil
}
