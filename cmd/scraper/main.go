package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/maltedev/marketplace-scraper/internal/browser"
	"github.com/maltedev/marketplace-scraper/internal/config"
	"github.com/maltedev/marketplace-scraper/internal/logger"
	"github.com/maltedev/marketplace-scraper/internal/metrics"
	"github.com/maltedev/marketplace-scraper/internal/notify"
	"github.com/maltedev/marketplace-scraper/internal/parser"
	"github.com/maltedev/marketplace-scraper/internal/queries"
	"github.com/maltedev/marketplace-scraper/internal/ratelimit"
	"github.com/maltedev/marketplace-scraper/internal/scraper"
	"github.com/maltedev/marketplace-scraper/internal/server"
)

func main() {
	var (
		queriesFile = flag.String("queries", "", "CSV file with one search keyword per row (overrides OUTPUT_QUERIES_FILE)")
		outputDir   = flag.String("output", "", "Directory for result files (overrides OUTPUT_DIR)")
		maxPages    = flag.Int("pages", 0, "Result pages to walk per keyword (overrides CRAWL_MAX_PAGES)")
		headless    = flag.Bool("headless", true, "Run browser in headless mode")
	)
	flag.Parse()

	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *queriesFile != "" {
		cfg.Output.QueriesFile = *queriesFile
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *maxPages > 0 {
		cfg.Crawl.MaxPages = *maxPages
	}
	cfg.Browser.Headless = *headless && cfg.Browser.Headless

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)
	logger.Info("Starting marketplace scraper", "site", cfg.Site.BaseURL, "max_pages", cfg.Crawl.MaxPages)

	if err := run(cfg, logger); err != nil {
		logger.Error("Scraper failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Scraper finished")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	keywords, err := queries.Load(cfg.Output.QueriesFile)
	if err != nil {
		return err
	}
	logger.Info("Loaded search queries", "file", cfg.Output.QueriesFile, "count", len(keywords))

	if len(keywords) == 0 {
		logger.Warn("No search queries to run", "file", cfg.Output.QueriesFile)
		return nil
	}

	m := metrics.New()
	progress := &server.Progress{}

	if cfg.Metrics.Addr != "" {
		srv := server.New(cfg.Metrics.Addr, m.Registry, progress, logger)
		srv.Start()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Failed to stop metrics server", "error", err)
			}
		}()
	}

	var publisher scraper.Publisher
	if cfg.Redis.Addr != "" {
		p, err := notify.NewRedisPublisher(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Stream, logger)
		if err != nil {
			logger.Warn("Run notifications disabled", "error", err)
		} else {
			defer p.Close()
			publisher = p
		}
	}

	b, err := browser.New(&browser.Options{
		Headless:       cfg.Browser.Headless,
		Timeout:        cfg.Browser.Timeout,
		UserAgent:      cfg.Browser.UserAgent,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		AcceptLanguage: cfg.Browser.AcceptLanguage,
		TimezoneID:     cfg.Browser.TimezoneID,
		Locale:         cfg.Browser.Locale,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("Failed to close browser", "error", err)
		}
	}()

	crawler, err := scraper.NewSearchCrawler(
		cfg,
		parser.NewOzonParser(cfg.Site.BaseURL, logger),
		ratelimit.New(cfg.Crawl.ProductDelayMin, cfg.Crawl.ProductDelayMax),
		m,
		logger,
	)
	if err != nil {
		return err
	}

	runner := scraper.NewRunner(cfg, b, crawler, publisher, m, progress, logger)
	return runner.Run(ctx, keywords)
}
