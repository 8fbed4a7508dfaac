package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"venue-crawler/config"
	"venue-crawler/crawler"
	"venue-crawler/extraction"
	"venue-crawler/models"
	"venue-crawler/scraper"
	"venue-crawler/services"
	"venue-crawler/storage"
	"venue-crawler/utils"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		opts       config.Config
	)

	cmd := &cobra.Command{
		Use:           "venue-crawler",
		Short:         "Crawl a paginated venue listing and save complete, unique records to CSV.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}
			applyFlags(cmd, cfg, &opts)

			level := cfg.LogLevel
			if cfg.Verbose {
				level = "debug"
			}
			logger := utils.NewLogger(utils.WithLevel(level), utils.WithFile(cfg.LogFile))
			defer logger.Sync()

			if err := cfg.Validate(); err != nil {
				logger.Error("Invalid configuration: %v", err)
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := run(ctx, cfg, logger); err != nil {
				logger.Error("%v", err)
				return err
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML config file (also CRAWL_CONFIG)")
	f.StringVar(&opts.BaseURL, "base-url", "", "listing URL to paginate")
	f.StringVar(&opts.CSSSelector, "selector", "", "CSS selector narrowing each page to the listing area")
	f.StringVar(&opts.CSVOutputPath, "output", "", "CSV output path")
	f.IntVar(&opts.MaxPages, "max-pages", 0, "stop after this page number (0 = no cap)")
	f.IntVar(&opts.MaxEmptyPages, "max-empty-pages", 0, "stop after this many consecutive pages without new sites (0 = off, 1 = stop at the first empty page)")
	f.StringVar(&opts.ExtractionStrategy, "strategy", "", "extraction strategy: llm or css")
	f.BoolVar(&opts.Resume, "resume", false, "resume an unfinished run from the state file")
	f.StringVar(&opts.StatePath, "state", "", "checkpoint file (empty string disables checkpointing)")
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging and browser diagnostics")
	return cmd
}

// applyFlags copies only the flags the user actually set over cfg.
func applyFlags(cmd *cobra.Command, cfg, opts *config.Config) {
	changed := cmd.Flags().Changed
	if changed("base-url") {
		cfg.BaseURL = opts.BaseURL
	}
	if changed("selector") {
		cfg.CSSSelector = opts.CSSSelector
	}
	if changed("output") {
		cfg.CSVOutputPath = opts.CSVOutputPath
	}
	if changed("max-pages") {
		cfg.MaxPages = opts.MaxPages
	}
	if changed("max-empty-pages") {
		cfg.MaxEmptyPages = opts.MaxEmptyPages
	}
	if changed("strategy") {
		cfg.ExtractionStrategy = opts.ExtractionStrategy
	}
	if changed("resume") {
		cfg.Resume = opts.Resume
	}
	if changed("state") {
		cfg.StatePath = opts.StatePath
	}
	if changed("verbose") {
		cfg.Verbose = opts.Verbose
	}
}

func run(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	logger.Info("=== Venue crawler starting ===")
	logger.Info("Config: url=%s | selector=%q | strategy=%s | engine=%s | max pages=%d | session=%s",
		cfg.BaseURL, cfg.CSSSelector, cfg.ExtractionStrategy, cfg.BrowserEngine, cfg.MaxPages, cfg.SessionID)

	retry := &utils.RetryConfig{MaxAttempts: cfg.LaunchRetries, BaseDelay: 2 * time.Second, Logger: logger}

	strategy, llm, err := buildStrategy(cfg, logger)
	if err != nil {
		return fmt.Errorf("build extraction strategy: %w", err)
	}

	renderer, err := scraper.OpenBrowser(ctx, cfg.Browser(), logger, retry)
	if err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	defer renderer.Close()

	var checkpoint crawler.Checkpointer
	if cfg.StatePath != "" {
		checkpoint = &crawler.FileCheckpointer{Path: cfg.StatePath}
	}

	engine := scraper.NewEngine(renderer, strategy, logger)
	driver := crawler.NewDriver(engine, cfg.Driver(), checkpoint, logger)

	state, runErr := driver.Run(ctx)
	if runErr != nil {
		logger.Warn("Crawl interrupted: %v (progress kept, rerun with --resume)", runErr)
	}

	if llm != nil {
		u := llm.Usage()
		logger.Info("LLM usage: %d requests | %d prompt + %d completion = %d tokens",
			u.Requests, u.PromptTokens, u.CompletionTokens, u.TotalTokens())
	}

	sites := state.Sites
	if len(sites) == 0 {
		logger.Info("No sites were found during the crawl.")
		return runErr
	}

	csvWriter := storage.NewCSVWriter(cfg.CSVOutputPath, logger)
	if _, err := csvWriter.Save(sites); err != nil {
		return fmt.Errorf("save csv: %w", err)
	}

	insightInput := sites
	if cfg.SinkDriver != "" {
		// The sink is a mirror; the CSV above is the run's product.
		insightInput = writeSink(context.WithoutCancel(ctx), cfg, logger, retry, sites)
	}

	insightSvc := services.NewInsightService(logger)
	insightSvc.Print(insightSvc.Generate(insightInput))

	fmt.Printf("  Done. CSV -> %s | stop reason: %s\n\n", cfg.CSVOutputPath, state.StopReason)
	return runErr
}

func buildStrategy(cfg *config.Config, logger *utils.Logger) (extraction.Strategy, *extraction.LLMStrategy, error) {
	switch strings.ToLower(cfg.ExtractionStrategy) {
	case "css":
		s, err := extraction.NewCSSStrategy(cfg.CSSSchema)
		return s, nil, err
	case "llm":
		s, err := extraction.NewLLMStrategy(cfg.LLM(), logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}
	return nil, nil, errors.New("unknown extraction strategy " + cfg.ExtractionStrategy)
}

// writeSink mirrors sites into the SQL sink and returns what the sink holds
// afterwards, falling back to sites when the sink is unavailable.
func writeSink(ctx context.Context, cfg *config.Config, logger *utils.Logger, retry *utils.RetryConfig, sites []models.Site) []models.Site {
	w, err := storage.NewSQLWriter(ctx, cfg.SinkDriver, cfg.DSN(), logger, retry)
	if err != nil {
		logger.Error("Failed to open %s sink: %v", cfg.SinkDriver, err)
		return sites
	}
	defer w.Close()

	if err := w.Write(ctx, sites); err != nil {
		logger.Error("%s write failed: %v", cfg.SinkDriver, err)
		return sites
	}
	logger.Info("Sites stored in %s (table: sites)", cfg.SinkDriver)

	stored, err := w.FetchAll(ctx)
	if err != nil {
		logger.Error("Failed to fetch sites from %s for insights: %v", cfg.SinkDriver, err)
		return sites
	}
	return stored
}
