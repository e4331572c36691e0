package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nao1215/secregistry/internal/config"
	"github.com/nao1215/secregistry/internal/crawler"
	"github.com/nao1215/secregistry/internal/database"
	seclog "github.com/nao1215/secregistry/internal/log"
	"github.com/nao1215/secregistry/internal/model"
	"github.com/nao1215/secregistry/internal/pipeline"
	"github.com/nao1215/secregistry/internal/report"
)

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape [root-url]",
		Short: "Scrape the business operator registry",
		Long: `Scrape walks the category index of the business operator list, every
listing it links to, and every company page of those listings.

One JSON object per company is written per line. A company listed in
several categories is written once, with the first category found.
Pages are cached for --cache-ttl so an interrupted run can be resumed
without fetching everything again.

Environment variables (also read from .env.local and .env):
  SECREGISTRY_ROOT_URL, SECREGISTRY_PROXY, SECREGISTRY_USER_AGENT,
  SECREGISTRY_CACHE_DIR

Examples:
  # Scrape the whole registry into a file
  secregistry scrape -o operators.ndjson

  # Try the first ten companies without the cache
  secregistry scrape --no-cache -l 10

  # Render a Markdown document
  secregistry scrape -m -o operators.md

  # Go through a SOCKS5 proxy, one request every two seconds
  secregistry scrape --proxy 127.0.0.1:1080 -r 0.5`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScrapeCmd,
	}

	// Request flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().Float64P("rate", "r", config.DefaultRate,
		"Requests per second (0 disables the limit)")
	cmd.Flags().Int("burst", config.DefaultBurst,
		"Requests allowed at once")
	cmd.Flags().Int("retries", config.DefaultRetries,
		"Retries of a request failing with a server or network error")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header")
	cmd.Flags().String("proxy", "",
		"Proxy address, host:port for SOCKS5 or an http(s) URL")
	cmd.Flags().Bool("no-robots", false,
		"Ignore robots.txt")

	// Cache flags
	cmd.Flags().String("cache-dir", config.XDGCacheDir(),
		"Directory of the page cache")
	cmd.Flags().Bool("no-cache", false,
		"Disable the page cache")
	cmd.Flags().Duration("cache-ttl", config.DefaultCacheTTL,
		"How long a cached page is used")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .secregistry in current or home directory)")

	// Output flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON lines (default; mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output a Markdown document (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write records to the specified file path (creates directories if needed)")
	cmd.Flags().IntP("limit", "l", 0,
		"Stop after this many companies (0 means no limit)")
	cmd.Flags().Bool("log-json", false,
		"Write logs as JSON lines")

	return cmd
}

func runScrapeCmd(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnvFiles(); err != nil {
		return err
	}

	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	runID := uuid.NewString()
	logger := setupLogger(cmd.ErrOrStderr(), cfg).With("run_id", runID)

	return runScrape(cmd.Context(), cfg, runID, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the environment, the cobra command
// flags and the configuration file. Flags that also have an environment
// variable only apply when given.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.ApplyEnv()

	flags := cmd.Flags()
	var err error

	if len(args) > 0 {
		cfg.RootURL = args[0]
	}

	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.Rate, err = flags.GetFloat64("rate"); err != nil {
		return nil, err
	}
	if cfg.Burst, err = flags.GetInt("burst"); err != nil {
		return nil, err
	}
	if cfg.Retries, err = flags.GetInt("retries"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}

	for name, target := range map[string]*string{
		"user-agent": &cfg.UserAgent,
		"proxy":      &cfg.Proxy,
		"cache-dir":  &cfg.CacheDir,
	} {
		if !flags.Changed(name) {
			continue
		}
		if *target, err = flags.GetString(name); err != nil {
			return nil, err
		}
	}

	noRobots, err := flags.GetBool("no-robots")
	if err != nil {
		return nil, err
	}
	cfg.ObeyRobots = !noRobots

	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return nil, err
	}
	cfg.UseCache = !noCache

	if cfg.CacheTTL, err = flags.GetDuration("cache-ttl"); err != nil {
		return nil, err
	}
	if cfg.Limit, err = flags.GetInt("limit"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.LogJSON, err = flags.GetBool("log-json"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// A missing file is only an error when its path was given.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	return cfg, nil
}

// setupLogger creates the structured logger of a run. Logs go to w,
// never to the record output.
func setupLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.LogJSON {
		return seclog.NewSecureJSONLogger(w, cfg.Verbose)
	}
	return seclog.NewSecureLogger(w, cfg.Verbose)
}

// runScrape walks the registry and writes every record to stdout or the
// report file. The run summary is written to summaryOut.
func runScrape(ctx context.Context, cfg *config.Config, runID string, logger *slog.Logger, stdout, summaryOut io.Writer) (err error) {
	startedAt := time.Now()

	client, err := crawler.NewHTTPClient(cfg.Timeout,
		crawler.WithProxy(cfg.Proxy),
		crawler.WithSiteConfig(cfg.SiteConfigs),
	)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	fetcherOpts := []crawler.FetcherOption{
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithRetries(cfg.Retries),
		crawler.WithRateLimit(cfg.Rate, cfg.Burst),
		crawler.WithRobots(cfg.ObeyRobots),
		crawler.WithFetcherLogger(logger),
	}

	if cfg.UseCache {
		db, err := openCache(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		fetcherOpts = append(fetcherOpts, crawler.WithCache(db, cfg.CacheTTL))
	}

	fetcher := crawler.NewFetcher(client, fetcherOpts...)

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(
		pipeline.NewCompanyPageStep(fetcher, pipeline.WithCompanyPageLogger(logger)),
		pipeline.NewNameHistoryStep(fetcher, pipeline.WithNameHistoryLogger(logger)),
	)

	walker := crawler.NewWalker(fetcher, p,
		crawler.WithFilter(crawler.NewFilter(cfg.SiteConfigs)),
		crawler.WithLimit(cfg.Limit),
		crawler.WithWalkerLogger(logger),
	)

	output, closeOutput, err := openOutput(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOutput(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	writer := newRecordWriter(cfg, output)

	logger.Info("starting scrape",
		"rootURL", cfg.RootURL,
		"rate", cfg.Rate,
		"useCache", cfg.UseCache,
		"limit", cfg.Limit,
	)

	walkErr := walker.Walk(ctx, cfg.RootURL, func(rec *model.CompanyRecord) error {
		_, err := writer.Write(rec)
		return err
	})
	if _, err := writer.Flush(); err != nil && walkErr == nil {
		walkErr = fmt.Errorf("failed to write records: %w", err)
	}

	stats := walker.Stats()
	summary := report.Summary{
		RunID:      runID,
		RootURL:    cfg.RootURL,
		StartedAt:  startedAt,
		Elapsed:    time.Since(startedAt),
		Listings:   stats.Listings,
		Companies:  stats.Companies,
		Duplicates: stats.Duplicates,
		Skipped:    stats.Skipped,
		Failed:     stats.Failed,
		Err:        walkErr,
	}
	if _, err := report.NewSummaryWriter(summaryOut).WriteSummary(summary); err != nil {
		logger.Error("failed to write summary", "error", err)
	}

	if errors.Is(walkErr, context.Canceled) {
		logger.Warn("scrape interrupted", "companies", stats.Companies)
	}
	return walkErr
}

// openCache opens the page cache and drops pages older than the TTL.
func openCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*database.PageDB, error) {
	db, err := database.Open(cfg.CacheDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open page cache: %w", err)
	}

	purged, err := db.Purge(ctx, cfg.CacheTTL)
	if err != nil {
		logger.Warn("failed to purge page cache", "error", err)
	}
	logger.Info("page cache opened", "path", db.Path(), "purged", purged)
	return db, nil
}

// openOutput returns the report file, or stdout when path is empty.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// newRecordWriter returns the writer of the requested format.
func newRecordWriter(cfg *config.Config, output io.Writer) report.Writer {
	if cfg.MarkdownReport {
		return report.NewMarkdownWriter(output)
	}
	return report.NewJSONWriter(output)
}
