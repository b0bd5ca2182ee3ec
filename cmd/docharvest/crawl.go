package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/docharvest/docharvest/internal/archive"
	"github.com/docharvest/docharvest/internal/browser"
	"github.com/docharvest/docharvest/internal/chunk"
	"github.com/docharvest/docharvest/internal/config"
	"github.com/docharvest/docharvest/internal/crawler"
	"github.com/docharvest/docharvest/internal/download"
	"github.com/docharvest/docharvest/internal/frontier"
	dlog "github.com/docharvest/docharvest/internal/log"
	"github.com/docharvest/docharvest/internal/metrics"
	"github.com/docharvest/docharvest/internal/model"
	"github.com/docharvest/docharvest/internal/oracle"
	"github.com/docharvest/docharvest/internal/report"
)

// frontierSnapshotName is the file under the data directory that holds
// the crawl frontier between interrupted runs.
const frontierSnapshotName = "frontier.json"

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [start-url]",
		Short: "Crawl a site and download the documents it links to",
		Long: `Crawl visits pages starting from the given URL, renders each one in a
headless browser, and downloads every document link it discovers.

For each page, the raw HTML is archived, then split into chunks and sent
to the decision service. The service returns CSS selectors worth clicking
(expanders, tabs, pagination), docharvest clicks them, and any content
revealed by the interaction is parsed for further links.

The decision service API key is read from the ORACLE_API_KEY environment
variable (a .env file in the working directory is loaded if present).

Examples:
  # Harvest PDFs from a document portal
  docharvest crawl --oracle-url https://oracle.internal/v1/decide https://docs.example.com/library

  # Limit the run and write a Markdown summary
  docharvest crawl --oracle-url https://oracle.internal/v1/decide \
    --max-pages 20 --max-documents 100 --markdown -o report.md \
    https://docs.example.com/library

  # Use a custom configuration file with per-site overrides
  docharvest crawl -c myconfig.yaml --oracle-url https://oracle.internal/v1/decide \
    https://docs.example.com/library

Configuration file (.docharvest) example:
  sites:
    docs.example.com:
      maxInteractions: 20
      documentExtensions: [".pdf", ".docx"]
      headers:
        Authorization: "Bearer token"`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	// Decision service flags
	cmd.Flags().String("oracle-url", "",
		"HTTP endpoint of the selector decision service (required)")
	cmd.Flags().Duration("oracle-timeout", config.DefaultOracleTimeout,
		"Timeout for one decision service request")
	cmd.Flags().Int("chunk-size", config.DefaultMaxChunkSize,
		"Maximum HTML chunk size in bytes sent to the decision service")

	// Crawl behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultRequestTimeout,
		"Timeout for each page navigation and document fetch")
	cmd.Flags().Int("page-concurrency", config.DefaultPageConcurrency,
		"Number of pages processed concurrently")
	cmd.Flags().Int("download-concurrency", config.DefaultDownloadConcurrency,
		"Number of concurrent document downloads")
	cmd.Flags().Int("max-interactions", config.DefaultMaxInteractionsPerPage,
		"Maximum selector clicks attempted per page")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages visited per run")
	cmd.Flags().Int("max-documents", config.DefaultMaxDocuments,
		"Maximum number of documents downloaded per run")
	cmd.Flags().IntP("retries", "r", config.DefaultRetryLimit,
		"Times a failed download is retried before being logged as failed")
	cmd.Flags().Duration("crawl-delay", config.DefaultCrawlDelay,
		"Minimum delay between page navigations")
	cmd.Flags().Bool("no-robots", false,
		"Skip robots.txt checks before visiting pages")

	// Storage flags
	cmd.Flags().String("download-dir", "",
		"Directory for downloaded documents (default: XDG data dir + documents)")
	cmd.Flags().String("archive-dir", "",
		"Directory for page HTML snapshots (default: XDG data dir + archive)")
	cmd.Flags().String("data-dir", "",
		"Directory for the download log and frontier snapshot (default: XDG data dir)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .docharvest in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown summary (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write summary to specified file path (creates directories if needed)")

	// Observability
	cmd.Flags().String("metrics-addr", "",
		"Listen address for the Prometheus metrics endpoint (empty disables it)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	// A .env file is optional; absence is not an error.
	_ = godotenv.Load() //nolint:errcheck // Optional local overrides

	cfg, err := buildCrawlConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	verbose := getVerboseFlag(cmd)
	cfg.Verbose = verbose
	logger := dlog.NewLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	// Handle interrupt signals for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return runCrawl(ctx, cfg, logger)
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

// buildCrawlConfig creates a Config from cobra command flags.
func buildCrawlConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.StartURL = args[0]
	cfg.OracleAPIKey = os.Getenv("ORACLE_API_KEY")

	var err error

	cfg.OracleURL, err = cmd.Flags().GetString("oracle-url")
	if err != nil {
		return nil, err
	}

	cfg.OracleTimeout, err = cmd.Flags().GetDuration("oracle-timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxChunkSize, err = cmd.Flags().GetInt("chunk-size")
	if err != nil {
		return nil, err
	}

	cfg.RequestTimeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.PageConcurrency, err = cmd.Flags().GetInt("page-concurrency")
	if err != nil {
		return nil, err
	}

	cfg.DownloadConcurrency, err = cmd.Flags().GetInt("download-concurrency")
	if err != nil {
		return nil, err
	}

	cfg.MaxInteractionsPerPage, err = cmd.Flags().GetInt("max-interactions")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.MaxDocuments, err = cmd.Flags().GetInt("max-documents")
	if err != nil {
		return nil, err
	}

	cfg.RetryLimit, err = cmd.Flags().GetInt("retries")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("crawl-delay")
	if err != nil {
		return nil, err
	}

	noRobots, err := cmd.Flags().GetBool("no-robots")
	if err != nil {
		return nil, err
	}
	cfg.RespectRobots = !noRobots

	if dir, err := cmd.Flags().GetString("download-dir"); err != nil {
		return nil, err
	} else if dir != "" {
		cfg.DownloadDir = dir
	}

	if dir, err := cmd.Flags().GetString("archive-dir"); err != nil {
		return nil, err
	} else if dir != "" {
		cfg.ArchiveDir = dir
	}

	if dir, err := cmd.Flags().GetString("data-dir"); err != nil {
		return nil, err
	} else if dir != "" {
		cfg.DataDir = dir
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.MetricsAddr, err = cmd.Flags().GetString("metrics-addr")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// applySiteOverrides folds the start host's site configuration into cfg.
func applySiteOverrides(cfg *config.Config, host string) {
	if cfg.SiteConfigs == nil {
		return
	}
	site := cfg.SiteConfigs.GetSiteConfig(host)
	if site.MaxInteractions > 0 {
		cfg.MaxInteractionsPerPage = site.MaxInteractions
	}
	if len(site.DocumentExtensions) > 0 {
		cfg.DocumentExtensions = site.DocumentExtensions
	}
}

// runCrawl wires the collaborators together and executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	start, err := model.Canonicalize(cfg.StartURL)
	if err != nil {
		return fmt.Errorf("invalid start URL %q: %w", cfg.StartURL, err)
	}
	applySiteOverrides(cfg, start.Host())

	logger.Info("starting crawl",
		"startURL", start.String(),
		"oracleURL", cfg.OracleURL,
		"pageConcurrency", cfg.PageConcurrency,
		"downloadConcurrency", cfg.DownloadConcurrency,
		"maxPages", cfg.MaxPages,
		"maxDocuments", cfg.MaxDocuments,
	)

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Error("metrics listener failed", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
	}

	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	downloadLog, err := download.OpenLog(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open download log: %w", err)
	}
	defer downloadLog.Close()

	manager, err := download.NewManager(ctx, downloadLog, cfg.DownloadDir,
		download.WithConcurrency(cfg.DownloadConcurrency),
		download.WithRetryLimit(cfg.RetryLimit),
		download.WithTimeout(cfg.RequestTimeout),
		download.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create download manager: %w", err)
	}
	manager.Start(ctx)

	front := loadFrontier(filepath.Join(cfg.DataDir, frontierSnapshotName), logger)

	archiver, err := archive.New(cfg.ArchiveDir, archive.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create archiver: %w", err)
	}

	splitter, err := chunk.New(cfg.MaxChunkSize)
	if err != nil {
		return fmt.Errorf("failed to create chunk splitter: %w", err)
	}

	oracleOpts := []oracle.ClientOption{oracle.WithClientLogger(logger)}
	if cfg.OracleAPIKey != "" {
		oracleOpts = append(oracleOpts, oracle.WithAPIKey(cfg.OracleAPIKey))
	}
	oracleClient := oracle.NewClient(cfg.OracleURL, cfg.OracleTimeout, oracleOpts...)

	chrome := browser.NewChrome(
		browser.WithSettleDelay(cfg.SettleDelay),
		browser.WithTimeout(cfg.RequestTimeout),
		browser.WithLogger(logger),
	)
	defer func() {
		if err := chrome.Close(); err != nil {
			logger.Error("failed to close browser", "error", err)
		}
	}()

	deps := crawler.Deps{
		Frontier:  front,
		Archiver:  archiver,
		Splitter:  splitter,
		Oracle:    oracleClient,
		Downloads: manager,
		NewDriver: func() (browser.Driver, error) { return chrome.NewTab(), nil },
		Parser:    crawler.NewParser(cfg.DocumentExtensions),
	}
	if cfg.RespectRobots {
		deps.Robots = crawler.NewRobotsGate(cfg.RequestTimeout, logger)
	}

	orch, err := crawler.New(deps,
		crawler.WithConcurrency(cfg.PageConcurrency),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithMaxDocuments(cfg.MaxDocuments),
		crawler.WithMaxInteractions(cfg.MaxInteractionsPerPage),
		crawler.WithCrawlDelay(cfg.CrawlDelay),
		crawler.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create crawler: %w", err)
	}

	fmt.Printf("Crawling %s...\n", start)
	startTime := time.Now()

	summary, runErr := orch.Run(ctx, start)

	// Let queued downloads finish before the accounting is read. A
	// cancelled context still drains quickly because workers stop
	// starting new transfers.
	if err := manager.Drain(); err != nil {
		logger.Error("download drain failed", "error", err)
	}

	downloaded, failed, skipped := manager.Stats()
	summary.DocumentsDownloaded = downloaded
	summary.DocumentsFailed = failed
	summary.DocumentsSkipped = skipped
	summary.Faults = append(summary.Faults, manager.Faults()...)

	persistFrontier(front, filepath.Join(cfg.DataDir, frontierSnapshotName), runErr != nil, logger)

	elapsed := time.Since(startTime)
	fmt.Printf("Crawl completed in %s\n", elapsed.Round(time.Millisecond))

	if err := outputSummary(cfg, summary); err != nil {
		logger.Error("summary output failed", "error", err)
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			logger.Info("crawl interrupted, state saved for resume")
			return nil
		}
		return runErr
	}
	return nil
}

// persistFrontier saves the frontier when the run was interrupted and
// removes any leftover snapshot when the run completed. A completed crawl
// must start its next run fresh: a snapshot's visited set would swallow
// the start URL, and pages carrying previously failed downloads need to
// be revisited so those links are rediscovered and retried.
func persistFrontier(front *frontier.Frontier, path string, interrupted bool, logger *slog.Logger) {
	if interrupted {
		if err := front.Save(path); err != nil {
			logger.Warn("failed to save frontier snapshot", "path", path, "error", err)
			return
		}
		logger.Info("frontier snapshot saved", "path", path, "queued", front.Len())
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to remove frontier snapshot", "path", path, "error", err)
	}
}

// loadFrontier restores a saved frontier snapshot, or starts fresh when no
// usable snapshot exists.
func loadFrontier(path string, logger *slog.Logger) *frontier.Frontier {
	front, err := frontier.Load(path)
	if err != nil {
		if !os.IsNotExist(err) && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("frontier snapshot unreadable, starting fresh", "path", path, "error", err)
		}
		return frontier.New()
	}
	logger.Info("frontier snapshot restored",
		"path", path,
		"queued", front.Len(),
		"visited", front.VisitedCount(),
	)
	return front
}

// outputSummary writes the crawl summary in the requested format.
func outputSummary(cfg *config.Config, summary *model.CrawlSummary) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(summary)
	return err
}
