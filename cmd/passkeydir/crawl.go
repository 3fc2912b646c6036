package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/passkeydir/internal/config"
	"github.com/nao1215/passkeydir/internal/database"
	"github.com/nao1215/passkeydir/internal/fetch"
	"github.com/nao1215/passkeydir/internal/icon"
	pklog "github.com/nao1215/passkeydir/internal/log"
	"github.com/nao1215/passkeydir/internal/model"
	"github.com/nao1215/passkeydir/internal/pipeline"
	"github.com/nao1215/passkeydir/internal/report"
)

// runCrawlCmd executes a crawl run.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := pklog.NewLogger(cmd.ErrOrStderr(), cfg.Debug)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout())
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.InputPath, err = flags.GetString("input"); err != nil {
		return nil, err
	}
	if cfg.OutputPath, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.PublicDir, err = flags.GetString("public-dir"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.PageTimeout, err = flags.GetDuration("page-timeout"); err != nil {
		return nil, err
	}
	if cfg.AssetTimeout, err = flags.GetDuration("asset-timeout"); err != nil {
		return nil, err
	}
	if cfg.RequestsPerSecond, err = flags.GetFloat64("rate"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.MarkdownPath, err = flags.GetString("markdown"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveHistory = !noHistory
	cfg.Debug = getDebugFlag(cmd)

	cfg.SiteConfigs, err = loadSiteConfigs(cfg.ConfigFilePath)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadSiteConfigs loads the site configuration file. An explicitly given
// path must exist; otherwise a missing file yields an empty configuration.
func loadSiteConfigs(explicitPath string) (*config.File, error) {
	configPath := config.FindConfigFile(explicitPath)
	if configPath == "" {
		if explicitPath != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, explicitPath)
		}
		return &config.File{Sites: make(map[string]config.SiteConfig)}, nil
	}

	sites, err := config.LoadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	return sites, nil
}

// runCrawl enriches every domain of cfg.InputPath and writes the dataset,
// the optional Markdown summary, and the history entry. A summary is
// printed to out. Extra fetch options are applied after the configured ones.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer, fetchOpts ...fetch.Option) error {
	opts := []fetch.Option{
		fetch.WithPageTimeout(cfg.PageTimeout),
		fetch.WithAssetTimeout(cfg.AssetTimeout),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithRateLimit(cfg.RequestsPerSecond),
		fetch.WithProxy(cfg.ProxyAddress),
		fetch.WithLogger(logger),
	}
	client, err := fetch.New(append(opts, fetchOpts...)...)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	enricher := pipeline.NewEnricher(client, icon.NewStore(cfg.IconsDir()),
		pipeline.WithSites(cfg.SiteConfigs),
		pipeline.WithEnricherLogger(logger),
	)
	bp := pipeline.NewBatchProcessor(enricher,
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
		pipeline.WithProgress(func(index int, record model.DomainRecord) {
			logger.Debug("domain processed",
				"index", index,
				"domain", record.Domain,
				"degraded", record.IsDegraded(),
			)
		}),
	)

	logger.Info("starting crawl",
		"input", cfg.InputPath,
		"output", cfg.OutputPath,
		"concurrency", cfg.Concurrency,
	)
	startedAt := time.Now()

	records, err := pipeline.Run(ctx, bp, cfg.InputPath, cfg.OutputPath)
	if err != nil {
		return err
	}
	finishedAt := time.Now()

	if ctx.Err() != nil {
		logger.Warn("crawl interrupted, unprocessed domains were written with empty fields")
	}

	var db *database.HistoryDB
	if cfg.SaveHistory {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			logger.Warn("history disabled for this run", "error", err)
		} else {
			defer db.Close()
		}
	}

	if cfg.MarkdownPath != "" {
		if err := writeMarkdown(context.WithoutCancel(ctx), cfg.MarkdownPath, records, db, logger); err != nil {
			return err
		}
	}

	if db != nil {
		runID, err := db.SaveRun(context.WithoutCancel(ctx), startedAt, finishedAt, records)
		if err != nil {
			logger.Warn("failed to save run history", "error", err)
		} else {
			logger.Info("run saved to history", "run_id", runID, "db", db.Path())
		}
	}

	if _, err := report.NewTextWriter(out, report.WithVerbose(cfg.Debug)).Write(records); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	fmt.Fprintf(out, "Wrote %d records to %s\n", len(records), cfg.OutputPath)
	return nil
}

// writeMarkdown writes the Markdown summary. When a history database is
// available, changes since its latest run are included.
func writeMarkdown(ctx context.Context, path string, records []model.DomainRecord, db *database.HistoryDB, logger *slog.Logger) error {
	mdOpts := make([]report.MarkdownWriterOption, 0, 1)
	if db != nil {
		changes, err := db.Changes(ctx, records)
		if err != nil {
			logger.Warn("failed to compare with previous run", "error", err)
		} else {
			mdOpts = append(mdOpts, report.WithChanges(changes))
		}
	}

	newMarkdown := func(w io.Writer) report.Writer {
		return report.NewMarkdownWriter(w, mdOpts...)
	}
	if err := report.WriteFile(path, records, newMarkdown); err != nil {
		return fmt.Errorf("failed to write Markdown summary: %w", err)
	}
	return nil
}
