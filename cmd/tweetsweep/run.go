package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"tweetsweep/pkg/archive"
	"tweetsweep/pkg/auth"
	"tweetsweep/pkg/config"
	"tweetsweep/pkg/logger"
	"tweetsweep/pkg/media"
	"tweetsweep/pkg/metrics"
	"tweetsweep/pkg/processor"
	"tweetsweep/pkg/ratelimit"
	"tweetsweep/pkg/report"
	"tweetsweep/pkg/retry"
	"tweetsweep/pkg/storage"
	"tweetsweep/pkg/twitter"
	"tweetsweep/pkg/ui"
)

var (
	// Run command flags
	runPosted   bool
	runLiked    bool
	runArchive  bool
	runDelete   bool
	runMedia    bool
	assumeYes   bool
	outputDir   string
	metricsAddr string
	accountName string
	mediaRate   float64
	noReport    bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Archive and/or delete your posted or liked tweets",
	Long: `Process every tweet you have posted (retweets included) or liked.

Pick exactly one of --posted or --liked, and at least one of --archive or
--delete. --media saves attached images and videos and requires --archive.

Archives are written to <output>/Archive-Posted-Items or
<output>/Archive-Liked-Items, one directory per tweet.`,
	Example: `  # Save everything you liked, with media, without touching your account
  tweetsweep run --liked --archive --media

  # Archive then delete every tweet you posted
  tweetsweep run --posted --archive --delete

  # Un-like everything without asking for confirmation
  tweetsweep run --liked --delete --yes`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runPosted, "posted", false, "handle tweets you have authored (retweets included)")
	runCmd.Flags().BoolVar(&runLiked, "liked", false, "handle liked/favorited tweets")
	runCmd.Flags().BoolVar(&runArchive, "archive", false, "archive (save) tweets")
	runCmd.Flags().BoolVar(&runDelete, "delete", false, "delete/un-like tweets")
	runCmd.Flags().BoolVar(&runMedia, "media", false, "save media files attached to tweets, if archiving")
	runCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
	runCmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory the archive folders are created in (default: current directory)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	runCmd.Flags().StringVarP(&accountName, "account", "a", "", "use a specific stored account")
	runCmd.Flags().Float64Var(&mediaRate, "media-rate", 0, "maximum media downloads per second")
	runCmd.Flags().BoolVar(&noReport, "no-report", false, "do not write a run report")

	runCmd.MarkFlagsMutuallyExclusive("posted", "liked")
	runCmd.MarkFlagsOneRequired("posted", "liked")
}

// selection turns the run flags into a kind and validated options
func selection(posted, liked bool, opts processor.Options) (processor.Kind, error) {
	if posted == liked {
		return "", errors.New("you must supply either the --posted or --liked flag to specify whether " +
			"you want to handle the tweets that you made/retweeted, or the tweets you liked")
	}
	switch err := opts.Validate(); {
	case errors.Is(err, processor.ErrMediaNeedsArchive):
		return "", errors.New("you have selected not to archive, but to save media; " +
			"you can only save media if you're archiving")
	case errors.Is(err, processor.ErrNoAction):
		return "", errors.New("you must supply at least one of the --archive or --delete flags, " +
			"to specify what you want to do with the selected tweets")
	case err != nil:
		return "", err
	}
	if liked {
		return processor.Liked, nil
	}
	return processor.Posted, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	opts := processor.Options{Archive: runArchive, Destroy: runDelete, Media: runMedia}
	kind, err := selection(runPosted, runLiked, opts)
	if err != nil {
		return err
	}

	flags := globalFlags()
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if metricsAddr != "" {
		flags["metrics-addr"] = metricsAddr
	}
	if mediaRate > 0 {
		flags["media-rate"] = mediaRate
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	ui.PrintLogo()
	if !assumeYes {
		ok, err := ui.Confirm(os.Stdin, os.Stdout, processor.Describe(kind, opts))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	credManager, err := auth.NewManager(cfg.Twitter.CredentialsFile)
	if err != nil {
		log.WithError(err).Warn("Credential stores unavailable, using configuration only")
		credManager = nil
	}
	account, source, err := auth.Resolve(cfg.Twitter, credManager, accountName)
	if err != nil {
		return err
	}
	log.InfoWithFields("Using credentials", map[string]interface{}{
		"account": account.Name,
		"source":  string(source),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	if cfg.Metrics.Address != "" {
		shutdown := serveMetrics(cfg.Metrics.Address, registry, log)
		defer shutdown()
	}

	spinner := ui.NewSpinner(os.Stderr, string(kind))
	p := newProcessor(cfg, account, collector, spinner, log)

	summary, runErr := p.Run(ctx, kind, opts)
	_ = spinner.Finish()

	if summary != nil && !noReport {
		if path, err := saveReport(summary, runErr, log); err != nil {
			log.WithError(err).Warn("Failed to save run report")
		} else {
			ui.PrintInfo("Report", path)
		}
	}
	ui.PrintSummary(os.Stdout, summary)

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			ui.PrintWarning("Interrupted")
		}
		return runErr
	}
	ui.PrintSuccess("Done")
	return nil
}

// newProcessor wires the API client, storage, media fetching and metrics
func newProcessor(cfg *config.Config, account *auth.Account, rec metrics.Recorder, progress processor.Progress, log logger.Logger) *processor.Processor {
	client := twitter.NewClient(twitter.Config{
		BaseURL:     cfg.Twitter.APIBaseURL,
		UserAgent:   cfg.Twitter.UserAgent,
		Timeout:     cfg.Download.Timeout,
		Credentials: account.Credentials(),
		Retry:       retry.FromSettings(cfg.Retry, log),
	}, log)

	store := storage.NewManager()
	throttle := ratelimit.NewThrottle(cfg.RateLimit.MediaPerSecond, cfg.RateLimit.MediaBurst)
	downloader := media.NewHTTPDownloader(cfg.Download.Timeout, cfg.Twitter.UserAgent)
	fetcher := media.NewFetcher(downloader, store, throttle, log)

	return processor.New(processor.Deps{
		API:      client,
		Archiver: archive.NewArchiver(store, fetcher, log),
		Store:    store,
		Metrics:  rec,
		Progress: progress,
		Logger:   log,
	}, processor.Settings{
		BaseDir:  cfg.Archive.BaseDirectory,
		PageSize: cfg.Download.PageSize,
	})
}

func saveReport(summary *processor.Summary, runErr error, log logger.Logger) (string, error) {
	mgr, err := report.NewDefaultManager(log)
	if err != nil {
		return "", err
	}
	return mgr.Save(summary, runErr)
}

// serveMetrics starts the Prometheus listener and returns its shutdown func
func serveMetrics(addr string, gatherer prometheus.Gatherer, log logger.Logger) func() {
	server := &http.Server{
		Addr:              addr,
		Handler:           metrics.Handler(gatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.LogComponentStart(log, "metrics", map[string]interface{}{"address": addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
		logger.LogComponentStop(log, "metrics", "run finished")
	}
}
