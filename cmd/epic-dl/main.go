package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/handiism/epic-downloader/internal/config"
	"github.com/handiism/epic-downloader/internal/download"
	"github.com/handiism/epic-downloader/internal/logger"
	"github.com/handiism/epic-downloader/internal/model"
)

type options struct {
	configPath   string
	envFile      string
	verbose      bool
	logLevel     string
	logFormat    string
	dryRun       bool
	skipExisting bool
	thumbnails   bool
	slideshow    bool
	archive      bool
	concurrency  int
	jsonReport   bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd(&options{})
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
		cancel()
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}

	cancel()
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epic-dl <target-folder> [date]",
		Short: "Download a day of NASA EPIC Earth images",
		Long: `epic-dl downloads every EPIC image of a date into <target-folder>/<YYYY-MM-DD>.

Without a date the most recent available date is used. The API key is read
from NASA_EPIC_API_KEY (a .env file in the working directory is loaded if present).`,
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			requested := ""
			if len(args) > 1 {
				requested = args[1]
			}
			return runDownload(cmd, opts, args[0], requested)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "load environment variables from this file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (text, json)")
	cmd.PersistentFlags().BoolVar(&opts.skipExisting, "skip-existing", false, "keep images already on disk")
	cmd.PersistentFlags().BoolVar(&opts.thumbnails, "thumbnails", false, "write JPEG thumbnails into <date>/thumbs")
	cmd.PersistentFlags().BoolVar(&opts.slideshow, "slideshow", false, "write a <date>.m3u slideshow playlist into the date folder")
	cmd.PersistentFlags().BoolVar(&opts.archive, "archive", false, "pack the date folder into <date>.tar.gz after the run")
	cmd.PersistentFlags().IntVarP(&opts.concurrency, "concurrency", "c", 0, "number of concurrent downloads (1-16)")

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "list the images without downloading")
	cmd.Flags().BoolVar(&opts.jsonReport, "json", false, "print the run report as JSON")

	cmd.AddCommand(newWatchCmd(opts))

	return cmd
}

// loadSettings applies config file, flags and logging setup.
func loadSettings(cmd *cobra.Command, opts *options) (*config.Settings, string, error) {
	settings := config.DefaultSettings()
	if opts.configPath != "" {
		var err error
		settings, err = config.Load(opts.configPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("skip-existing") {
		settings.SkipExisting = opts.skipExisting
	}
	if flags.Changed("thumbnails") {
		settings.Thumbnails.Enabled = opts.thumbnails
	}
	if flags.Changed("slideshow") {
		settings.Slideshow.Enabled = opts.slideshow
	}
	if flags.Changed("archive") {
		settings.ArchiveAfterRun = opts.archive
	}
	if flags.Changed("concurrency") {
		settings.MaxConcurrentDownloads = opts.concurrency
	}
	if opts.logLevel != "" {
		settings.LogLevel = opts.logLevel
	} else if opts.verbose {
		settings.LogLevel = "debug"
	}
	if opts.logFormat != "" {
		settings.LogFormat = opts.logFormat
	}

	if err := settings.Validate(); err != nil {
		return nil, "", err
	}

	logger.InitLogger(settings.LogLevel, logger.OutputFormat(settings.LogFormat))

	apiKey, err := config.LoadAPIKey(settings.APIKeyEnv, opts.envFile)
	if err != nil {
		return nil, "", err
	}

	return settings, apiKey, nil
}

func runDownload(cmd *cobra.Command, opts *options, targetFolder, requested string) error {
	ctx := cmd.Context()
	settings, apiKey, err := loadSettings(cmd, opts)
	if err != nil {
		return err
	}

	manager := download.NewManager(settings, apiKey, printer(opts.verbose, opts.jsonReport))

	if opts.dryRun {
		plan, err := manager.Plan(ctx, targetFolder, requested)
		if err != nil {
			return err
		}
		fmt.Printf("📅 Date:   %s\n", plan.Date)
		fmt.Printf("📁 Folder: %s\n", plan.Folder)
		fmt.Printf("\n[Dry run - %d images, not downloading]\n", len(plan.Tasks))
		for _, task := range plan.Tasks {
			fmt.Printf("   %s\n", download.FileNameFor(task))
		}
		return nil
	}

	report, err := manager.Run(ctx, targetFolder, requested)
	if err != nil {
		return err
	}

	if opts.jsonReport {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printSummary(manager, report)
	return ctx.Err()
}

// printer returns the progress callback used by the CLI.
func printer(verbose, quiet bool) func(download.ProgressEvent) {
	return func(event download.ProgressEvent) {
		if quiet {
			return
		}
		if event.Level == download.LevelVerbose && !verbose {
			return
		}

		prefix := ""
		switch event.Level {
		case download.LevelError:
			prefix = "❌ "
		case download.LevelWarning:
			prefix = "⚠️  "
		case download.LevelSuccess:
			prefix = "✅ "
		case download.LevelInfo:
			prefix = "ℹ️  "
		default:
			prefix = "   "
		}

		fmt.Println(prefix + event.Message)
	}
}

func printSummary(manager *download.Manager, report *model.RunReport) {
	received, _, _, _ := manager.GetProgress()

	fmt.Println()
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("🌍 %s → %s\n", report.Date, report.Folder)
	fmt.Printf("✨ Stored %d/%d images (%.2f MB", report.SuccessCount, report.Total, float64(received)/1024/1024)
	if skipped := report.SkippedCount(); skipped > 0 {
		fmt.Printf(", %d kept", skipped)
	}
	fmt.Println(")")

	for _, f := range report.Failures {
		fmt.Printf("   ✗ %s: %s\n", f.Identifier, f.Reason)
	}
	if report.SlideshowPath != "" {
		fmt.Printf("🎞️  %s\n", report.SlideshowPath)
	}
	if report.ArchivePath != "" {
		fmt.Printf("📦 %s\n", report.ArchivePath)
	}
}
