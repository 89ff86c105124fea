package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/sitemapdiag/internal/app"
	"github.com/JakeFAU/sitemapdiag/internal/config"
	"github.com/JakeFAU/sitemapdiag/internal/diag"
	"github.com/JakeFAU/sitemapdiag/internal/logging"
)

// UsageHint is printed when no sitemap URL is given.
const UsageHint = `Format should be "sitemapdiag [Sitemap URL]"`

const (
	exitOK      = 0
	exitFailure = 1
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// NewRootCmd creates the sitemapdiag command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "sitemapdiag [Sitemap URL]",
		Short: "Find duplicated and unreachable URLs in a sitemap",
		Long: `sitemapdiag downloads a sitemap, reports duplicated <loc> entries and
checks that every listed URL answers with HTTP 200.

The URL may omit the scheme and the file name: "example.com" checks
http://example.com/sitemap.xml.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), UsageHint)
				return cmd.Usage()
			}
			return runDiagnosis(cmd, cfgFile, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "path to a YAML config file")
	flags.Int("workers", 1, "number of concurrent URL probes")
	flags.Int("timeout", 30, "per-request timeout in seconds, 0 disables it")
	flags.String("user-agent", "sitemapdiag/1.0", "User-Agent header sent with every request")
	flags.String("output-dir", ".", "directory the problems file is written under")
	flags.String("metrics-file", "", "write Prometheus metrics to this textfile after the run")
	flags.Bool("follow-head-redirects", false, "follow redirects on HEAD probes")
	flags.Bool("abort-on-error", false, "stop at the first network error instead of reporting it")
	flags.BoolP("verbose", "v", false, "enable development logging")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	return cmd
}

func runDiagnosis(cmd *cobra.Command, cfgFile, rawURL string) error {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Development: cfg.Logging.Development,
		Level:       cfg.Logging.Level,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // stderr cannot be synced on every platform
	}()

	runner, err := app.New(cfg, app.Deps{
		Stdout: cmd.OutOrStdout(),
		Logger: logger,
	})
	if err != nil {
		return err
	}

	res, err := runner.Run(cmd.Context(), rawURL)
	switch {
	case errors.Is(err, diag.ErrNoLocations):
		return nil
	case err != nil:
		return err
	}
	logger.Debug("diagnosis complete",
		zap.String("run_id", res.RunID),
		zap.String("report", res.ReportPath),
	)
	return nil
}

// Execute runs the root command with signal handling and returns the process
// exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitFailure
	}
	return exitOK
}
