// Package app wires the sitemap pipeline: normalize, fetch, extract, dedupe,
// probe, report.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/JakeFAU/sitemapdiag/internal/clock/system"
	"github.com/JakeFAU/sitemapdiag/internal/config"
	"github.com/JakeFAU/sitemapdiag/internal/diag"
	collyfetcher "github.com/JakeFAU/sitemapdiag/internal/fetcher/colly"
	"github.com/JakeFAU/sitemapdiag/internal/id/uuid"
	"github.com/JakeFAU/sitemapdiag/internal/metrics"
	"github.com/JakeFAU/sitemapdiag/internal/probe"
	"github.com/JakeFAU/sitemapdiag/internal/report"
	"github.com/JakeFAU/sitemapdiag/internal/sitemap"
)

// Console messages printed by the pipeline itself.
const (
	NoLocationsMessage = "No location found in the sitemap!"
	FetchFailedFormat  = "Cannot fetch sitemap %s"
)

// Deps holds the collaborators of a Runner. Nil fields get production
// defaults.
type Deps struct {
	Fetcher diag.Fetcher
	Clock   diag.Clock
	IDs     diag.RunIDGenerator
	Stdout  io.Writer
	Logger  *zap.Logger
}

// Runner executes one diagnostic run per call to Run.
type Runner struct {
	cfg      config.Config
	fetcher  diag.Fetcher
	clock    diag.Clock
	ids      diag.RunIDGenerator
	out      io.Writer
	logger   *zap.Logger
	recorder *metrics.Recorder
}

// Result summarizes a finished run.
type Result struct {
	RunID      string
	SitemapURL string
	Locations  int
	Unique     int
	Problems   []diag.Problem
	ReportPath string
}

// New builds a Runner from configuration.
func New(cfg config.Config, deps Deps) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Fetcher == nil {
		deps.Fetcher = collyfetcher.New(collyfetcher.Config{
			UserAgent:           cfg.HTTP.UserAgent,
			Timeout:             cfg.RequestTimeout(),
			MaxBodyBytes:        cfg.HTTP.MaxBodyBytes,
			FollowHeadRedirects: cfg.Probe.FollowHeadRedirects,
		})
	}
	if deps.Clock == nil {
		deps.Clock = system.New()
	}
	if deps.IDs == nil {
		deps.IDs = uuid.New()
	}
	if deps.Stdout == nil {
		deps.Stdout = io.Discard
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	recorder, err := metrics.New()
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return &Runner{
		cfg:      cfg,
		fetcher:  deps.Fetcher,
		clock:    deps.Clock,
		ids:      deps.IDs,
		out:      deps.Stdout,
		logger:   deps.Logger,
		recorder: recorder,
	}, nil
}

// Metrics exposes the run metrics recorder.
func (r *Runner) Metrics() *metrics.Recorder {
	return r.recorder
}

// Run diagnoses the sitemap named by raw. An empty sitemap returns
// diag.ErrNoLocations; fetch failures return *diag.FetchError and aborted
// probes *diag.ProbeError. Problems found on the sitemap are not errors.
func (r *Runner) Run(ctx context.Context, raw string) (res Result, err error) {
	res.RunID, err = r.ids.NewID()
	if err != nil {
		return res, err
	}
	res.SitemapURL = sitemap.NormalizeURL(raw)
	logger := r.logger.With(zap.String("run_id", res.RunID), zap.String("sitemap", res.SitemapURL))
	start := r.clock.Now()
	logger.Info("run started", zap.String("input", raw))

	defer func() {
		r.recorder.ObserveProblems(res.Problems)
		finished := r.clock.Now()
		r.recorder.MarkFinished(finished)
		r.exportMetrics(logger)
		logger.Info("run finished",
			zap.Int("locations", res.Locations),
			zap.Int("unique", res.Unique),
			zap.Int("problems", len(res.Problems)),
			zap.Duration("dur", finished.Sub(start)),
			zap.Error(err),
		)
	}()

	doc, err := sitemap.Retrieve(ctx, r.fetcher, res.SitemapURL, logger)
	if err != nil {
		var fetchErr *diag.FetchError
		if errors.As(err, &fetchErr) {
			r.println(fmt.Sprintf(FetchFailedFormat, res.SitemapURL))
		}
		return res, err
	}

	locations := doc.Locations()
	res.Locations = len(locations)
	r.recorder.ObserveLocations(len(locations))
	if len(locations) == 0 {
		r.println(NoLocationsMessage)
		return res, diag.ErrNoLocations
	}

	unique, duplicates := sitemap.Dedupe(locations)
	res.Unique = len(unique)
	logger.Debug("locations extracted",
		zap.Int("locations", len(locations)),
		zap.Int("duplicates", len(duplicates)),
	)

	prober := probe.New(r.fetcher, probe.Config{
		Workers:      r.cfg.Probe.Workers,
		AbortOnError: r.cfg.Probe.AbortOnError,
	}, r.out, r.recorder, logger)
	probed, err := prober.Probe(ctx, unique)
	res.Problems = append(duplicates, probed...)
	if err != nil {
		return res, err
	}

	writer, err := report.New(report.Config{OutputDir: r.cfg.Report.OutputDir}, r.out, logger)
	if err != nil {
		return res, err
	}
	res.ReportPath, err = writer.Write(ctx, res.SitemapURL, res.Problems)
	if err != nil {
		return res, fmt.Errorf("write report: %w", err)
	}
	return res, nil
}

func (r *Runner) exportMetrics(logger *zap.Logger) {
	path := r.cfg.Report.MetricsFile
	if path == "" {
		return
	}
	if err := r.recorder.WriteTextfile(path); err != nil {
		logger.Warn("metrics export failed", zap.String("path", path), zap.Error(err))
	}
}

func (r *Runner) println(line string) {
	if _, err := fmt.Fprintln(r.out, line); err != nil {
		r.logger.Debug("console write failed", zap.Error(err))
	}
}
