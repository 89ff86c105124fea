// Package probe checks sitemap locations for HTTP accessibility. Each location
// gets a HEAD request; a 404 is re-checked with GET because some servers
// reject HEAD while serving GET normally.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/sitemapdiag/internal/diag"
)

// Config controls how probing runs.
type Config struct {
	// Workers bounds concurrent probes. Values below one mean one.
	Workers int
	// AbortOnError stops probing at the first transport failure instead of
	// recording a probe_failed problem and moving on.
	AbortOnError bool
}

// Prober runs the accessibility check over a list of locations.
type Prober struct {
	fetcher  diag.Fetcher
	cfg      Config
	observer diag.ProbeObserver
	logger   *zap.Logger

	mu       sync.Mutex
	progress io.Writer
}

// New builds a Prober. progress receives one line per checked location;
// observer and logger are optional.
func New(fetcher diag.Fetcher, cfg Config, progress io.Writer, observer diag.ProbeObserver, logger *zap.Logger) *Prober {
	if progress == nil {
		progress = io.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Prober{
		fetcher:  fetcher,
		cfg:      cfg,
		observer: observer,
		logger:   logger,
		progress: progress,
	}
}

// Probe checks every location and returns the problems found, ordered like
// locations regardless of how many workers ran. The error is non-nil only on
// cancellation or, with AbortOnError, the first transport failure; problems
// collected up to that point are still returned.
func (p *Prober) Probe(ctx context.Context, locations []string) ([]diag.Problem, error) {
	results := make([]*diag.Problem, len(locations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, loc := range locations {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			problem, err := p.Check(gctx, loc)
			if err != nil {
				return err
			}
			results[i] = problem
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	problems := make([]diag.Problem, 0, len(results))
	for _, r := range results {
		if r != nil {
			problems = append(problems, *r)
		}
	}
	return problems, err
}

// Check probes a single location. It returns nil when the location answered
// 200, either to HEAD or to the GET retried after a HEAD 404.
func (p *Prober) Check(ctx context.Context, loc string) (*diag.Problem, error) {
	p.printProgress(loc)

	head, err := p.fetch(ctx, http.MethodHead, loc)
	if err != nil {
		return p.failure(ctx, http.MethodHead, loc, err)
	}

	switch head.StatusCode {
	case http.StatusOK:
		return nil, nil
	case http.StatusNotFound:
		get, err := p.fetch(ctx, http.MethodGet, loc)
		if err != nil {
			return p.failure(ctx, http.MethodGet, loc, err)
		}
		if get.StatusCode == http.StatusOK {
			return nil, nil
		}
		p.logger.Debug("location failed HEAD and GET",
			zap.String("url", loc),
			zap.Int("get_status", get.StatusCode),
		)
	}

	problem := diag.StatusCodeIssue(head.StatusCode, loc)
	return &problem, nil
}

func (p *Prober) fetch(ctx context.Context, method, loc string) (diag.FetchResponse, error) {
	start := time.Now()
	resp, err := p.fetcher.Fetch(ctx, diag.FetchRequest{Method: method, URL: loc})
	if p.observer != nil {
		p.observer.ObserveProbe(method, resp.StatusCode, time.Since(start))
	}
	return resp, err
}

func (p *Prober) failure(ctx context.Context, method, loc string, err error) (*diag.Problem, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("probe canceled: %w", ctxErr)
	}
	if p.cfg.AbortOnError {
		return nil, &diag.ProbeError{URL: loc, Method: method, Err: err}
	}
	p.logger.Warn("probe failed",
		zap.String("url", loc),
		zap.String("method", method),
		zap.Error(err),
	)
	problem := diag.ProbeFailed(loc, err)
	return &problem, nil
}

func (p *Prober) printProgress(loc string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := fmt.Fprintln(p.progress, loc); err != nil {
		p.logger.Debug("progress write failed", zap.Error(err))
	}
}
