// Package collyfetcher implements diag.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/sitemapdiag/internal/diag"
)

const maxRedirects = 10

// Config controls collector behavior.
type Config struct {
	UserAgent string
	// Timeout bounds each request. Zero disables the timeout.
	Timeout time.Duration
	// MaxBodyBytes caps the response body read. Zero means unlimited.
	MaxBodyBytes int
	// FollowHeadRedirects makes HEAD requests follow 3xx responses. When
	// false the redirect status itself is returned.
	FollowHeadRedirects bool
}

// Fetcher implements diag.Fetcher using the Colly collector. It is safe for
// concurrent use; every request runs on its own clone of the base collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	)
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.MaxBodySize = cfg.MaxBodyBytes
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(cfg.Timeout)
	c.SetRedirectHandler(redirectPolicy(cfg.FollowHeadRedirects))

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP request using Colly. Any status code is
// returned as a response; only transport failures produce an error.
func (f *Fetcher) Fetch(ctx context.Context, request diag.FetchRequest) (diag.FetchResponse, error) {
	if err := ctx.Err(); err != nil {
		return diag.FetchResponse{}, fmt.Errorf("colly fetch canceled: %w", err)
	}
	if request.Method == "" {
		request.Method = http.MethodGet
	}

	var (
		result   diag.FetchResponse
		fetchErr error
	)
	collector := f.baseCollector.Clone()
	collector.Context = ctx
	f.configureCollectorHooks(collector, request, time.Now(), &result, &fetchErr)

	if err := f.runCollector(ctx, collector, request, &fetchErr); err != nil {
		return diag.FetchResponse{}, err
	}
	if result.StatusCode == 0 {
		return diag.FetchResponse{}, errors.New("colly fetch produced no response")
	}
	return result, nil
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	request diag.FetchRequest,
	start time.Time,
	result *diag.FetchResponse,
	fetchErr *error,
) {
	hooks.OnRequest(func(r *colly.Request) {
		f.copyHeaders(request, r)
	})

	hooks.OnResponse(func(r *colly.Response) {
		var headers http.Header
		if r.Headers != nil {
			headers = r.Headers.Clone()
		}
		finalURL := request.URL
		if r.Request != nil && r.Request.URL != nil {
			finalURL = r.Request.URL.String()
		}
		*result = diag.FetchResponse{
			URL:        request.URL,
			FinalURL:   finalURL,
			StatusCode: r.StatusCode,
			Headers:    headers,
			Body:       append([]byte(nil), r.Body...),
			Truncated:  f.cfg.MaxBodyBytes > 0 && len(r.Body) >= f.cfg.MaxBodyBytes,
			Duration:   time.Since(start),
		}
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(
	ctx context.Context,
	collector *colly.Collector,
	request diag.FetchRequest,
	fetchErr *error,
) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Request(request.Method, request.URL, nil, colly.NewContext(), nil)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly %s %s failed: %w", request.Method, request.URL, err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

func (f *Fetcher) copyHeaders(request diag.FetchRequest, r *colly.Request) {
	if request.Headers == nil || r.Headers == nil {
		return
	}
	for key, values := range request.Headers {
		for _, v := range values {
			r.Headers.Add(key, v)
		}
	}
}

// redirectPolicy stops HEAD requests at the first redirect unless followHead
// is set, and caps every chain at maxRedirects hops.
func redirectPolicy(followHead bool) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if !followHead && req.Method == http.MethodHead {
			return http.ErrUseLastResponse
		}
		if len(via) >= maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}
