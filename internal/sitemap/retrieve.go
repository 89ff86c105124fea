package sitemap

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/JakeFAU/sitemapdiag/internal/diag"
)

// AcceptHeader asks servers that negotiate content for the XML rendering.
const AcceptHeader = "application/xml, text/xml;q=0.9, */*;q=0.8"

// Retrieve downloads the sitemap at sitemapURL and parses it. Every failure is
// reported as a *diag.FetchError, including a body cut off at the fetcher's
// size cap. A non-2xx status is logged and the body is
// parsed anyway, since servers frequently serve sitemaps with odd statuses.
func Retrieve(ctx context.Context, fetcher diag.Fetcher, sitemapURL string, logger *zap.Logger) (*Document, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	resp, err := fetcher.Fetch(ctx, diag.FetchRequest{
		Method:  http.MethodGet,
		URL:     sitemapURL,
		Headers: http.Header{"Accept": {AcceptHeader}},
	})
	if err != nil {
		return nil, &diag.FetchError{URL: sitemapURL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("sitemap responded with non-success status",
			zap.String("url", sitemapURL),
			zap.Int("status", resp.StatusCode),
		)
	}
	logger.Debug("sitemap fetched",
		zap.String("url", sitemapURL),
		zap.String("final_url", resp.FinalURL),
		zap.Int("bytes", len(resp.Body)),
		zap.Duration("dur", resp.Duration),
	)

	if resp.Truncated {
		return nil, &diag.FetchError{
			URL: sitemapURL,
			Err: fmt.Errorf("%w at %d bytes, raise http.max_body_bytes", diag.ErrBodyTruncated, len(resp.Body)),
		}
	}

	doc, err := Parse(resp.Body, resp.ContentType())
	if err != nil {
		return nil, &diag.FetchError{URL: sitemapURL, Err: err}
	}
	return doc, nil
}
