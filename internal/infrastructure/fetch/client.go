package fetch

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/andybalholm/brotli"

	"CatalogLocalizer/internal/domain"
	"CatalogLocalizer/internal/ports"
	"CatalogLocalizer/pkg/retry"
)

const (
	// Storefronts serve browser traffic; the default Go UA gets blocked by
	// some of them.
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = 5 * time.Second

	// Bodies smaller than this are usually interstitial or error pages.
	minPageSize = 1000
)

// Client fetches sitemap XML and product pages over HTTP.
type Client struct {
	http          *http.Client
	logger        *slog.Logger
	maxRetries    int
	retryDelay    time.Duration
	debugPagePath string
}

var _ ports.SitemapFetcher = (*Client)(nil)
var _ ports.PageFetcher = (*Client)(nil)

// NewClient wires an HTTP client; pass an empty debugPagePath to disable
// page dumps.
func NewClient(httpClient *http.Client, debugPagePath string, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		http:          httpClient,
		logger:        logger,
		maxRetries:    defaultMaxRetries,
		retryDelay:    defaultRetryDelay,
		debugPagePath: debugPagePath,
	}
}

// FetchSitemap retrieves a sitemap document. Any transport failure or
// non-2xx status is an error; sitemap availability is a startup concern.
func (c *Client) FetchSitemap(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build sitemap request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch sitemap %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch sitemap %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read sitemap %s: %w", url, err)
	}

	return string(body), nil
}

// FetchPage retrieves a product page with bounded retries. A 404 gives up
// immediately; every other failure is retried with a fixed delay. When the
// page cannot be obtained the returned error wraps domain.ErrPageUnavailable.
func (c *Client) FetchPage(ctx context.Context, url string) (string, error) {
	var body string
	attempt := 0

	err := retry.Do(ctx, c.maxRetries, c.retryDelay, retryablePage, func() error {
		attempt++
		c.debug("fetching product page", "url", url, "attempt", attempt, "max_attempts", c.maxRetries)

		var err error
		body, err = c.getPage(ctx, url)
		if err != nil && attempt < c.maxRetries && ctx.Err() == nil && retryablePage(err) {
			c.warn("fetch attempt failed, retrying", "url", url, "attempt", attempt, "retry_delay", c.retryDelay, "error", err)
		}
		return err
	})
	if err == nil {
		if len(body) < minPageSize {
			c.warn("response content too small, might not be a valid product page", "url", url, "bytes", len(body))
		}
		c.dumpPage(body)
		return body, nil
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
		c.warn("product page not found", "url", url)
		return "", fmt.Errorf("fetch %s: status 404: %w", url, domain.ErrPageUnavailable)
	}
	if ctx.Err() != nil {
		return "", err
	}

	c.warn("max retries reached, giving up", "url", url)
	return "", fmt.Errorf("fetch %s: %v: %w", url, err, domain.ErrPageUnavailable)
}

// retryablePage reports whether a fetch failure may be transient. Missing
// pages are terminal; timeouts, connection drops and 5xx are worth another
// attempt.
func retryablePage(err error) bool {
	var statusErr *StatusError
	return !(errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound)
}

func (c *Client) getPage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{URL: url, Code: resp.StatusCode, Status: resp.Status}
	}

	reader, err := decompressReader(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return "", fmt.Errorf("decompress response: %w", err)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	return string(body), nil
}

// decompressReader unwraps the response body according to Content-Encoding.
func decompressReader(r io.Reader, encoding string) (io.Reader, error) {
	switch encoding {
	case "gzip":
		return gzip.NewReader(r)
	case "deflate":
		return flate.NewReader(r), nil
	case "br":
		return brotli.NewReader(r), nil
	default:
		return r, nil
	}
}

func (c *Client) dumpPage(body string) {
	if c.debugPagePath == "" {
		return
	}
	if err := os.WriteFile(c.debugPagePath, []byte(body), 0o644); err != nil {
		c.warn("cannot dump page for inspection", "path", c.debugPagePath, "error", err)
	}
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Client) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s for %s", e.Status, e.URL)
}
