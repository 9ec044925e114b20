package sitemap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"CatalogLocalizer/internal/domain"
	"CatalogLocalizer/internal/ports"
)

// ErrNoProductSitemaps is returned when the index references no product
// sitemaps at all; the run cannot proceed without one.
var ErrNoProductSitemaps = errors.New("no product sitemaps found")

// Source implements ProductSource by walking the storefront sitemap tree.
type Source struct {
	fetcher ports.SitemapFetcher
	rootURL string
	brand   string
	logger  *slog.Logger
}

var _ ports.ProductSource = (*Source)(nil)

// NewSource wires the sitemap fetcher with the configured root URL.
func NewSource(fetcher ports.SitemapFetcher, rootURL, brand string, logger *slog.Logger) *Source {
	return &Source{
		fetcher: fetcher,
		rootURL: rootURL,
		brand:   brand,
		logger:  logger,
	}
}

// Discover fetches every referenced product sitemap and aggregates the
// product records in document order.
func (s *Source) Discover(ctx context.Context) ([]domain.ProductRecord, error) {
	sitemaps, err := s.productSitemapURLs(ctx)
	if err != nil {
		return nil, err
	}

	s.info("found product sitemaps", "count", len(sitemaps))

	var aggregated []domain.ProductRecord
	for _, sitemapURL := range sitemaps {
		s.info("processing product sitemap", "url", sitemapURL)

		content, err := s.fetcher.FetchSitemap(ctx, sitemapURL)
		if err != nil {
			return nil, fmt.Errorf("product sitemap %s: %w", sitemapURL, err)
		}

		records, skipped, err := parseProductSitemap(content, s.brand)
		if err != nil {
			return nil, fmt.Errorf("parse product sitemap %s: %w", sitemapURL, err)
		}

		for _, loc := range skipped {
			s.debug("could not extract product code", "url", loc)
		}

		s.info("extracted products", "url", sitemapURL, "count", len(records))
		aggregated = append(aggregated, records...)
	}

	return aggregated, nil
}

// VerifyCodes substring-searches each code in the first product sitemap's
// raw XML. It reports the codes not present; extraction bugs show up as
// codes present here but absent from Discover results.
func (s *Source) VerifyCodes(ctx context.Context, codes []string) ([]string, error) {
	sitemaps, err := s.productSitemapURLs(ctx)
	if err != nil {
		return nil, err
	}

	first := sitemaps[0]
	s.debug("checking for product codes directly in sitemap XML", "url", first)

	content, err := s.fetcher.FetchSitemap(ctx, first)
	if err != nil {
		return nil, fmt.Errorf("fetch sitemap for code check: %w", err)
	}

	var missing []string
	for _, code := range codes {
		if !strings.Contains(content, code) {
			missing = append(missing, code)
		}
	}
	return missing, nil
}

// productSitemapURLs resolves the product sitemap list. A root URL that is
// itself a product sitemap bypasses index traversal.
func (s *Source) productSitemapURLs(ctx context.Context) ([]string, error) {
	if strings.Contains(s.rootURL, productSitemapMarker) {
		return []string{s.rootURL}, nil
	}

	content, err := s.fetcher.FetchSitemap(ctx, s.rootURL)
	if err != nil {
		return nil, fmt.Errorf("fetch sitemap index: %w", err)
	}

	sitemaps, err := parseSitemapIndex(content)
	if err != nil {
		return nil, fmt.Errorf("parse sitemap index: %w", err)
	}
	if len(sitemaps) == 0 {
		return nil, ErrNoProductSitemaps
	}

	return sitemaps, nil
}

func (s *Source) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Source) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
