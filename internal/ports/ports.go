package ports

import (
	"context"

	"CatalogLocalizer/internal/domain"
)

// ProductSource discovers product records from the storefront sitemap tree.
type ProductSource interface {
	Discover(ctx context.Context) ([]domain.ProductRecord, error)
	// VerifyCodes reports which of the given codes do not appear verbatim
	// in the first product sitemap. Diagnostic only.
	VerifyCodes(ctx context.Context, codes []string) ([]string, error)
}

// SitemapFetcher retrieves sitemap XML documents.
type SitemapFetcher interface {
	FetchSitemap(ctx context.Context, url string) (string, error)
}

// PageFetcher retrieves product detail pages. An unreachable page yields an
// error wrapping domain.ErrPageUnavailable.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// PageExtractor pulls structured product details out of raw page HTML.
type PageExtractor interface {
	Extract(html string) domain.ExtractedPageInfo
}

// Localizer produces the Spanish rendition of a composed description.
// Service failures are absorbed into the returned outcome.
type Localizer interface {
	Localize(ctx context.Context, product domain.ProductRecord, english string, detail domain.ExtractedPageInfo) domain.LocalizationOutcome
}

// CodeListSource loads the operator-provided product code allow-list.
type CodeListSource interface {
	// Load returns domain.ErrNoCodeList when the file does not exist.
	Load() ([]string, error)
	WriteTemplate() error
}

// RecordWriter persists the terminal product records.
type RecordWriter interface {
	Write(records []domain.EnhancedProductRecord) error
}

// SummaryReporter renders the end-of-run processing report.
type SummaryReporter interface {
	Report(summary domain.RunSummary) error
}
