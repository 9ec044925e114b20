package filter

import (
	"fmt"
	"log/slog"
	"strings"

	"CatalogLocalizer/internal/domain"
)

// Filter reconciles the discovered product set against the operator's
// allow-list of product codes.
type Filter struct {
	forceMode bool
	baseURL   string
	logger    *slog.Logger
}

// Result is one reconciliation: the records to process plus the allow-list
// bookkeeping the run summary reports on.
type Result struct {
	Products []domain.ProductRecord
	Matched  []string
	Missing  []string
}

// New builds a filter. The storefront base URL used for force-mode stubs
// is the sitemap URL truncated before its /sitemap path segment.
func New(forceMode bool, sitemapURL string, logger *slog.Logger) *Filter {
	return &Filter{
		forceMode: forceMode,
		baseURL:   strings.Split(sitemapURL, "/sitemap")[0],
		logger:    logger,
	}
}

// Apply keeps the records whose code appears in codes, preserving discovery
// order. An empty allow-list passes every record through. In force mode,
// requested codes absent from the discovered set are appended as stubs.
func (f *Filter) Apply(records []domain.ProductRecord, codes []string) Result {
	if len(codes) == 0 {
		return Result{Products: records}
	}

	requested := make(map[string]bool, len(codes))
	for _, code := range codes {
		requested[code] = true
	}

	var kept []domain.ProductRecord
	found := map[string]bool{}
	for _, record := range records {
		if requested[record.Code] {
			kept = append(kept, record)
			found[record.Code] = true
		}
	}

	var matched, missing []string
	seen := map[string]bool{}
	for _, code := range codes {
		if seen[code] {
			continue
		}
		seen[code] = true
		if found[code] {
			matched = append(matched, code)
		} else {
			missing = append(missing, code)
		}
	}

	f.info("reconciled allow-list", "kept", len(kept), "matched", len(matched), "missing", len(missing))

	if f.forceMode && len(missing) > 0 {
		f.info("force mode enabled, adding missing products with stub data", "count", len(missing))
		for _, code := range missing {
			kept = append(kept, f.stubRecord(code))
		}
	}

	return Result{Products: kept, Matched: matched, Missing: missing}
}

// stubRecord fabricates a minimal record for a requested code the sitemap
// does not know about.
func (f *Filter) stubRecord(code string) domain.ProductRecord {
	return domain.ProductRecord{
		Code:       code,
		Name:       fmt.Sprintf("Product %s", code),
		ImageURL:   "",
		ProductURL: fmt.Sprintf("%s/products/%s", f.baseURL, code),
	}
}

func (f *Filter) info(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Info(msg, args...)
	}
}
