package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"CatalogLocalizer/internal/compose"
	"CatalogLocalizer/internal/domain"
	"CatalogLocalizer/internal/filter"
	"CatalogLocalizer/internal/observability"
	"CatalogLocalizer/internal/ports"
	"CatalogLocalizer/pkg/pace"
)

// defaultPaceDelay bounds the outbound request rate between products.
const defaultPaceDelay = time.Second

const (
	reasonFetch       = "fetch error"
	reasonTranslation = "translation error"

	unavailableEnglish = "Could not fetch product page"
	unavailableSpanish = "No se pudo obtener la página del producto"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source    ports.ProductSource
	CodeList  ports.CodeListSource
	Filter    *filter.Filter
	Fetcher   ports.PageFetcher
	Extractor ports.PageExtractor
	Composer  *compose.Composer
	Localizer ports.Localizer
	Writer    ports.RecordWriter
	Reporter  ports.SummaryReporter
	Metrics   *observability.Metrics
	Logger    *slog.Logger

	SitemapURL  string
	OutputPath  string
	MaxProducts int
	PaceDelay   time.Duration
}

// Pipeline implements the catalog localization workflow: discover, filter,
// fetch, extract, compose, localize, persist, report.
type Pipeline struct {
	source    ports.ProductSource
	codeList  ports.CodeListSource
	filter    *filter.Filter
	fetcher   ports.PageFetcher
	extractor ports.PageExtractor
	composer  *compose.Composer
	localizer ports.Localizer
	writer    ports.RecordWriter
	reporter  ports.SummaryReporter
	metrics   *observability.Metrics
	logger    *slog.Logger

	sitemapURL  string
	outputPath  string
	maxProducts int
	paceDelay   time.Duration
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.PaceDelay <= 0 {
		deps.PaceDelay = defaultPaceDelay
	}
	return &Pipeline{
		source:      deps.Source,
		codeList:    deps.CodeList,
		filter:      deps.Filter,
		fetcher:     deps.Fetcher,
		extractor:   deps.Extractor,
		composer:    deps.Composer,
		localizer:   deps.Localizer,
		writer:      deps.Writer,
		reporter:    deps.Reporter,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		sitemapURL:  deps.SitemapURL,
		outputPath:  deps.OutputPath,
		maxProducts: deps.MaxProducts,
		paceDelay:   deps.PaceDelay,
	}
}

// Run executes one full catalog pass. Per-product failures are absorbed
// into their records; only misconfiguration, sitemap-level failures, output
// write failures, and cancellation abort the run.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.source == nil {
		return nil
	}

	if err := validateSitemapURL(p.sitemapURL); err != nil {
		return err
	}

	codes, created, err := p.loadAllowList()
	if err != nil {
		return err
	}
	if created {
		return nil
	}

	if len(codes) == 0 {
		p.warn("no valid product codes found in input file, processing all products")
	} else {
		p.info("loaded product codes from input file", "count", len(codes))
		p.verifyCodes(ctx, codes)
	}

	p.info("fetching sitemap", "url", p.sitemapURL)

	discovered, err := p.source.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discover products: %w", err)
	}
	p.info("total products found in sitemaps", "count", len(discovered))

	result := filter.Result{Products: discovered}
	if p.filter != nil {
		result = p.filter.Apply(discovered, codes)
	}

	products := result.Products
	if p.maxProducts > 0 && len(products) > p.maxProducts {
		p.info("limiting processing to configured maximum", "max", p.maxProducts, "matching", len(products))
		products = products[:p.maxProducts]
	}

	summary := domain.RunSummary{
		TotalDiscovered: len(discovered),
		TotalMatching:   len(result.Products),
		Planned:         len(products),
		OutputPath:      p.outputPath,
	}

	p.info("processing product pages to generate descriptions", "count", len(products))

	var enhanced []domain.EnhancedProductRecord
	var runErr error

	for i, product := range products {
		p.info("processing product", "index", i+1, "total", len(products), "code", product.Code, "name", product.Name)

		record, failReason, err := p.processOne(ctx, product)
		if err != nil {
			runErr = err
			break
		}

		enhanced = append(enhanced, record)
		summary.Processed++
		p.markProcessed()

		if failReason == "" {
			summary.Succeeded++
		} else {
			summary.Failed++
			summary.FailedProducts = append(summary.FailedProducts,
				fmt.Sprintf("%s - %s (%s)", product.Code, product.Name, failReason))
			p.markFailed()
		}

		// The courtesy delay follows fully-processed products only;
		// fetch-error and panic paths continue immediately.
		if failReason == "" || failReason == reasonTranslation {
			if werr := pace.Wait(ctx, p.paceDelay); werr != nil {
				runErr = werr
				break
			}
		}
	}

	if len(enhanced) > 0 && p.writer != nil {
		if err := p.writer.Write(enhanced); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	if p.reporter != nil {
		if err := p.reporter.Report(summary); err != nil {
			return fmt.Errorf("report summary: %w", err)
		}
	}

	return runErr
}

// processOne builds the terminal record for a single product. failReason is
// empty on success; err is non-nil only when the whole run must stop.
func (p *Pipeline) processOne(ctx context.Context, product domain.ProductRecord) (record domain.EnhancedProductRecord, failReason string, err error) {
	defer func() {
		if r := recover(); r != nil {
			detail := fmt.Sprint(r)
			p.warn("recovered from panic while processing product", "code", product.Code, "panic", detail)
			record = domain.EnhancedProductRecord{
				ProductRecord:      product,
				EnglishDescription: "ERROR - " + detail,
				Localization: domain.LocalizationOutcome{
					Status: domain.LocalizationFailed,
					Detail: "Error: " + detail,
				},
				Detail: domain.EmptyPageInfo(),
			}
			failReason = fmt.Sprintf("processing error: %.50s...", detail)
			err = nil
		}
	}()

	html, fetchErr := p.fetchPage(ctx, product.ProductURL)
	if fetchErr != nil {
		if !errors.Is(fetchErr, domain.ErrPageUnavailable) {
			return domain.EnhancedProductRecord{}, "", fetchErr
		}

		p.warn("product page unavailable, recording fetch error", "code", product.Code, "url", product.ProductURL)
		p.markUnavailable()

		return domain.EnhancedProductRecord{
			ProductRecord:      product,
			EnglishDescription: domain.FailureSentinel + " - " + unavailableEnglish,
			Localization: domain.LocalizationOutcome{
				Status: domain.LocalizationFailed,
				Detail: unavailableSpanish,
			},
			Detail: domain.EmptyPageInfo(),
		}, reasonFetch, nil
	}

	detail := domain.EmptyPageInfo()
	if p.extractor != nil {
		detail = p.extractor.Extract(html)
	}

	english := ""
	if p.composer != nil {
		english = p.composer.Compose(product, detail)
	}

	outcome := domain.LocalizationOutcome{Status: domain.LocalizationSkipped}
	if p.localizer != nil {
		p.info("translating description", "code", product.Code)
		outcome = p.localizer.Localize(ctx, product, english, detail)
	}
	if outcome.Status == domain.LocalizationSkipped {
		p.markSkipped()
	}

	record = domain.EnhancedProductRecord{
		ProductRecord:      product,
		EnglishDescription: english,
		Localization:       outcome,
		Detail:             detail,
	}

	if outcome.Status == domain.LocalizationFailed {
		return record, reasonTranslation, nil
	}
	return record, "", nil
}

func (p *Pipeline) fetchPage(ctx context.Context, pageURL string) (string, error) {
	if p.fetcher == nil {
		return "", fmt.Errorf("no page fetcher configured: %w", domain.ErrPageUnavailable)
	}
	return p.fetcher.FetchPage(ctx, pageURL)
}

// loadAllowList reads the code list. created reports that a missing input
// file was replaced with a template, which ends the run cleanly.
func (p *Pipeline) loadAllowList() (codes []string, created bool, err error) {
	if p.codeList == nil {
		return nil, false, nil
	}

	codes, err = p.codeList.Load()
	if err == nil {
		return codes, false, nil
	}
	if !errors.Is(err, domain.ErrNoCodeList) {
		return nil, false, fmt.Errorf("load code list: %w", err)
	}

	p.info("input file not found, creating empty template")
	if werr := p.codeList.WriteTemplate(); werr != nil {
		return nil, false, fmt.Errorf("write code list template: %w", werr)
	}
	return nil, true, nil
}

// verifyCodes substring-checks the requested codes against the first product
// sitemap. Diagnostic only; failures never abort the run.
func (p *Pipeline) verifyCodes(ctx context.Context, codes []string) {
	missing, err := p.source.VerifyCodes(ctx, codes)
	if err != nil {
		p.warn("sitemap code check failed", "error", err)
		return
	}

	p.info("sitemap code check", "found", len(codes)-len(missing), "requested", len(codes))

	if len(missing) == 0 {
		return
	}
	if len(missing) <= 10 {
		for _, code := range missing {
			p.warn("requested code not found in sitemap XML", "code", code)
		}
		return
	}
	p.warn("requested codes not found in sitemap XML", "count", len(missing))
}

func validateSitemapURL(raw string) error {
	if raw == "" {
		return errors.New("sitemap url is not configured")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid sitemap url %q: %w", raw, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid sitemap url %q: scheme and host are required", raw)
	}
	return nil
}

func (p *Pipeline) markProcessed() {
	if p.metrics != nil {
		p.metrics.ProductsProcessed.Inc()
	}
}

func (p *Pipeline) markFailed() {
	if p.metrics != nil {
		p.metrics.ProductsFailed.Inc()
	}
}

func (p *Pipeline) markUnavailable() {
	if p.metrics != nil {
		p.metrics.PagesUnavailable.Inc()
	}
}

func (p *Pipeline) markSkipped() {
	if p.metrics != nil {
		p.metrics.LocalizationsSkipped.Inc()
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
