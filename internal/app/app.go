package app

import (
	"context"
	"log/slog"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"CatalogLocalizer/internal/compose"
	"CatalogLocalizer/internal/config"
	"CatalogLocalizer/internal/filter"
	"CatalogLocalizer/internal/infrastructure/fetch"
	"CatalogLocalizer/internal/infrastructure/llm"
	"CatalogLocalizer/internal/infrastructure/page"
	"CatalogLocalizer/internal/infrastructure/report"
	"CatalogLocalizer/internal/infrastructure/sitemap"
	"CatalogLocalizer/internal/infrastructure/storage"
	"CatalogLocalizer/internal/logging"
	"CatalogLocalizer/internal/observability"
	"CatalogLocalizer/internal/usecase"
)

// Application wires configuration to the localization pipeline and
// lifecycle orchestration.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	// The page dump is a debugging aid; leave it off unless asked for.
	debugPagePath := ""
	if cfg.Run.Debug {
		debugPagePath = cfg.Files.DebugPagePath
	}

	client := fetch.NewClient(nil, debugPagePath, baseLogger.With("component", "fetch"))
	source := sitemap.NewSource(client, cfg.Sitemap.URL, cfg.Heuristics.Brand, baseLogger.With("component", "sitemap"))
	extractor := page.NewExtractor(cfg.Heuristics.IntentKeywords, cfg.Heuristics.ApplicationKeywords, baseLogger.With("component", "extractor"))
	composer := compose.NewComposer(cfg.Heuristics.Brand)
	codeFilter := filter.New(cfg.Run.ForceMode, cfg.Sitemap.URL, baseLogger.With("component", "filter"))

	var openaiClient *openai.Client
	if cfg.OpenAI.APIKey != "" {
		openaiClient = openai.NewClient(cfg.OpenAI.APIKey)
	}
	localizer := llm.NewLocalizer(openaiClient, cfg.OpenAI.Model, cfg.Heuristics.Brand, cfg.Heuristics.PlierKeywords, baseLogger.With("component", "localizer"))

	codeList := storage.NewCodeListFile(cfg.Files.InputPath, baseLogger.With("component", "storage"))
	writer := storage.NewCSVWriter(cfg.Files.OutputPath, baseLogger.With("component", "storage"))

	metrics := observability.New()

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:      source,
		CodeList:    codeList,
		Filter:      codeFilter,
		Fetcher:     client,
		Extractor:   extractor,
		Composer:    composer,
		Localizer:   localizer,
		Writer:      writer,
		Reporter:    report.NewConsoleReporter(os.Stdout),
		Metrics:     metrics,
		Logger:      baseLogger.With("component", "pipeline"),
		SitemapURL:  cfg.Sitemap.URL,
		OutputPath:  cfg.Files.OutputPath,
		MaxProducts: cfg.Run.MaxProducts,
	})

	return &Application{cfg: cfg, pipeline: pipeline, metrics: metrics, logger: baseLogger}
}

// Run starts the optional metrics listener and executes one catalog pass.
func (a *Application) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return nil
	}

	if port := a.cfg.Metrics.Port; port != "" {
		a.metrics.Serve(ctx, port, a.logger.With("component", "metrics"))
	}

	return a.pipeline.Run(ctx)
}
