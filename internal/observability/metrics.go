package observability

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the run counters exposed on the optional /metrics listener.
type Metrics struct {
	ProductsProcessed    prometheus.Counter
	ProductsFailed       prometheus.Counter
	PagesUnavailable     prometheus.Counter
	LocalizationsSkipped prometheus.Counter

	registry *prometheus.Registry
}

// New builds the counter set on a private registry so repeated construction
// in tests cannot collide.
func New() *Metrics {
	m := &Metrics{
		ProductsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cataloglocalizer_products_processed_total",
			Help: "Products run through the pipeline, success or failure.",
		}),
		ProductsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cataloglocalizer_products_failed_total",
			Help: "Products whose record carries a failure outcome.",
		}),
		PagesUnavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cataloglocalizer_pages_unavailable_total",
			Help: "Product pages that 404ed or exhausted fetch retries.",
		}),
		LocalizationsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cataloglocalizer_localizations_skipped_total",
			Help: "Localizations skipped because no API credential was set.",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.ProductsProcessed,
		m.ProductsFailed,
		m.PagesUnavailable,
		m.LocalizationsSkipped,
	)

	return m
}

// Handler exposes the registry for embedding in an existing mux.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts the /metrics listener on the given port and shuts it down
// when ctx is done.
func (m *Metrics) Serve(ctx context.Context, port string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if logger != nil {
				logger.Error("metrics listener stopped", "error", err)
			}
		}
	}()
}
