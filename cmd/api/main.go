package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"socialwatch/internal/audit"
	"socialwatch/internal/config"
	hhttp "socialwatch/internal/handler/http"
	"socialwatch/internal/handler/http/requestid"
	"socialwatch/internal/observability/logging"
	"socialwatch/internal/observability/tracing"
	"socialwatch/internal/platform"
	"socialwatch/pkg/resilient"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	cfg, err := config.LoadAppConfig()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	providers, err := config.LoadProviders(cfg.ProvidersFile)
	if err != nil {
		logger.Error("failed to load provider definitions", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("provider definitions loaded",
		slog.Int("providers", len(providers.Providers)),
		slog.String("source", providerSource(cfg.ProvidersFile)))

	shutdownTracing := tracing.Init("socialwatch-api")
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("tracing shutdown failed", slog.Any("error", err))
		}
	}()

	auditor := setupAuditor(cfg, logger)
	defer auditor.Close()

	coreMetrics := resilient.NewPrometheusMetrics()

	registry, err := platform.NewRegistry(providers.Providers, platform.Options{
		Metrics: coreMetrics,
		Events:  auditor,
		Scrape:  scrapeInvoker(cfg, logger),
	})
	if err != nil {
		logger.Error("failed to build platform clients", slog.Any("error", err))
		os.Exit(1)
	}

	handler := setupRoutes(cfg, logger, registry, auditor, coreMetrics)
	runServer(cfg, logger, handler)
}

// providerSource names where provider definitions came from, for the
// startup log line.
func providerSource(path string) string {
	if path == "" {
		return "built-in defaults"
	}
	return path
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// setupAuditor builds the event auditor, with webhook alert delivery when
// configured.
func setupAuditor(cfg *config.AppConfig, logger *slog.Logger) *audit.Auditor {
	var notifier audit.Notifier
	if cfg.Webhook.Enabled {
		notifier = audit.NewWebhookNotifier(audit.WebhookConfig{
			Enabled:           true,
			URL:               cfg.Webhook.URL,
			Timeout:           cfg.Webhook.Timeout,
			RequestsPerSecond: cfg.Webhook.RequestsPerSecond,
			Burst:             cfg.Webhook.Burst,
		}, logger)
		logger.Info("webhook alerting enabled",
			slog.Float64("rate", cfg.Webhook.RequestsPerSecond),
			slog.Int("burst", cfg.Webhook.Burst))
	} else {
		logger.Info("webhook alerting disabled, alerts are log-only")
	}

	return audit.New(audit.Config{QueueSize: cfg.AuditQueueSize}, logger, notifier)
}

// scrapeInvoker builds the scrape path invoker, or nil when no scrape
// service is configured. Providers with the scrape rung enabled silently
// lose it when the invoker is nil.
func scrapeInvoker(cfg *config.AppConfig, logger *slog.Logger) platform.ScrapeFunc {
	if cfg.Scrape.BaseURL == "" {
		logger.Info("scrape fallback disabled, no SCRAPE_BASE_URL configured")
		return nil
	}
	logger.Info("scrape fallback enabled", slog.String("base_url", cfg.Scrape.BaseURL))
	return platform.HTTPScrapeFunc(cfg.Scrape.BaseURL, cfg.Scrape.Timeout)
}

// setupRoutes registers the status API routes and wraps them in the
// middleware chain.
func setupRoutes(
	cfg *config.AppConfig,
	logger *slog.Logger,
	registry *platform.Registry,
	auditor *audit.Auditor,
	coreMetrics *resilient.PrometheusMetrics,
) http.Handler {
	version := getVersion()

	mux := http.NewServeMux()
	mux.Handle("/status/providers", &hhttp.ProviderStatusHandler{Registry: registry})
	mux.Handle("/healthz", &hhttp.HealthHandler{Registry: registry, Auditor: auditor, Version: version})
	mux.Handle("/readyz", &hhttp.ReadyHandler{Registry: registry})
	mux.Handle("/livez", &hhttp.LiveHandler{})

	// One exposition endpoint for both the process-global registry (HTTP
	// metrics) and the resilient core's own registry.
	gatherers := prometheus.Gatherers{prometheus.DefaultGatherer, coreMetrics.Registry()}
	mux.Handle("/metrics", promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}))

	// Apply in reverse order (innermost to outermost).
	var chain http.Handler = mux
	chain = hhttp.MetricsMiddleware(chain)
	chain = hhttp.LimitRequestBody(1 << 20)(chain) // 1MB limit
	chain = hhttp.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = hhttp.Logging(logger)(chain)
	chain = hhttp.Recover(logger)(chain)
	chain = tracing.Middleware(chain)
	chain = requestid.Middleware(chain)

	return chain
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(cfg *config.AppConfig, logger *slog.Logger, handler http.Handler) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.Server.Addr),
			slog.String("version", getVersion()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
