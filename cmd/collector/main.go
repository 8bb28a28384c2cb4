package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"socialwatch/internal/audit"
	"socialwatch/internal/collector"
	"socialwatch/internal/config"
	"socialwatch/internal/observability/logging"
	"socialwatch/internal/observability/metrics"
	"socialwatch/internal/platform"
	"socialwatch/pkg/resilient"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	appCfg, err := config.LoadAppConfig()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	collectorCfg := collector.LoadConfigFromEnv(logger)
	logger.Info("collector configuration loaded",
		slog.String("cron_schedule", collectorCfg.CronSchedule),
		slog.String("timezone", collectorCfg.Timezone),
		slog.Duration("run_timeout", collectorCfg.RunTimeout),
		slog.Int("parallelism", collectorCfg.Parallelism),
		slog.Int("metrics_port", collectorCfg.MetricsPort))

	providers, err := config.LoadProviders(appCfg.ProvidersFile)
	if err != nil {
		logger.Error("failed to load provider definitions", slog.Any("error", err))
		os.Exit(1)
	}
	if len(providers.Watches) == 0 {
		logger.Warn("no watches configured, collector will idle")
	}

	auditor := setupAuditor(appCfg, logger)
	defer auditor.Close()

	coreMetrics := resilient.NewPrometheusMetrics()

	var scrape platform.ScrapeFunc
	if appCfg.Scrape.BaseURL != "" {
		scrape = platform.HTTPScrapeFunc(appCfg.Scrape.BaseURL, appCfg.Scrape.Timeout)
	}

	registry, err := platform.NewRegistry(providers.Providers, platform.Options{
		Metrics: coreMetrics,
		Events:  auditor,
		Scrape:  scrape,
	})
	if err != nil {
		logger.Error("failed to build platform clients", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startMetricsServer(ctx, logger, collectorCfg.MetricsPort, coreMetrics)

	c := collector.New(registry, providers.Watches, collectorCfg.Parallelism, logger)
	runScheduler(ctx, logger, c, collectorCfg, auditor)
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
	}
	return audit.New(audit.Config{QueueSize: cfg.AuditQueueSize}, logger, notifier)
}

// runScheduler registers the sweep job with cron and blocks until a
// shutdown signal arrives.
func runScheduler(ctx context.Context, logger *slog.Logger, c *collector.Collector, cfg *collector.Config, auditor *audit.Auditor) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC",
			slog.String("timezone", cfg.Timezone),
			slog.Any("error", err))
		loc = time.UTC
	}

	scheduler := cron.New(cron.WithLocation(loc))
	_, err = scheduler.AddFunc(cfg.CronSchedule, func() {
		runSweep(ctx, logger, c, cfg, auditor)
	})
	if err != nil {
		logger.Error("failed to register sweep job", slog.Any("error", err))
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("collector started",
		slog.String("schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down collector...")

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Warn("sweep still running at shutdown deadline, abandoning")
	}
	logger.Info("collector stopped")
}

// runSweep executes one full sweep with a timeout.
func runSweep(ctx context.Context, logger *slog.Logger, c *collector.Collector, cfg *collector.Config, auditor *audit.Auditor) {
	start := time.Now()
	logger.Info("sweep started")

	sweepCtx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	stats := c.Run(sweepCtx)
	metrics.UpdateAlertsDropped(auditor.Dropped())

	logger.Info("sweep completed",
		slog.Int("providers", stats.Providers),
		slog.Int("profiles", stats.Profiles),
		slog.Int("posts", stats.Posts),
		slog.Int("degraded", stats.Degraded),
		slog.Int("errors", stats.Errors),
		slog.Duration("duration", time.Since(start)))
}
