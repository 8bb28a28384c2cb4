// Package collector runs scheduled sweeps over the configured watches:
// profile refreshes and search queries per provider, plus cache
// maintenance. It is the main driver of platform API traffic.
package collector

import (
	"log/slog"
	"time"

	pkgconfig "socialwatch/internal/pkg/config"
)

// configMetrics tracks collector configuration load state.
var configMetrics = pkgconfig.NewConfigMetrics("collector")

// Config holds collector runtime settings.
type Config struct {
	// CronSchedule is the sweep schedule in five-field cron syntax.
	CronSchedule string

	// Timezone is the IANA timezone the schedule is evaluated in.
	Timezone string

	// RunTimeout bounds one full sweep across all providers.
	RunTimeout time.Duration

	// Parallelism is the number of providers swept concurrently.
	Parallelism int

	// MetricsPort serves /metrics and the health probes.
	MetricsPort int
}

// LoadConfigFromEnv loads collector configuration with fail-open fallback:
// an invalid value logs a warning and falls back to its default instead of
// stopping the process, since a collector that does not start at all is
// worse than one on a default schedule.
//
// Environment variables:
//   - COLLECTOR_CRON_SCHEDULE: Sweep schedule (default: "*/15 * * * *")
//   - COLLECTOR_TIMEZONE: IANA timezone (default: "UTC")
//   - COLLECTOR_RUN_TIMEOUT: Per-sweep timeout (default: 10m)
//   - COLLECTOR_PARALLELISM: Concurrent providers, 1-32 (default: 3)
//   - COLLECTOR_METRICS_PORT: Metrics listen port, 1-65535 (default: 9091)
func LoadConfigFromEnv(logger *slog.Logger) *Config {
	fallbackActive := false

	apply := func(field string, result pkgconfig.ConfigLoadResult) pkgconfig.ConfigLoadResult {
		for _, warning := range result.Warnings {
			logger.Warn("collector configuration warning", slog.String("warning", warning))
		}
		if result.FallbackApplied {
			configMetrics.RecordValidationError(field)
			configMetrics.RecordFallback(field, "default")
			fallbackActive = true
		}
		return result
	}

	schedule := apply("cron_schedule", pkgconfig.LoadEnvWithFallback(
		"COLLECTOR_CRON_SCHEDULE", "*/15 * * * *", pkgconfig.ValidateCronSchedule))
	timezone := apply("timezone", pkgconfig.LoadEnvWithFallback(
		"COLLECTOR_TIMEZONE", "UTC", pkgconfig.ValidateTimezone))
	runTimeout := apply("run_timeout", pkgconfig.LoadEnvDuration(
		"COLLECTOR_RUN_TIMEOUT", 10*time.Minute, pkgconfig.ValidatePositiveDuration))
	parallelism := apply("parallelism", pkgconfig.LoadEnvInt(
		"COLLECTOR_PARALLELISM", 3, func(v int) error {
			return pkgconfig.ValidateIntRange(v, 1, 32)
		}))
	metricsPort := apply("metrics_port", pkgconfig.LoadEnvInt(
		"COLLECTOR_METRICS_PORT", 9091, func(v int) error {
			return pkgconfig.ValidateIntRange(v, 1, 65535)
		}))

	configMetrics.SetFallbackActive("any", fallbackActive)
	configMetrics.RecordLoadTimestamp()

	return &Config{
		CronSchedule: schedule.Value.(string),
		Timezone:     timezone.Value.(string),
		RunTimeout:   runTimeout.Value.(time.Duration),
		Parallelism:  parallelism.Value.(int),
		MetricsPort:  metricsPort.Value.(int),
	}
}
