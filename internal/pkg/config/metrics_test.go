package config

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// Component names must be unique per test: promauto registers against the
// process-global registry and panics on a duplicate.

func TestNewConfigMetrics(t *testing.T) {
	metrics := NewConfigMetrics("collector_reg_test")

	assert.NotNil(t, metrics.LoadTimestamp)
	assert.NotNil(t, metrics.ValidationErrorsTotal)
	assert.NotNil(t, metrics.FallbacksTotal)
	assert.NotNil(t, metrics.FallbackActive)
	assert.Equal(t, "collector_reg_test", metrics.componentName)
}

func TestConfigMetrics_RecordLoadTimestamp(t *testing.T) {
	metrics := NewConfigMetrics("collector_ts_test")

	metrics.RecordLoadTimestamp()

	assert.Greater(t, testutil.ToFloat64(metrics.LoadTimestamp), float64(0))
}

func TestConfigMetrics_ValidationErrorsPerField(t *testing.T) {
	metrics := NewConfigMetrics("collector_valerr_test")

	metrics.RecordValidationError("cron_schedule")
	metrics.RecordValidationError("cron_schedule")
	metrics.RecordValidationError("timezone")

	assert.Equal(t, float64(2),
		testutil.ToFloat64(metrics.ValidationErrorsTotal.WithLabelValues("cron_schedule")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(metrics.ValidationErrorsTotal.WithLabelValues("timezone")))
	assert.Equal(t, float64(0),
		testutil.ToFloat64(metrics.ValidationErrorsTotal.WithLabelValues("run_timeout")))
}

func TestConfigMetrics_FallbacksPerField(t *testing.T) {
	metrics := NewConfigMetrics("collector_fb_test")

	metrics.RecordFallback("timezone", "default")
	metrics.RecordFallback("timezone", "default")
	metrics.RecordFallback("parallelism", "default")

	assert.Equal(t, float64(2),
		testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("timezone")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("parallelism")))
}

func TestConfigMetrics_FallbackActiveGauge(t *testing.T) {
	metrics := NewConfigMetrics("collector_gauge_test")

	metrics.SetFallbackActive("timezone", true)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbackActive))

	metrics.SetFallbackActive("timezone", false)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.FallbackActive))
}

// Mirrors what the collector does on boot with a broken manifest: one
// validation error and one fallback per bad knob, gauge raised.
func TestConfigMetrics_DegradedBootScenario(t *testing.T) {
	metrics := NewConfigMetrics("collector_boot_test")

	metrics.RecordLoadTimestamp()
	for _, field := range []string{"cron_schedule", "timezone", "run_timeout"} {
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
	}
	metrics.SetFallbackActive("cron_schedule", true)

	for _, field := range []string{"cron_schedule", "timezone", "run_timeout"} {
		assert.Equal(t, float64(1),
			testutil.ToFloat64(metrics.ValidationErrorsTotal.WithLabelValues(field)), field)
		assert.Equal(t, float64(1),
			testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues(field)), field)
	}
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbackActive))
}

func TestConfigMetrics_CleanBootScenario(t *testing.T) {
	metrics := NewConfigMetrics("collector_clean_test")

	metrics.RecordLoadTimestamp()
	metrics.SetFallbackActive("", false)

	assert.Greater(t, testutil.ToFloat64(metrics.LoadTimestamp), float64(0))
	assert.Equal(t, float64(0),
		testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("cron_schedule")))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.FallbackActive))
}

func TestConfigMetrics_ConcurrentRecording(t *testing.T) {
	metrics := NewConfigMetrics("collector_conc_test")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			metrics.RecordValidationError("cron_schedule")
			metrics.RecordFallback("cron_schedule", "default")
		}()
	}
	wg.Wait()

	assert.Equal(t, float64(10),
		testutil.ToFloat64(metrics.ValidationErrorsTotal.WithLabelValues("cron_schedule")))
	assert.Equal(t, float64(10),
		testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("cron_schedule")))
}
