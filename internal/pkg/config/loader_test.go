package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvString(t *testing.T) {
	t.Setenv("COLLECTOR_NAME", "nightly")
	assert.Equal(t, "nightly", LoadEnvString("COLLECTOR_NAME", "default"))
	assert.Equal(t, "default", LoadEnvString("COLLECTOR_NAME_UNSET", "default"))
}

func TestLoadEnvWithFallback_ValidCronSchedule(t *testing.T) {
	t.Setenv("COLLECTOR_CRON_SCHEDULE", "0 */6 * * *")

	result := LoadEnvWithFallback("COLLECTOR_CRON_SCHEDULE", "*/15 * * * *", ValidateCronSchedule)

	assert.Equal(t, "0 */6 * * *", result.Value)
	assert.Empty(t, result.Warnings)
	assert.False(t, result.FallbackApplied)
}

func TestLoadEnvWithFallback_MissingUsesDefaultSilently(t *testing.T) {
	result := LoadEnvWithFallback("COLLECTOR_CRON_SCHEDULE", "*/15 * * * *", ValidateCronSchedule)

	assert.Equal(t, "*/15 * * * *", result.Value)
	assert.Empty(t, result.Warnings)
	assert.False(t, result.FallbackApplied)
}

func TestLoadEnvWithFallback_InvalidCronScheduleFallsBack(t *testing.T) {
	t.Setenv("COLLECTOR_CRON_SCHEDULE", "whenever")

	result := LoadEnvWithFallback("COLLECTOR_CRON_SCHEDULE", "*/15 * * * *", ValidateCronSchedule)

	assert.Equal(t, "*/15 * * * *", result.Value)
	assert.True(t, result.FallbackApplied)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Invalid COLLECTOR_CRON_SCHEDULE='whenever'")
	assert.Contains(t, result.Warnings[0], "falling back to default '*/15 * * * *'")
}

func TestLoadEnvWithFallback_InvalidTimezoneFallsBack(t *testing.T) {
	t.Setenv("COLLECTOR_TIMEZONE", "Mars/Olympus_Mons")

	result := LoadEnvWithFallback("COLLECTOR_TIMEZONE", "UTC", ValidateTimezone)

	assert.Equal(t, "UTC", result.Value)
	assert.True(t, result.FallbackApplied)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Invalid COLLECTOR_TIMEZONE='Mars/Olympus_Mons'")
}

func TestLoadEnvWithFallback_NilValidatorAcceptsAnything(t *testing.T) {
	t.Setenv("COLLECTOR_LABEL", "anything at all")

	result := LoadEnvWithFallback("COLLECTOR_LABEL", "default", nil)

	assert.Equal(t, "anything at all", result.Value)
	assert.False(t, result.FallbackApplied)
}

func TestLoadEnvDuration_Valid(t *testing.T) {
	t.Setenv("COLLECTOR_RUN_TIMEOUT", "1h30m")

	result := LoadEnvDuration("COLLECTOR_RUN_TIMEOUT", 10*time.Minute, ValidatePositiveDuration)

	assert.Equal(t, 90*time.Minute, result.Value)
	assert.Empty(t, result.Warnings)
	assert.False(t, result.FallbackApplied)
}

func TestLoadEnvDuration_UnparseableFallsBack(t *testing.T) {
	t.Setenv("COLLECTOR_RUN_TIMEOUT", "a while")

	result := LoadEnvDuration("COLLECTOR_RUN_TIMEOUT", 10*time.Minute, ValidatePositiveDuration)

	assert.Equal(t, 10*time.Minute, result.Value)
	assert.True(t, result.FallbackApplied)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Invalid COLLECTOR_RUN_TIMEOUT='a while'")
	assert.Contains(t, result.Warnings[0], "falling back to default '10m0s'")
}

func TestLoadEnvDuration_RejectedByValidatorFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"negative", "-5m"},
		{"zero", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("COLLECTOR_RUN_TIMEOUT", tt.value)

			result := LoadEnvDuration("COLLECTOR_RUN_TIMEOUT", 10*time.Minute, ValidatePositiveDuration)

			assert.Equal(t, 10*time.Minute, result.Value)
			assert.True(t, result.FallbackApplied)
			assert.NotEmpty(t, result.Warnings)
		})
	}
}

func TestLoadEnvDuration_RangeValidator(t *testing.T) {
	t.Setenv("COLLECTOR_RUN_TIMEOUT", "12h")

	validator := func(d time.Duration) error {
		return ValidateDuration(d, time.Minute, 2*time.Hour)
	}
	result := LoadEnvDuration("COLLECTOR_RUN_TIMEOUT", 10*time.Minute, validator)

	assert.Equal(t, 10*time.Minute, result.Value)
	assert.True(t, result.FallbackApplied)
	assert.Contains(t, result.Warnings[0], "exceeds maximum")
}

func TestLoadEnvInt_Valid(t *testing.T) {
	t.Setenv("COLLECTOR_PARALLELISM", "8")

	result := LoadEnvInt("COLLECTOR_PARALLELISM", 4, func(v int) error {
		return ValidateIntRange(v, 1, 32)
	})

	assert.Equal(t, 8, result.Value)
	assert.Empty(t, result.Warnings)
	assert.False(t, result.FallbackApplied)
}

func TestLoadEnvInt_UnparseableFallsBack(t *testing.T) {
	t.Setenv("COLLECTOR_PARALLELISM", "many")

	result := LoadEnvInt("COLLECTOR_PARALLELISM", 4, nil)

	assert.Equal(t, 4, result.Value)
	assert.True(t, result.FallbackApplied)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "invalid integer format")
	assert.Contains(t, result.Warnings[0], "falling back to default '4'")
}

func TestLoadEnvInt_OutOfRangeFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantMsg string
	}{
		{"below minimum", "0", "below minimum"},
		{"above maximum", "100", "exceeds maximum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("COLLECTOR_PARALLELISM", tt.value)

			result := LoadEnvInt("COLLECTOR_PARALLELISM", 4, func(v int) error {
				return ValidateIntRange(v, 1, 32)
			})

			assert.Equal(t, 4, result.Value)
			assert.True(t, result.FallbackApplied)
			assert.Contains(t, result.Warnings[0], tt.wantMsg)
		})
	}
}

func TestLoadEnvBool(t *testing.T) {
	tests := []struct {
		value    string
		want     bool
		fallback bool
	}{
		{"true", true, false},
		{"1", true, false},
		{"T", true, false},
		{"false", false, false},
		{"0", false, false},
		{"yes", false, true},
		{"on", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("COLLECTOR_DRY_RUN", tt.value)

			result := LoadEnvBool("COLLECTOR_DRY_RUN", false)

			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.fallback, result.FallbackApplied)
			if tt.fallback {
				assert.Contains(t, result.Warnings[0], "invalid boolean format")
			}
		})
	}
}

// A collector booting with a broken manifest should come up on defaults
// with one warning per bad knob, never crash.
func TestLoadCollectorKnobs_AllInvalid(t *testing.T) {
	t.Setenv("COLLECTOR_CRON_SCHEDULE", "at dawn")
	t.Setenv("COLLECTOR_TIMEZONE", "Nowhere/Special")
	t.Setenv("COLLECTOR_RUN_TIMEOUT", "-10m")

	schedule := LoadEnvWithFallback("COLLECTOR_CRON_SCHEDULE", "*/15 * * * *", ValidateCronSchedule)
	timezone := LoadEnvWithFallback("COLLECTOR_TIMEZONE", "UTC", ValidateTimezone)
	timeout := LoadEnvDuration("COLLECTOR_RUN_TIMEOUT", 10*time.Minute, ValidatePositiveDuration)

	var warnings []string
	for _, r := range []ConfigLoadResult{schedule, timezone, timeout} {
		assert.True(t, r.FallbackApplied)
		warnings = append(warnings, r.Warnings...)
	}
	assert.Len(t, warnings, 3)

	assert.Equal(t, "*/15 * * * *", schedule.Value)
	assert.Equal(t, "UTC", timezone.Value)
	assert.Equal(t, 10*time.Minute, timeout.Value)
}

func TestConfigLoadResult_ValueTypes(t *testing.T) {
	t.Setenv("COLLECTOR_RUN_TIMEOUT", "30m")
	t.Setenv("COLLECTOR_PARALLELISM", "2")
	t.Setenv("COLLECTOR_DRY_RUN", "true")

	d, ok := LoadEnvDuration("COLLECTOR_RUN_TIMEOUT", time.Minute, nil).Value.(time.Duration)
	assert.True(t, ok)
	assert.Equal(t, 30*time.Minute, d)

	n, ok := LoadEnvInt("COLLECTOR_PARALLELISM", 1, nil).Value.(int)
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	b, ok := LoadEnvBool("COLLECTOR_DRY_RUN", false).Value.(bool)
	assert.True(t, ok)
	assert.True(t, b)
}
