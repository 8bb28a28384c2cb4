package platform

import (
	"fmt"
	"time"

	"socialwatch/pkg/resilient"
)

// OperationCosts declares how many quota units each operation class
// consumes. Platforms bill asymmetrically: a search page costs orders of
// magnitude more than a single detail fetch.
type OperationCosts struct {
	Profile int
	Search  int
	Detail  int
}

// Cost returns the configured cost for an operation name. Unknown
// operations cost one unit.
func (c OperationCosts) Cost(operation string) int {
	switch operation {
	case OpProfile:
		return c.Profile
	case OpSearch:
		return c.Search
	case OpDetail:
		return c.Detail
	default:
		return 1
	}
}

// ProviderConfig defines one platform integration.
type ProviderConfig struct {
	// Name is the provider identifier ("instagram", "tiktok", ...).
	Name string

	// BaseURL is the API endpoint root.
	BaseURL string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// Windows are the provider's rate-limit windows.
	Windows []resilient.WindowConfig

	// Quota holds the hourly/daily cost-unit budgets.
	Quota resilient.QuotaConfig

	// Breaker holds the circuit thresholds.
	Breaker resilient.BreakerConfig

	// Cache holds the result cache settings.
	Cache resilient.CacheConfig

	// Costs declares per-operation quota weights.
	Costs OperationCosts

	// ScrapeFallback enables the alternate scrape path as the last
	// fallback rung for this provider.
	ScrapeFallback bool
}

// Validate checks the provider definition. It returns the first problem
// found.
func (p *ProviderConfig) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("provider name is required")
	}
	if p.BaseURL == "" {
		return fmt.Errorf("provider %s: base_url is required", p.Name)
	}
	if p.Timeout < 0 {
		return fmt.Errorf("provider %s: timeout must be non-negative, got %s", p.Name, p.Timeout)
	}
	for i, w := range p.Windows {
		if w.Limit <= 0 {
			return fmt.Errorf("provider %s: windows[%d].limit must be positive, got %d", p.Name, i, w.Limit)
		}
		if w.Window <= 0 {
			return fmt.Errorf("provider %s: windows[%d].interval must be positive, got %s", p.Name, i, w.Window)
		}
	}
	if p.Costs.Profile < 0 || p.Costs.Search < 0 || p.Costs.Detail < 0 {
		return fmt.Errorf("provider %s: operation costs must be non-negative", p.Name)
	}
	return nil
}

// ApplyDefaults fills zero values with safe defaults. Operation costs
// default to a single unit each; real asymmetry comes from the per-provider
// default sets below or the config file.
func (p *ProviderConfig) ApplyDefaults() {
	if p.Timeout == 0 {
		p.Timeout = 10 * time.Second
	}
	if p.Costs.Profile == 0 {
		p.Costs.Profile = 1
	}
	if p.Costs.Search == 0 {
		p.Costs.Search = 1
	}
	if p.Costs.Detail == 0 {
		p.Costs.Detail = 1
	}
}

// InstagramDefaults returns the stock Instagram definition: 200 calls per
// hour, tight burst, modest daily budget.
func InstagramDefaults() ProviderConfig {
	return ProviderConfig{
		Name:    "instagram",
		BaseURL: "https://graph.instagram.example/v1",
		Timeout: 10 * time.Second,
		Windows: []resilient.WindowConfig{
			{Limit: 200, Window: time.Hour, Burst: 10},
		},
		Quota:   resilient.QuotaConfig{HourlyLimit: 1000, DailyLimit: 5000},
		Breaker: resilient.BreakerConfig{FailureThreshold: 5, RecoveryTimeout: 30 * time.Second},
		Cache:   resilient.CacheConfig{TTL: 5 * time.Minute, MaxEntries: 1000},
		Costs:   OperationCosts{Profile: 2, Search: 10, Detail: 1},

		ScrapeFallback: true,
	}
}

// TikTokDefaults returns the stock TikTok definition: per-minute window on
// top of the hourly one.
func TikTokDefaults() ProviderConfig {
	return ProviderConfig{
		Name:    "tiktok",
		BaseURL: "https://open.tiktok.example/v2",
		Timeout: 10 * time.Second,
		Windows: []resilient.WindowConfig{
			{Limit: 10, Window: time.Minute, Burst: 2},
			{Limit: 600, Window: time.Hour},
		},
		Quota:   resilient.QuotaConfig{DailyLimit: 10000},
		Breaker: resilient.BreakerConfig{FailureThreshold: 5, RecoveryTimeout: time.Minute},
		Cache:   resilient.CacheConfig{TTL: 5 * time.Minute, MaxEntries: 1000},
		Costs:   OperationCosts{Profile: 1, Search: 20, Detail: 1},
	}
}

// YouTubeDefaults returns the stock YouTube definition. The quota asymmetry
// is the sharpest here: one search page costs 100 units against a 10000
// unit daily budget while a detail fetch costs one.
func YouTubeDefaults() ProviderConfig {
	return ProviderConfig{
		Name:    "youtube",
		BaseURL: "https://data.youtube.example/v3",
		Timeout: 15 * time.Second,
		Windows: []resilient.WindowConfig{
			{Limit: 100, Window: time.Minute, Burst: 20},
		},
		Quota:   resilient.QuotaConfig{DailyLimit: 10000},
		Breaker: resilient.BreakerConfig{FailureThreshold: 5, RecoveryTimeout: 30 * time.Second},
		Cache:   resilient.CacheConfig{TTL: 10 * time.Minute, MaxEntries: 2000},
		Costs:   OperationCosts{Profile: 1, Search: 100, Detail: 1},
	}
}

// PinterestDefaults returns the stock Pinterest definition.
func PinterestDefaults() ProviderConfig {
	return ProviderConfig{
		Name:    "pinterest",
		BaseURL: "https://api.pinterest.example/v5",
		Timeout: 10 * time.Second,
		Windows: []resilient.WindowConfig{
			{Limit: 300, Window: time.Hour, Burst: 30},
		},
		Quota:   resilient.QuotaConfig{HourlyLimit: 1000, DailyLimit: 20000},
		Breaker: resilient.BreakerConfig{FailureThreshold: 5, RecoveryTimeout: 30 * time.Second},
		Cache:   resilient.CacheConfig{TTL: 15 * time.Minute, MaxEntries: 1000},
		Costs:   OperationCosts{Profile: 1, Search: 5, Detail: 1},
	}
}

// DiscordDefaults returns the stock Discord definition: tight per-second
// style limiting expressed as a small per-minute window.
func DiscordDefaults() ProviderConfig {
	return ProviderConfig{
		Name:    "discord",
		BaseURL: "https://discord.example/api/v10",
		Timeout: 10 * time.Second,
		Windows: []resilient.WindowConfig{
			{Limit: 50, Window: time.Minute, Burst: 5},
		},
		Quota:   resilient.QuotaConfig{HourlyLimit: 2000},
		Breaker: resilient.BreakerConfig{FailureThreshold: 3, RecoveryTimeout: 15 * time.Second},
		Cache:   resilient.CacheConfig{TTL: 2 * time.Minute, MaxEntries: 500},
		Costs:   OperationCosts{Profile: 1, Search: 5, Detail: 1},
	}
}

// AllDefaults returns the five stock provider definitions in a stable
// order.
func AllDefaults() []ProviderConfig {
	return []ProviderConfig{
		InstagramDefaults(),
		TikTokDefaults(),
		YouTubeDefaults(),
		PinterestDefaults(),
		DiscordDefaults(),
	}
}
