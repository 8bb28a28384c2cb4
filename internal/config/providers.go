package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"socialwatch/internal/platform"
	"socialwatch/pkg/resilient"
)

// ProvidersFile is the parsed provider definition file.
type ProvidersFile struct {
	// Providers lists the platform configurations. When the file names
	// none, the built-in defaults for all five platforms are used.
	Providers []platform.ProviderConfig

	// Watches lists the accounts and queries the collector sweeps.
	Watches []Watch
}

// Watch names what the collector polls on one provider for one client
// account.
type Watch struct {
	// Provider is the platform name (must match a configured provider).
	Provider string `yaml:"provider"`

	// Client is the client account identity quotas are tracked under.
	Client string `yaml:"client"`

	// Usernames lists profiles to refresh each sweep.
	Usernames []string `yaml:"usernames"`

	// Queries lists search queries to run each sweep.
	Queries []string `yaml:"queries"`
}

// Wire types for the YAML file. Durations are strings ("30s", "1h") parsed
// with time.ParseDuration, which yaml.v3 does not do on its own.
type providersYAML struct {
	Providers []providerYAML `yaml:"providers"`
	Watches   []Watch        `yaml:"watches"`
}

type providerYAML struct {
	Name           string       `yaml:"name"`
	BaseURL        string       `yaml:"base_url"`
	Timeout        string       `yaml:"timeout"`
	Windows        []windowYAML `yaml:"windows"`
	Quota          quotaYAML    `yaml:"quota"`
	Breaker        breakerYAML  `yaml:"breaker"`
	Cache          cacheYAML    `yaml:"cache"`
	Costs          costsYAML    `yaml:"costs"`
	ScrapeFallback bool         `yaml:"scrape_fallback"`
}

type windowYAML struct {
	Limit    int    `yaml:"limit"`
	Interval string `yaml:"interval"`
	Burst    int    `yaml:"burst"`
}

type quotaYAML struct {
	HourlyLimit int `yaml:"hourly_limit"`
	DailyLimit  int `yaml:"daily_limit"`
}

type breakerYAML struct {
	FailureThreshold int    `yaml:"failure_threshold"`
	RecoveryTimeout  string `yaml:"recovery_timeout"`
}

type cacheYAML struct {
	TTL        string `yaml:"ttl"`
	MaxEntries int    `yaml:"max_entries"`
}

type costsYAML struct {
	Profile int `yaml:"profile"`
	Search  int `yaml:"search"`
	Detail  int `yaml:"detail"`
}

// LoadProviders reads the provider definition file at path. An empty path
// returns the built-in defaults with no watches. Each provider entry is
// validated and defaulted; unknown watch providers are rejected.
func LoadProviders(path string) (*ProvidersFile, error) {
	if path == "" {
		return &ProvidersFile{Providers: platform.AllDefaults()}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file %s: %w", path, err)
	}

	return ParseProviders(data)
}

// ParseProviders parses and validates provider definition YAML.
func ParseProviders(data []byte) (*ProvidersFile, error) {
	var raw providersYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse providers file: %w", err)
	}

	file := &ProvidersFile{Watches: raw.Watches}

	if len(raw.Providers) == 0 {
		file.Providers = platform.AllDefaults()
	} else {
		file.Providers = make([]platform.ProviderConfig, 0, len(raw.Providers))
		for _, entry := range raw.Providers {
			cfg, err := entry.toConfig()
			if err != nil {
				return nil, fmt.Errorf("provider %q: %w", entry.Name, err)
			}
			file.Providers = append(file.Providers, cfg)
		}
	}

	seen := make(map[string]bool, len(file.Providers))
	for i := range file.Providers {
		cfg := &file.Providers[i]
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("provider %q: %w", cfg.Name, err)
		}
		if seen[cfg.Name] {
			return nil, fmt.Errorf("duplicate provider %q", cfg.Name)
		}
		seen[cfg.Name] = true
	}

	for i, w := range file.Watches {
		if w.Provider == "" {
			return nil, fmt.Errorf("watch %d: provider is required", i)
		}
		if !seen[w.Provider] {
			return nil, fmt.Errorf("watch %d: unknown provider %q", i, w.Provider)
		}
		if w.Client == "" {
			return nil, fmt.Errorf("watch %d: client is required", i)
		}
		if len(w.Usernames) == 0 && len(w.Queries) == 0 {
			return nil, fmt.Errorf("watch %d: needs at least one username or query", i)
		}
	}

	return file, nil
}

func (p providerYAML) toConfig() (platform.ProviderConfig, error) {
	cfg := platform.ProviderConfig{
		Name:    p.Name,
		BaseURL: p.BaseURL,
		Quota: resilient.QuotaConfig{
			HourlyLimit: p.Quota.HourlyLimit,
			DailyLimit:  p.Quota.DailyLimit,
		},
		Breaker: resilient.BreakerConfig{
			FailureThreshold: p.Breaker.FailureThreshold,
		},
		Cache: resilient.CacheConfig{
			MaxEntries: p.Cache.MaxEntries,
		},
		Costs: platform.OperationCosts{
			Profile: p.Costs.Profile,
			Search:  p.Costs.Search,
			Detail:  p.Costs.Detail,
		},
		ScrapeFallback: p.ScrapeFallback,
	}

	var err error
	if cfg.Timeout, err = parseDuration("timeout", p.Timeout); err != nil {
		return cfg, err
	}
	if cfg.Breaker.RecoveryTimeout, err = parseDuration("breaker.recovery_timeout", p.Breaker.RecoveryTimeout); err != nil {
		return cfg, err
	}
	if cfg.Cache.TTL, err = parseDuration("cache.ttl", p.Cache.TTL); err != nil {
		return cfg, err
	}

	for i, w := range p.Windows {
		interval, err := parseDuration(fmt.Sprintf("windows[%d].interval", i), w.Interval)
		if err != nil {
			return cfg, err
		}
		cfg.Windows = append(cfg.Windows, resilient.WindowConfig{
			Limit:  w.Limit,
			Window: interval,
			Burst:  w.Burst,
		})
	}

	return cfg, nil
}

// parseDuration parses an optional duration string. Empty means zero, which
// ApplyDefaults later fills in.
func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}
