package collector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"socialwatch/internal/config"
	"socialwatch/internal/observability/metrics"
	"socialwatch/internal/observability/slo"
	"socialwatch/internal/platform"
)

// maxSearchPages bounds cursor-following per query so a deep result set
// cannot eat a provider's whole quota in one sweep.
const maxSearchPages = 3

// Collector executes watch sweeps against the platform registry.
type Collector struct {
	registry    *platform.Registry
	watches     []config.Watch
	parallelism int
	logger      *slog.Logger
}

// New creates a collector. Watches referencing unknown providers were
// rejected at config parse time.
func New(registry *platform.Registry, watches []config.Watch, parallelism int, logger *slog.Logger) *Collector {
	if parallelism <= 0 {
		parallelism = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		registry:    registry,
		watches:     watches,
		parallelism: parallelism,
		logger:      logger,
	}
}

// RunStats summarizes one sweep.
type RunStats struct {
	Providers int
	Profiles  int
	Posts     int
	Degraded  int
	Errors    int
}

// Run sweeps every watched provider once. Providers are swept concurrently
// up to the configured parallelism; one provider failing does not stop the
// others.
func (c *Collector) Run(ctx context.Context) RunStats {
	byProvider := make(map[string][]config.Watch)
	for _, w := range c.watches {
		byProvider[w.Provider] = append(byProvider[w.Provider], w)
	}

	var (
		mu    sync.Mutex
		stats RunStats
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)

	for provider, watches := range byProvider {
		client, ok := c.registry.Get(provider)
		if !ok {
			c.logger.Warn("skipping watch for unknown provider", slog.String("provider", provider))
			continue
		}

		watches := watches
		g.Go(func() error {
			result := c.sweepProvider(ctx, client, watches)
			mu.Lock()
			stats.Providers++
			stats.Profiles += result.Profiles
			stats.Posts += result.Posts
			stats.Degraded += result.Degraded
			stats.Errors += result.Errors
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return stats
}

type providerResult struct {
	Profiles int
	Posts    int
	Degraded int
	Errors   int
	firstErr error
	upstream int
	total    int
}

// sweepProvider runs every watch of one provider, then performs cache
// maintenance and refreshes the provider's SLO gauges.
func (c *Collector) sweepProvider(ctx context.Context, client *platform.Client, watches []config.Watch) providerResult {
	provider := client.Name()
	start := time.Now()

	var result providerResult
	for _, watch := range watches {
		c.refreshProfiles(ctx, client, watch, &result)
		c.runSearches(ctx, client, watch, &result)
	}

	removed := client.Core().Cache().Sweep()
	metrics.RecordCacheSweep(provider, removed)
	metrics.RecordCollectionRun(provider, time.Since(start), result.firstErr)
	metrics.RecordPostsCollected(provider, result.Posts)

	c.updateSLO(client, watches, result)

	c.logger.Info("provider sweep completed",
		slog.String("provider", provider),
		slog.Int("profiles", result.Profiles),
		slog.Int("posts", result.Posts),
		slog.Int("degraded", result.Degraded),
		slog.Int("errors", result.Errors),
		slog.Int("cache_swept", removed),
		slog.Duration("duration", time.Since(start)))

	return result
}

func (c *Collector) refreshProfiles(ctx context.Context, client *platform.Client, watch config.Watch, result *providerResult) {
	for _, username := range watch.Usernames {
		profile, outcome, err := client.Profile(ctx, watch.Client, username)
		result.total++
		metrics.RecordProfileRefresh(client.Name(), err == nil)

		if err != nil {
			result.Errors++
			if result.firstErr == nil {
				result.firstErr = err
			}
			c.logger.Warn("profile refresh failed",
				slog.String("provider", client.Name()),
				slog.String("username", username),
				slog.Any("error", err))
			continue
		}

		result.Profiles++
		if outcome.UsedFallback {
			result.Degraded++
		} else {
			result.upstream++
		}
		c.logger.Debug("profile refreshed",
			slog.String("provider", client.Name()),
			slog.String("username", profile.Username),
			slog.Int64("followers", profile.Followers),
			slog.Bool("degraded", outcome.UsedFallback))
	}
}

func (c *Collector) runSearches(ctx context.Context, client *platform.Client, watch config.Watch, result *providerResult) {
	for _, query := range watch.Queries {
		cursor := ""
		for page := 0; page < maxSearchPages; page++ {
			searchPage, outcome, err := client.Search(ctx, watch.Client, query, cursor)
			result.total++

			if err != nil {
				result.Errors++
				if result.firstErr == nil {
					result.firstErr = err
				}
				c.logger.Warn("search failed",
					slog.String("provider", client.Name()),
					slog.String("query", query),
					slog.Any("error", err))
				break
			}

			result.Posts += len(searchPage.Posts)
			if outcome.UsedFallback {
				result.Degraded++
			} else {
				result.upstream++
			}

			cursor = searchPage.NextCursor
			if cursor == "" {
				break
			}
		}
	}
}

// updateSLO refreshes the provider's upstream success ratio and quota
// headroom gauges. Headroom reports the tightest operation class, since
// that is the one that will start denying first.
func (c *Collector) updateSLO(client *platform.Client, watches []config.Watch, result providerResult) {
	provider := client.Name()

	if result.total > 0 {
		slo.UpdateUpstreamSuccess(provider, float64(result.upstream)/float64(result.total))
	}

	if len(watches) == 0 {
		return
	}
	status := client.Status(watches[0].Client)

	headroom := 1.0
	for _, op := range status.Operations {
		if h, ok := quotaHeadroom(op.Quota.DailyUsed, op.Quota.DailyLimit); ok && h < headroom {
			headroom = h
		}
		if h, ok := quotaHeadroom(op.Quota.HourlyUsed, op.Quota.HourlyLimit); ok && h < headroom {
			headroom = h
		}
	}
	slo.UpdateQuotaHeadroom(provider, headroom)
}

func quotaHeadroom(used, limit int) (float64, bool) {
	if limit <= 0 {
		return 0, false
	}
	h := 1.0 - float64(used)/float64(limit)
	if h < 0 {
		h = 0
	}
	return h, true
}
