package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialwatch/internal/config"
	"socialwatch/internal/platform"
	"socialwatch/pkg/resilient"
)

func testProvider(name, baseURL string) platform.ProviderConfig {
	return platform.ProviderConfig{
		Name:    name,
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Windows: []resilient.WindowConfig{
			{Limit: 1000, Window: time.Hour, Burst: 100},
		},
		Quota:   resilient.QuotaConfig{HourlyLimit: 10000, DailyLimit: 100000},
		Breaker: resilient.BreakerConfig{FailureThreshold: 5, RecoveryTimeout: 30 * time.Second},
		Cache:   resilient.CacheConfig{TTL: time.Minute, MaxEntries: 100},
	}
}

// fakePlatform serves the profile and search endpoints a platform client
// expects, with a bounded cursor chain for search pagination.
func fakePlatform(t *testing.T, searchPages int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/users/"):
			username := strings.TrimPrefix(r.URL.Path, "/users/")
			_ = json.NewEncoder(w).Encode(platform.Profile{
				ID:       "u-" + username,
				Username: username,
			})
		case r.URL.Path == "/search":
			page := 1
			if cursor := r.URL.Query().Get("cursor"); cursor != "" {
				_, _ = fmt.Sscanf(cursor, "page-%d", &page)
			}
			out := platform.SearchPage{
				Posts: []platform.Post{{ID: fmt.Sprintf("p-%d-1", page)}, {ID: fmt.Sprintf("p-%d-2", page)}},
			}
			if page < searchPages {
				out.NextCursor = fmt.Sprintf("page-%d", page+1)
			}
			_ = json.NewEncoder(w).Encode(out)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestCollector_Run(t *testing.T) {
	server := fakePlatform(t, 1)
	defer server.Close()

	registry, err := platform.NewRegistry([]platform.ProviderConfig{
		testProvider("instagram", server.URL),
	}, platform.Options{})
	require.NoError(t, err)

	watches := []config.Watch{
		{
			Provider:  "instagram",
			Client:    "collector",
			Usernames: []string{"acme", "globex"},
			Queries:   []string{"espresso"},
		},
	}

	c := New(registry, watches, 2, nil)
	stats := c.Run(context.Background())

	assert.Equal(t, 1, stats.Providers)
	assert.Equal(t, 2, stats.Profiles)
	assert.Equal(t, 2, stats.Posts)
	assert.Equal(t, 0, stats.Errors)
	assert.Equal(t, 0, stats.Degraded)
}

func TestCollector_SearchPaginationBounded(t *testing.T) {
	// Server offers 10 pages; the sweep must stop at maxSearchPages.
	server := fakePlatform(t, 10)
	defer server.Close()

	registry, err := platform.NewRegistry([]platform.ProviderConfig{
		testProvider("youtube", server.URL),
	}, platform.Options{})
	require.NoError(t, err)

	watches := []config.Watch{
		{Provider: "youtube", Client: "collector", Queries: []string{"synth"}},
	}

	c := New(registry, watches, 1, nil)
	stats := c.Run(context.Background())

	assert.Equal(t, maxSearchPages*2, stats.Posts)
	assert.Equal(t, 0, stats.Errors)
}

func TestCollector_ProviderFailureDoesNotStopOthers(t *testing.T) {
	healthy := fakePlatform(t, 1)
	defer healthy.Close()

	// 400 is a permanent failure, so the call is not retried.
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer broken.Close()

	registry, err := platform.NewRegistry([]platform.ProviderConfig{
		testProvider("instagram", healthy.URL),
		testProvider("tiktok", broken.URL),
	}, platform.Options{})
	require.NoError(t, err)

	watches := []config.Watch{
		{Provider: "instagram", Client: "collector", Usernames: []string{"acme"}},
		{Provider: "tiktok", Client: "collector", Usernames: []string{"acme"}},
	}

	c := New(registry, watches, 2, nil)
	stats := c.Run(context.Background())

	assert.Equal(t, 2, stats.Providers)
	assert.Equal(t, 1, stats.Profiles)
	assert.GreaterOrEqual(t, stats.Errors, 1)
}

func TestCollector_UnknownProviderSkipped(t *testing.T) {
	server := fakePlatform(t, 1)
	defer server.Close()

	registry, err := platform.NewRegistry([]platform.ProviderConfig{
		testProvider("instagram", server.URL),
	}, platform.Options{})
	require.NoError(t, err)

	watches := []config.Watch{
		{Provider: "friendster", Client: "collector", Usernames: []string{"acme"}},
	}

	c := New(registry, watches, 1, nil)
	stats := c.Run(context.Background())

	assert.Equal(t, 0, stats.Providers)
	assert.Equal(t, 0, stats.Profiles)
}
