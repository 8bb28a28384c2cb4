package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialwatch/pkg/resilient"
)

func testConfig(baseURL string) ProviderConfig {
	return ProviderConfig{
		Name:    "instagram",
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Quota:   resilient.QuotaConfig{DailyLimit: 1000},
		Costs:   OperationCosts{Profile: 2, Search: 10, Detail: 1},
	}
}

func TestClient_Profile(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/users/alice", r.URL.Path)
		_ = json.NewEncoder(w).Encode(Profile{ID: "u1", Username: "alice", Followers: 1200})
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL), Options{})
	require.NoError(t, err)

	profile, outcome, err := client.Profile(context.Background(), "acct-1", "alice")
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded)
	assert.Equal(t, "u1", profile.ID)
	assert.EqualValues(t, 1200, profile.Followers)

	// The second read is served proactively from the cache.
	profile, outcome, err = client.Profile(context.Background(), "acct-1", "alice")
	require.NoError(t, err)
	assert.True(t, outcome.FromCache)
	assert.Equal(t, "u1", profile.ID)
	assert.EqualValues(t, 1, hits.Load())
}

func TestClient_SearchConsumesWeightedQuota(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "q", r.URL.Query().Get("q"))
		_ = json.NewEncoder(w).Encode(SearchPage{Posts: []Post{{ID: "p1"}}, NextCursor: "c2"})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Quota = resilient.QuotaConfig{DailyLimit: 25}

	client, err := NewClient(cfg, Options{})
	require.NoError(t, err)

	key := resilient.ResourceKey{Provider: "instagram", Operation: OpSearch, Client: "acct-1"}

	// Two searches at cost 10 fit the 25 unit budget; the third does not.
	for i := 0; i < 2; i++ {
		page, _, err := client.Search(context.Background(), "acct-1", "q", "")
		require.NoError(t, err)
		require.Len(t, page.Posts, 1)
	}
	assert.Equal(t, 20, client.Core().QuotaStatus(key).DailyUsed)

	// The third search is denied by quota and served stale from the cache
	// rung; the denial survives in the outcome for logging.
	page, outcome, err := client.Search(context.Background(), "acct-1", "q", "c2")
	require.NoError(t, err)
	assert.True(t, outcome.UsedFallback)
	assert.Equal(t, "cache", outcome.FallbackSource)
	require.Len(t, page.Posts, 1)

	var quotaErr *resilient.QuotaExceededError
	require.ErrorAs(t, outcome.Err, &quotaErr)
	assert.Equal(t, 20, client.Core().QuotaStatus(key).DailyUsed)
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(Post{ID: "p1", Title: "hello"})
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL), Options{})
	require.NoError(t, err)

	post, outcome, err := client.Detail(context.Background(), "acct-1", "p1")
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded)
	assert.Equal(t, "p1", post.ID)
	assert.EqualValues(t, 2, hits.Load(), "one transparent retry inside the logical call")
}

func TestClient_ClientErrorDoesNotRetry(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL), Options{})
	require.NoError(t, err)

	_, _, err = client.Detail(context.Background(), "acct-1", "missing")
	require.Error(t, err)
	assert.EqualValues(t, 1, hits.Load(), "4xx must not be retried")

	var upstream *resilient.UpstreamCallError
	assert.ErrorAs(t, err, &upstream)
}

func TestClient_ScrapeFallbackServesDegradedValue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.ScrapeFallback = true

	client, err := NewClient(cfg, Options{
		Scrape: func(ctx context.Context, key resilient.ResourceKey) (json.RawMessage, error) {
			return json.RawMessage(`{"id":"scraped","username":"alice"}`), nil
		},
	})
	require.NoError(t, err)

	profile, outcome, err := client.Profile(context.Background(), "acct-1", "alice")
	require.NoError(t, err)
	assert.True(t, outcome.UsedFallback)
	assert.Equal(t, "scrape", outcome.FallbackSource)
	assert.Equal(t, "scraped", profile.ID)
}

func TestClient_ScrapeSidecarServesTypedResult(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer primary.Close()

	sidecar := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/instagram/profile", r.URL.Path)
		assert.Equal(t, "acct-1", r.URL.Query().Get("client"))
		_ = json.NewEncoder(w).Encode(Profile{ID: "scraped", Username: "alice", Followers: 7})
	}))
	defer sidecar.Close()

	cfg := testConfig(primary.URL)
	cfg.ScrapeFallback = true

	client, err := NewClient(cfg, Options{
		Scrape: HTTPScrapeFunc(sidecar.URL, 5*time.Second),
	})
	require.NoError(t, err)

	// The scraped document must arrive through the typed wrapper as a
	// Profile value, not as a generic decoded map.
	profile, outcome, err := client.Profile(context.Background(), "acct-1", "alice")
	require.NoError(t, err)
	assert.True(t, outcome.UsedFallback)
	assert.Equal(t, "scrape", outcome.FallbackSource)
	assert.Equal(t, Profile{ID: "scraped", Username: "alice", Followers: 7}, profile)

	var upstream *resilient.UpstreamCallError
	assert.ErrorAs(t, outcome.Err, &upstream)
}

func TestClient_Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Profile{ID: "u1"})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Windows = []resilient.WindowConfig{{Limit: 100, Window: time.Hour}}

	client, err := NewClient(cfg, Options{})
	require.NoError(t, err)

	_, _, err = client.Profile(context.Background(), "acct-1", "alice")
	require.NoError(t, err)

	status := client.Status("acct-1")
	assert.Equal(t, "instagram", status.Provider)
	assert.Equal(t, "acct-1", status.Client)
	require.Len(t, status.Operations, 3)

	byOp := make(map[string]OperationStatus, len(status.Operations))
	for _, op := range status.Operations {
		byOp[op.Operation] = op
	}
	assert.Equal(t, 2, byOp[OpProfile].Quota.DailyUsed)
	assert.Equal(t, 0, byOp[OpSearch].Quota.DailyUsed)
	assert.Equal(t, "closed", byOp[OpProfile].Circuit.State)
	require.Len(t, byOp[OpProfile].Windows, 1)
	assert.Equal(t, 1, byOp[OpProfile].Windows[0].Used)
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(ProviderConfig{}, Options{})
	assert.Error(t, err)
}

func TestScrapeFallback_FailureReportsNothing(t *testing.T) {
	sf := NewScrapeFallback("instagram", func(ctx context.Context, key resilient.ResourceKey) (json.RawMessage, error) {
		return nil, errors.New("selector no longer matches")
	})

	provider := sf.Provider()
	assert.Equal(t, "scrape", provider.Name)

	key := resilient.ResourceKey{Provider: "instagram", Operation: OpProfile, Client: "acct-1"}
	value, ok := provider.Resolve(context.Background(), key)
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestScrapeFallback_DecodesPerOperation(t *testing.T) {
	documents := map[string]json.RawMessage{
		OpProfile: json.RawMessage(`{"id":"scraped","username":"alice"}`),
		OpSearch:  json.RawMessage(`{"posts":[{"id":"p1"}],"next_cursor":"c2"}`),
		OpDetail:  json.RawMessage(`{"id":"p1","title":"hello"}`),
	}
	sf := NewScrapeFallback("instagram", func(ctx context.Context, key resilient.ResourceKey) (json.RawMessage, error) {
		return documents[key.Operation], nil
	})

	tests := []struct {
		operation string
		want      any
	}{
		{OpProfile, Profile{ID: "scraped", Username: "alice"}},
		{OpSearch, SearchPage{Posts: []Post{{ID: "p1"}}, NextCursor: "c2"}},
		{OpDetail, Post{ID: "p1", Title: "hello"}},
	}

	for _, tt := range tests {
		t.Run(tt.operation, func(t *testing.T) {
			key := resilient.ResourceKey{Provider: "instagram", Operation: tt.operation, Client: "acct-1"}
			value, ok := sf.Provider().Resolve(context.Background(), key)
			require.True(t, ok)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestScrapeFallback_MismatchedDocumentReportsNothing(t *testing.T) {
	sf := NewScrapeFallback("instagram", func(ctx context.Context, key resilient.ResourceKey) (json.RawMessage, error) {
		return json.RawMessage(`[1,2,3]`), nil
	})

	key := resilient.ResourceKey{Provider: "instagram", Operation: OpProfile, Client: "acct-1"}
	value, ok := sf.Provider().Resolve(context.Background(), key)
	assert.False(t, ok)
	assert.Nil(t, value)
}
