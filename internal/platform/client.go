package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"socialwatch/internal/resilience/retry"
	"socialwatch/pkg/resilient"
)

// Options carries the collaborators shared by every platform client.
// Zero values fall back to the defaults pkg/resilient applies.
type Options struct {
	// HTTPClient is the transport for API calls. Nil builds one per
	// provider with the provider's configured timeout.
	HTTPClient *http.Client

	// Clock, Metrics, and Events are passed through to the resilient core.
	Clock   resilient.Clock
	Metrics resilient.Metrics
	Events  resilient.EventSink

	// Scrape is the alternate scrape path invoker. When set, providers
	// configured with scrape_fallback get it as the last fallback rung.
	Scrape ScrapeFunc
}

// Client is one platform integration: it owns the provider's resilient
// core and exposes the three operation classes as typed calls.
type Client struct {
	config ProviderConfig
	core   *resilient.Client
	http   *http.Client
	retry  retry.Config
	scrape *ScrapeFallback
}

// NewClient builds a platform client from a provider definition.
func NewClient(cfg ProviderConfig, opts Options) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid provider config: %w", err)
	}
	cfg.ApplyDefaults()

	var fallbacks []resilient.NamedProvider
	var scrape *ScrapeFallback
	if cfg.ScrapeFallback && opts.Scrape != nil {
		scrape = NewScrapeFallback(cfg.Name, opts.Scrape)
		fallbacks = append(fallbacks, scrape.Provider())
	}

	core, err := resilient.NewClient(resilient.Config{
		Provider:  cfg.Name,
		Windows:   cfg.Windows,
		Quota:     cfg.Quota,
		Breaker:   cfg.Breaker,
		Cache:     cfg.Cache,
		Fallbacks: fallbacks,
		Clock:     opts.Clock,
		Metrics:   opts.Metrics,
		Events:    opts.Events,
	})
	if err != nil {
		return nil, err
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		config: cfg,
		core:   core,
		http:   httpClient,
		retry:  retry.PlatformAPIConfig(),
		scrape: scrape,
	}, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return c.config.Name
}

// Core exposes the underlying resilient client, mainly for the status
// dashboard and tests.
func (c *Client) Core() *resilient.Client {
	return c.core
}

// Profile fetches an account profile. Profile reads opt in to proactive
// cache serving: account metadata tolerates staleness.
func (c *Client) Profile(ctx context.Context, clientID, username string) (Profile, resilient.Outcome, error) {
	key := c.key(clientID, OpProfile)
	return resilient.Execute(ctx, c.core, key, c.config.Costs.Cost(OpProfile), true,
		func(ctx context.Context) (Profile, error) {
			var out Profile
			err := c.getJSON(ctx, "/users/"+url.PathEscape(username), nil, &out)
			return out, err
		})
}

// Search fetches one page of search results. Searches always hit the
// primary path; cached pages are only served as a degraded fallback.
func (c *Client) Search(ctx context.Context, clientID, query, cursor string) (SearchPage, resilient.Outcome, error) {
	key := c.key(clientID, OpSearch)
	params := url.Values{"q": {query}}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	return resilient.Execute(ctx, c.core, key, c.config.Costs.Cost(OpSearch), false,
		func(ctx context.Context) (SearchPage, error) {
			var out SearchPage
			err := c.getJSON(ctx, "/search", params, &out)
			return out, err
		})
}

// Detail fetches a single post.
func (c *Client) Detail(ctx context.Context, clientID, postID string) (Post, resilient.Outcome, error) {
	key := c.key(clientID, OpDetail)
	return resilient.Execute(ctx, c.core, key, c.config.Costs.Cost(OpDetail), true,
		func(ctx context.Context) (Post, error) {
			var out Post
			err := c.getJSON(ctx, "/posts/"+url.PathEscape(postID), nil, &out)
			return out, err
		})
}

// OperationStatus is the dashboard view of one operation class.
type OperationStatus struct {
	Operation string                    `json:"operation"`
	Windows   []resilient.WindowStatus  `json:"windows,omitempty"`
	Quota     resilient.QuotaStatus     `json:"quota"`
	Circuit   resilient.CircuitSnapshot `json:"circuit"`
}

// Status is the dashboard view of one provider for one API client account.
type Status struct {
	Provider   string               `json:"provider"`
	Client     string               `json:"client"`
	Operations []OperationStatus    `json:"operations"`
	Cache      resilient.CacheStats `json:"cache"`

	// Scrape is the scrape fallback breaker state, present only when the
	// provider has the scrape rung configured.
	Scrape string `json:"scrape,omitempty"`
}

// Status reports the current defensive state for each operation class of
// one client account. Reads are non-consuming.
func (c *Client) Status(clientID string) Status {
	operations := []string{OpProfile, OpSearch, OpDetail}
	out := Status{
		Provider:   c.config.Name,
		Client:     clientID,
		Operations: make([]OperationStatus, 0, len(operations)),
		Cache:      c.core.Cache().Stats(),
	}
	if c.scrape != nil {
		out.Scrape = c.scrape.Breaker().State().String()
	}
	for _, op := range operations {
		key := c.key(clientID, op)
		out.Operations = append(out.Operations, OperationStatus{
			Operation: op,
			Windows:   c.core.RateStatus(key),
			Quota:     c.core.QuotaStatus(key),
			Circuit:   c.core.CircuitStatus(key),
		})
	}
	return out
}

func (c *Client) key(clientID, operation string) resilient.ResourceKey {
	return resilient.ResourceKey{
		Provider:  c.config.Name,
		Operation: operation,
		Client:    clientID,
	}
}

// getJSON performs one logical GET with retry on transient failures and
// decodes the JSON body into out. Non-2xx statuses become retry.HTTPError
// so the retry layer can classify them.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	return retry.WithBackoff(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("execute request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return &retry.HTTPError{
				StatusCode: resp.StatusCode,
				Message:    strings.TrimSpace(string(body)),
			}
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}
