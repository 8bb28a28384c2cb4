package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"socialwatch/pkg/resilient"
)

// HTTPScrapeFunc builds a ScrapeFunc that invokes a scrape sidecar over
// HTTP. The sidecar owns content extraction; this side only speaks the
// invocation contract: GET {base}/{provider}/{operation}?client={client}
// returning a JSON document shaped like the operation's result type, any
// non-2xx status is a failure.
func HTTPScrapeFunc(baseURL string, timeout time.Duration) ScrapeFunc {
	client := &http.Client{Timeout: timeout}
	base := strings.TrimRight(baseURL, "/")

	return func(ctx context.Context, key resilient.ResourceKey) (json.RawMessage, error) {
		endpoint := fmt.Sprintf("%s/%s/%s?client=%s",
			base,
			url.PathEscape(key.Provider),
			url.PathEscape(key.Operation),
			url.QueryEscape(key.Client),
		)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("create scrape request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("execute scrape request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return nil, fmt.Errorf("scrape status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("read scrape response: %w", err)
		}
		if !json.Valid(body) {
			return nil, fmt.Errorf("scrape response is not valid JSON")
		}
		return json.RawMessage(body), nil
	}
}
