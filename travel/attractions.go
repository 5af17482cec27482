package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// AttractionFinder looks up points of interest via the Wikipedia
// opensearch API, which needs no credentials. When the lookup fails or
// Offline mode is set it falls back to a generic curated list marked
// PARTIAL RESULTS.
type AttractionFinder struct {
	httpClient *http.Client
	userAgent  string
	offline    bool
}

// NewAttractionFinder creates an AttractionFinder configured from cfg.
func NewAttractionFinder(cfg Config) *AttractionFinder {
	return &AttractionFinder{
		httpClient: cfg.client(),
		userAgent:  cfg.userAgent(),
		offline:    cfg.Offline,
	}
}

// Name implements Tool.
func (a *AttractionFinder) Name() string { return "attraction_finder" }

// Call finds attractions. Required args: destination. Optional:
// interests. Never returns an error; degraded lookups yield a partial
// curated list instead.
func (a *AttractionFinder) Call(ctx context.Context, args map[string]string) (string, error) {
	destination := args[FieldDestination]
	interests := args[FieldInterests]
	city := cityFromDestination(destination)

	if a.offline {
		return a.partialResults(city), nil
	}

	queries := []string{}
	if interests != "" {
		queries = append(queries, city+" "+interests)
	}
	queries = append(queries,
		city+" tourist attractions",
		"Tourism in "+city,
		city+" landmarks",
		city+" points of interest",
	)

	for _, query := range queries {
		titles, err := a.opensearch(ctx, query)
		if err != nil {
			continue
		}
		if len(titles) > 0 {
			var lines []string
			for idx, title := range titles {
				if idx >= 5 {
					break
				}
				lines = append(lines, fmt.Sprintf("%d. %s", idx+1, title))
			}
			return fmt.Sprintf("Top attractions near %s:\n%s", city, strings.Join(lines, "\n")), nil
		}
	}

	return a.partialResults(city), nil
}

// opensearch runs one Wikipedia opensearch query and returns candidate
// titles, filtering disambiguation pages. Retries once on 429/5xx.
func (a *AttractionFinder) opensearch(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("action", "opensearch")
	params.Set("search", query)
	params.Set("limit", "8")
	params.Set("format", "json")

	reqURL := "https://en.wikipedia.org/w/api.php?" + params.Encode()

	var resp *http.Response
	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", a.userAgent)

		resp, err = a.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("wikipedia request failed: %w", err)
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		break
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia returned status %d", resp.StatusCode)
	}

	// Opensearch responses are a 4-element array:
	// [query, [titles], [descriptions], [urls]].
	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode wikipedia response: %w", err)
	}
	if len(raw) < 2 {
		return nil, fmt.Errorf("unexpected wikipedia response shape")
	}

	var titles []string
	if err := json.Unmarshal(raw[1], &titles); err != nil {
		return nil, fmt.Errorf("failed to decode wikipedia titles: %w", err)
	}

	var filtered []string
	for _, title := range titles {
		if strings.Contains(strings.ToLower(title), "disambiguation") {
			continue
		}
		filtered = append(filtered, title)
	}
	return filtered, nil
}

// partialResults returns a generic curated list for when lookups fail.
func (a *AttractionFinder) partialResults(city string) string {
	items := []string{
		"Historic city center and old town",
		"Main art or history museum",
		"Central park or public gardens",
		"Local market or food hall",
		"Scenic viewpoint or observation deck",
	}
	var lines []string
	for idx, item := range items {
		lines = append(lines, fmt.Sprintf("%d. %s", idx+1, item))
	}
	return fmt.Sprintf("PARTIAL RESULTS: attraction lookup unavailable for %s; generic suggestions:\n%s",
		city, strings.Join(lines, "\n"))
}
