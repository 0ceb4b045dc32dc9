// Package catalog is the client for the remote spots catalog API.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Client talks to the spots catalog over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// New creates a catalog client. apiKey may be empty for anonymous
// access.
func New(baseURL, apiKey string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: logger.With().Str("component", "catalog").Logger(),
	}
}

// Spots fetches the spots of one server+map. category narrows the
// result when non-empty. An empty slice with a nil error is a valid
// "no data" answer; errors are always *UpstreamError.
func (c *Client) Spots(ctx context.Context, server, mapName, category string) ([]Spot, error) {
	q := url.Values{}
	q.Set("server", server)
	q.Set("map", mapName)
	if category != "" {
		q.Set("category", category)
	}

	var spots []Spot
	if err := c.get(ctx, "/spots?"+q.Encode(), &spots); err != nil {
		return nil, err
	}

	for i := range spots {
		spots[i].Category = NormalizeCategory(string(spots[i].Category))
	}
	return spots, nil
}

// MapsForServer derives the distinct map names known for a server. The
// catalog has no dedicated listing endpoint, so the names are collected
// from the spots payload. On any failure, or when nothing could be
// derived, the fixed fallback list is returned — this method never
// fails and never returns an empty slice.
func (c *Client) MapsForServer(ctx context.Context, server string) []string {
	q := url.Values{}
	q.Set("server", server)

	var spots []Spot
	if err := c.get(ctx, "/spots?"+q.Encode(), &spots); err != nil {
		c.log.Warn().Err(err).Str("server", server).Msg("map listing failed, using fallback list")
		return fallbackMaps()
	}

	seen := make(map[string]bool)
	var maps []string
	for _, sp := range spots {
		if sp.Map == "" || seen[sp.Map] {
			continue
		}
		seen[sp.Map] = true
		maps = append(maps, sp.Map)
	}
	if len(maps) == 0 {
		return fallbackMaps()
	}

	sort.Strings(maps)
	return maps
}

// Reachable probes the catalog. Best effort: every failure collapses to
// false.
func (c *Client) Reachable(ctx context.Context) bool {
	var servers []json.RawMessage
	if err := c.get(ctx, "/servers", &servers); err != nil {
		return false
	}
	return true
}

// FetchFile downloads a binary (spot video) from an absolute URL. Used
// by the renderer through its FileFetcher capability.
func (c *Client) FetchFile(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, &UpstreamError{Op: "fetch file", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Op: "fetch file", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Op: "fetch file", Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Op: "fetch file", Err: err}
	}
	return data, nil
}

// get performs a GET against the catalog and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &UpstreamError{Op: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UpstreamError{Op: "request " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return &UpstreamError{Op: "request " + path, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &UpstreamError{Op: "decode " + path, Err: fmt.Errorf("invalid payload: %w", err)}
	}
	return nil
}

func fallbackMaps() []string {
	out := make([]string, len(FallbackMaps))
	copy(out, FallbackMaps)
	return out
}
