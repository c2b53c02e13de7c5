// Package lastfm fetches descriptive tags and artist metadata from the
// secondary music-info service. Enrichment is strictly best-effort: a failing
// upstream yields an empty context, never an error.
package lastfm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	baseURL   = "https://ws.audioscrobbler.com/2.0/"
	userAgent = "noto/1.0"
)

// Upstream API error codes.
const (
	errCodeInvalidAPIKey = 10
	errCodeRateLimited   = 29
)

// Sentinel errors.
var (
	// ErrRateLimited is returned when the API rate limit is exceeded after retries.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidAPIKey is returned when the API key is invalid.
	ErrInvalidAPIKey = errors.New("invalid API key")
)

// Config holds enrichment client configuration.
type Config struct {
	APIKey string

	// ProxyBaseURL is the trusted backend proxy tried before direct calls.
	ProxyBaseURL string

	HTTPClient *http.Client
}

// Client is a music-info API client with caching.
type Client struct {
	cfg        Config
	httpClient *http.Client
	baseURL    string
	logger     zerolog.Logger

	// In-memory cache keyed by lowercased artist name.
	cache   map[string]Context
	cacheMu sync.RWMutex
}

// NewClient creates an enrichment client from the provided configuration.
func NewClient(cfg Config, logger *zerolog.Logger) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		cfg:        cfg,
		httpClient: hc,
		baseURL:    baseURL,
		logger:     logger.With().Str("component", "lastfm").Logger(),
		cache:      make(map[string]Context),
	}
}

// ArtistContext fetches the artist summary and top tags. The two direct
// sub-calls run concurrently and fail independently, so partial success is
// preserved (e.g. tags present, summary nil). Never fails: the worst case is
// an empty context.
func (c *Client) ArtistContext(ctx context.Context, artist string) Context {
	key := strings.ToLower(strings.TrimSpace(artist))

	c.cacheMu.RLock()
	if cached, ok := c.cache[key]; ok {
		c.cacheMu.RUnlock()
		return cached
	}
	c.cacheMu.RUnlock()

	result := c.fetch(ctx, artist)

	c.cacheMu.Lock()
	c.cache[key] = result
	c.cacheMu.Unlock()

	return result
}

func (c *Client) fetch(ctx context.Context, artist string) Context {
	if c.cfg.ProxyBaseURL != "" {
		if result, err := c.proxyContext(ctx, artist); err == nil {
			return result
		} else {
			c.logger.Debug().Err(err).Str("artist", artist).Msg("proxy enrichment unavailable")
		}
	}

	result := Context{TopTags: []Tag{}}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		info, err := c.artistInfo(ctx, artist)
		if err != nil {
			c.logger.Warn().Err(err).Str("artist", artist).Msg("artist info fetch failed")
			return
		}
		result.Artist = info
	}()

	go func() {
		defer wg.Done()
		tags, err := c.topTags(ctx, artist)
		if err != nil {
			c.logger.Warn().Err(err).Str("artist", artist).Msg("top tags fetch failed")
			return
		}
		result.TopTags = tags
	}()

	wg.Wait()
	return result
}

// proxyContext fetches the merged context through the backend proxy.
func (c *Client) proxyContext(ctx context.Context, artist string) (Context, error) {
	reqURL := strings.TrimRight(c.cfg.ProxyBaseURL, "/") + "/api/lastfm/artist/" + url.PathEscape(artist)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Context{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Context{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Context{}, fmt.Errorf("proxy status %d", resp.StatusCode)
	}

	var parsed Context
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Context{}, fmt.Errorf("parsing proxy response: %w", err)
	}
	if parsed.TopTags == nil {
		parsed.TopTags = []Tag{}
	}
	return parsed, nil
}

// artistInfo fetches the artist summary record directly.
func (c *Client) artistInfo(ctx context.Context, artist string) (*ArtistInfo, error) {
	params := url.Values{
		"method":  {"artist.getinfo"},
		"artist":  {artist},
		"format":  {"json"},
		"api_key": {c.cfg.APIKey},
	}

	body, err := c.doRequest(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetching artist info: %w", err)
	}

	var resp artistInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing artist info response: %w", err)
	}
	return resp.Artist, nil
}

// topTags fetches the artist's top tags directly. Returns an empty slice
// (not nil) if no tags are found.
func (c *Client) topTags(ctx context.Context, artist string) ([]Tag, error) {
	params := url.Values{
		"method":  {"artist.gettoptags"},
		"artist":  {artist},
		"format":  {"json"},
		"api_key": {c.cfg.APIKey},
	}

	body, err := c.doRequest(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetching top tags: %w", err)
	}

	var resp topTagsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing top tags response: %w", err)
	}

	tags := resp.TopTags.Tag
	if tags == nil {
		tags = []Tag{}
	}
	return tags, nil
}

// doRequest performs an HTTP GET request with retry on rate limit.
// Retries up to 3 times with exponential backoff (1s, 2s, 4s).
func (c *Client) doRequest(ctx context.Context, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + "?" + params.Encode()

	delays := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	var lastErr error

	for attempt := 0; attempt <= len(delays); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delays[attempt-1]):
			}
		}

		body, err := c.doSingleRequest(ctx, reqURL)
		if err == nil {
			return body, nil
		}

		if errors.Is(err, ErrRateLimited) {
			lastErr = err
			continue
		}

		return nil, err
	}

	return nil, lastErr
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	// Check for API error in response
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != 0 {
		switch apiErr.Error {
		case errCodeRateLimited:
			return nil, ErrRateLimited
		case errCodeInvalidAPIKey:
			return nil, ErrInvalidAPIKey
		default:
			return nil, fmt.Errorf("API error %d: %s", apiErr.Error, apiErr.Message)
		}
	}

	return body, nil
}
