// Package catalog provides access to the external track catalog: credential
// exchange, text search, audio features, and track lookup. Every read path
// degrades through a tiered fallback chain (trusted backend proxy, direct
// API, public relays) instead of surfacing transport errors.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

const (
	apiBaseURL = "https://api.spotify.com/v1"

	// DefaultSearchLimit keeps per-query result sets small so the ranked
	// set stays diverse across multiple synthesized queries.
	DefaultSearchLimit = 5
)

// ErrTrackNotFound is returned by FindTrack when a query matches nothing.
var ErrTrackNotFound = errors.New("track not found")

// directAPI is the slice of the catalog SDK the client uses, extracted so
// tests can substitute a fake.
type directAPI interface {
	Search(ctx context.Context, query string, t spotify.SearchType, opts ...spotify.RequestOption) (*spotify.SearchResult, error)
	GetTrack(ctx context.Context, id spotify.ID, opts ...spotify.RequestOption) (*spotify.FullTrack, error)
	GetAudioFeatures(ctx context.Context, ids ...spotify.ID) ([]*spotify.AudioFeatures, error)
}

// Config configures a Client.
type Config struct {
	// ProxyBaseURL is the trusted backend proxy tier. Empty disables it.
	ProxyBaseURL string

	// Relays are the forwarding endpoints tried after the direct tier.
	Relays []Relay

	// Market scopes searches to a regional catalog, e.g. "PH".
	Market string

	HTTPClient *http.Client
}

// Client executes catalog reads with tiered fallback.
type Client struct {
	cfg        Config
	tokens     *TokenProvider
	httpClient *http.Client
	logger     zerolog.Logger

	// base is the direct REST endpoint used for relayed raw calls,
	// overridable in tests.
	base string

	// newAPI builds the direct-tier SDK client for a bearer token.
	newAPI func(ctx context.Context, token string) directAPI
}

// NewClient creates a catalog client backed by the given token provider.
func NewClient(cfg Config, tokens *TokenProvider, logger *zerolog.Logger) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	c := &Client{
		cfg:        cfg,
		tokens:     tokens,
		httpClient: hc,
		logger:     logger.With().Str("component", "catalog").Logger(),
		base:       apiBaseURL,
	}
	c.newAPI = func(ctx context.Context, token string) directAPI {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		return spotify.New(oauth2.NewClient(ctx, src))
	}
	return c
}

// Search executes a single text query and returns at most limit track
// summaries. Search never fails: when every tier is exhausted it returns a
// small placeholder result set, since search feeds a ranking step that
// tolerates garbage batches.
func (c *Client) Search(ctx context.Context, query string, limit int) []TrackSummary {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	if c.cfg.ProxyBaseURL != "" {
		var parsed searchResponse
		path := fmt.Sprintf("/api/spotify/search?q=%s&limit=%d", url.QueryEscape(query), limit)
		if err := c.proxyGet(ctx, path, &parsed); err == nil {
			return summariesFromWire(parsed.Tracks.Items, limit)
		} else {
			c.logger.Debug().Err(err).Str("query", query).Msg("proxy search unavailable")
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("token unavailable, serving placeholder results")
		return placeholderTracks()
	}

	if items, err := c.directSearch(ctx, token, query, limit); err == nil {
		return items
	} else {
		c.logger.Debug().Err(err).Str("query", query).Msg("direct search failed")
	}

	for _, relay := range c.cfg.Relays {
		items, err := c.relaySearch(ctx, relay, token, query, limit)
		if err != nil {
			c.logger.Debug().Err(err).Str("relay", relay.Prefix).Msg("relay search failed")
			continue
		}
		return items
	}

	c.logger.Warn().Str("query", query).Msg("all search tiers failed, serving placeholder results")
	return placeholderTracks()
}

// AudioFeatures fetches the feature vector for a track. Best-effort: callers
// treat a nil result as "features unavailable".
func (c *Client) AudioFeatures(ctx context.Context, trackID string) (*AudioFeatures, error) {
	if c.cfg.ProxyBaseURL != "" {
		var parsed wireFeatures
		if err := c.proxyGet(ctx, "/api/spotify/audio-features/"+url.PathEscape(trackID), &parsed); err == nil {
			return &AudioFeatures{Energy: parsed.Energy, Valence: parsed.Valence, Tempo: parsed.Tempo}, nil
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtaining token: %w", err)
	}

	features, err := c.newAPI(ctx, token).GetAudioFeatures(ctx, spotify.ID(trackID))
	if err != nil {
		return nil, fmt.Errorf("fetching audio features: %w", err)
	}
	if len(features) == 0 || features[0] == nil {
		return nil, fmt.Errorf("no audio features for track %s", trackID)
	}

	f := features[0]
	return &AudioFeatures{
		Energy:  float64(f.Energy),
		Valence: float64(f.Valence),
		Tempo:   float64(f.Tempo),
	}, nil
}

// Track fetches a single track's detail, including its preview URL when the
// catalog exposes one.
func (c *Client) Track(ctx context.Context, trackID string) (*TrackSummary, error) {
	if c.cfg.ProxyBaseURL != "" {
		var parsed wireTrack
		if err := c.proxyGet(ctx, "/api/spotify/track/"+url.PathEscape(trackID), &parsed); err == nil && parsed.ID != "" {
			summary := parsed.toSummary()
			return &summary, nil
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtaining token: %w", err)
	}

	track, err := c.newAPI(ctx, token).GetTrack(ctx, spotify.ID(trackID))
	if err != nil {
		return nil, fmt.Errorf("fetching track: %w", err)
	}

	summary := summaryFromFullTrack(*track)
	return &summary, nil
}

// FindTrack resolves a field-scoped query to a single concrete track. Unlike
// Search it reports failure instead of degrading to placeholder data, so a
// caller can fall back to mood-based discovery when nothing matches.
func (c *Client) FindTrack(ctx context.Context, query string) (*TrackSummary, error) {
	if c.cfg.ProxyBaseURL != "" {
		var parsed searchResponse
		path := fmt.Sprintf("/api/spotify/search?q=%s&limit=%d", url.QueryEscape(query), DefaultSearchLimit)
		if err := c.proxyGet(ctx, path, &parsed); err == nil {
			if len(parsed.Tracks.Items) == 0 {
				return nil, ErrTrackNotFound
			}
			summary := parsed.Tracks.Items[0].toSummary()
			return &summary, nil
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtaining token: %w", err)
	}

	items, err := c.directSearch(ctx, token, query, DefaultSearchLimit)
	if err != nil {
		for _, relay := range c.cfg.Relays {
			items, err = c.relaySearch(ctx, relay, token, query, DefaultSearchLimit)
			if err == nil {
				break
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("resolving track: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrTrackNotFound
	}
	return &items[0], nil
}

// directSearch queries the catalog API with the SDK client.
func (c *Client) directSearch(ctx context.Context, token, query string, limit int) ([]TrackSummary, error) {
	opts := []spotify.RequestOption{spotify.Limit(limit)}
	if c.cfg.Market != "" {
		opts = append(opts, spotify.Market(c.cfg.Market))
	}

	result, err := c.newAPI(ctx, token).Search(ctx, query, spotify.SearchTypeTrack, opts...)
	if err != nil {
		return nil, fmt.Errorf("searching tracks: %w", err)
	}
	if result.Tracks == nil {
		return []TrackSummary{}, nil
	}

	items := make([]TrackSummary, 0, len(result.Tracks.Tracks))
	for _, t := range result.Tracks.Tracks {
		items = append(items, summaryFromFullTrack(t))
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

// relaySearch issues the raw REST search through one relay.
func (c *Client) relaySearch(ctx context.Context, relay Relay, token, query string, limit int) ([]TrackSummary, error) {
	target := fmt.Sprintf("%s/search?q=%s&type=track&limit=%d", c.base, url.QueryEscape(query), limit)
	if c.cfg.Market != "" {
		target += "&market=" + url.QueryEscape(c.cfg.Market)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, relay.Wrap(target), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("relay search status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	return summariesFromWire(parsed.Tracks.Items, limit), nil
}

// proxyGet issues a GET against the backend proxy and decodes the JSON body.
func (c *Client) proxyGet(ctx context.Context, path string, target any) error {
	url := strings.TrimRight(c.cfg.ProxyBaseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("proxy status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("parsing proxy response: %w", err)
	}
	return nil
}

func summariesFromWire(items []wireTrack, limit int) []TrackSummary {
	out := make([]TrackSummary, 0, len(items))
	for _, item := range items {
		out = append(out, item.toSummary())
		if len(out) == limit {
			break
		}
	}
	return out
}
