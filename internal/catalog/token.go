package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	accountsTokenURL = "https://accounts.spotify.com/api/token"

	// tokenSafetyMargin is subtracted from the provided TTL so a token is
	// refreshed before it actually expires mid-request.
	tokenSafetyMargin = time.Minute

	// proxyTokenTTL is assumed for tokens minted by the backend proxy,
	// which does not report an expiry of its own.
	proxyTokenTTL = time.Hour
)

// ErrUpstreamAuth is returned when every credential-exchange channel failed.
// This is the only hard failure point in the catalog layer.
var ErrUpstreamAuth = errors.New("all token channels failed")

// cachedToken pairs a bearer value with its refresh deadline.
type cachedToken struct {
	value     string
	expiresAt time.Time
}

// TokenConfig configures a TokenProvider.
type TokenConfig struct {
	ClientID     string
	ClientSecret string

	// ProxyBaseURL is the trusted backend proxy. Empty disables that tier.
	ProxyBaseURL string

	// Relays are tried in order after the proxy tier.
	Relays []Relay

	HTTPClient *http.Client
}

// TokenProvider obtains and caches a bearer credential for the catalog.
// The cache is process-wide and refreshed lazily; concurrent callers may race
// to refresh, which is tolerated since the exchange is cheap and idempotent.
type TokenProvider struct {
	cfg        TokenConfig
	httpClient *http.Client
	logger     zerolog.Logger

	// tokenURL is the direct credential-exchange endpoint, overridable in tests.
	tokenURL string

	cached atomic.Pointer[cachedToken]
}

// NewTokenProvider creates a TokenProvider.
func NewTokenProvider(cfg TokenConfig, logger *zerolog.Logger) *TokenProvider {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &TokenProvider{
		cfg:        cfg,
		httpClient: hc,
		logger:     logger.With().Str("component", "catalog_token").Logger(),
		tokenURL:   accountsTokenURL,
	}
}

// Token returns a valid bearer credential, refreshing it if the cached one is
// past its deadline. Channel order: backend proxy, then each configured relay
// using the client-credential grant. Returns ErrUpstreamAuth when everything
// fails.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	prev := p.cached.Load()
	if prev != nil && time.Now().Before(prev.expiresAt) {
		return prev.value, nil
	}

	if p.cfg.ProxyBaseURL != "" {
		value, err := p.proxyToken(ctx)
		if err == nil {
			p.store(prev, value, proxyTokenTTL)
			return value, nil
		}
		p.logger.Warn().Err(err).Msg("proxy token channel failed")
	}

	for _, relay := range p.relays() {
		cc := &clientcredentials.Config{
			ClientID:     p.cfg.ClientID,
			ClientSecret: p.cfg.ClientSecret,
			TokenURL:     relay.Wrap(p.tokenURL),
			AuthStyle:    oauth2.AuthStyleInParams,
		}

		tok, err := cc.Token(context.WithValue(ctx, oauth2.HTTPClient, p.httpClient))
		if err != nil {
			p.logger.Warn().Err(err).Str("relay", relay.Prefix).Msg("relay token channel failed")
			continue
		}

		ttl := proxyTokenTTL
		if !tok.Expiry.IsZero() {
			ttl = time.Until(tok.Expiry)
		}
		p.store(prev, tok.AccessToken, ttl)
		return tok.AccessToken, nil
	}

	return "", ErrUpstreamAuth
}

// relays returns the chain, defaulting to the direct endpoint alone when no
// relay is configured (server-side calls are not CORS-restricted).
func (p *TokenProvider) relays() []Relay {
	if len(p.cfg.Relays) == 0 {
		return []Relay{{Prefix: ""}}
	}
	return p.cfg.Relays
}

// store installs the refreshed token. Compare-and-swap keeps the newest
// refresh when callers race; losing the race is fine, both tokens are valid.
func (p *TokenProvider) store(prev *cachedToken, value string, ttl time.Duration) {
	p.cached.CompareAndSwap(prev, &cachedToken{
		value:     value,
		expiresAt: time.Now().Add(ttl - tokenSafetyMargin),
	})
}

// proxyToken exchanges credentials through the trusted backend proxy.
func (p *TokenProvider) proxyToken(ctx context.Context) (string, error) {
	url := strings.TrimRight(p.cfg.ProxyBaseURL, "/") + "/api/spotify/token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("proxy token status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parsing token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", errors.New("empty access token")
	}

	return parsed.AccessToken, nil
}
