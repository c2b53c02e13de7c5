// Package config loads application configuration from defaults and
// NOTO_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix is stripped from environment variables before mapping them onto
// config keys, e.g. NOTO_SPOTIFY_CLIENTID -> spotify.clientid.
const envPrefix = "NOTO_"

// Sentinel errors for missing required settings.
var (
	ErrMissingSpotifyCredentials = errors.New("missing spotify client credentials")
	ErrMissingJWTSecret          = errors.New("missing JWT secret")
)

// Config holds all runtime configuration for the service.
type Config struct {
	Addr        string `koanf:"addr"`
	DatabaseURL string `koanf:"databaseurl"`

	Spotify SpotifyConfig `koanf:"spotify"`
	Lastfm  LastfmConfig  `koanf:"lastfm"`
	Gemini  GeminiConfig  `koanf:"gemini"`

	JWTSecret string `koanf:"jwtsecret"`

	// AdminEmails lists the accounts allowed to call admin endpoints,
	// comma separated in the environment.
	AdminEmails []string `koanf:"adminemails"`

	// ProxyBaseURL is the trusted backend proxy tried before any direct or
	// relayed call to the catalog. Empty disables the proxy tier.
	ProxyBaseURL string `koanf:"proxybaseurl"`

	// Relays are public request-forwarding endpoints, tried in order when
	// the proxy tier is unavailable.
	Relays []string `koanf:"relays"`

	// CallTimeout bounds every external call.
	CallTimeout time.Duration `koanf:"timeout"`

	// Market scopes catalog searches to a regional catalog.
	Market string `koanf:"market"`
}

// SpotifyConfig holds client-credential grant settings for the catalog.
type SpotifyConfig struct {
	ClientID     string `koanf:"clientid"`
	ClientSecret string `koanf:"clientsecret"`
}

// LastfmConfig holds the music-info service API key.
type LastfmConfig struct {
	APIKey string `koanf:"apikey"`
}

// GeminiConfig holds generative model settings.
type GeminiConfig struct {
	APIKey string `koanf:"apikey"`
	Model  string `koanf:"model"`
}

// defaults returns the configuration applied before environment overrides.
func defaults() Config {
	return Config{
		Addr: "127.0.0.1:3001",
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash-lite",
		},
		Relays: []string{
			"https://corsproxy.io/?",
			"https://api.codetabs.com/v1/proxy?quest=",
			"https://cors-anywhere.herokuapp.com/",
		},
		CallTimeout: 10 * time.Second,
		Market:      "PH",
	}
}

// Load builds the configuration from defaults overlaid with environment
// variables. Returns an error if required secrets are absent.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if cfg.Spotify.ClientID == "" || cfg.Spotify.ClientSecret == "" {
		return nil, ErrMissingSpotifyCredentials
	}
	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}

	return &cfg, nil
}
