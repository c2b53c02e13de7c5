package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestTokenProxyChannel(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/spotify/token" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "proxy-token"})
	}))
	defer server.Close()

	provider := NewTokenProvider(TokenConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		ProxyBaseURL: server.URL,
	}, testLogger())

	token, err := provider.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != "proxy-token" {
		t.Errorf("token = %q, want %q", token, "proxy-token")
	}

	// Second call must be served from the cache.
	if _, err := provider.Token(context.Background()); err != nil {
		t.Fatalf("Token() second call error = %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("proxy calls = %d, want 1", got)
	}
}

func TestTokenRelayFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/spotify/token", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "proxy down", http.StatusBadGateway)
	})
	mux.HandleFunc("/dead", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "relay down", http.StatusBadGateway)
	})
	mux.HandleFunc("/relay", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if r.PostFormValue("grant_type") != "client_credentials" {
			http.Error(w, "wrong grant", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "relay-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	provider := NewTokenProvider(TokenConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		ProxyBaseURL: server.URL,
		Relays: []Relay{
			{Prefix: server.URL + "/dead?to="},
			{Prefix: server.URL + "/relay?to="},
		},
	}, testLogger())

	token, err := provider.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != "relay-token" {
		t.Errorf("token = %q, want %q", token, "relay-token")
	}
}

func TestTokenAllChannelsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	provider := NewTokenProvider(TokenConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		ProxyBaseURL: server.URL,
		Relays:       []Relay{{Prefix: server.URL + "/relay?to="}},
	}, testLogger())

	_, err := provider.Token(context.Background())
	if !errors.Is(err, ErrUpstreamAuth) {
		t.Errorf("Token() error = %v, want ErrUpstreamAuth", err)
	}
}

func TestTokenShortTTLRefreshes(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		// Shorter than the safety margin: cached value is already stale.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "short-token",
			"token_type":   "Bearer",
			"expires_in":   1,
		})
	}))
	defer server.Close()

	provider := NewTokenProvider(TokenConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		Relays:       []Relay{{Prefix: server.URL + "/?to="}},
	}, testLogger())

	for range 2 {
		if _, err := provider.Token(context.Background()); err != nil {
			t.Fatalf("Token() error = %v", err)
		}
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("exchange calls = %d, want 2 (stale token must refresh)", got)
	}
}
