// Command noto runs the noto music discovery API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/notolabs/noto/internal/auth"
	"github.com/notolabs/noto/internal/catalog"
	"github.com/notolabs/noto/internal/config"
	"github.com/notolabs/noto/internal/db"
	"github.com/notolabs/noto/internal/discovery"
	"github.com/notolabs/noto/internal/gemini"
	"github.com/notolabs/noto/internal/lastfm"
	"github.com/notolabs/noto/internal/playback"
	"github.com/notolabs/noto/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	httpClient := &http.Client{Timeout: cfg.CallTimeout}
	relays := catalog.RelaysFrom(cfg.Relays)

	database, err := db.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	tokens := catalog.NewTokenProvider(catalog.TokenConfig{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		ProxyBaseURL: cfg.ProxyBaseURL,
		Relays:       relays,
		HTTPClient:   httpClient,
	}, &logger)

	catalogClient := catalog.NewClient(catalog.Config{
		ProxyBaseURL: cfg.ProxyBaseURL,
		Relays:       relays,
		Market:       cfg.Market,
		HTTPClient:   httpClient,
	}, tokens, &logger)

	lastfmClient := lastfm.NewClient(lastfm.Config{
		APIKey:       cfg.Lastfm.APIKey,
		ProxyBaseURL: cfg.ProxyBaseURL,
		HTTPClient:   httpClient,
	}, &logger)

	model, err := gemini.NewClient(gemini.Config{
		APIKey:     cfg.Gemini.APIKey,
		Model:      cfg.Gemini.Model,
		HTTPClient: httpClient,
	})
	if err != nil {
		return fmt.Errorf("creating model client: %w", err)
	}

	discoveryService := discovery.NewService(catalogClient, lastfmClient, model, &logger)
	previews := playback.NewResolver(catalogClient, &logger)
	issuer := auth.NewTokenIssuer(cfg.JWTSecret)

	handlers := web.NewHandlers(
		discoveryService,
		catalogClient,
		tokens,
		lastfmClient,
		previews,
		database.Users(),
		database.SavedSongs(),
		issuer,
		&logger,
	)

	server := web.NewServer(web.ServerConfig{
		Addr:        cfg.Addr,
		AdminEmails: cfg.AdminEmails,
	}, handlers, issuer, &logger)

	return server.Run()
}
