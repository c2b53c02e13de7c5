// Package web exposes the HTTP API: discovery, catalog and music-info
// proxies, account management, and saved songs.
package web

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/notolabs/noto/internal/auth"
)

const (
	// authRateLimit caps credential attempts per client IP.
	authRateLimit       = 10
	authRateLimitWindow = time.Minute
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr        string
	AdminEmails []string
}

// Server is the HTTP server for the API.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
	tokens   *auth.TokenIssuer
	admins   map[string]struct{}
	logger   zerolog.Logger
}

// NewServer creates the API server.
func NewServer(cfg ServerConfig, handlers *Handlers, tokens *auth.TokenIssuer, logger *zerolog.Logger) *Server {
	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		admins[normalizeIdentifier(email)] = struct{}{}
	}

	s := &Server{
		router:   chi.NewRouter(),
		handlers: handlers,
		tokens:   tokens,
		admins:   admins,
		logger:   logger.With().Str("component", "web").Logger(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the configured router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(&s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures routes for the API.
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.Route("/api", func(r chi.Router) {
		// Public
		r.Get("/discover", h.Discover)
		r.Get("/config", h.RuntimeConfig)
		r.Get("/spotify/search", h.SpotifySearch)
		r.Get("/spotify/audio-features/{id}", h.SpotifyAudioFeatures)
		r.Get("/spotify/track/{id}", h.SpotifyTrack)
		r.Post("/spotify/token", h.SpotifyToken)
		r.Get("/lastfm/artist/{name}", h.LastfmArtist)
		r.Get("/playback/{trackId}", h.PlaybackPreview)

		// Credentials, rate limited per client IP.
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(authRateLimit, authRateLimitWindow))
			r.Post("/auth/register", h.Register)
			r.Post("/auth/login", h.Login)
		})

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Put("/user/username", h.UpdateUsername)
			r.Put("/user/email", h.UpdateEmail)
			r.Put("/user/password", h.UpdatePassword)
			r.Post("/songs/save", h.SaveSong)
			r.Get("/songs/saved", h.SavedSongs)
			r.Delete("/songs/{trackId}", h.DeleteSong)
			r.Get("/songs/check/{trackId}", h.CheckSong)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/admin/users", h.ListUsers)
				r.Put("/admin/users/{id}/suspend", h.SuspendUser)
				r.Put("/admin/users/{id}/unsuspend", h.UnsuspendUser)
				r.Put("/admin/users/{id}/ban", h.BanUser)
				r.Put("/admin/users/{id}/unban", h.UnbanUser)
			})
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, http.StatusNotFound, "API endpoint not found")
		})
	})
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.server.Addr).Msg("server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.logger.Info().Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
