package web

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/notolabs/noto/internal/auth"
	"github.com/notolabs/noto/internal/catalog"
	"github.com/notolabs/noto/internal/db"
	"github.com/notolabs/noto/internal/discovery"
	"github.com/notolabs/noto/internal/lastfm"
	"github.com/notolabs/noto/internal/playback"
)

// Discoverer runs the recommendation pipeline.
type Discoverer interface {
	Discover(ctx context.Context, prompt string) (*discovery.Result, error)
}

// CatalogAPI is the catalog surface the proxy endpoints expose.
type CatalogAPI interface {
	Search(ctx context.Context, query string, limit int) []catalog.TrackSummary
	AudioFeatures(ctx context.Context, trackID string) (*catalog.AudioFeatures, error)
	Track(ctx context.Context, trackID string) (*catalog.TrackSummary, error)
}

// TokenSource mints catalog access tokens for clients that call the catalog
// themselves.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ArtistSource provides artist context from the music-info service.
type ArtistSource interface {
	ArtistContext(ctx context.Context, artist string) lastfm.Context
}

// PreviewSource resolves preview audio for a track.
type PreviewSource interface {
	ResolvePreview(ctx context.Context, trackID string) playback.PreviewOutcome
}

// UserStore is the account persistence surface the handlers consume.
type UserStore interface {
	Create(ctx context.Context, user *db.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*db.User, error)
	List(ctx context.Context) ([]db.User, error)
	UpdateUsername(ctx context.Context, id uuid.UUID, username string) error
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetSuspended(ctx context.Context, id uuid.UUID, suspended bool) error
	SetBanned(ctx context.Context, id uuid.UUID, banned bool) error
}

// SongStore is the saved-song persistence surface.
type SongStore interface {
	Save(ctx context.Context, song *db.SavedSong) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]db.SavedSong, error)
	Delete(ctx context.Context, userID uuid.UUID, trackID string) error
	Exists(ctx context.Context, userID uuid.UUID, trackID string) (bool, error)
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	discovery Discoverer
	catalog   CatalogAPI
	tokens    TokenSource
	lastfm    ArtistSource
	previews  PreviewSource
	users     UserStore
	songs     SongStore
	issuer    *auth.TokenIssuer
	logger    zerolog.Logger
}

// NewHandlers creates a Handlers instance.
func NewHandlers(
	disc Discoverer,
	cat CatalogAPI,
	tokens TokenSource,
	lfm ArtistSource,
	previews PreviewSource,
	users UserStore,
	songs SongStore,
	issuer *auth.TokenIssuer,
	logger *zerolog.Logger,
) *Handlers {
	return &Handlers{
		discovery: disc,
		catalog:   cat,
		tokens:    tokens,
		lastfm:    lfm,
		previews:  previews,
		users:     users,
		songs:     songs,
		issuer:    issuer,
		logger:    logger.With().Str("component", "handlers").Logger(),
	}
}

// Discover runs the recommendation pipeline (GET /api/discover?q=).
func (h *Handlers) Discover(w http.ResponseWriter, r *http.Request) {
	result, err := h.discovery.Discover(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "A search prompt is required")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// SpotifySearch proxies a catalog text search (GET /api/spotify/search).
func (h *Handlers) SpotifySearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "Query parameter q is required")
		return
	}

	limit := catalog.DefaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	items := h.catalog.Search(r.Context(), query, limit)
	respondJSON(w, http.StatusOK, map[string]any{
		"tracks": map[string]any{"items": items},
	})
}

// SpotifyAudioFeatures proxies a feature lookup
// (GET /api/spotify/audio-features/{id}).
func (h *Handlers) SpotifyAudioFeatures(w http.ResponseWriter, r *http.Request) {
	features, err := h.catalog.AudioFeatures(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadGateway, "Audio features unavailable")
		return
	}
	respondJSON(w, http.StatusOK, features)
}

// SpotifyTrack proxies a track lookup (GET /api/spotify/track/{id}).
func (h *Handlers) SpotifyTrack(w http.ResponseWriter, r *http.Request) {
	track, err := h.catalog.Track(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadGateway, "Track lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, track)
}

// SpotifyToken mints a catalog access token (POST /api/spotify/token).
func (h *Handlers) SpotifyToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokens.Token(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "Failed to obtain access token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

// LastfmArtist returns artist info and tags (GET /api/lastfm/artist/{name}).
func (h *Handlers) LastfmArtist(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.lastfm.ArtistContext(r.Context(), chi.URLParam(r, "name")))
}

// PlaybackPreview resolves preview audio (GET /api/playback/{trackId}).
func (h *Handlers) PlaybackPreview(w http.ResponseWriter, r *http.Request) {
	outcome := h.previews.ResolvePreview(r.Context(), chi.URLParam(r, "trackId"))
	respondJSON(w, http.StatusOK, outcome)
}

// RuntimeConfig returns client-facing runtime settings (GET /api/config).
func (h *Handlers) RuntimeConfig(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"apiBaseUrl": scheme + "://" + r.Host,
	})
}
