package web

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/notolabs/noto/internal/auth"
	"github.com/notolabs/noto/internal/catalog"
	"github.com/notolabs/noto/internal/db"
	"github.com/notolabs/noto/internal/discovery"
	"github.com/notolabs/noto/internal/lastfm"
	"github.com/notolabs/noto/internal/playback"
)

// In-memory fakes for the handler dependency interfaces.

type fakeDiscoverer struct {
	result *discovery.Result
	err    error
}

func (f *fakeDiscoverer) Discover(_ context.Context, prompt string) (*discovery.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeCatalogAPI struct {
	tracks   []catalog.TrackSummary
	features *catalog.AudioFeatures
	track    *catalog.TrackSummary
	err      error
}

func (f *fakeCatalogAPI) Search(context.Context, string, int) []catalog.TrackSummary {
	return f.tracks
}

func (f *fakeCatalogAPI) AudioFeatures(context.Context, string) (*catalog.AudioFeatures, error) {
	return f.features, f.err
}

func (f *fakeCatalogAPI) Track(context.Context, string) (*catalog.TrackSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.track, nil
}

type fakeTokenSource struct {
	token string
	err   error
}

func (f *fakeTokenSource) Token(context.Context) (string, error) {
	return f.token, f.err
}

type fakeArtistSource struct{ ctx lastfm.Context }

func (f *fakeArtistSource) ArtistContext(context.Context, string) lastfm.Context {
	return f.ctx
}

type fakePreviewSource struct{ outcome playback.PreviewOutcome }

func (f *fakePreviewSource) ResolvePreview(context.Context, string) playback.PreviewOutcome {
	return f.outcome
}

// memUserStore is a map-backed UserStore.
type memUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*db.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[uuid.UUID]*db.User)}
}

func (s *memUserStore) Create(_ context.Context, user *db.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if (user.Email != "" && u.Email == user.Email) || (user.Username != "" && u.Username == user.Username) {
			return db.ErrDuplicate
		}
	}
	user.ID = uuid.New()
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *memUserStore) GetByID(_ context.Context, id uuid.UUID) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, db.ErrNotFound
}

func (s *memUserStore) GetByIdentifier(_ context.Context, identifier string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == identifier || u.Username == identifier {
			clone := *u
			return &clone, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *memUserStore) List(context.Context) ([]db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *memUserStore) update(id uuid.UUID, apply func(*db.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return db.ErrNotFound
	}
	apply(u)
	return nil
}

func (s *memUserStore) UpdateUsername(_ context.Context, id uuid.UUID, username string) error {
	s.mu.Lock()
	for _, u := range s.users {
		if u.Username == username && u.ID != id {
			s.mu.Unlock()
			return db.ErrDuplicate
		}
	}
	s.mu.Unlock()
	return s.update(id, func(u *db.User) { u.Username = username })
}

func (s *memUserStore) UpdateEmail(_ context.Context, id uuid.UUID, email string) error {
	return s.update(id, func(u *db.User) { u.Email = email })
}

func (s *memUserStore) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	return s.update(id, func(u *db.User) { u.PasswordHash = hash })
}

func (s *memUserStore) SetSuspended(_ context.Context, id uuid.UUID, suspended bool) error {
	return s.update(id, func(u *db.User) { u.Suspended = suspended })
}

func (s *memUserStore) SetBanned(_ context.Context, id uuid.UUID, banned bool) error {
	return s.update(id, func(u *db.User) { u.Banned = banned })
}

// memSongStore is a map-backed SongStore keyed by (user, track).
type memSongStore struct {
	mu    sync.Mutex
	songs map[uuid.UUID]map[string]db.SavedSong
}

func newMemSongStore() *memSongStore {
	return &memSongStore{songs: make(map[uuid.UUID]map[string]db.SavedSong)}
}

func (s *memSongStore) Save(_ context.Context, song *db.SavedSong) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byTrack, ok := s.songs[song.UserID]
	if !ok {
		byTrack = make(map[string]db.SavedSong)
		s.songs[song.UserID] = byTrack
	}
	if _, exists := byTrack[song.TrackID]; exists {
		return db.ErrAlreadySaved
	}
	byTrack[song.TrackID] = *song
	return nil
}

func (s *memSongStore) ListByUser(_ context.Context, userID uuid.UUID) ([]db.SavedSong, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.SavedSong
	for _, song := range s.songs[userID] {
		out = append(out, song)
	}
	return out, nil
}

func (s *memSongStore) Delete(_ context.Context, userID uuid.UUID, trackID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.songs[userID][trackID]; !ok {
		return db.ErrNotFound
	}
	delete(s.songs[userID], trackID)
	return nil
}

func (s *memSongStore) Exists(_ context.Context, userID uuid.UUID, trackID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.songs[userID][trackID]
	return ok, nil
}

// env bundles a test server with its backing fakes.
type env struct {
	server *Server
	users  *memUserStore
	songs  *memSongStore
	issuer *auth.TokenIssuer
}

func newTestEnv(opts ...func(*Handlers)) *env {
	logger := zerolog.Nop()
	issuer := auth.NewTokenIssuer("test-secret")
	users := newMemUserStore()
	songs := newMemSongStore()

	handlers := NewHandlers(
		&fakeDiscoverer{err: errors.New("not configured")},
		&fakeCatalogAPI{},
		&fakeTokenSource{token: "catalog-token"},
		&fakeArtistSource{},
		&fakePreviewSource{},
		users,
		songs,
		issuer,
		&logger,
	)
	for _, opt := range opts {
		opt(handlers)
	}

	server := NewServer(ServerConfig{
		Addr:        "127.0.0.1:0",
		AdminEmails: []string{"admin@example.com"},
	}, handlers, issuer, &logger)

	return &env{server: server, users: users, songs: songs, issuer: issuer}
}
