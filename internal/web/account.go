package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/notolabs/noto/internal/auth"
	"github.com/notolabs/noto/internal/db"
)

const (
	minPasswordLength = 6
	minUsernameLength = 3
)

type credentialsRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID         uuid.UUID `json:"id"`
		Identifier string    `json:"identifier"`
	} `json:"user"`
}

// userView is the admin-facing account shape. The password hash is never
// serialized.
type userView struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email,omitempty"`
	Suspended bool      `json:"suspended"`
	Banned    bool      `json:"banned"`
	CreatedAt time.Time `json:"createdAt"`
}

func viewOf(u db.User) userView {
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Suspended: u.Suspended,
		Banned:    u.Banned,
		CreatedAt: u.CreatedAt,
	}
}

// Register creates an account (POST /api/auth/register).
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Identifier == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Identifier and password required")
		return
	}
	if len(req.Password) < minPasswordLength {
		respondError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	identifier := normalizeIdentifier(req.Identifier)
	user := &db.User{PasswordHash: hash}
	if strings.Contains(identifier, "@") {
		user.Email = identifier
	} else {
		user.Username = identifier
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			respondError(w, http.StatusBadRequest, "User already exists")
			return
		}
		h.logger.Error().Err(err).Msg("registration failed")
		respondError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	h.respondWithToken(w, user.ID, identifier)
}

// Login authenticates an account (POST /api/auth/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Identifier == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Identifier and password required")
		return
	}

	user, err := h.users.GetByIdentifier(r.Context(), normalizeIdentifier(req.Identifier))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if user.Banned {
		respondError(w, http.StatusForbidden, "User account has been banned")
		return
	}

	identifier := user.Email
	if identifier == "" {
		identifier = user.Username
	}
	h.respondWithToken(w, user.ID, identifier)
}

func (h *Handlers) respondWithToken(w http.ResponseWriter, userID uuid.UUID, identifier string) {
	token, err := h.issuer.Issue(userID, identifier)
	if err != nil {
		h.logger.Error().Err(err).Msg("token issuance failed")
		respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	var resp authResponse
	resp.Token = token
	resp.User.ID = userID
	resp.User.Identifier = identifier
	respondJSON(w, http.StatusOK, resp)
}

// UpdateUsername changes the caller's username (PUT /api/user/username).
func (h *Handlers) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Username is required")
		return
	}
	username := normalizeIdentifier(req.Username)
	if len(username) < minUsernameLength {
		respondError(w, http.StatusBadRequest, "Username must be at least 3 characters")
		return
	}

	user := userFrom(r.Context())
	if err := h.users.UpdateUsername(r.Context(), user.ID, username); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			respondError(w, http.StatusBadRequest, "Username is already taken")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to update username")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Username updated successfully"})
}

// UpdateEmail changes the caller's email address (PUT /api/user/email).
func (h *Handlers) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Email is required")
		return
	}
	email := normalizeIdentifier(req.Email)
	if !strings.Contains(email, "@") {
		respondError(w, http.StatusBadRequest, "A valid email address is required")
		return
	}

	user := userFrom(r.Context())
	if err := h.users.UpdateEmail(r.Context(), user.ID, email); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			respondError(w, http.StatusBadRequest, "Email is already taken")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to update email")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Email updated successfully"})
}

// UpdatePassword replaces the caller's password (PUT /api/user/password).
func (h *Handlers) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Password is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		respondError(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update password")
		return
	}

	user := userFrom(r.Context())
	if err := h.users.UpdatePassword(r.Context(), user.ID, hash); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update password")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

// ListUsers returns every account (GET /api/admin/users).
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get users")
		return
	}

	views := make([]userView, len(users))
	for i, u := range users {
		views[i] = viewOf(u)
	}
	respondJSON(w, http.StatusOK, views)
}

// SuspendUser suspends an account (PUT /api/admin/users/{id}/suspend).
func (h *Handlers) SuspendUser(w http.ResponseWriter, r *http.Request) {
	h.setModeration(w, r, func(id uuid.UUID) error {
		return h.users.SetSuspended(r.Context(), id, true)
	}, "User suspended")
}

// UnsuspendUser lifts a suspension (PUT /api/admin/users/{id}/unsuspend).
func (h *Handlers) UnsuspendUser(w http.ResponseWriter, r *http.Request) {
	h.setModeration(w, r, func(id uuid.UUID) error {
		return h.users.SetSuspended(r.Context(), id, false)
	}, "User unsuspended")
}

// BanUser bans an account (PUT /api/admin/users/{id}/ban).
func (h *Handlers) BanUser(w http.ResponseWriter, r *http.Request) {
	h.setModeration(w, r, func(id uuid.UUID) error {
		return h.users.SetBanned(r.Context(), id, true)
	}, "User banned")
}

// UnbanUser lifts a ban (PUT /api/admin/users/{id}/unban).
func (h *Handlers) UnbanUser(w http.ResponseWriter, r *http.Request) {
	h.setModeration(w, r, func(id uuid.UUID) error {
		return h.users.SetBanned(r.Context(), id, false)
	}, "User unbanned")
}

func (h *Handlers) setModeration(w http.ResponseWriter, r *http.Request, apply func(uuid.UUID) error, message string) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	if err := apply(id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

type saveSongRequest struct {
	TrackID     string   `json:"trackId"`
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	AlbumImage  string   `json:"albumImage"`
	ExternalURL string   `json:"externalUrl"`
}

// SaveSong bookmarks a track for the caller (POST /api/songs/save).
func (h *Handlers) SaveSong(w http.ResponseWriter, r *http.Request) {
	var req saveSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TrackID == "" || req.Name == "" || len(req.Artists) == 0 {
		respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	user := userFrom(r.Context())
	song := &db.SavedSong{
		UserID:  user.ID,
		TrackID: req.TrackID,
		Name:    req.Name,
		Artists: req.Artists,
	}
	if req.AlbumImage != "" {
		song.AlbumImageURL = &req.AlbumImage
	}
	if req.ExternalURL != "" {
		song.ExternalURL = &req.ExternalURL
	}

	if err := h.songs.Save(r.Context(), song); err != nil {
		if errors.Is(err, db.ErrAlreadySaved) {
			respondError(w, http.StatusBadRequest, "Song already saved")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to save song")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "Song saved successfully", "song": song})
}

// SavedSongs lists the caller's bookmarks (GET /api/songs/saved).
func (h *Handlers) SavedSongs(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	songs, err := h.songs.ListByUser(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get saved songs")
		return
	}
	if songs == nil {
		songs = []db.SavedSong{}
	}
	respondJSON(w, http.StatusOK, songs)
}

// DeleteSong removes a bookmark (DELETE /api/songs/{trackId}).
func (h *Handlers) DeleteSong(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	if err := h.songs.Delete(r.Context(), user.ID, chi.URLParam(r, "trackId")); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Song not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to delete song")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Song deleted successfully"})
}

// CheckSong reports whether a track is bookmarked
// (GET /api/songs/check/{trackId}).
func (h *Handlers) CheckSong(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	saved, err := h.songs.Exists(r.Context(), user.ID, chi.URLParam(r, "trackId"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to check song")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"isSaved": saved})
}
