package db

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Suspended    bool
	Banned       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SavedSong is a track a user bookmarked. Display fields are denormalized at
// save time so the library renders without catalog round-trips.
type SavedSong struct {
	UserID        uuid.UUID `json:"userId"`
	TrackID       string    `json:"trackId"`
	Name          string    `json:"name"`
	Artists       []string  `json:"artists"`
	AlbumImageURL *string   `json:"albumImage"`
	ExternalURL   *string   `json:"externalUrl"`
	SavedAt       time.Time `json:"savedAt"`
}
