package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SavedSongRepository handles a user's bookmarked tracks.
type SavedSongRepository struct {
	pool *pgxpool.Pool
}

// Save bookmarks a track for a user. Returns ErrAlreadySaved when the
// (user, track) pair already exists.
func (r *SavedSongRepository) Save(ctx context.Context, song *SavedSong) error {
	query := `
		INSERT INTO saved_songs (user_id, track_id, name, artists, album_image_url, external_url, saved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	now := time.Now()
	_, err := r.pool.Exec(ctx, query,
		song.UserID,
		song.TrackID,
		song.Name,
		song.Artists,
		song.AlbumImageURL,
		song.ExternalURL,
		now,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadySaved
		}
		return fmt.Errorf("inserting saved song: %w", err)
	}
	song.SavedAt = now
	return nil
}

// ListByUser returns a user's saved songs, most recently saved first.
func (r *SavedSongRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]SavedSong, error) {
	query := `
		SELECT user_id, track_id, name, artists, album_image_url, external_url, saved_at
		FROM saved_songs
		WHERE user_id = $1
		ORDER BY saved_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing saved songs: %w", err)
	}
	defer rows.Close()

	var songs []SavedSong
	for rows.Next() {
		var song SavedSong
		if err := rows.Scan(
			&song.UserID,
			&song.TrackID,
			&song.Name,
			&song.Artists,
			&song.AlbumImageURL,
			&song.ExternalURL,
			&song.SavedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning saved song: %w", err)
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

// Delete removes a bookmark. Returns ErrNotFound when the pair does not exist.
func (r *SavedSongRepository) Delete(ctx context.Context, userID uuid.UUID, trackID string) error {
	query := `DELETE FROM saved_songs WHERE user_id = $1 AND track_id = $2`
	result, err := r.pool.Exec(ctx, query, userID, trackID)
	if err != nil {
		return fmt.Errorf("deleting saved song: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Exists reports whether a user has bookmarked a track.
func (r *SavedSongRepository) Exists(ctx context.Context, userID uuid.UUID, trackID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM saved_songs WHERE user_id = $1 AND track_id = $2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, trackID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking saved song: %w", err)
	}
	return exists, nil
}
