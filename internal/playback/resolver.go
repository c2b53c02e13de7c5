// Package playback resolves track preview audio and manages the single
// active playback session.
package playback

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/notolabs/noto/internal/catalog"
)

// Outcome is the result kind of a preview resolution.
type Outcome int

const (
	// Playable means a preview URL was found.
	Playable Outcome = iota
	// Unavailable means the catalog exposes no preview for the track;
	// the caller should offer the external catalog page instead.
	Unavailable
)

func (o Outcome) String() string {
	if o == Playable {
		return "playable"
	}
	return "unavailable"
}

// MarshalJSON serializes the outcome as its name.
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// PreviewOutcome carries the resolution result. URL is set only when the
// outcome is Playable; ExternalURL is the catalog page fallback.
type PreviewOutcome struct {
	Outcome     Outcome `json:"outcome"`
	URL         string  `json:"url,omitempty"`
	ExternalURL string  `json:"externalUrl,omitempty"`
}

// TrackSource is the catalog slice the resolver needs.
type TrackSource interface {
	Track(ctx context.Context, trackID string) (*catalog.TrackSummary, error)
}

// Resolver looks up preview URLs for tracks.
type Resolver struct {
	catalog TrackSource
	logger  zerolog.Logger
}

// NewResolver creates a preview resolver backed by the given catalog.
func NewResolver(cat TrackSource, logger *zerolog.Logger) *Resolver {
	return &Resolver{
		catalog: cat,
		logger:  logger.With().Str("component", "playback").Logger(),
	}
}

// ResolvePreview attempts to obtain a preview URL for the track. A lookup
// failure or a track without a preview both resolve to Unavailable; this is
// a degradation, not an error, so the method does not fail.
func (r *Resolver) ResolvePreview(ctx context.Context, trackID string) PreviewOutcome {
	track, err := r.catalog.Track(ctx, trackID)
	if err != nil {
		r.logger.Debug().Err(err).Str("track", trackID).Msg("track lookup failed, preview unavailable")
		return PreviewOutcome{Outcome: Unavailable}
	}

	if track.PreviewURL == "" {
		return PreviewOutcome{Outcome: Unavailable, ExternalURL: track.ExternalURL}
	}
	return PreviewOutcome{Outcome: Playable, URL: track.PreviewURL, ExternalURL: track.ExternalURL}
}
