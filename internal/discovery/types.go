package discovery

import (
	"context"

	"github.com/notolabs/noto/internal/catalog"
	"github.com/notolabs/noto/internal/lastfm"
)

// ReferenceTrack is a prompt-extracted track resolved against the catalog.
type ReferenceTrack struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Artists   []string `json:"artists"`
	Album     string   `json:"album,omitempty"`
	GenreTags []string `json:"genres,omitempty"`
}

// Query is one synthesized catalog search query. Tier is the query's position
// in the synthesizer's output and becomes the primary ranking key downstream;
// it is an explicit field rather than an implicit array-index contract.
type Query struct {
	Text string `json:"text"`
	Tier int    `json:"tier"`
}

// RankedTrack is a track in the final result set, annotated with the tier of
// the query that first produced it.
type RankedTrack struct {
	catalog.TrackSummary
	PriorityTier int `json:"priorityTier"`
}

// Catalog is the slice of the catalog client the pipeline consumes.
type Catalog interface {
	FindTrack(ctx context.Context, query string) (*catalog.TrackSummary, error)
	AudioFeatures(ctx context.Context, trackID string) (*catalog.AudioFeatures, error)
	Search(ctx context.Context, query string, limit int) []catalog.TrackSummary
}

// Enricher provides best-effort artist context from the music-info service.
type Enricher interface {
	ArtistContext(ctx context.Context, artist string) lastfm.Context
}

// ModelClient generates free text from a single-turn instruction.
type ModelClient interface {
	GenerateText(ctx context.Context, instruction string) (string, error)
}
