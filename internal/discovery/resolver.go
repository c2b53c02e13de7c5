package discovery

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/notolabs/noto/internal/catalog"
)

// referencePattern matches an explicit `"<title>" by <artist>` fragment.
// The artist runs to the first comma so trailing qualifiers ("..., but
// faster") stay out of the name.
var referencePattern = regexp.MustCompile(`(?i)["']([^"']+)["']\s+by\s+([^,]+)`)

// Resolver turns a prompt's explicit song reference into a concrete catalog
// track.
type Resolver struct {
	catalog Catalog
	logger  zerolog.Logger
}

// NewResolver creates a Resolver backed by the given catalog.
func NewResolver(cat Catalog, logger *zerolog.Logger) *Resolver {
	return &Resolver{
		catalog: cat,
		logger:  logger.With().Str("component", "resolver").Logger(),
	}
}

// ParseReference extracts the quoted title and artist from a prompt.
// Returns ok=false when the prompt carries no explicit reference.
func ParseReference(prompt string) (title, artist string, ok bool) {
	m := referencePattern.FindStringSubmatch(prompt)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// Resolve parses the prompt and resolves any explicit reference against the
// catalog. A nil result is not an error: the caller proceeds in mood mode.
func (r *Resolver) Resolve(ctx context.Context, prompt string) *ReferenceTrack {
	title, artist, ok := ParseReference(prompt)
	if !ok {
		return nil
	}

	query := fmt.Sprintf("track:%q artist:%q", title, artist)
	hit, err := r.catalog.FindTrack(ctx, query)
	if err != nil {
		if !errors.Is(err, catalog.ErrTrackNotFound) {
			r.logger.Warn().Err(err).Str("title", title).Str("artist", artist).Msg("reference lookup failed")
		}
		r.logger.Debug().Str("title", title).Str("artist", artist).Msg("no catalog match, using mood mode")
		return nil
	}

	return &ReferenceTrack{
		ID:        hit.ID,
		Title:     hit.Name,
		Artists:   hit.Artists,
		Album:     hit.AlbumName,
		GenreTags: hit.GenreTags,
	}
}
