// Package discovery implements the recommendation pipeline: a free-form
// prompt is parsed for an explicit song reference, enriched with audio
// features and artist tags, expanded into several catalog queries by a
// generative model, and the concurrent search results are merged into one
// ranked list.
package discovery

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/notolabs/noto/internal/catalog"
	"github.com/notolabs/noto/internal/lastfm"
)

// ErrEmptyPrompt is returned by Discover for blank input.
var ErrEmptyPrompt = errors.New("prompt is empty")

// Result is the full outcome of one discovery run.
type Result struct {
	Reference *ReferenceTrack `json:"reference,omitempty"`
	Queries   []Query         `json:"queries"`
	Tracks    []RankedTrack   `json:"tracks"`
}

// Service orchestrates the discovery pipeline stages.
type Service struct {
	resolver    *Resolver
	synthesizer *Synthesizer
	aggregator  *Aggregator
	catalog     Catalog
	enricher    Enricher
	logger      zerolog.Logger
}

// NewService wires the pipeline stages together.
func NewService(cat Catalog, enricher Enricher, model ModelClient, logger *zerolog.Logger) *Service {
	return &Service{
		resolver:    NewResolver(cat, logger),
		synthesizer: NewSynthesizer(model, logger),
		aggregator:  NewAggregator(cat, logger),
		catalog:     cat,
		enricher:    enricher,
		logger:      logger.With().Str("component", "discovery").Logger(),
	}
}

// Discover runs the full pipeline for one prompt. Only a blank prompt is an
// error; every downstream stage degrades rather than failing the run.
func (s *Service) Discover(ctx context.Context, prompt string) (*Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	ref := s.resolver.Resolve(ctx, prompt)

	var (
		features   *catalog.AudioFeatures
		enrichment lastfm.Context
	)
	if ref != nil {
		// Features and artist context come from independent upstreams,
		// so fetch them concurrently. Both are optional.
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			f, err := s.catalog.AudioFeatures(ctx, ref.ID)
			if err != nil {
				s.logger.Debug().Err(err).Str("track", ref.ID).Msg("audio features unavailable")
				return
			}
			features = f
		}()
		go func() {
			defer wg.Done()
			if len(ref.Artists) > 0 {
				enrichment = s.enricher.ArtistContext(ctx, ref.Artists[0])
			}
		}()
		wg.Wait()
	}

	queries := s.synthesizer.Synthesize(ctx, ref, features, enrichment, prompt)
	tracks := s.aggregator.Aggregate(ctx, queries)

	s.logger.Info().
		Bool("reference", ref != nil).
		Int("queries", len(queries)).
		Int("tracks", len(tracks)).
		Msg("discovery run complete")

	return &Result{Reference: ref, Queries: queries, Tracks: tracks}, nil
}
