package discovery

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/notolabs/noto/internal/catalog"
)

// DisplayCap bounds the ranked result set returned to callers.
const DisplayCap = 30

// Aggregator fans synthesized queries out to the catalog concurrently and
// merges the batches into one ranked, deduplicated list.
type Aggregator struct {
	catalog Catalog
	logger  zerolog.Logger
}

// NewAggregator creates an Aggregator backed by the given catalog.
func NewAggregator(cat Catalog, logger *zerolog.Logger) *Aggregator {
	return &Aggregator{
		catalog: cat,
		logger:  logger.With().Str("component", "aggregator").Logger(),
	}
}

// Aggregate runs every query concurrently, then merges results. A track that
// appears in several batches keeps the tier of the first query that produced
// it. The merged list is ordered by tier ascending, then popularity
// descending, and capped at DisplayCap entries.
func (a *Aggregator) Aggregate(ctx context.Context, queries []Query) []RankedTrack {
	batches := make([][]catalog.TrackSummary, len(queries))

	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q Query) {
			defer wg.Done()
			batches[i] = a.catalog.Search(ctx, q.Text, catalog.DefaultSearchLimit)
		}(i, q)
	}
	wg.Wait()

	seen := make(map[string]struct{})
	merged := make([]RankedTrack, 0, len(queries)*catalog.DefaultSearchLimit)
	for i, batch := range batches {
		for _, track := range batch {
			if _, dup := seen[track.ID]; dup {
				continue
			}
			seen[track.ID] = struct{}{}
			merged = append(merged, RankedTrack{
				TrackSummary: track,
				PriorityTier: queries[i].Tier,
			})
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].PriorityTier != merged[j].PriorityTier {
			return merged[i].PriorityTier < merged[j].PriorityTier
		}
		return merged[i].Popularity > merged[j].Popularity
	})

	if len(merged) > DisplayCap {
		merged = merged[:DisplayCap]
	}

	a.logger.Debug().Int("queries", len(queries)).Int("tracks", len(merged)).Msg("aggregated search batches")
	return merged
}
