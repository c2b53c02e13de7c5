package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/notolabs/noto/internal/catalog"
	"github.com/notolabs/noto/internal/gemini"
	"github.com/notolabs/noto/internal/lastfm"
)

const (
	// minQueries/maxQueries bound the synthesized query list. Output order
	// is significant: position becomes the priority tier.
	minQueries = 3
	maxQueries = 6

	// maxPromptTags caps how many enrichment tags are embedded in the
	// model instruction.
	maxPromptTags = 10
)

// referenceInstruction is the structured instruction for reference-mode
// synthesis. The rules are behavioral constraints on the generated queries;
// the exclusion rule is additionally enforced mechanically after generation.
const referenceInstruction = `You are an expert music analyst for a recommendation system. Given a song or artist's details and audio features, generate 4-6 highly specific and varied search queries for the Spotify API to find *musically* similar songs.

SONG DETAILS:
- Title: %s
- Artist: %s
- Album: %s
- Genres: %s

AUDIO FEATURES:
- Energy: %s/1.0
- Valence (mood): %s/1.0 (0=sad, 1=happy)
- Tempo: %s BPM

ARTIST TAGS:
- %s

RULES for Generating Queries:
1.  **STRICT Exclusion (Priority 1):** Do NOT include the original song's title, the original artist's name, or the album title in any search query.
2.  **Linguistic/Regional Focus:** If the song is identified as OPM (or any specific regional music), ensure **at least two queries** use a regional tag (e.g., 'genre:"OPM"', 'Tagalog') combined with audio features.
3.  **Tag Integration (CRITICAL):** You have access to specific, detailed tags for the artist (e.g., "Pinoy rock," "melancholic," "driving guitars"). **At least two queries MUST use these specific, detailed tags** as part of the search string to target niche communities.
4.  **Similar Artist Query:** Suggest 2-3 **genre-appropriate similar artists** and query by their names, focusing on regional peers (e.g., 'artist:Urbandub OR artist:Eraserheads').
5.  **Objective Feature Query:** Generate one query that relies **ONLY on objective numbers** (Tempo and Year Range) combined with a translated feature (Energy or Valence) to capture structure, not just genre (e.g., 'energy:0.7-0.9 tempo:140-160 year:2018-2024').
6.  **Avoid Generic Tags:** Only use broad genres like "pop," "rock," or "indie" if you combine them with highly specific mood or feature adjectives (e.g., instead of "indie," use "mellow acoustic indie pop").
7.  **Avoid Literal Keywords:** Do not directly use non-musical keywords from the user's prompt. Avoid taking the user's prompt literally. (e.g. if the user searches 'house music', suggest house beats instead of songs with 'house' in the name.) Focus solely on the extracted song details and audio/regional features.

Respond ONLY as a JSON array of strings. Each string must be a ready-to-use search query for the Spotify API.

Original request: %s`

// moodInstruction is the simpler instruction used when no reference track
// resolved from the prompt.
const moodInstruction = `You are an expert music curator. Given a user's prompt about mood, vibe, or music taste, generate 4-6 highly specific search terms that will find songs matching that exact vibe.

Rules:
- Include specific artists, genres, or subgenres that match the vibe
- Use terms like "chill", "upbeat", "melancholic", "energetic" when appropriate
- Include decade references if relevant (e.g., "90s", "2000s")
- Mix artist names with descriptive terms
- Focus on finding songs that share the SAME emotional tone and style

Respond ONLY as a JSON array of strings.

User prompt: %s`

// Synthesizer produces diversified catalog queries from a reference track or
// a free-form mood prompt. It never fails to the caller: generation errors
// degrade to deterministic template queries.
type Synthesizer struct {
	model  ModelClient
	logger zerolog.Logger
}

// NewSynthesizer creates a Synthesizer using the given generative model.
func NewSynthesizer(model ModelClient, logger *zerolog.Logger) *Synthesizer {
	return &Synthesizer{
		model:  model,
		logger: logger.With().Str("component", "synthesizer").Logger(),
	}
}

// Synthesize returns 3-6 queries in priority order. Reference mode is used
// when ref is non-nil; features and enrichment are optional context for it.
// Mood mode works from the raw prompt alone, with the prompt itself as the
// ultimate fallback.
func (s *Synthesizer) Synthesize(ctx context.Context, ref *ReferenceTrack, features *catalog.AudioFeatures, enrichment lastfm.Context, prompt string) []Query {
	if ref == nil {
		return s.moodQueries(ctx, prompt)
	}
	return s.referenceQueries(ctx, ref, features, enrichment, prompt)
}

func (s *Synthesizer) referenceQueries(ctx context.Context, ref *ReferenceTrack, features *catalog.AudioFeatures, enrichment lastfm.Context, prompt string) []Query {
	instruction := buildReferenceInstruction(ref, features, enrichment, prompt)

	text, err := s.model.GenerateText(ctx, instruction)
	if err != nil {
		s.logger.Warn().Err(err).Msg("generation failed, using template queries")
		return tiered(referenceFallback(ref))
	}

	parsed := gemini.ExtractStringList(text)
	if !parsed.OK {
		s.logger.Warn().Msg("generation output unparsable, using template queries")
		return tiered(referenceFallback(ref))
	}

	queries := dropExcluded(parsed.Values, ref)
	if dropped := len(parsed.Values) - len(queries); dropped > 0 {
		s.logger.Debug().Int("dropped", dropped).Msg("removed queries naming the reference track")
	}
	if len(queries) < minQueries {
		return tiered(referenceFallback(ref))
	}
	return tiered(truncate(queries))
}

func (s *Synthesizer) moodQueries(ctx context.Context, prompt string) []Query {
	text, err := s.model.GenerateText(ctx, fmt.Sprintf(moodInstruction, prompt))
	if err != nil {
		s.logger.Warn().Err(err).Msg("generation failed, searching the prompt verbatim")
		return tiered([]string{prompt})
	}

	parsed := gemini.ExtractStringList(text)
	if !parsed.OK || len(parsed.Values) < minQueries {
		s.logger.Warn().Msg("generation output unusable, searching the prompt verbatim")
		return tiered([]string{prompt})
	}
	return tiered(truncate(parsed.Values))
}

func buildReferenceInstruction(ref *ReferenceTrack, features *catalog.AudioFeatures, enrichment lastfm.Context, prompt string) string {
	genres := "Unknown"
	if len(ref.GenreTags) > 0 {
		genres = strings.Join(ref.GenreTags, ", ")
	}

	energy, valence, tempo := "unknown", "unknown", "unknown"
	if features != nil {
		energy = fmt.Sprintf("%.2f", features.Energy)
		valence = fmt.Sprintf("%.2f", features.Valence)
		tempo = fmt.Sprintf("%.0f", features.Tempo)
	}

	tags := "none available"
	if len(enrichment.TopTags) > 0 {
		names := make([]string, 0, maxPromptTags)
		for _, tag := range enrichment.TopTags {
			names = append(names, tag.Name)
			if len(names) == maxPromptTags {
				break
			}
		}
		tags = strings.Join(names, ", ")
	}

	return fmt.Sprintf(referenceInstruction,
		ref.Title,
		strings.Join(ref.Artists, ", "),
		ref.Album,
		genres,
		energy, valence, tempo,
		tags,
		prompt,
	)
}

// referenceFallback is the deterministic 3-item template list used when
// generation fails or produces unusable output.
func referenceFallback(ref *ReferenceTrack) []string {
	genre := "indie"
	if len(ref.GenreTags) > 0 {
		genre = ref.GenreTags[0]
	}

	artist := ""
	if len(ref.Artists) > 0 {
		artist = ref.Artists[0]
	}

	return []string{
		fmt.Sprintf("genre:%q", genre),
		fmt.Sprintf(`artist:"similar to %s"`, artist),
		fmt.Sprintf("vibe of %s", ref.Title),
	}
}

// dropExcluded removes generated queries that name the reference track. The
// model is instructed not to, but compliance is not guaranteed, so the
// exclusion rule is enforced here as well.
func dropExcluded(queries []string, ref *ReferenceTrack) []string {
	exclude := make([]string, 0, len(ref.Artists)+2)
	if ref.Title != "" {
		exclude = append(exclude, strings.ToLower(ref.Title))
	}
	if ref.Album != "" {
		exclude = append(exclude, strings.ToLower(ref.Album))
	}
	for _, a := range ref.Artists {
		if a != "" {
			exclude = append(exclude, strings.ToLower(a))
		}
	}

	kept := make([]string, 0, len(queries))
	for _, q := range queries {
		lower := strings.ToLower(q)
		violates := false
		for _, term := range exclude {
			if strings.Contains(lower, term) {
				violates = true
				break
			}
		}
		if !violates {
			kept = append(kept, q)
		}
	}
	return kept
}

func truncate(queries []string) []string {
	if len(queries) > maxQueries {
		return queries[:maxQueries]
	}
	return queries
}

// tiered tags each query with its output position.
func tiered(texts []string) []Query {
	queries := make([]Query, len(texts))
	for i, t := range texts {
		queries[i] = Query{Text: t, Tier: i}
	}
	return queries
}
