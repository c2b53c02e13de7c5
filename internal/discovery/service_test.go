package discovery

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/notolabs/noto/internal/catalog"
	"github.com/notolabs/noto/internal/lastfm"
)

func TestDiscoverEmptyPrompt(t *testing.T) {
	s := NewService(&fakeCatalog{}, &fakeEnricher{}, &fakeModel{}, testLogger())

	for _, prompt := range []string{"", "   ", "\n\t"} {
		if _, err := s.Discover(context.Background(), prompt); !errors.Is(err, ErrEmptyPrompt) {
			t.Errorf("Discover(%q) error = %v, want ErrEmptyPrompt", prompt, err)
		}
	}
}

func TestDiscoverReferenceMode(t *testing.T) {
	cat := &fakeCatalog{
		findTrack: &catalog.TrackSummary{
			ID:      "ref-1",
			Name:    "Alapaap",
			Artists: []string{"Eraserheads"},
		},
		features: &catalog.AudioFeatures{Energy: 0.7, Valence: 0.5, Tempo: 126},
		results: map[string][]catalog.TrackSummary{
			"pinoy rock 90s": {track("a", 80)},
			"manila sound":   {track("b", 60)},
			"opm ballads":    {track("c", 70)},
		},
	}
	enricher := &fakeEnricher{ctx: lastfm.Context{TopTags: []lastfm.Tag{{Name: "opm"}}}}
	model := &fakeModel{text: `["pinoy rock 90s", "manila sound", "opm ballads"]`}

	s := NewService(cat, enricher, model, testLogger())
	res, err := s.Discover(context.Background(), `songs like "Alapaap" by Eraserheads`)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if res.Reference == nil || res.Reference.ID != "ref-1" {
		t.Fatalf("Reference = %+v, want ref-1", res.Reference)
	}
	if enricher.artist != "Eraserheads" {
		t.Errorf("enriched artist = %q, want Eraserheads", enricher.artist)
	}
	if !strings.Contains(model.instruction, "126") {
		t.Error("instruction missing audio features")
	}
	if len(res.Queries) != 3 {
		t.Fatalf("len(Queries) = %d, want 3", len(res.Queries))
	}
	if len(res.Tracks) != 3 {
		t.Fatalf("len(Tracks) = %d, want 3: %+v", len(res.Tracks), res.Tracks)
	}
	if res.Tracks[0].ID != "a" {
		t.Errorf("Tracks[0].ID = %q, want a (tier 0)", res.Tracks[0].ID)
	}
}

func TestDiscoverMoodMode(t *testing.T) {
	cat := &fakeCatalog{
		findErr: catalog.ErrTrackNotFound,
		results: map[string][]catalog.TrackSummary{
			"chill lofi":   {track("x", 50)},
			"mellow indie": {track("y", 40)},
			"rainy jazz":   {track("z", 30)},
		},
	}
	model := &fakeModel{text: `["chill lofi", "mellow indie", "rainy jazz"]`}

	s := NewService(cat, &fakeEnricher{}, model, testLogger())
	res, err := s.Discover(context.Background(), "rainy afternoon vibes")
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if res.Reference != nil {
		t.Errorf("Reference = %+v, want nil for mood mode", res.Reference)
	}
	if len(res.Tracks) != 3 {
		t.Errorf("len(Tracks) = %d, want 3", len(res.Tracks))
	}
}

func TestDiscoverDegradesWhenFeaturesFail(t *testing.T) {
	cat := &fakeCatalog{
		findTrack:  &catalog.TrackSummary{ID: "ref-1", Name: "Song", Artists: []string{"Artist"}},
		featureErr: errors.New("features endpoint deprecated"),
		results:    map[string][]catalog.TrackSummary{"q1": {track("a", 10)}},
	}
	model := &fakeModel{text: `["q1", "q2", "q3"]`}

	s := NewService(cat, &fakeEnricher{}, model, testLogger())
	res, err := s.Discover(context.Background(), `"Song" by Artist someone`)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if !strings.Contains(model.instruction, "unknown/1.0") {
		t.Error("instruction should mark audio features unknown")
	}
	if len(res.Tracks) != 1 {
		t.Errorf("len(Tracks) = %d, want 1", len(res.Tracks))
	}
}
