package lastfm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestArtistContextDirect(t *testing.T) {
	tests := []struct {
		name         string
		infoStatus   int
		infoBody     any
		tagsStatus   int
		tagsBody     any
		wantArtist   bool
		wantTagCount int
	}{
		{
			name:       "both succeed",
			infoStatus: http.StatusOK,
			infoBody: map[string]any{"artist": map[string]any{
				"name": "Urbandub",
				"url":  "http://last.fm/music/Urbandub",
			}},
			tagsStatus: http.StatusOK,
			tagsBody: map[string]any{"toptags": map[string]any{
				"tag": []map[string]any{
					{"name": "pinoy rock", "count": 100},
					{"name": "opm", "count": 88},
					{"name": "post-hardcore", "count": 42},
				},
			}},
			wantArtist:   true,
			wantTagCount: 3,
		},
		{
			name:       "info fails, tags preserved",
			infoStatus: http.StatusInternalServerError,
			infoBody:   map[string]any{},
			tagsStatus: http.StatusOK,
			tagsBody: map[string]any{"toptags": map[string]any{
				"tag": []map[string]any{{"name": "shoegaze", "count": 10}},
			}},
			wantArtist:   false,
			wantTagCount: 1,
		},
		{
			name:         "both fail yields empty context",
			infoStatus:   http.StatusInternalServerError,
			infoBody:     map[string]any{},
			tagsStatus:   http.StatusInternalServerError,
			tagsBody:     map[string]any{},
			wantArtist:   false,
			wantTagCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Query().Get("method") {
				case "artist.getinfo":
					w.WriteHeader(tt.infoStatus)
					_ = json.NewEncoder(w).Encode(tt.infoBody)
				case "artist.gettoptags":
					w.WriteHeader(tt.tagsStatus)
					_ = json.NewEncoder(w).Encode(tt.tagsBody)
				default:
					http.NotFound(w, r)
				}
			}))
			defer server.Close()

			client := NewClient(Config{APIKey: "key"}, testLogger())
			client.baseURL = server.URL + "/"

			got := client.ArtistContext(context.Background(), "Urbandub")

			if (got.Artist != nil) != tt.wantArtist {
				t.Errorf("Artist present = %v, want %v", got.Artist != nil, tt.wantArtist)
			}
			if got.TopTags == nil {
				t.Fatal("TopTags is nil, want empty slice")
			}
			if len(got.TopTags) != tt.wantTagCount {
				t.Errorf("len(TopTags) = %d, want %d", len(got.TopTags), tt.wantTagCount)
			}
		})
	}
}

func TestArtistContextProxyPreferred(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/lastfm/artist/Eraserheads" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(Context{
			Artist:  &ArtistInfo{Name: "Eraserheads"},
			TopTags: []Tag{{Name: "opm", Count: 99}},
		})
	}))
	defer proxy.Close()

	client := NewClient(Config{APIKey: "key", ProxyBaseURL: proxy.URL}, testLogger())
	// Direct endpoint would fail; the proxy answer must win.
	client.baseURL = "http://127.0.0.1:1/"

	got := client.ArtistContext(context.Background(), "Eraserheads")
	if got.Artist == nil || got.Artist.Name != "Eraserheads" {
		t.Fatalf("unexpected artist: %+v", got.Artist)
	}
	if len(got.TopTags) != 1 || got.TopTags[0].Name != "opm" {
		t.Errorf("unexpected tags: %+v", got.TopTags)
	}
}

func TestArtistContextCaches(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]any{"toptags": map[string]any{
			"tag": []map[string]any{{"name": "dream pop"}},
		}})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key"}, testLogger())
	client.baseURL = server.URL + "/"

	client.ArtistContext(context.Background(), "Beabadoobee")
	before := calls
	client.ArtistContext(context.Background(), "beabadoobee")
	if calls != before {
		t.Errorf("second lookup hit the network (%d calls), want cached", calls)
	}
}
