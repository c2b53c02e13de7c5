package catalog

import "github.com/zmb3/spotify/v2"

// TrackSummary is the catalog-independent view of a track used across the
// discovery pipeline and the web API.
type TrackSummary struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Artists       []string `json:"artists"`
	AlbumName     string   `json:"albumName,omitempty"`
	AlbumImageURL string   `json:"albumImage,omitempty"`
	GenreTags     []string `json:"genres,omitempty"`
	Popularity    int      `json:"popularity"`
	PreviewURL    string   `json:"previewUrl,omitempty"`
	ExternalURL   string   `json:"externalUrl,omitempty"`
}

// AudioFeatures is the subset of the catalog's feature vector the synthesizer
// consumes. Values for Energy and Valence are in [0,1].
type AudioFeatures struct {
	Energy  float64 `json:"energy"`
	Valence float64 `json:"valence"`
	Tempo   float64 `json:"tempo"`
}

// wireTrack mirrors the catalog's track JSON as returned by the backend proxy
// and the relayed REST endpoints.
type wireTrack struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name   string   `json:"name"`
		Genres []string `json:"genres"`
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"album"`
	Popularity   int     `json:"popularity"`
	PreviewURL   *string `json:"preview_url"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

// searchResponse mirrors the {tracks:{items:[...]}} search envelope.
type searchResponse struct {
	Tracks struct {
		Items []wireTrack `json:"items"`
	} `json:"tracks"`
}

// wireFeatures mirrors the audio-features JSON object.
type wireFeatures struct {
	Energy  float64 `json:"energy"`
	Valence float64 `json:"valence"`
	Tempo   float64 `json:"tempo"`
}

func (w wireTrack) toSummary() TrackSummary {
	artists := make([]string, len(w.Artists))
	for i, a := range w.Artists {
		artists[i] = a.Name
	}

	var image string
	if len(w.Album.Images) > 0 {
		image = w.Album.Images[0].URL
	}

	var preview string
	if w.PreviewURL != nil {
		preview = *w.PreviewURL
	}

	return TrackSummary{
		ID:            w.ID,
		Name:          w.Name,
		Artists:       artists,
		AlbumName:     w.Album.Name,
		AlbumImageURL: image,
		GenreTags:     w.Album.Genres,
		Popularity:    w.Popularity,
		PreviewURL:    preview,
		ExternalURL:   w.ExternalURLs.Spotify,
	}
}

// summaryFromFullTrack converts a track from the direct catalog API.
func summaryFromFullTrack(t spotify.FullTrack) TrackSummary {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	var image string
	if len(t.Album.Images) > 0 {
		image = t.Album.Images[0].URL
	}

	return TrackSummary{
		ID:            t.ID.String(),
		Name:          t.Name,
		Artists:       artists,
		AlbumName:     t.Album.Name,
		AlbumImageURL: image,
		Popularity:    int(t.Popularity),
		PreviewURL:    t.PreviewURL,
		ExternalURL:   t.ExternalURLs["spotify"],
	}
}
