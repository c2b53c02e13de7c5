package catalog

// placeholderTracks is the demo-safe result set served when every search tier
// is exhausted. The ranking step downstream tolerates it like any other batch.
func placeholderTracks() []TrackSummary {
	return []TrackSummary{
		{
			ID:            "placeholder-1",
			Name:          "Sample Track 1",
			Artists:       []string{"Sample Artist"},
			AlbumImageURL: "https://via.placeholder.com/300x300/9370DB/FFFFFF?text=Track+1",
			ExternalURL:   "#",
		},
		{
			ID:            "placeholder-2",
			Name:          "Sample Track 2",
			Artists:       []string{"Sample Artist 2"},
			AlbumImageURL: "https://via.placeholder.com/300x300/9370DB/FFFFFF?text=Track+2",
			ExternalURL:   "#",
		},
	}
}
