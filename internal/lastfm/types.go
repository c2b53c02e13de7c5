package lastfm

// Tag is a weighted descriptive tag for an artist.
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count,omitempty"`
	URL   string `json:"url,omitempty"`
}

// ArtistInfo is the artist summary record. Best-effort: any field may be
// empty when the upstream omits it.
type ArtistInfo struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
	Bio  struct {
		Summary string `json:"summary,omitempty"`
	} `json:"bio,omitempty"`
	Stats struct {
		Listeners string `json:"listeners,omitempty"`
	} `json:"stats,omitempty"`
}

// Context is the enrichment result for one artist. TopTags is never nil.
type Context struct {
	Artist  *ArtistInfo `json:"artistInfo"`
	TopTags []Tag       `json:"topTags"`
}

// artistInfoResponse is the JSON response for artist.getinfo.
type artistInfoResponse struct {
	Artist *ArtistInfo `json:"artist"`
}

// topTagsResponse is the JSON response for artist.gettoptags.
type topTagsResponse struct {
	TopTags struct {
		Tag  []Tag `json:"tag"`
		Attr struct {
			Artist string `json:"artist"`
		} `json:"@attr"`
	} `json:"toptags"`
}

// apiError represents an upstream error response.
type apiError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}
