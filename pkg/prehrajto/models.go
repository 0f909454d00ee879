package prehrajto

// ResultItem is one row of a search listing.
type ResultItem struct {
	// DisplayTitle is the row title followed by "[size - duration]".
	DisplayTitle string `json:"display_title"`
	DetailURL    string `json:"detail_url"`
}

// StreamCandidate is a playable URL recovered from a detail page.
type StreamCandidate struct {
	DirectURL    string `json:"direct_url"`
	SubtitleURL  string `json:"subtitle_url,omitempty"`
	SubtitleLang string `json:"subtitle_lang,omitempty"`
	QualityLabel string `json:"quality_label,omitempty"`
}

// SearchOptions qualifies a search. Title is the original query the variants
// were derived from and keys the result cache; it defaults to the first query.
type SearchOptions struct {
	Title   string
	Kind    string
	Season  int
	Episode int
	Year    string
}
