package models

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	KindMovie  = "movie"
	KindSeries = "series"
)

// MediaIdentifier is an inbound stream request after parsing. Season and
// Episode are zero when unknown.
type MediaIdentifier struct {
	RawID   string
	Kind    string
	Season  int
	Episode int
}

// ParseIdentifier strips the ":season:episode" suffix Stremio appends to
// series identifiers. Movie identifiers are kept verbatim so a stray suffix
// fails validation later instead of being silently dropped.
func ParseIdentifier(kind, id string) MediaIdentifier {
	kind = strings.ToLower(strings.TrimSpace(kind))
	id = strings.TrimSpace(id)
	if kind != KindSeries {
		return MediaIdentifier{RawID: id, Kind: kind}
	}

	parts := strings.Split(id, ":")
	mid := MediaIdentifier{RawID: parts[0], Kind: kind}
	if len(parts) >= 3 {
		season, errS := strconv.Atoi(parts[1])
		episode, errE := strconv.Atoi(parts[2])
		if errS == nil && errE == nil && season >= 0 && episode >= 0 {
			mid.Season = season
			mid.Episode = episode
		}
	}
	return mid
}

// HasEpisode reports whether both season and episode were supplied.
func (m MediaIdentifier) HasEpisode() bool {
	return m.Season > 0 && m.Episode > 0
}

// CacheKey is the title cache key for this identifier.
func (m MediaIdentifier) CacheKey() string {
	return fmt.Sprintf("title:%s:%s:%d:%d", m.RawID, m.Kind, m.Season, m.Episode)
}

func (m MediaIdentifier) String() string {
	if m.HasEpisode() {
		return fmt.Sprintf("%s:%d:%d", m.RawID, m.Season, m.Episode)
	}
	return m.RawID
}

// TitleInfo is the resolved title of a MediaIdentifier.
type TitleInfo struct {
	CanonicalTitle string `json:"canonical_title"`
	LocalizedTitle string `json:"localized_title"`
	Year           string `json:"year,omitempty"`
	Season         int    `json:"season,omitempty"`
	Episode        int    `json:"episode,omitempty"`
}

// HasEpisode reports whether the title targets a single episode.
func (t TitleInfo) HasEpisode() bool {
	return t.Season > 0 && t.Episode > 0
}
