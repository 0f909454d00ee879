package services

import (
	"fmt"
	"strings"

	"github.com/amaumene/gostremiocz/internal/models"
	"github.com/amaumene/gostremiocz/pkg/textfold"
)

const (
	languageTag   = "CZ"
	dubbingTag    = "CZ dabing"
	resolutionTag = "1080p"
	topQualityTag = "4K"
)

// GenerateQueries returns the search strings for info, most specific first.
// The result is never empty for a non-empty title and holds no duplicates.
func GenerateQueries(info models.TitleInfo, kind string) []string {
	var qs querySet
	titles := titleVariants(info)

	if kind == models.KindSeries && info.HasEpisode() {
		tags := episodeTags(info.Season, info.Episode)
		for _, suffix := range []string{"", languageTag} {
			for _, title := range titles {
				for _, tag := range tags {
					qs.add(title, tag, suffix)
				}
			}
		}
		for _, title := range titles {
			qs.add(title)
		}
		return qs.list
	}

	var bases []string
	for _, title := range titles {
		bases = append(bases, title, normalizeAmpersand(title))
	}
	for _, suffix := range []string{info.Year, dubbingTag, languageTag, resolutionTag, topQualityTag, ""} {
		for _, base := range bases {
			qs.add(base, suffix)
		}
	}
	return qs.list
}

// titleVariants lists the localized and canonical titles with their folded
// and, for non-Latin scripts, romanized forms.
func titleVariants(info models.TitleInfo) []string {
	var out []string
	for _, t := range []string{info.LocalizedTitle, info.CanonicalTitle} {
		t = normalizeSpace(t)
		if t == "" {
			continue
		}
		out = append(out, t, textfold.Fold(t))
		if textfold.HasNonLatin(t) {
			out = append(out, textfold.Romanize(t))
		}
	}
	return out
}

func episodeTags(season, episode int) []string {
	return []string{
		fmt.Sprintf("S%02dE%02d", season, episode),
		fmt.Sprintf("%dx%02d", season, episode),
		fmt.Sprintf("Ep %02d", episode),
		fmt.Sprintf("Episode %02d", episode),
	}
}

// normalizeAmpersand spells "&" the Czech way.
func normalizeAmpersand(s string) string {
	return normalizeSpace(strings.ReplaceAll(s, "&", " a "))
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// querySet keeps the first occurrence of each whitespace-normalized query.
type querySet struct {
	list []string
	seen map[string]bool
}

func (q *querySet) add(parts ...string) {
	s := normalizeSpace(strings.Join(parts, " "))
	if s == "" {
		return
	}
	if q.seen == nil {
		q.seen = make(map[string]bool)
	}
	if q.seen[s] {
		return
	}
	q.seen[s] = true
	q.list = append(q.list, s)
}
