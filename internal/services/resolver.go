package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/amaumene/gostremiocz/internal/constants"
	apperrors "github.com/amaumene/gostremiocz/internal/errors"
	"github.com/amaumene/gostremiocz/internal/models"
	"github.com/amaumene/gostremiocz/pkg/logger"
	"github.com/amaumene/gostremiocz/pkg/prehrajto"
)

// TitleResolver turns an identifier into a title.
type TitleResolver interface {
	Resolve(ctx context.Context, id models.MediaIdentifier) (*models.TitleInfo, error)
}

// ResultSearcher runs query variants against the listing.
type ResultSearcher interface {
	Search(ctx context.Context, queries []string, opts prehrajto.SearchOptions) []prehrajto.ResultItem
}

// StreamExtractor recovers direct URLs from a detail page.
type StreamExtractor interface {
	Extract(ctx context.Context, detailURL string, session *prehrajto.Session) ([]prehrajto.StreamCandidate, bool)
}

// Resolver is the identifier-to-streams pipeline. Every stage failure
// degrades to fewer streams; Resolve never returns an error.
type Resolver struct {
	titles  TitleResolver
	search  ResultSearcher
	extract StreamExtractor
	workers int
	logger  logger.Logger
}

func NewResolver(titles TitleResolver, search ResultSearcher, extract StreamExtractor, workers int, log logger.Logger) *Resolver {
	if workers <= 0 {
		workers = constants.ExtractGoroutines
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Resolver{
		titles:  titles,
		search:  search,
		extract: extract,
		workers: workers,
		logger:  log,
	}
}

// WithTitles returns a copy of r resolving titles through titles.
func (r *Resolver) WithTitles(titles TitleResolver) *Resolver {
	clone := *r
	clone.titles = titles
	return &clone
}

// Resolve parses kind/id, resolves the title, searches and extracts. A nil
// session means anonymous extraction.
func (r *Resolver) Resolve(ctx context.Context, kind, id string, session *prehrajto.Session) []models.Stream {
	start := time.Now()
	mid := models.ParseIdentifier(kind, id)

	info, err := r.titles.Resolve(ctx, mid)
	if err != nil {
		r.logTitleError(mid, err)
		return []models.Stream{}
	}

	queries := GenerateQueries(*info, mid.Kind)
	r.logger.Debugf("[Resolver] %d query variants for %s", len(queries), mid)
	if len(queries) == 0 {
		return []models.Stream{}
	}

	items := r.search.Search(ctx, queries, prehrajto.SearchOptions{
		Title:   info.LocalizedTitle,
		Kind:    mid.Kind,
		Season:  mid.Season,
		Episode: mid.Episode,
		Year:    info.Year,
	})
	if len(items) == 0 {
		r.logger.Infof("[Resolver] no listing rows for %s (%q)", mid, info.LocalizedTitle)
		return []models.Stream{}
	}

	perItem := r.extractAll(ctx, items, session)

	streams := make([]models.Stream, 0, len(items))
	for i, cands := range perItem {
		for _, c := range cands {
			streams = append(streams, toStream(items[i], c))
		}
	}

	r.logger.Infof("[Resolver] %d streams for %s from %d rows in %v", len(streams), mid, len(items), time.Since(start).Round(time.Millisecond))
	return streams
}

// extractAll runs the extractor over items with bounded concurrency and
// keeps the listing order in its result.
func (r *Resolver) extractAll(ctx context.Context, items []prehrajto.ResultItem, session *prehrajto.Session) [][]prehrajto.StreamCandidate {
	results := make([][]prehrajto.StreamCandidate, len(items))

	p := pool.New().WithMaxGoroutines(r.workers)
	for i, item := range items {
		i, item := i, item
		p.Go(func() {
			if ctx.Err() != nil {
				return
			}
			cands, ok := r.extract.Extract(ctx, item.DetailURL, session)
			if !ok {
				r.logger.Debugf("[Resolver] dropping %s: no stream", item.DetailURL)
				return
			}
			results[i] = cands
		})
	}
	p.Wait()

	return results
}

func (r *Resolver) logTitleError(mid models.MediaIdentifier, err error) {
	switch {
	case apperrors.IsType(err, apperrors.ErrorTypeInvalidID):
		r.logger.Warnf("[Resolver] rejected identifier %q: %v", mid.RawID, err)
	case apperrors.IsType(err, apperrors.ErrorTypeMetadataNotFound):
		r.logger.Infof("[Resolver] no metadata for %s", mid)
	default:
		r.logger.Errorf("[Resolver] title lookup failed for %s: %v", mid, err)
	}
}

func toStream(item prehrajto.ResultItem, c prehrajto.StreamCandidate) models.Stream {
	label := c.QualityLabel
	if label == "" {
		label = prehrajto.ResolutionLabel(item.DisplayTitle)
	}
	name := constants.AddonName
	if label != "" {
		name = fmt.Sprintf("%s\n%s", constants.AddonName, label)
	}

	s := models.Stream{
		Name:  name,
		Title: item.DisplayTitle,
		URL:   c.DirectURL,
		BehaviorHints: &models.StreamBehaviorHints{
			BingeGroup: "prehrajto",
		},
	}
	if c.SubtitleURL != "" {
		lang := c.SubtitleLang
		if lang == "" {
			lang = constants.DefaultSubtitleLang
		}
		s.Subtitles = []models.Subtitle{{ID: c.SubtitleURL, URL: c.SubtitleURL, Lang: lang}}
	}
	return s
}
