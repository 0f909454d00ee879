package prehrajto

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cehbz/torrentname"
)

const unknownTag = "?"

// rowSelectors lists the listing markups seen on the site, newest last.
// The first selector matching at least one row wins.
var rowSelectors = []string{
	".video-list .video",
	"a.video--link",
}

// Search runs queries in order and returns the rows of the first query that
// yields at least one result, capped at the configured maximum. Page fetch
// failures are logged and skipped.
func (c *Client) Search(ctx context.Context, queries []string, opts SearchOptions) []ResultItem {
	if len(queries) == 0 {
		return nil
	}
	if opts.Title == "" {
		opts.Title = queries[0]
	}

	cacheKey := SearchCacheKey(opts)
	if c.cache != nil {
		if data, found := c.cache.Get(cacheKey); found {
			if items, ok := data.([]ResultItem); ok {
				c.logger.Debugf("[Prehrajto] search cache hit for %s", cacheKey)
				return items
			}
		}
	}

	var items []ResultItem
	for _, query := range queries {
		if ctx.Err() != nil {
			break
		}
		items = c.searchQuery(ctx, query, opts)
		if len(items) > 0 {
			c.logger.Infof("[Prehrajto] query %q returned %d items", query, len(items))
			break
		}
		c.logger.Debugf("[Prehrajto] no results for query %q", query)
	}

	if len(items) > 0 && c.cache != nil {
		c.cache.Set(cacheKey, items)
	}
	return items
}

// SearchCacheKey builds the cache key for a search.
func SearchCacheKey(opts SearchOptions) string {
	return fmt.Sprintf("search:%s:%s:%d:%d:%s", opts.Title, opts.Kind, opts.Season, opts.Episode, opts.Year)
}

func (c *Client) searchQuery(ctx context.Context, query string, opts SearchOptions) []ResultItem {
	var items []ResultItem
	seen := make(map[string]bool)

	for page := 1; page <= c.maxPages && len(items) < c.maxResults; page++ {
		pageURL := c.searchURL(query, page)
		c.logger.Debugf("[Prehrajto] fetching %s", pageURL)

		body, err := c.fetch(ctx, pageURL, c.baseURL)
		if err != nil {
			c.logger.Warnf("[Prehrajto] failed to fetch results page %d for %q: %v", page, query, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		rows, hasMore, err := ParseListing(body, c.base)
		if err != nil {
			c.logger.Warnf("[Prehrajto] failed to parse results page %d for %q: %v", page, query, err)
			break
		}
		if len(rows) == 0 {
			break
		}

		for _, row := range rows {
			if len(items) >= c.maxResults {
				break
			}
			if seen[row.DetailURL] || !matchesEpisode(row.DisplayTitle, opts) {
				continue
			}
			seen[row.DetailURL] = true
			items = append(items, row)
		}

		if !hasMore {
			break
		}
	}
	return items
}

func (c *Client) searchURL(query string, page int) string {
	return fmt.Sprintf("%s/hledej/%s?vp-page=%d", c.baseURL, url.PathEscape(query), page)
}

// ParseListing extracts result rows from a search page and reports whether a
// "more results" control is present. Relative links are resolved against base.
func ParseListing(html []byte, base *url.URL) ([]ResultItem, bool, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, false, &Error{Stage: StageParse, Err: err}
	}

	var rows *goquery.Selection
	for _, sel := range rowSelectors {
		rows = doc.Find(sel)
		if rows.Length() > 0 {
			break
		}
	}

	var items []ResultItem
	rows.Each(func(_ int, s *goquery.Selection) {
		href := rowLink(s)
		if href == "" {
			return
		}
		title := rowTitle(s)
		size := textOr(s.Find(".video__tag--size").First(), unknownTag)
		duration := textOr(s.Find(".video__tag--time").First(), unknownTag)

		items = append(items, ResultItem{
			DisplayTitle: fmt.Sprintf("%s [%s - %s]", title, size, duration),
			DetailURL:    resolveURL(base, href),
		})
	})

	hasMore := doc.Find(".pagination-more").Length() > 0
	return items, hasMore, nil
}

func rowLink(s *goquery.Selection) string {
	if goquery.NodeName(s) == "a" {
		href, _ := s.Attr("href")
		return strings.TrimSpace(href)
	}
	href, _ := s.Find("a[href]").First().Attr("href")
	return strings.TrimSpace(href)
}

func rowTitle(s *goquery.Selection) string {
	for _, sel := range []string{".info .title", ".video__title", ".title"} {
		if t := normSpace(s.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	if t, ok := s.Attr("title"); ok {
		return normSpace(t)
	}
	return normSpace(s.Find("a").First().AttrOr("title", ""))
}

func textOr(s *goquery.Selection, fallback string) string {
	if t := normSpace(s.Text()); t != "" {
		return t
	}
	return fallback
}

func normSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// matchesEpisode drops series rows whose release name names a different
// season/episode than the one requested. Rows without markers are kept.
func matchesEpisode(title string, opts SearchOptions) bool {
	if opts.Kind != "series" || opts.Season == 0 || opts.Episode == 0 {
		return true
	}
	parsed := torrentname.Parse(title)
	if parsed == nil || parsed.Season == 0 || parsed.Episode == 0 {
		return true
	}
	return parsed.Season == opts.Season && parsed.Episode == opts.Episode
}

// ResolutionLabel reads a resolution tag such as "1080p" from a row title.
func ResolutionLabel(title string) string {
	if parsed := torrentname.Parse(title); parsed != nil {
		return parsed.Resolution
	}
	return ""
}
