package prehrajto

import (
	"bytes"
	"context"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// page is a fetched detail page handed to each recognizer.
type page struct {
	url *url.URL
	doc *goquery.Document
}

// recognizer returns the candidates it can read from a page, or nil.
type recognizer struct {
	name string
	fn   func(ctx context.Context, p *page) []StreamCandidate
}

func (c *Client) recognizers() []recognizer {
	return []recognizer{
		{name: "sources", fn: func(_ context.Context, p *page) []StreamCandidate {
			return RecognizeSources(p.doc)
		}},
		{name: "video", fn: func(_ context.Context, p *page) []StreamCandidate {
			return RecognizeVideoElement(p.doc, p.url)
		}},
		{name: "players", fn: c.recognizePlayerPages},
	}
}

// StreamCacheKey builds the cache key for a detail page. Premium lookups
// are keyed apart so an anonymous result never masks a download link.
func StreamCacheKey(detailURL string, premium bool) string {
	if premium {
		return "stream:" + detailURL + ":premium"
	}
	return "stream:" + detailURL
}

// Extract fetches a detail page and recovers its direct media URLs. When
// session is authenticated, its download redirect overrides the page
// candidates. The second result is false when nothing playable was found.
func (c *Client) Extract(ctx context.Context, detailURL string, session *Session) ([]StreamCandidate, bool) {
	premium := session.Authenticated()
	cacheKey := StreamCacheKey(detailURL, premium)
	if c.cache != nil {
		if data, found := c.cache.Get(cacheKey); found {
			if cands, ok := data.([]StreamCandidate); ok {
				c.logger.Debugf("[Prehrajto] stream cache hit for %s", detailURL)
				return cands, true
			}
		}
	}

	p, err := c.loadPage(ctx, detailURL, c.baseURL+"/")
	if err != nil {
		c.logger.Warnf("[Prehrajto] failed to load detail page: %v", err)
		return nil, false
	}

	var candidates []StreamCandidate
	for _, r := range c.recognizers() {
		if candidates = r.fn(ctx, p); len(candidates) > 0 {
			c.logger.Debugf("[Prehrajto] %s recognizer matched %s", r.name, detailURL)
			break
		}
	}

	if premium {
		if direct, err := session.DownloadURL(ctx, detailURL); err != nil {
			c.logger.Warnf("[Prehrajto] premium download failed for %s: %v", detailURL, err)
		} else {
			candidates = []StreamCandidate{{DirectURL: direct, QualityLabel: "premium"}}
		}
	}

	if len(candidates) == 0 {
		c.logger.Warnf("[Prehrajto] no stream URL found on %s", detailURL)
		return nil, false
	}

	if sub, ok := RecognizeSubtitle(p.doc); ok {
		subURL := resolveURL(p.url, sub.URL)
		for i := range candidates {
			candidates[i].SubtitleURL = subURL
			candidates[i].SubtitleLang = sub.Lang
		}
	}

	if c.cache != nil {
		c.cache.Set(cacheKey, candidates)
	}
	return candidates, true
}

// recognizePlayerPages follows the alternative player tabs and applies the
// sources recognizer to each, stopping at the first hit.
func (c *Client) recognizePlayerPages(ctx context.Context, p *page) []StreamCandidate {
	for _, link := range PlayerLinks(p.doc, p.url) {
		c.logger.Debugf("[Prehrajto] trying player page %s", link)
		player, err := c.loadPage(ctx, link, p.url.String())
		if err != nil {
			c.logger.Warnf("[Prehrajto] failed to load player page: %v", err)
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		if cands := RecognizeSources(player.doc); len(cands) > 0 {
			return cands
		}
	}
	return nil
}

func (c *Client) loadPage(ctx context.Context, rawURL, referer string) (*page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &Error{Stage: StageFetch, URL: rawURL, Err: err}
	}
	body, err := c.fetch(ctx, rawURL, referer)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Stage: StageParse, URL: rawURL, Err: err}
	}
	return &page{url: u, doc: doc}, nil
}
