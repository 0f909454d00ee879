package prehrajto

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	sourcesDeclRegex = regexp.MustCompile(`(?s)(?:var|let|const)\s+sources\s*=\s*\[(.*?)\]\s*;`)
	sourceObjRegex   = regexp.MustCompile(`(?s)\{[^{}]*\}`)
	fileFieldRegex   = regexp.MustCompile(`\bfile["']?\s*:\s*["']([^"']+)["']`)
	srcFieldRegex    = regexp.MustCompile(`\bsrc["']?\s*:\s*["']([^"']+)["']`)
	labelFieldRegex  = regexp.MustCompile(`\b(?:label|res)["']?\s*:\s*(?:"([^"]*)"|'([^']*)'|([^"',}\s]+))`)
)

// RecognizeSources finds an inline "var sources = [...]" declaration and
// returns every file/src URL in it, in declaration order, byte for byte.
func RecognizeSources(doc *goquery.Document) []StreamCandidate {
	var found []StreamCandidate
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = parseSourcesScript(s.Text())
		return len(found) == 0
	})
	return found
}

func parseSourcesScript(script string) []StreamCandidate {
	m := sourcesDeclRegex.FindStringSubmatch(script)
	if m == nil {
		return nil
	}
	body := m[1]

	var out []StreamCandidate
	seen := make(map[string]bool)
	add := func(u, label string) {
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		out = append(out, StreamCandidate{DirectURL: u, QualityLabel: label})
	}

	for _, obj := range sourceObjRegex.FindAllString(body, -1) {
		add(sourceURL(obj), sourceLabel(obj))
	}
	if len(out) == 0 {
		add(sourceURL(body), "")
	}
	return out
}

// sourceURL prefers the file field over src, matching player conventions.
func sourceURL(s string) string {
	if u := firstGroup(fileFieldRegex, s); u != "" {
		return u
	}
	return firstGroup(srcFieldRegex, s)
}

// sourceLabel reads a quoted label whole, or a bare one up to the next delimiter.
func sourceLabel(s string) string {
	m := labelFieldRegex.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	for _, g := range m[1:] {
		if g = strings.TrimSpace(g); g != "" {
			return g
		}
	}
	return ""
}

func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// RecognizeVideoElement reads a native <video> source, resolved against pageURL.
func RecognizeVideoElement(doc *goquery.Document, pageURL *url.URL) []StreamCandidate {
	for _, sel := range []string{"video source[src]", "#video-wrap video[src]", "video[src]"} {
		src, ok := doc.Find(sel).First().Attr("src")
		if !ok || strings.TrimSpace(src) == "" {
			continue
		}
		if u := resolveURL(pageURL, src); u != "" {
			label, _ := doc.Find(sel).First().Attr("label")
			return []StreamCandidate{{DirectURL: u, QualityLabel: strings.TrimSpace(label)}}
		}
	}
	return nil
}

// PlayerLinks lists the alternative player tabs of a detail page.
func PlayerLinks(doc *goquery.Document, pageURL *url.URL) []string {
	var links []string
	seen := make(map[string]bool)
	doc.Find("div.tabs__control-players a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u := resolveURL(pageURL, href)
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		links = append(links, u)
	})
	return links
}
