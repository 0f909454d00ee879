package prehrajto

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

const defaultSubtitleLang = "cs"

var tracksDeclRegex = regexp.MustCompile(`(?s)(?:var|let|const)\s+tracks\s*=\s*(\[.*?\])\s*;`)

// Subtitle is the first text track declared on a page.
type Subtitle struct {
	URL  string
	Lang string
}

// RecognizeSubtitle parses the "var tracks = [...]" literal with a tolerant
// JSON5 parser. Any parse error yields no subtitle.
func RecognizeSubtitle(doc *goquery.Document) (Subtitle, bool) {
	var sub Subtitle
	var ok bool
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		sub, ok = parseTracksScript(s.Text())
		return !ok
	})
	return sub, ok
}

func parseTracksScript(script string) (Subtitle, bool) {
	m := tracksDeclRegex.FindStringSubmatch(script)
	if m == nil {
		return Subtitle{}, false
	}

	var tracks []map[string]interface{}
	if err := json5.Unmarshal([]byte(relaxLiteral(m[1])), &tracks); err != nil {
		return Subtitle{}, false
	}

	for _, track := range tracks {
		src := stringField(track, "src", "file")
		if src == "" {
			continue
		}
		lang := stringField(track, "srclang", "lang")
		if lang == "" {
			lang = defaultSubtitleLang
		}
		return Subtitle{URL: src, Lang: lang}, true
	}
	return Subtitle{}, false
}

func stringField(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// relaxLiteral rewrites single-quoted strings as double-quoted ones and drops
// trailing commas so the json5 decoder accepts the literal.
func relaxLiteral(src string) string {
	var b strings.Builder
	b.Grow(len(src))

	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch ch {
		case '"':
			j := skipString(src, i)
			b.WriteString(src[i:j])
			i = j - 1
		case '\'':
			b.WriteByte('"')
			for i++; i < len(src) && src[i] != '\''; i++ {
				switch {
				case src[i] == '\\' && i+1 < len(src) && src[i+1] == '\'':
					b.WriteByte('\'')
					i++
				case src[i] == '\\' && i+1 < len(src):
					b.WriteByte('\\')
					b.WriteByte(src[i+1])
					i++
				case src[i] == '"':
					b.WriteString(`\"`)
				default:
					b.WriteByte(src[i])
				}
			}
			b.WriteByte('"')
		case ',':
			j := i + 1
			for j < len(src) && strings.IndexByte(" \t\r\n", src[j]) >= 0 {
				j++
			}
			if j < len(src) && (src[j] == ']' || src[j] == '}') {
				continue
			}
			b.WriteByte(ch)
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// skipString returns the index just past the double-quoted string at start.
func skipString(src string, start int) int {
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return len(src)
}
