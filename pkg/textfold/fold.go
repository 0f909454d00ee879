// Package textfold strips diacritics from titles so they match search indexes
// that store unaccented text.
package textfold

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/unicode/norm"
)

// foldTable maps every supported accented letter to a single ASCII letter.
var foldTable = map[rune]rune{
	'á': 'a', 'ä': 'a', 'à': 'a', 'â': 'a', 'ã': 'a', 'å': 'a', 'ą': 'a',
	'Á': 'A', 'Ä': 'A', 'À': 'A', 'Â': 'A', 'Ã': 'A', 'Å': 'A', 'Ą': 'A',
	'č': 'c', 'ç': 'c', 'ć': 'c',
	'Č': 'C', 'Ç': 'C', 'Ć': 'C',
	'ď': 'd', 'Ď': 'D',
	'é': 'e', 'ě': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e', 'ę': 'e',
	'É': 'E', 'Ě': 'E', 'È': 'E', 'Ê': 'E', 'Ë': 'E', 'Ę': 'E',
	'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i',
	'Í': 'I', 'Ì': 'I', 'Î': 'I', 'Ï': 'I',
	'ĺ': 'l', 'ľ': 'l', 'ł': 'l',
	'Ĺ': 'L', 'Ľ': 'L', 'Ł': 'L',
	'ň': 'n', 'ñ': 'n', 'ń': 'n',
	'Ň': 'N', 'Ñ': 'N', 'Ń': 'N',
	'ó': 'o', 'ô': 'o', 'ö': 'o', 'ò': 'o', 'õ': 'o', 'ø': 'o', 'ő': 'o',
	'Ó': 'O', 'Ô': 'O', 'Ö': 'O', 'Ò': 'O', 'Õ': 'O', 'Ø': 'O', 'Ő': 'O',
	'ŕ': 'r', 'ř': 'r',
	'Ŕ': 'R', 'Ř': 'R',
	'š': 's', 'ś': 's',
	'Š': 'S', 'Ś': 'S',
	'ť': 't', 'Ť': 'T',
	'ú': 'u', 'ů': 'u', 'ü': 'u', 'ù': 'u', 'û': 'u', 'ű': 'u',
	'Ú': 'U', 'Ů': 'U', 'Ü': 'U', 'Ù': 'U', 'Û': 'U', 'Ű': 'U',
	'ý': 'y', 'ÿ': 'y',
	'Ý': 'Y', 'Ÿ': 'Y',
	'ž': 'z', 'ź': 'z', 'ż': 'z',
	'Ž': 'Z', 'Ź': 'Z', 'Ż': 'Z',
}

// Fold replaces accented letters with their ASCII base letter. The result
// has exactly as many runes as the input and Fold(Fold(s)) == Fold(s).
func Fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		b.WriteRune(FoldRune(r))
	}
	return b.String()
}

// FoldRune folds a single rune. Letters missing from the table are folded
// when their canonical decomposition is one ASCII letter plus combining marks;
// anything else is returned unchanged.
func FoldRune(r rune) rune {
	if r < unicode.MaxASCII {
		return r
	}
	if f, ok := foldTable[r]; ok {
		return f
	}
	decomposed := []rune(norm.NFD.String(string(r)))
	if len(decomposed) < 2 || decomposed[0] >= unicode.MaxASCII || !unicode.IsLetter(decomposed[0]) {
		return r
	}
	for _, m := range decomposed[1:] {
		if !unicode.Is(unicode.Mn, m) {
			return r
		}
	}
	return decomposed[0]
}

// IsFolded reports whether s has no foldable rune left.
func IsFolded(s string) bool {
	for _, r := range s {
		if FoldRune(r) != r {
			return false
		}
	}
	return true
}

// HasNonLatin reports whether s contains letters from a non-Latin script,
// such as Cyrillic or CJK titles returned by the metadata service.
func HasNonLatin(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return true
		}
	}
	return false
}

// Romanize transliterates s to ASCII and collapses whitespace.
func Romanize(s string) string {
	ascii := strings.TrimSpace(unidecode.Unidecode(s))
	return strings.Join(strings.Fields(ascii), " ")
}
