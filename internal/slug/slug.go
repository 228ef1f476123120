// Package slug derives URL-safe identifiers from free-form titles.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Separator joins words in a slug.
const Separator = "-"

// Letters that carry no combining mark under NFKD and need an explicit ASCII fold.
var folds = map[rune]string{
	'ł': "l", 'Ł': "L",
	'đ': "d", 'Đ': "D",
	'ð': "d", 'Ð': "D",
	'ø': "o", 'Ø': "O",
	'ß': "ss", 'ẞ': "SS",
	'æ': "ae", 'Æ': "AE",
	'œ': "oe", 'Œ': "OE",
	'þ': "th", 'Þ': "TH",
	'ı': "i",
}

// Cyrillic letters, lowercase keys. Uppercase input maps through unicode.ToLower.
var cyrillic = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "shch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
	'є': "ye", 'і': "i", 'ї': "yi", 'ґ': "g", 'ў': "u", 'ј': "j",
	'ђ': "dj", 'љ': "lj", 'њ': "nj", 'ћ': "c", 'џ': "dz", 'ѓ': "g", 'ќ': "k", 'ѕ': "dz",
}

// Make returns the slug for title: ASCII only, lowercase, words joined by "-".
// Latin and Cyrillic are transliterated; other scripts are dropped.
func Make(title string) string {
	s := ASCII(title)

	s = strings.ReplaceAll(s, "_", Separator)
	s = strings.ReplaceAll(s, "@", Separator+"at"+Separator)
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSep && b.Len() > 0 {
				b.WriteString(Separator)
			}
			pendingSep = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingSep = true
		}
	}
	return b.String()
}

// ASCII transliterates s to ASCII, dropping diacritics and folding special letters.
// Runes with no ASCII equivalent are removed.
func ASCII(s string) string {
	var folded strings.Builder
	folded.Grow(len(s))
	for _, r := range s {
		if f, ok := folds[r]; ok {
			folded.WriteString(f)
			continue
		}
		if f, ok := cyrillic[unicode.ToLower(r)]; ok {
			if unicode.IsUpper(r) {
				f = strings.ToUpper(f)
			}
			folded.WriteString(f)
			continue
		}
		folded.WriteRune(r)
	}

	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, folded.String())
	if err != nil {
		stripped = folded.String()
	}

	var out strings.Builder
	out.Grow(len(stripped))
	for _, r := range stripped {
		if r < unicode.MaxASCII {
			out.WriteRune(r)
		}
	}
	return out.String()
}
