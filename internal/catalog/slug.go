package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var vietnameseD = strings.NewReplacer("đ", "d", "Đ", "D")

// Slugify lowercases name, strips diacritics and joins words with '-'.
// "Bộ định tuyến Wi-Fi 6" becomes "bo-dinh-tuyen-wi-fi-6".
func Slugify(name string) string {
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(stripper, vietnameseD.Replace(name))
	if err != nil {
		plain = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(plain) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// NormalizeSlug returns the explicit slug when provided, otherwise one derived from name.
func NormalizeSlug(explicit *string, name string) string {
	if explicit != nil && strings.TrimSpace(*explicit) != "" {
		return Slugify(*explicit)
	}
	return Slugify(name)
}
