package tags

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxTagLength caps tag names so slugs stay usable in URLs.
const MaxTagLength = 50

// stripMarks decomposes accented characters and removes the combining
// marks, so "café" and "cafe" produce the same slug.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName trims and collapses whitespace in a tag name. The
// display name keeps its original casing.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// Slugify converts a tag name to its canonical URL slug. Two names that
// differ only in case, accents, or separators map to the same slug.
func Slugify(name string) string {
	folded, _, err := transform.String(stripMarks, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	pendingHyphen := false
	for _, r := range folded {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		} else {
			pendingHyphen = true
		}
	}
	return b.String()
}

// Valid reports whether a normalized tag name is acceptable.
func Valid(name string) bool {
	if name == "" || len(name) > MaxTagLength {
		return false
	}
	return Slugify(name) != ""
}
