package roster

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// removeDiacritics strips combining marks ("Jiří" -> "Jiri").
func removeDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// foldName normalizes a name for matching and ordering: no diacritics,
// lowercase, dashes as spaces.
func foldName(name string) string {
	name = strings.ToLower(removeDiacritics(name))
	return strings.ReplaceAll(name, "-", " ")
}
