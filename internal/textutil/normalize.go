package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var caseFolder = cases.Fold()

// diacriticFolder decomposes accented letters, drops the combining marks, and
// folds halfwidth and fullwidth variants, so "Björk" and "Bjork" key the same.
var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), width.Fold, norm.NFC)

// markerPattern strips trailing edition, remaster, and explicit markers so
// "Album (2019 Remaster)" and "Album [Deluxe Edition]" normalize to "album".
var markerPattern = regexp.MustCompile(`(?i)[\(\[][^)\]]*` +
	`(remaster(ed)?|deluxe|expanded|anniversary|bonus|edition|explicit|clean|mono|stereo|remix|reissue|version)` +
	`[^)\]]*[\)\]]`)

// featPattern strips featured-artist suffixes from track titles.
var featPattern = regexp.MustCompile(`(?i)[\(\[]?\s*(feat\.?|featuring|ft\.?)\s+[^)\]]*[\)\]]?$`)

// NormalizeKey produces the canonical dedup key for artist, album, and track
// names: case-folded, diacritic-stripped, width-folded, marker-stripped,
// punctuation removed, whitespace collapsed. Two names that differ only in
// case, accents, edition markers, or punctuation map to the same key.
func NormalizeKey(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	value = markerPattern.ReplaceAllString(value, " ")
	value = featPattern.ReplaceAllString(value, " ")
	if folded, _, err := transform.String(diacriticFolder, value); err == nil {
		value = folded
	}
	value = caseFolder.String(value)

	var b strings.Builder
	b.Grow(len(value))
	prevSpace := false
	for _, r := range value {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.' || r == '/':
			if !prevSpace && b.Len() > 0 {
				b.WriteByte(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// TitleCase renders a display title from arbitrary input.
func TitleCase(value string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(value))
}
