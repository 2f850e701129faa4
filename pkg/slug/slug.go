// Package slug builds stable identifiers from human-entered names. The report
// settings store keys per-metadata configuration under
// "metadata_conversion_<slug>_formula", so the transform must stay
// deterministic across releases.
package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^0-9a-z]+`)

// accentFold maps the latin accented characters that occur in metadata field
// names onto their base letter. Anything not covered collapses into the
// separator, which keeps keys stable even for unexpected input.
var accentFold = strings.NewReplacer(
	"à", "a", "á", "a", "â", "a", "ã", "a", "ä", "a", "å", "a",
	"ç", "c",
	"è", "e", "é", "e", "ê", "e", "ë", "e",
	"ì", "i", "í", "i", "î", "i", "ï", "i",
	"ñ", "n",
	"ò", "o", "ó", "o", "ô", "o", "õ", "o", "ö", "o", "ø", "o",
	"ù", "u", "ú", "u", "û", "u", "ü", "u",
	"ý", "y", "ÿ", "y",
	"æ", "ae", "œ", "oe", "ß", "ss",
)

// Make slugifies the given string using the provided separator.
func Make(s, separator string) string {
	s = accentFold.Replace(strings.ToLower(strings.TrimSpace(s)))
	s = nonAlnum.ReplaceAllString(s, separator)
	return strings.Trim(s, separator)
}

// Key slugifies with underscores, the form used for settings keys.
func Key(s string) string {
	return Make(s, "_")
}
