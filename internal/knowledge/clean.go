package knowledge

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	hyphenBreakRegex = regexp.MustCompile(`(\p{L})-[ \t]*\r?\n[ \t]*(\p{L})`)
	pageLineRegex    = regexp.MustCompile(`(?im)^[ \t]*(?:page[ \t]+)?\d{1,4}(?:[ \t]*(?:of|/)[ \t]*\d{1,4})?[ \t]*$`)
	symbolRegex      = regexp.MustCompile(`[^\p{L}\p{M}\p{N}\p{P}\p{Sc}\p{Sm}\s]`)
	whitespaceRegex  = regexp.MustCompile(`\s+`)
)

// Clean normalizes raw document text for chunking. It applies NFKC,
// rejoins words broken across lines with a hyphen, drops page-number
// lines and non-text symbols, then collapses all whitespace to single
// spaces.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	out := norm.NFKC.String(text)
	out = hyphenBreakRegex.ReplaceAllString(out, "$1$2")
	out = pageLineRegex.ReplaceAllString(out, "")
	out = symbolRegex.ReplaceAllString(out, " ")
	out = whitespaceRegex.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
