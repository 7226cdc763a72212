// Package textclean normalizes text extracted from textbooks before chunking.
package textclean

import (
	"regexp"
	"strings"
)

var (
	spaceRe      = regexp.MustCompile(`\s+`)
	pageNumberRe = regexp.MustCompile(`\b\d{1,3}\b\s*(?:NCERT|Science|Mathematics|English)?`)
	junkRe       = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?;:()\-'"]+`)
	quotes       = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'")
)

// Clean collapses whitespace, strips page numbers and running headers, drops
// symbols outside basic punctuation and straightens curly quotes.
func Clean(text string) string {
	text = spaceRe.ReplaceAllString(text, " ")
	text = pageNumberRe.ReplaceAllString(text, "")
	text = quotes.Replace(text)
	text = junkRe.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}
