// Package answer turns retrieved passages into an answer for the student.
package answer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxKeyPoints   = 5
	minPointLength = 20

	NoContextAnswer = "I apologize, but I couldn't find relevant information in the study material " +
		"to answer your question. Please try rephrasing or asking about topics covered " +
		"in the ingested textbooks."

	templateNote = "**Note:** This answer is derived directly from the study material. " +
		"If you need more details, please ask a more specific question."
)

var passageLabelRe = regexp.MustCompile(`\[Passage \d+\]\s*`)

// Template builds a structured answer from the first sentences of the
// context without calling a language model.
type Template struct{}

func (Template) Name() string { return "template" }

func (Template) Generate(_ context.Context, question, passages string) (string, error) {
	return FormatTemplate(question, passages), nil
}

// FormatTemplate lists up to five sentences of at least 21 characters taken
// from the start of passages as numbered points.
func FormatTemplate(question, passages string) string {
	if strings.TrimSpace(passages) == "" {
		return NoContextAnswer
	}
	text := passageLabelRe.ReplaceAllString(passages, "")
	pieces := strings.Split(text, ".")
	if len(pieces) > maxKeyPoints {
		pieces = pieces[:maxKeyPoints]
	}

	var b strings.Builder
	b.WriteString("Based on the study material, here's what I found about your question:\n\n")
	fmt.Fprintf(&b, "**Question:** %s\n\n", question)
	b.WriteString("**Answer:**\n\n")
	n := 0
	for _, p := range pieces {
		p = strings.Join(strings.Fields(p), " ")
		if utf8.RuneCountInString(p) <= minPointLength {
			continue
		}
		n++
		fmt.Fprintf(&b, "%d. %s.\n\n", n, p)
	}
	b.WriteString("\n" + templateNote)
	return b.String()
}
