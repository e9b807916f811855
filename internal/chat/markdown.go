package chat

import (
	"regexp"

	"github.com/charmbracelet/lipgloss"
)

var (
	boldPattern   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern = regexp.MustCompile(`\*(.*?)\*`)
)

// MarkdownRenderer converts the bold and italic subset of markdown that
// assistant responses use into styled terminal text. The style functions
// are injectable so rendering stays testable without a terminal.
type MarkdownRenderer struct {
	Bold   func(string) string
	Italic func(string) string
}

// NewMarkdownRenderer returns a renderer backed by lipgloss styles.
func NewMarkdownRenderer() *MarkdownRenderer {
	bold := lipgloss.NewStyle().Bold(true)
	italic := lipgloss.NewStyle().Italic(true)
	return &MarkdownRenderer{
		Bold:   func(s string) string { return bold.Render(s) },
		Italic: func(s string) string { return italic.Render(s) },
	}
}

// Render applies bold before italic so that "**x**" is consumed as bold
// and never half-matched as two italic spans. Newlines pass through
// untouched.
func (r *MarkdownRenderer) Render(text string) string {
	out := boldPattern.ReplaceAllStringFunc(text, func(m string) string {
		return r.Bold(boldPattern.FindStringSubmatch(m)[1])
	})
	out = italicPattern.ReplaceAllStringFunc(out, func(m string) string {
		return r.Italic(italicPattern.FindStringSubmatch(m)[1])
	})
	return out
}
