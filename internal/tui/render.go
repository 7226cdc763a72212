package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"studymate/internal/domain"
)

// MarkdownRenderer renders assistant content. *glamour.TermRenderer
// satisfies it.
type MarkdownRenderer interface {
	Render(in string) (string, error)
}

var (
	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	userTextStyle       = lipgloss.NewStyle().PaddingLeft(2)
	assistantTextStyle  = lipgloss.NewStyle().PaddingLeft(2)
	errorTextStyle      = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("9"))
	mutedStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	onlineStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	offlineStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	busyStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	inputBoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
)

const (
	userLabel      = "🧑 You"
	assistantLabel = "📚 StudyMate"
	emptyHint      = "Ask a question about your study material to get started."
)

// RenderConversation projects messages into display text. Labels and styles
// are keyed on role; assistant content goes through md when it is non-nil.
func RenderConversation(msgs []domain.Message, md MarkdownRenderer) string {
	if len(msgs) == 0 {
		return mutedStyle.Render(emptyHint)
	}
	var sb strings.Builder
	for i, m := range msgs {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(renderMessage(m, md))
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderMessage(m domain.Message, md MarkdownRenderer) string {
	stamp := mutedStyle.Render(m.CreatedAt.Format("15:04"))
	switch {
	case m.Role == domain.RoleUser:
		return userLabelStyle.Render(userLabel) + " " + stamp + "\n" + userTextStyle.Render(m.Content)
	case m.Failed:
		return assistantLabelStyle.Render(assistantLabel) + " " + stamp + "\n" + errorTextStyle.Render(m.Content)
	default:
		return assistantLabelStyle.Render(assistantLabel) + " " + stamp + "\n" + renderMarkdown(md, m.Content)
	}
}

// renderMarkdown falls back to plain text if the renderer errors or panics.
func renderMarkdown(md MarkdownRenderer, content string) (out string) {
	plain := assistantTextStyle.Render(content)
	if md == nil || content == "" {
		return plain
	}
	defer func() {
		if r := recover(); r != nil {
			out = plain
		}
	}()
	rendered, err := md.Render(content)
	if err != nil {
		return plain
	}
	return strings.TrimRight(rendered, "\n")
}
