// Package ux renders Lumina's terminal surfaces: the auth and main views,
// the conversation transcript, and the history list.
package ux

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veerbhadra0524/lumina/internal/chat"
	"github.com/Veerbhadra0524/lumina/internal/history"
	"github.com/Veerbhadra0524/lumina/internal/models"
)

// Theme holds the color scheme for the terminal surfaces.
type Theme struct {
	User      lipgloss.Color
	Assistant lipgloss.Color
	Error     lipgloss.Color
	Hint      lipgloss.Color
	Accent    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	User:      lipgloss.Color("#5FAFD7"), // light blue
	Assistant: lipgloss.Color("#00D787"), // green
	Error:     lipgloss.Color("#FF005F"), // red
	Hint:      lipgloss.Color("#6C6C6C"), // dim gray
	Accent:    lipgloss.Color("#AF87FF"), // violet
}

func (t Theme) userStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.User).Bold(true)
}

func (t Theme) assistantStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Assistant).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) accentStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
}

// Terminal renders to a line-oriented terminal. It implements the session
// surface, the chat transcript, and the history list surface.
type Terminal struct {
	mu       sync.Mutex
	out      io.Writer
	theme    Theme
	markdown *chat.MarkdownRenderer

	// interactive enables the animated typing indicator. Off for piped
	// output and in tests.
	interactive bool
	typing      *typingIndicator

	now func() time.Time
}

// NewTerminal creates a terminal surface writing to out. interactive
// should be true only when out is a real terminal.
func NewTerminal(out io.Writer, interactive bool) *Terminal {
	return &Terminal{
		out:         out,
		theme:       defaultTheme,
		markdown:    chat.NewMarkdownRenderer(),
		interactive: interactive,
		now:         time.Now,
	}
}

// ShowAuth presents the signed-out entry point.
func (t *Terminal) ShowAuth() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, t.theme.accentStyle().Render("Lumina"))
	fmt.Fprintln(t.out, "You are signed out. Use 'lumina login' or 'lumina register' to continue.")
}

// ShowMain presents the signed-in main view.
func (t *Terminal) ShowMain(identityLabel string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out)
	fmt.Fprintf(t.out, "%s %s\n",
		t.theme.accentStyle().Render("Lumina"),
		t.theme.hintStyle().Render("signed in as "+identityLabel))
}

// ShowError prints a user-facing error line.
func (t *Terminal) ShowError(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, t.theme.errorStyle().Render("✗ "+msg))
}

// ShowWelcome prints the empty-conversation placeholder.
func (t *Terminal) ShowWelcome() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, t.theme.hintStyle().Render("Ask me anything about your documents."))
}

// Clear marks a transcript boundary. A scrolling terminal cannot unprint,
// so the boundary is a rule rather than a wipe.
func (t *Terminal) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, t.theme.hintStyle().Render("────────────────────────────────────────"))
}

// AppendMessage renders one conversation turn.
func (t *Terminal) AppendMessage(msg models.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch msg.Role {
	case models.RoleUser:
		fmt.Fprintf(t.out, "\n%s %s\n", t.theme.userStyle().Render("You:"), msg.Content)
	case models.RoleAssistant:
		label := t.theme.assistantStyle().Render("Assistant:")
		if msg.Local {
			fmt.Fprintf(t.out, "\n%s %s\n", label, t.theme.errorStyle().Render(msg.Content))
			return
		}
		fmt.Fprintf(t.out, "\n%s %s\n", label, t.markdown.Render(msg.Content))
		if msg.Confidence > 0 {
			fmt.Fprintln(t.out, t.theme.hintStyle().Render(fmt.Sprintf("  confidence: %.1f%%", msg.Confidence*100)))
		}
		for _, src := range msg.Sources {
			fmt.Fprintln(t.out, t.theme.hintStyle().Render("  "+formatSource(src)))
		}
	default:
		fmt.Fprintf(t.out, "\n%s\n", msg.Content)
	}
}

func formatSource(src models.Source) string {
	s := "• " + src.Document
	if src.PageNumber != nil {
		s += fmt.Sprintf(", p. %d", *src.PageNumber)
	}
	if src.Confidence > 0 {
		s += fmt.Sprintf(" (%.1f%%)", src.Confidence*100)
	}
	return s
}

// SetTyping starts or stops the animated "Assistant is typing" indicator.
// In non-interactive mode a single static line is printed instead.
func (t *Terminal) SetTyping(active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.interactive {
		if active {
			fmt.Fprintln(t.out, t.theme.hintStyle().Render("Assistant is typing..."))
		}
		return
	}

	if active {
		if t.typing == nil {
			t.typing = startTypingIndicator(t.theme)
		}
		return
	}
	if t.typing != nil {
		t.typing.stop()
		t.typing = nil
	}
}

// RenderHistory prints the numbered conversation list. activeID marks the
// open conversation; an empty list gets a placeholder line.
func (t *Terminal) RenderHistory(entries []models.HistoryEntry, activeID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, t.theme.accentStyle().Render("Conversations"))
	if len(entries) == 0 {
		fmt.Fprintln(t.out, t.theme.hintStyle().Render("  No conversations yet."))
		return
	}

	now := t.now()
	for i, e := range entries {
		marker := " "
		if e.ConversationID == activeID {
			marker = t.theme.accentStyle().Render("›")
		}
		title := e.Title
		if title == "" {
			title = "(untitled)"
		}
		meta := t.theme.hintStyle().Render(fmt.Sprintf("%d messages · %s",
			e.MessageCount, history.FormatTimeAgo(e.UpdatedAt, now)))
		fmt.Fprintf(t.out, "%s %2d. %s  %s\n", marker, i+1, title, meta)
	}
}
