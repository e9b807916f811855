package ux

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Veerbhadra0524/lumina/internal/models"
)

func newTestTerminal() (*Terminal, *strings.Builder) {
	var buf strings.Builder
	t := NewTerminal(&buf, false)
	t.now = func() time.Time {
		return time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	}
	return t, &buf
}

func TestAppendMessageRendersRoles(t *testing.T) {
	term, buf := newTestTerminal()

	term.AppendMessage(models.Message{Role: models.RoleUser, Content: "What is the pro plan?"})
	term.AppendMessage(models.Message{Role: models.RoleAssistant, Content: "The pro plan is $20."})

	out := buf.String()
	assert.Contains(t, out, "You:")
	assert.Contains(t, out, "What is the pro plan?")
	assert.Contains(t, out, "Assistant:")
	assert.Contains(t, out, "The pro plan is $20.")
}

func TestAppendMessageRendersSourcesAndConfidence(t *testing.T) {
	term, buf := newTestTerminal()

	page := 12
	term.AppendMessage(models.Message{
		Role:       models.RoleAssistant,
		Content:    "See the pricing chapter.",
		Confidence: 0.915,
		Sources: []models.Source{
			{Document: "handbook.pdf", PageNumber: &page, Confidence: 0.88},
			{Document: "faq.md"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "confidence: 91.5%")
	assert.Contains(t, out, "handbook.pdf, p. 12 (88.0%)")
	assert.Contains(t, out, "faq.md")
	assert.NotContains(t, out, "faq.md,", "no page suffix when the page is unknown")
}

func TestLocalMessageHasNoSources(t *testing.T) {
	term, buf := newTestTerminal()

	term.AppendMessage(models.Message{
		Role:    models.RoleAssistant,
		Content: "Sorry, I'm having trouble connecting to the server. Please try again.",
		Local:   true,
	})

	out := buf.String()
	assert.Contains(t, out, "having trouble connecting")
	assert.NotContains(t, out, "confidence:")
}

func TestRenderHistory(t *testing.T) {
	term, buf := newTestTerminal()

	now := term.now()
	term.RenderHistory([]models.HistoryEntry{
		{ConversationID: "c1", Title: "Pricing questions", MessageCount: 4, UpdatedAt: now.Add(-2 * time.Minute)},
		{ConversationID: "c2", Title: "", MessageCount: 1, UpdatedAt: now.Add(-3 * 24 * time.Hour)},
	}, "c1")

	out := buf.String()
	assert.Contains(t, out, "1. Pricing questions")
	assert.Contains(t, out, "4 messages · 2m ago")
	assert.Contains(t, out, "2. (untitled)")
	assert.Contains(t, out, "1 messages · 3d ago")
}

func TestRenderHistoryEmpty(t *testing.T) {
	term, buf := newTestTerminal()
	term.RenderHistory(nil, "")
	assert.Contains(t, buf.String(), "No conversations yet.")
}

func TestNonInteractiveTypingIsStatic(t *testing.T) {
	term, buf := newTestTerminal()

	term.SetTyping(true)
	term.SetTyping(false)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "Assistant is typing..."))
}
