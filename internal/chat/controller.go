// Package chat owns the conversation state: optimistic message sends, the
// single-flight guard, conversation identity adoption, and transcript
// replay.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/Veerbhadra0524/lumina/internal/backend"
	"github.com/Veerbhadra0524/lumina/internal/models"
)

var (
	// ErrSendInFlight is returned while a previous send is still waiting on
	// the backend. The transcript stays untouched.
	ErrSendInFlight = errors.New("send already in flight")

	// ErrEmptyMessage is returned for input that is empty after trimming.
	ErrEmptyMessage = errors.New("empty message")
)

// Sender is the backend surface the controller needs for sends.
type Sender interface {
	Send(ctx context.Context, message string, conversationID string) (*backend.SendResult, error)
}

// Transcript is the rendered conversation view the controller drives.
type Transcript interface {
	AppendMessage(msg models.Message)
	Clear()
	ShowWelcome()
	SetTyping(active bool)
}

// Controller holds the active conversation. A nil conversation ID means
// the next send creates a new conversation on the backend; the returned
// id is adopted and every later send carries it.
type Controller struct {
	sender     Sender
	transcript Transcript
	logger     *slog.Logger

	mu             sync.Mutex
	conversationID string
	title          string
	messageCount   int
	pending        bool

	onAdopted func(conversationID string)
}

// New creates a controller with no active conversation.
func New(sender Sender, transcript Transcript, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		sender:     sender,
		transcript: transcript,
		logger:     logger,
	}
}

// OnConversationAdopted registers a callback invoked after a send to a new
// conversation receives its backend-assigned id.
func (c *Controller) OnConversationAdopted(fn func(conversationID string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAdopted = fn
}

// ConversationID returns the adopted conversation id, empty when the next
// send will create a new conversation.
func (c *Controller) ConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversationID
}

// Title returns the local title of the active conversation.
func (c *Controller) Title() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.title
}

// MessageCount returns the number of messages in the transcript, local
// failure notices included.
func (c *Controller) MessageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messageCount
}

// Send performs one optimistic send. The user message is appended to the
// transcript before the network call; a backend failure surfaces as a
// local assistant message rather than an error, so the user turn is never
// rolled back. Empty input and overlapping sends are rejected before
// anything is appended.
func (c *Controller) Send(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return ErrSendInFlight
	}
	c.pending = true
	conversationID := c.conversationID
	if c.title == "" {
		c.title = models.DeriveTitle(trimmed)
	}
	c.messageCount++
	c.mu.Unlock()

	c.transcript.AppendMessage(models.Message{Role: models.RoleUser, Content: trimmed})
	c.transcript.SetTyping(true)

	result, err := c.sender.Send(ctx, trimmed, conversationID)

	c.transcript.SetTyping(false)

	if err != nil {
		c.logger.Warn("send failed", "error", err, "conversation_id", conversationID)
		c.mu.Lock()
		c.pending = false
		c.messageCount++
		c.mu.Unlock()
		c.transcript.AppendMessage(models.Message{
			Role:    models.RoleAssistant,
			Content: backend.UserMessage(err),
			Local:   true,
		})
		return nil
	}

	c.mu.Lock()
	c.pending = false
	c.messageCount++
	adopted := ""
	if c.conversationID == "" && result.ConversationID != "" {
		c.conversationID = result.ConversationID
		adopted = result.ConversationID
	}
	onAdopted := c.onAdopted
	c.mu.Unlock()

	c.transcript.AppendMessage(models.Message{
		Role:       models.RoleAssistant,
		Content:    result.Response,
		Sources:    result.Sources,
		Confidence: result.Confidence,
	})

	if adopted != "" && onAdopted != nil {
		onAdopted(adopted)
	}
	return nil
}

// StartNew resets to a fresh conversation. Rejected while a send is in
// flight so the pending exchange cannot land in the wrong transcript.
func (c *Controller) StartNew() error {
	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return ErrSendInFlight
	}
	c.conversationID = ""
	c.title = ""
	c.messageCount = 0
	c.mu.Unlock()

	c.transcript.Clear()
	c.transcript.ShowWelcome()
	return nil
}

// Replay replaces the transcript with a conversation loaded from the
// backend and adopts its id. Rejected while a send is in flight.
func (c *Controller) Replay(conversationID, title string, msgs []models.Message) error {
	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return ErrSendInFlight
	}
	c.conversationID = conversationID
	c.title = title
	c.messageCount = len(msgs)
	c.mu.Unlock()

	c.transcript.Clear()
	for _, msg := range msgs {
		c.transcript.AppendMessage(msg)
	}
	return nil
}
