// Package models defines the data structures shared by Lumina's controllers.
package models

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Source is a citation attached to an assistant message.
// PageNumber is nil when the backend could not attribute a page.
type Source struct {
	Document   string  `json:"document,omitempty" yaml:"document,omitempty"`
	PageNumber *int    `json:"page_number,omitempty" yaml:"page_number,omitempty"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Message is one turn in a conversation. Messages are immutable once
// rendered; the transcript is append-only from the client's perspective.
type Message struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Sources []Source `json:"sources,omitempty"`

	// Confidence is the answer-level score the backend attaches to
	// assistant turns. Zero when absent.
	Confidence float64 `json:"confidence,omitempty"`

	// Local marks an assistant-style failure line rendered by the client.
	// Local messages were never produced by the server and are not part of
	// the persisted conversation.
	Local bool `json:"-"`
}

// Conversation is a named, ordered thread of messages. ID is empty until
// the backend assigns one on the first successful send; after that the same
// ID must be used for every send in the session.
type Conversation struct {
	ID        string    `json:"conversation_id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HistoryEntry is the lightweight summary row the sidecar lists. It is a
// cache separate from any fully loaded Conversation and is reconciled by
// wholesale re-fetch after sends and loads.
type HistoryEntry struct {
	ConversationID string    `json:"conversation_id" yaml:"conversation_id"`
	Title          string    `json:"title" yaml:"title"`
	MessageCount   int       `json:"message_count" yaml:"message_count"`
	UpdatedAt      time.Time `json:"updated_at" yaml:"updated_at"`
}
