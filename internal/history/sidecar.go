// Package history maintains the conversation list: fetching summaries from
// the backend, caching them locally for fast startup, and loading or
// deleting individual conversations.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veerbhadra0524/lumina/internal/models"
)

// Backend is the backend surface the sidecar needs.
type Backend interface {
	History(ctx context.Context) ([]models.HistoryEntry, error)
	Conversation(ctx context.Context, conversationID string) ([]models.Message, error)
	DeleteConversation(ctx context.Context, conversationID string) error
}

// ListSurface renders the conversation list. activeID marks the entry that
// is currently open, empty when none is.
type ListSurface interface {
	RenderHistory(entries []models.HistoryEntry, activeID string)
}

// Replayer receives loaded conversations. The chat controller implements
// this.
type Replayer interface {
	Replay(conversationID, title string, msgs []models.Message) error
	StartNew() error
}

// Sidecar owns the history list. The list is a cache of backend state,
// reconciled by wholesale re-fetch rather than incremental edits.
type Sidecar struct {
	backend  Backend
	surface  ListSurface
	replayer Replayer
	cache    *Cache
	logger   *slog.Logger

	mu       sync.Mutex
	entries  []models.HistoryEntry
	activeID string
}

// New creates a sidecar with an empty list. Pass a nil cache to disable
// the local snapshot.
func New(backend Backend, surface ListSurface, replayer Replayer, cache *Cache, logger *slog.Logger) *Sidecar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sidecar{
		backend:  backend,
		surface:  surface,
		replayer: replayer,
		cache:    cache,
		logger:   logger,
	}
}

// Entries returns a copy of the current list, newest first as the backend
// ordered it.
func (s *Sidecar) Entries() []models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.HistoryEntry(nil), s.entries...)
}

// Entry returns the entry at the given zero-based position.
func (s *Sidecar) Entry(index int) (models.HistoryEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.entries) {
		return models.HistoryEntry{}, false
	}
	return s.entries[index], true
}

// ActiveID returns the id of the currently open conversation, empty when
// the transcript is on a fresh conversation.
func (s *Sidecar) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// SeedFromCache renders the last persisted snapshot before the first
// backend fetch completes. Missing or unreadable snapshots are not errors.
func (s *Sidecar) SeedFromCache() {
	if s.cache == nil {
		return
	}
	entries, err := s.cache.Load()
	if err != nil {
		s.logger.Debug("history cache unavailable", "error", err)
		return
	}
	s.mu.Lock()
	s.entries = entries
	active := s.activeID
	s.mu.Unlock()
	s.surface.RenderHistory(entries, active)
}

// LoadConversations fetches the summary list and replaces the local one
// wholesale. The snapshot cache is updated best-effort.
func (s *Sidecar) LoadConversations(ctx context.Context) error {
	entries, err := s.backend.History(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	s.mu.Lock()
	s.entries = entries
	active := s.activeID
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Save(entries); err != nil {
			s.logger.Warn("saving history cache failed", "error", err)
		}
	}

	s.surface.RenderHistory(entries, active)
	return nil
}

// LoadConversation fetches a conversation's messages and replays them into
// the transcript, marking it active in the list.
func (s *Sidecar) LoadConversation(ctx context.Context, conversationID string) error {
	msgs, err := s.backend.Conversation(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("load conversation %s: %w", conversationID, err)
	}

	s.mu.Lock()
	title := ""
	for _, e := range s.entries {
		if e.ConversationID == conversationID {
			title = e.Title
			break
		}
	}
	s.mu.Unlock()

	if err := s.replayer.Replay(conversationID, title, msgs); err != nil {
		return err
	}

	s.mu.Lock()
	s.activeID = conversationID
	entries := append([]models.HistoryEntry(nil), s.entries...)
	s.mu.Unlock()
	s.surface.RenderHistory(entries, conversationID)
	return nil
}

// Refresh re-fetches the list after a send. adoptedID, when non-empty, is
// the id a new conversation just received; it becomes the active entry.
func (s *Sidecar) Refresh(ctx context.Context, adoptedID string) error {
	if adoptedID != "" {
		s.mu.Lock()
		s.activeID = adoptedID
		s.mu.Unlock()
	}
	return s.LoadConversations(ctx)
}

// Delete removes a conversation on the backend and re-fetches the list.
// Deleting the open conversation resets the transcript first so no sends
// can target a dead id.
func (s *Sidecar) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	wasActive := s.activeID == conversationID
	s.mu.Unlock()

	if wasActive {
		if err := s.replayer.StartNew(); err != nil {
			return err
		}
		s.mu.Lock()
		s.activeID = ""
		s.mu.Unlock()
	}

	if err := s.backend.DeleteConversation(ctx, conversationID); err != nil {
		return fmt.Errorf("delete conversation %s: %w", conversationID, err)
	}

	return s.LoadConversations(ctx)
}

// StartNew resets the transcript to a fresh conversation and clears the
// active marker.
func (s *Sidecar) StartNew() error {
	if err := s.replayer.StartNew(); err != nil {
		return err
	}
	s.mu.Lock()
	s.activeID = ""
	entries := append([]models.HistoryEntry(nil), s.entries...)
	s.mu.Unlock()
	s.surface.RenderHistory(entries, "")
	return nil
}
