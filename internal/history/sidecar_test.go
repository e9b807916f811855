package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veerbhadra0524/lumina/internal/models"
)

type fakeHistoryBackend struct {
	mu       sync.Mutex
	entries  []models.HistoryEntry
	msgs     map[string][]models.Message
	histErr  error
	deleted  []string
	fetches  int
	loadsFor []string
}

func (f *fakeHistoryBackend) History(ctx context.Context) ([]models.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.histErr != nil {
		return nil, f.histErr
	}
	return f.entries, nil
}

func (f *fakeHistoryBackend) Conversation(ctx context.Context, id string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadsFor = append(f.loadsFor, id)
	msgs, ok := f.msgs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return msgs, nil
}

func (f *fakeHistoryBackend) DeleteConversation(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.ConversationID != id {
			kept = append(kept, e)
		}
	}
	f.entries = kept
	return nil
}

type fakeListSurface struct {
	mu      sync.Mutex
	renders int
	last    []models.HistoryEntry
	lastID  string
}

func (f *fakeListSurface) RenderHistory(entries []models.HistoryEntry, activeID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renders++
	f.last = entries
	f.lastID = activeID
}

type fakeReplayer struct {
	replayedID string
	replayed   []models.Message
	replayErr  error
	newCalls   int
}

func (f *fakeReplayer) Replay(id, title string, msgs []models.Message) error {
	if f.replayErr != nil {
		return f.replayErr
	}
	f.replayedID = id
	f.replayed = msgs
	return nil
}

func (f *fakeReplayer) StartNew() error {
	f.newCalls++
	return nil
}

func testEntries() []models.HistoryEntry {
	return []models.HistoryEntry{
		{ConversationID: "c1", Title: "Pricing questions", MessageCount: 4, UpdatedAt: time.Now()},
		{ConversationID: "c2", Title: "Chapter summaries", MessageCount: 2, UpdatedAt: time.Now().Add(-time.Hour)},
	}
}

func TestLoadConversationsReplacesList(t *testing.T) {
	be := &fakeHistoryBackend{entries: testEntries()}
	surface := &fakeListSurface{}
	s := New(be, surface, &fakeReplayer{}, nil, nil)

	require.NoError(t, s.LoadConversations(context.Background()))
	assert.Len(t, s.Entries(), 2)
	assert.Equal(t, 1, surface.renders)
	assert.Equal(t, "", surface.lastID)

	// A second load replaces wholesale, never merges.
	be.mu.Lock()
	be.entries = be.entries[:1]
	be.mu.Unlock()
	require.NoError(t, s.LoadConversations(context.Background()))
	assert.Len(t, s.Entries(), 1)
}

func TestLoadConversationReplaysAndMarksActive(t *testing.T) {
	msgs := []models.Message{
		{Role: models.RoleUser, Content: "How much is the pro plan?"},
		{Role: models.RoleAssistant, Content: "The pro plan is $20/month."},
	}
	be := &fakeHistoryBackend{entries: testEntries(), msgs: map[string][]models.Message{"c1": msgs}}
	surface := &fakeListSurface{}
	replayer := &fakeReplayer{}
	s := New(be, surface, replayer, nil, nil)
	require.NoError(t, s.LoadConversations(context.Background()))

	require.NoError(t, s.LoadConversation(context.Background(), "c1"))
	assert.Equal(t, "c1", replayer.replayedID)
	assert.Equal(t, msgs, replayer.replayed)
	assert.Equal(t, "c1", s.ActiveID())
	assert.Equal(t, "c1", surface.lastID)
}

func TestLoadConversationKeepsTranscriptOnError(t *testing.T) {
	be := &fakeHistoryBackend{entries: testEntries(), msgs: map[string][]models.Message{}}
	replayer := &fakeReplayer{}
	s := New(be, &fakeListSurface{}, replayer, nil, nil)

	err := s.LoadConversation(context.Background(), "missing")
	require.Error(t, err)
	assert.Empty(t, replayer.replayedID, "failed load must not touch the transcript")
	assert.Equal(t, "", s.ActiveID())
}

func TestRefreshAdoptsNewConversation(t *testing.T) {
	be := &fakeHistoryBackend{entries: testEntries()}
	surface := &fakeListSurface{}
	s := New(be, surface, &fakeReplayer{}, nil, nil)

	require.NoError(t, s.Refresh(context.Background(), "c1"))
	assert.Equal(t, "c1", s.ActiveID())
	assert.Equal(t, "c1", surface.lastID)
}

func TestDeleteActiveConversationResetsTranscriptFirst(t *testing.T) {
	be := &fakeHistoryBackend{entries: testEntries(), msgs: map[string][]models.Message{"c1": {}}}
	replayer := &fakeReplayer{}
	s := New(be, &fakeListSurface{}, replayer, nil, nil)
	require.NoError(t, s.LoadConversations(context.Background()))
	require.NoError(t, s.LoadConversation(context.Background(), "c1"))

	require.NoError(t, s.Delete(context.Background(), "c1"))
	assert.Equal(t, 1, replayer.newCalls)
	assert.Equal(t, []string{"c1"}, be.deleted)
	assert.Equal(t, "", s.ActiveID())
	assert.Len(t, s.Entries(), 1)
}

func TestDeleteInactiveConversationLeavesTranscript(t *testing.T) {
	be := &fakeHistoryBackend{entries: testEntries()}
	replayer := &fakeReplayer{}
	s := New(be, &fakeListSurface{}, replayer, nil, nil)
	require.NoError(t, s.LoadConversations(context.Background()))

	require.NoError(t, s.Delete(context.Background(), "c2"))
	assert.Equal(t, 0, replayer.newCalls)
	assert.Equal(t, []string{"c2"}, be.deleted)
}

func TestEntryIndexing(t *testing.T) {
	be := &fakeHistoryBackend{entries: testEntries()}
	s := New(be, &fakeListSurface{}, &fakeReplayer{}, nil, nil)
	require.NoError(t, s.LoadConversations(context.Background()))

	e, ok := s.Entry(0)
	require.True(t, ok)
	assert.Equal(t, "c1", e.ConversationID)

	_, ok = s.Entry(2)
	assert.False(t, ok)
	_, ok = s.Entry(-1)
	assert.False(t, ok)
}

func TestCacheRoundTripAndSeed(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir)
	entries := testEntries()
	require.NoError(t, cache.Save(entries))

	loaded, err := cache.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "c1", loaded[0].ConversationID)
	assert.Equal(t, 4, loaded[0].MessageCount)

	// A fresh sidecar over the same cache renders before any fetch.
	be := &fakeHistoryBackend{}
	surface := &fakeListSurface{}
	s := New(be, surface, &fakeReplayer{}, cache, nil)
	s.SeedFromCache()
	assert.Equal(t, 1, surface.renders)
	assert.Len(t, s.Entries(), 2)
	assert.Equal(t, 0, be.fetches)
}

func TestSeedFromMissingCacheIsSilent(t *testing.T) {
	surface := &fakeListSurface{}
	s := New(&fakeHistoryBackend{}, surface, &fakeReplayer{}, NewCache(t.TempDir()), nil)
	s.SeedFromCache()
	assert.Equal(t, 0, surface.renders)
}
