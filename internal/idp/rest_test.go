package idp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.Handler) *HTTPProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPProvider(HTTPConfig{
		BaseURL:  srv.URL,
		CacheDir: t.TempDir(),
	})
}

func TestSignInStoresSession(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/signin", r.URL.Path)
		w.Write([]byte(`{"uid": "u1", "email": "a@b.c", "display_name": "Ada", "id_token": "tok"}`))
	}))

	cred, err := p.SignIn(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", cred.UID)
	assert.Equal(t, "Ada", cred.DisplayName)

	token, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	current := p.Current()
	require.NotNil(t, current)
	assert.Equal(t, "a@b.c", current.Email)
}

func TestSignInRejectionMapsToProviderError(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"code": "auth/wrong-password", "message": "INVALID_PASSWORD"}}`))
	}))

	_, err := p.SignIn(context.Background(), "a@b.c", "nope")
	require.Error(t, err)

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, CodeWrongPassword, perr.Code)
	assert.Equal(t, "Incorrect password.", perr.UserMessage())
}

func TestSessionRestoredAcrossInstances(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"uid": "u1", "email": "a@b.c", "id_token": "tok"}`))
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	first := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL, CacheDir: cacheDir})
	_, err := first.SignIn(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)

	// A fresh provider over the same cache dir reports the existing session.
	second := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL, CacheDir: cacheDir})
	cred := second.Current()
	require.NotNil(t, cred, "restored session should be reported at startup")
	assert.Equal(t, "u1", cred.UID)

	token, err := second.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
}

func TestSignOutClearsSessionEvenIfRevocationFails(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/signin":
			w.Write([]byte(`{"uid": "u1", "email": "a@b.c", "id_token": "tok"}`))
		case "/v1/signout":
			calls++
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": {"code": "auth/internal"}}`))
		}
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	p := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL, CacheDir: cacheDir})
	_, err := p.SignIn(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)

	err = p.SignOut(context.Background())
	require.Error(t, err, "revocation failure is reported")
	assert.Equal(t, 1, calls)
	assert.Nil(t, p.Current(), "local session is cleared regardless")

	_, err = p.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	// And nothing to restore for the next run.
	next := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL, CacheDir: cacheDir})
	assert.Nil(t, next.Current())
}

func TestUpdateDisplayNameRequiresSession(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	err := p.UpdateDisplayName(context.Background(), "Ada")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionStreamDeliversRemoteSignOut(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/events" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		// Consume the subscribe frame, then push a signed-out event.
		var sub map[string]string
		require.NoError(t, conn.ReadJSON(&sub))
		require.Equal(t, "subscribe", sub["type"])

		require.NoError(t, conn.WriteJSON(map[string]any{
			"type":    "session",
			"payload": map[string]any{"signed_in": false},
		}))
		time.Sleep(100 * time.Millisecond)
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL, CacheDir: t.TempDir()})
	defer p.Close()

	events := make(chan SessionEvent, 1)
	unsubscribe := p.SessionChanges(func(ev SessionEvent) {
		events <- ev
	})
	defer unsubscribe()

	select {
	case ev := <-events:
		assert.False(t, ev.SignedIn)
		assert.Nil(t, ev.Credential)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session event")
	}
}
