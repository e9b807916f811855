package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"gopkg.in/yaml.v3"
)

// sessionFile is where the provider session is persisted between runs,
// relative to the cache dir. This is what makes the IdP "report an existing
// session at startup".
const sessionFile = "session.yaml"

// HTTPProvider implements Provider against an identity service speaking
// JSON over HTTP, with session-change notifications delivered over a
// websocket stream at /v1/events. Local sign-in and sign-out do not echo
// onto the stream; the stream carries provider-driven changes (revocation,
// sign-out from another client).
type HTTPProvider struct {
	baseURL    string
	apiKey     string
	cacheDir   string
	httpClient *http.Client
	logger     *slog.Logger

	mu       sync.Mutex
	cred     *Credential
	idToken  string
	handlers map[int]Handler
	nextID   int

	streamOnce sync.Once
	streamStop func()
}

// HTTPConfig configures the HTTP provider.
type HTTPConfig struct {
	BaseURL  string
	APIKey   string
	CacheDir string
	Logger   *slog.Logger
}

// NewHTTPProvider creates the provider and restores any session persisted
// by a previous run.
func NewHTTPProvider(cfg HTTPConfig) *HTTPProvider {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	p := &HTTPProvider{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		cacheDir: cfg.CacheDir,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:   cfg.Logger,
		handlers: make(map[int]Handler),
	}
	p.restoreSession()
	return p
}

// credentialResponse is the provider's answer to sign-in/sign-up.
type credentialResponse struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	IDToken     string `json:"id_token"`
}

// providerErrorBody is the provider's error envelope.
type providerErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn authenticates with email and password and stores the resulting
// session for later runs.
func (p *HTTPProvider) SignIn(ctx context.Context, email, password string) (*Credential, error) {
	return p.authenticate(ctx, "/v1/signin", email, password)
}

// SignUp registers a new account and stores the resulting session.
func (p *HTTPProvider) SignUp(ctx context.Context, email, password string) (*Credential, error) {
	return p.authenticate(ctx, "/v1/signup", email, password)
}

func (p *HTTPProvider) authenticate(ctx context.Context, path, email, password string) (*Credential, error) {
	body := map[string]string{"email": email, "password": password}

	var result credentialResponse
	if err := p.do(ctx, http.MethodPost, path, body, &result); err != nil {
		return nil, err
	}

	cred := &Credential{
		UID:         result.UID,
		Email:       result.Email,
		DisplayName: result.DisplayName,
	}

	p.mu.Lock()
	p.cred = cred
	p.idToken = result.IDToken
	p.mu.Unlock()
	p.persistSession()

	return cred, nil
}

// UpdateDisplayName sets the display name on the current session's user.
func (p *HTTPProvider) UpdateDisplayName(ctx context.Context, name string) error {
	p.mu.Lock()
	token := p.idToken
	p.mu.Unlock()
	if token == "" {
		return ErrNoSession
	}

	body := map[string]string{"display_name": name}
	if err := p.do(ctx, http.MethodPost, "/v1/profile", body, nil); err != nil {
		return err
	}

	p.mu.Lock()
	if p.cred != nil {
		p.cred.DisplayName = name
	}
	p.mu.Unlock()
	p.persistSession()
	return nil
}

// Token returns the current session token.
func (p *HTTPProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.idToken == "" {
		return "", ErrNoSession
	}
	return p.idToken, nil
}

// SignOut clears the local session and tells the provider to revoke it.
// Local state is cleared even if the revocation call fails.
func (p *HTTPProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	token := p.idToken
	p.cred = nil
	p.idToken = ""
	p.mu.Unlock()
	p.clearSession()

	if token == "" {
		return nil
	}
	return p.do(ctx, http.MethodPost, "/v1/signout", map[string]string{"token": token}, nil)
}

// Current returns the restored or established credential, nil when signed
// out.
func (p *HTTPProvider) Current() *Credential {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cred == nil {
		return nil
	}
	cred := *p.cred
	return &cred
}

// SessionChanges subscribes to the session-change stream. The websocket
// listener starts on the first subscription.
func (p *HTTPProvider) SessionChanges(h Handler) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.handlers[id] = h
	p.mu.Unlock()

	p.streamOnce.Do(p.startStream)

	return func() {
		p.mu.Lock()
		delete(p.handlers, id)
		p.mu.Unlock()
	}
}

// Close stops the session stream.
func (p *HTTPProvider) Close() {
	p.mu.Lock()
	stop := p.streamStop
	p.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// do sends a JSON request to the provider; non-2xx responses decode into
// *ProviderError.
func (p *HTTPProvider) do(ctx context.Context, method, path string, body, result any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("X-API-Key", p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var perr providerErrorBody
		if json.Unmarshal(respBody, &perr) == nil && perr.Error.Code != "" {
			return &ProviderError{Code: perr.Error.Code, Message: perr.Error.Message}
		}
		return &ProviderError{Code: resp.Status, Message: strings.TrimSpace(string(respBody))}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// =============================================================================
// SESSION-CHANGE STREAM
// =============================================================================

// streamMessage is one frame on the /v1/events websocket.
type streamMessage struct {
	Type    string `json:"type"`
	Payload struct {
		SignedIn    bool   `json:"signed_in"`
		UID         string `json:"uid"`
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
	} `json:"payload"`
}

func (p *HTTPProvider) startStream() {
	ctx, cancel := context.WithCancel(context.Background())
	p.mu.Lock()
	p.streamStop = cancel
	p.mu.Unlock()

	go p.runStream(ctx)
}

func (p *HTTPProvider) runStream(ctx context.Context) {
	wsEndpoint := p.baseURL
	wsEndpoint = strings.Replace(wsEndpoint, "http://", "ws://", 1)
	wsEndpoint = strings.Replace(wsEndpoint, "https://", "wss://", 1)

	u, err := url.Parse(wsEndpoint + "/v1/events")
	if err != nil {
		p.logger.Warn("invalid session stream endpoint", "error", err)
		return
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		p.logger.Warn("session stream unavailable", "error", err)
		return
	}

	// Track connection state for proper cleanup
	var mu sync.Mutex
	closed := false
	closeConn := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			conn.Close()
		}
	}
	defer closeConn()

	sub := map[string]string{"type": "subscribe", "id": uuid.New().String()}
	if err := conn.WriteJSON(sub); err != nil {
		p.logger.Warn("session stream subscribe failed", "error", err)
		return
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	for {
		var msg streamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() == nil {
				p.logger.Warn("session stream closed", "error", err)
			}
			return
		}

		switch msg.Type {
		case "session":
			p.applyRemoteEvent(msg)
		case "ka":
			continue
		default:
			continue
		}
	}
}

func (p *HTTPProvider) applyRemoteEvent(msg streamMessage) {
	var ev SessionEvent
	if msg.Payload.SignedIn {
		ev = SessionEvent{
			SignedIn: true,
			Credential: &Credential{
				UID:         msg.Payload.UID,
				Email:       msg.Payload.Email,
				DisplayName: msg.Payload.DisplayName,
			},
		}
		p.mu.Lock()
		p.cred = ev.Credential
		p.mu.Unlock()
	} else {
		p.mu.Lock()
		p.cred = nil
		p.idToken = ""
		p.mu.Unlock()
		p.clearSession()
	}
	p.dispatch(ev)
}

func (p *HTTPProvider) dispatch(ev SessionEvent) {
	p.mu.Lock()
	handlers := make([]Handler, 0, len(p.handlers))
	for _, h := range p.handlers {
		handlers = append(handlers, h)
	}
	p.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// =============================================================================
// SESSION PERSISTENCE
// =============================================================================

// storedSession is the on-disk form of a provider session.
type storedSession struct {
	Credential Credential `yaml:"credential"`
	IDToken    string     `yaml:"id_token"`
	SavedAt    time.Time  `yaml:"saved_at"`
}

func (p *HTTPProvider) sessionPath() string {
	return filepath.Join(p.cacheDir, sessionFile)
}

func (p *HTTPProvider) restoreSession() {
	if p.cacheDir == "" {
		return
	}

	data, err := os.ReadFile(p.sessionPath())
	if err != nil {
		return
	}

	var stored storedSession
	if err := yaml.Unmarshal(data, &stored); err != nil {
		p.logger.Warn("discarding unreadable stored session", "error", err)
		p.clearSession()
		return
	}
	if stored.IDToken == "" {
		return
	}

	cred := stored.Credential
	p.cred = &cred
	p.idToken = stored.IDToken
}

func (p *HTTPProvider) persistSession() {
	if p.cacheDir == "" {
		return
	}

	p.mu.Lock()
	if p.cred == nil || p.idToken == "" {
		p.mu.Unlock()
		return
	}
	stored := storedSession{Credential: *p.cred, IDToken: p.idToken, SavedAt: time.Now()}
	p.mu.Unlock()

	data, err := yaml.Marshal(stored)
	if err != nil {
		p.logger.Warn("failed to encode session", "error", err)
		return
	}
	if err := os.MkdirAll(p.cacheDir, 0700); err != nil {
		p.logger.Warn("failed to create cache dir", "error", err)
		return
	}
	if err := os.WriteFile(p.sessionPath(), data, 0600); err != nil {
		p.logger.Warn("failed to persist session", "error", err)
	}
}

func (p *HTTPProvider) clearSession() {
	if p.cacheDir == "" {
		return
	}
	if err := os.Remove(p.sessionPath()); err != nil && !os.IsNotExist(err) {
		p.logger.Warn("failed to remove stored session", "error", err)
	}
}
