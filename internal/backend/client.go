// Package backend provides the REST client for the Lumina chat backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/google/uuid"

	"github.com/Veerbhadra0524/lumina/internal/models"
)

// Client talks to the Lumina chat backend. The backend tracks the
// authenticated session with a cookie set by /auth/verify, so the client
// keeps a cookie jar for the lifetime of the process.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a new backend client. Endpoint and timeout come from
// config; an empty endpoint falls back to localhost:5000 and a zero
// timeout to 2 minutes.
func New(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = "http://localhost:5000"
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	jar, _ := cookiejar.New(nil)

	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
	}
}

// envelope is the common part of every backend response.
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// do sends a JSON request and decodes the response into result (which may
// be nil). A response with success:false is returned as an *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if len(respBody) > 0 {
		// Tolerate non-JSON bodies on transport-level errors; the status
		// check below produces the error in that case.
		_ = json.Unmarshal(respBody, &env)
	}

	if resp.StatusCode >= 400 || !env.Success {
		return &APIError{Status: resp.StatusCode, Message: apiMessage(env, resp)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func apiMessage(env envelope, resp *http.Response) string {
	if env.Error != "" {
		return env.Error
	}
	return resp.Status
}

// =============================================================================
// AUTH OPERATIONS
// =============================================================================

// verifyRequest is the body for POST /auth/verify.
type verifyRequest struct {
	Token string `json:"token"`
	Name  string `json:"name,omitempty"`
}

// Verify exchanges a provider token for a backend session. Name is optional
// and only sent on registration so the backend can persist the display name.
// A nil return means the backend accepted the token and set its session
// cookie; any other outcome is an error carrying the backend's message.
func (c *Client) Verify(ctx context.Context, token, name string) error {
	return c.do(ctx, http.MethodPost, "/auth/verify", verifyRequest{Token: token, Name: name}, nil)
}

// Logout tears down the backend session. The response body is ignored
// beyond success/failure.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// AuthStatus reports whether the backend still considers the session
// authenticated.
type AuthStatus struct {
	Authenticated bool `json:"authenticated"`
	User          struct {
		UID   string `json:"uid"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"user"`
}

// Status queries the backend's view of the current session.
func (c *Client) Status(ctx context.Context) (*AuthStatus, error) {
	var result AuthStatus
	if err := c.do(ctx, http.MethodGet, "/auth/status", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// sendRequest is the body for POST /chat/send. ConversationID is null for
// the first message of a new conversation.
type sendRequest struct {
	Message        string  `json:"message"`
	ConversationID *string `json:"conversation_id"`
}

// SendResult is the backend's answer to a send.
type SendResult struct {
	Response       string          `json:"response"`
	ConversationID string          `json:"conversation_id"`
	Sources        []models.Source `json:"sources,omitempty"`
	Confidence     float64         `json:"confidence,omitempty"`
}

// Send submits a user message. conversationID may be empty; the backend
// then mints a new conversation and returns its id, which must be used for
// all subsequent sends in the session.
func (c *Client) Send(ctx context.Context, message, conversationID string) (*SendResult, error) {
	req := sendRequest{Message: message}
	if conversationID != "" {
		req.ConversationID = &conversationID
	}

	var result SendResult
	if err := c.do(ctx, http.MethodPost, "/chat/send", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// historyResponse wraps GET /chat/history.
type historyResponse struct {
	Conversations []historyEntry `json:"conversations"`
}

// historyEntry is the wire form of a sidecar row; updated_at arrives as an
// ISO timestamp string.
type historyEntry struct {
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title"`
	MessageCount   int    `json:"message_count"`
	UpdatedAt      string `json:"updated_at"`
}

// History fetches the full list of conversation summaries, most recently
// updated first (server ordering is authoritative).
func (c *Client) History(ctx context.Context) ([]models.HistoryEntry, error) {
	var result historyResponse
	if err := c.do(ctx, http.MethodGet, "/chat/history", nil, &result); err != nil {
		return nil, err
	}

	entries := make([]models.HistoryEntry, 0, len(result.Conversations))
	for _, e := range result.Conversations {
		entries = append(entries, models.HistoryEntry{
			ConversationID: e.ConversationID,
			Title:          e.Title,
			MessageCount:   e.MessageCount,
			UpdatedAt:      parseTimestamp(e.UpdatedAt),
		})
	}
	return entries, nil
}

// conversationResponse wraps GET /chat/conversation/{id}.
type conversationResponse struct {
	Messages []conversationMessage `json:"messages"`
}

// conversationMessage is the wire form of a stored message; sources and
// confidence travel under metadata.
type conversationMessage struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	Metadata struct {
		Sources    []models.Source `json:"sources,omitempty"`
		Confidence float64         `json:"confidence,omitempty"`
	} `json:"metadata"`
}

// Conversation fetches the full message list for a conversation in
// server-returned order.
func (c *Client) Conversation(ctx context.Context, id string) ([]models.Message, error) {
	var result conversationResponse
	if err := c.do(ctx, http.MethodGet, "/chat/conversation/"+id, nil, &result); err != nil {
		return nil, err
	}

	msgs := make([]models.Message, 0, len(result.Messages))
	for _, m := range result.Messages {
		msgs = append(msgs, models.Message{
			Role:       m.Role,
			Content:    m.Content,
			Sources:    m.Metadata.Sources,
			Confidence: m.Metadata.Confidence,
		})
	}
	return msgs, nil
}

// newConversationResponse wraps POST /chat/new.
type newConversationResponse struct {
	ConversationID string `json:"conversation_id"`
}

// NewConversation asks the backend to mint an empty conversation and
// returns its id.
func (c *Client) NewConversation(ctx context.Context) (string, error) {
	var result newConversationResponse
	if err := c.do(ctx, http.MethodPost, "/chat/new", nil, &result); err != nil {
		return "", err
	}
	return result.ConversationID, nil
}

// DeleteConversation removes a conversation and all its messages.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/chat/delete/"+id, nil, nil)
}

// parseTimestamp parses the backend's ISO timestamps; a zero time is
// returned for anything unparseable so rendering degrades to the absolute
// date path instead of failing the whole fetch.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
