// Package idp abstracts the external identity provider: credential
// issuance, token retrieval, and the session-change notification stream.
package idp

import "context"

// Credential is an opaque reference to the provider-side user.
type Credential struct {
	UID         string `json:"uid" yaml:"uid"`
	Email       string `json:"email" yaml:"email"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
}

// SessionEvent is one notification from the provider's session stream.
// SignedIn false means the provider no longer has a session; Credential is
// nil in that case.
type SessionEvent struct {
	SignedIn   bool
	Credential *Credential
}

// Handler receives session events. Handlers must not block; long work
// belongs in the subscriber's own goroutines.
type Handler func(SessionEvent)

// Provider is the identity-provider surface the session controller
// consumes. Implementations are expected to deliver session events in true
// chronological order.
type Provider interface {
	// SignIn authenticates with email and password.
	SignIn(ctx context.Context, email, password string) (*Credential, error)

	// SignUp registers a new account.
	SignUp(ctx context.Context, email, password string) (*Credential, error)

	// UpdateDisplayName sets the display name on the current session's user.
	UpdateDisplayName(ctx context.Context, name string) error

	// Token returns the current session's token for backend verification.
	Token(ctx context.Context) (string, error)

	// SignOut terminates the provider session.
	SignOut(ctx context.Context) error

	// Current returns the credential of the session the provider restored
	// or established, or nil when signed out.
	Current() *Credential

	// SessionChanges subscribes to the session-change stream. The returned
	// function removes the subscription.
	SessionChanges(h Handler) (unsubscribe func())
}
