// Package session implements the authentication state machine: it drives
// sign-in, sign-up and sign-out against the identity provider, verifies
// provider tokens with the backend, and decides which top-level surface
// (auth or main) is visible.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/Veerbhadra0524/lumina/internal/backend"
	"github.com/Veerbhadra0524/lumina/internal/idp"
)

// Phase is the controller's authentication state.
type Phase int

const (
	Unauthenticated Phase = iota
	Authenticating
	Active
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Active:
		return "active"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// minPasswordLen is the registration password floor, checked locally
// before any network call.
const minPasswordLen = 6

// Surface is the part of the UI the controller drives. Exactly one of the
// auth and main surfaces is visible at any time.
type Surface interface {
	ShowAuth()
	ShowMain(identityLabel string)
	ShowError(msg string)
}

// Verifier is the backend surface the controller needs.
type Verifier interface {
	Verify(ctx context.Context, token, name string) error
	Logout(ctx context.Context) error
}

// Controller owns the session state machine. The main surface is visible
// iff the phase is Active, and Active is only reached after the backend
// accepted the provider token: possession of a provider session is not
// authority, verification is.
type Controller struct {
	provider idp.Provider
	backend  Verifier
	surface  Surface
	logger   *slog.Logger

	mu         sync.Mutex
	phase      Phase
	identity   *idp.Credential
	verified   bool
	generation uint64

	startOnce   sync.Once
	unsubscribe func()
}

// New creates a controller in the Unauthenticated phase. Call Start to
// bind the provider's session-change stream.
func New(provider idp.Provider, verifier Verifier, surface Surface, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		provider: provider,
		backend:  verifier,
		surface:  surface,
		logger:   logger,
	}
}

// Start subscribes to the provider's session-change stream. Safe to call
// more than once; the subscription is made exactly once.
func (c *Controller) Start() {
	c.startOnce.Do(func() {
		c.unsubscribe = c.provider.SessionChanges(c.handleSessionChange)
	})
}

// Close removes the session-change subscription.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Identity returns the current provider credential, nil when signed out.
func (c *Controller) Identity() *idp.Credential {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// ValidationError is a local, pre-network input rejection. It never
// reaches the provider or the backend.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// ErrUnavailable is returned when sign-in or sign-up is attempted while a
// session is already active or being established. Sign out first.
var ErrUnavailable = errors.New("already signed in or signing in")

// beginAuth rejects credential entry outside the Unauthenticated and
// Error phases.
func (c *Controller) beginAuth() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == Authenticating || c.phase == Active {
		return ErrUnavailable
	}
	return nil
}

// SignIn authenticates an existing account: provider credential, token
// retrieval, backend verification. Empty email or password fails locally
// with a ValidationError and no network call.
func (c *Controller) SignIn(ctx context.Context, email, password string) error {
	if err := c.beginAuth(); err != nil {
		return err
	}
	if strings.TrimSpace(email) == "" || password == "" {
		return c.validationFailure("Please enter both email and password.")
	}

	cred, err := c.provider.SignIn(ctx, email, password)
	if err != nil {
		c.providerFailure(err)
		return err
	}

	return c.verify(ctx, cred, "")
}

// SignUp registers a new account. The password must be at least 6
// characters (checked locally), the display name is set on the provider
// before token retrieval, and the verification call carries the name so
// the backend can persist it.
func (c *Controller) SignUp(ctx context.Context, name, email, password string) error {
	if err := c.beginAuth(); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return c.validationFailure("Please fill in all fields.")
	}
	if len(password) < minPasswordLen {
		return c.validationFailure("Password must be at least 6 characters.")
	}

	cred, err := c.provider.SignUp(ctx, email, password)
	if err != nil {
		c.providerFailure(err)
		return err
	}

	if err := c.provider.UpdateDisplayName(ctx, name); err != nil {
		c.providerFailure(err)
		return err
	}
	cred.DisplayName = name

	return c.verify(ctx, cred, name)
}

// SignOut tears down both sides of the session. Provider sign-out and
// backend logout are attempted independently; failures are logged, never
// allowed to keep the user out of the unauthenticated UI.
func (c *Controller) SignOut(ctx context.Context) {
	c.mu.Lock()
	if c.phase == Unauthenticated && c.provider.Current() == nil {
		// Nothing to tear down on either side.
		c.mu.Unlock()
		return
	}
	c.generation++ // discard any in-flight verification
	c.phase = Unauthenticated
	c.identity = nil
	c.verified = false
	c.mu.Unlock()

	if err := c.provider.SignOut(ctx); err != nil {
		c.logger.Warn("provider sign-out failed", "error", err)
	}
	if err := c.backend.Logout(ctx); err != nil {
		c.logger.Warn("backend logout failed", "error", err)
	}

	c.surface.ShowAuth()
}

// Resume verifies a session the provider restored from a previous run.
// Returns false when the provider has no session to resume.
func (c *Controller) Resume(ctx context.Context) (bool, error) {
	cred := c.provider.Current()
	if cred == nil {
		return false, nil
	}
	return true, c.verify(ctx, cred, "")
}

// handleSessionChange reacts to provider-driven session events. A present
// identity is treated like the post-credential step of a sign-in; absence
// forces Unauthenticated regardless of the current phase and invalidates
// any verification still in flight.
//
// The generation is claimed synchronously, in delivery order, before any
// goroutine is spawned: a verification born from an older signed-in event
// can never outrank a later signed-out event, no matter how the goroutine
// is scheduled.
func (c *Controller) handleSessionChange(ev idp.SessionEvent) {
	if !ev.SignedIn {
		c.mu.Lock()
		c.generation++
		c.phase = Unauthenticated
		c.identity = nil
		c.verified = false
		c.mu.Unlock()
		c.surface.ShowAuth()
		return
	}

	gen := c.beginVerification(ev.Credential)

	// Verification must not block the event stream: a later "no session"
	// event has to be able to overtake it.
	go func() {
		if err := c.runVerification(context.Background(), ev.Credential, "", gen); err != nil {
			c.logger.Warn("session-change verification failed", "error", err)
		}
	}()
}

// verify runs the token-verification exchange. The generation recorded at
// the start gates the result: if a superseding event bumped the counter
// while the network call was in flight, the outcome is discarded.
func (c *Controller) verify(ctx context.Context, cred *idp.Credential, name string) error {
	gen := c.beginVerification(cred)
	return c.runVerification(ctx, cred, name, gen)
}

// beginVerification claims the next generation and moves the machine into
// Authenticating.
func (c *Controller) beginVerification(cred *idp.Credential) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.phase = Authenticating
	c.identity = cred
	c.verified = false
	return c.generation
}

func (c *Controller) runVerification(ctx context.Context, cred *idp.Credential, name string, gen uint64) error {
	token, err := c.provider.Token(ctx)
	if err != nil {
		c.applyFailure(gen, idp.UserMessage(err))
		return err
	}

	if err := c.backend.Verify(ctx, token, name); err != nil {
		c.applyFailure(gen, backendFailureMessage(err))
		return err
	}

	c.applySuccess(gen, cred)
	return nil
}

func (c *Controller) applySuccess(gen uint64, cred *idp.Credential) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("discarding stale verification result", "generation", gen)
		return
	}
	c.phase = Active
	c.verified = true
	c.identity = cred
	label := cred.DisplayName
	if label == "" {
		label = cred.Email
	}
	c.mu.Unlock()

	c.surface.ShowMain(label)
}

func (c *Controller) applyFailure(gen uint64, msg string) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("discarding stale verification failure", "generation", gen)
		return
	}
	c.phase = PhaseError
	c.verified = false
	c.mu.Unlock()

	c.surface.ShowError(msg)
}

func (c *Controller) validationFailure(msg string) error {
	err := ValidationError(msg)
	c.surface.ShowError(msg)
	return err
}

func (c *Controller) providerFailure(err error) {
	c.mu.Lock()
	c.phase = PhaseError
	c.mu.Unlock()
	c.surface.ShowError(idp.UserMessage(err))
}

// backendFailureMessage picks the text to surface when verification is
// rejected: the backend's error field when present, else the generic
// fallback.
func backendFailureMessage(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return idp.GenericErrorMessage
}
