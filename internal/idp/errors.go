package idp

import "errors"

// Error codes the provider returns for credential and registration
// failures.
const (
	CodeUserNotFound  = "auth/user-not-found"
	CodeWrongPassword = "auth/wrong-password"
	CodeEmailInUse    = "auth/email-already-in-use"
	CodeWeakPassword  = "auth/weak-password"
	CodeInvalidEmail  = "auth/invalid-email"
)

// userMessages maps provider error codes to user-facing strings.
var userMessages = map[string]string{
	CodeUserNotFound:  "No account found with this email.",
	CodeWrongPassword: "Incorrect password.",
	CodeEmailInUse:    "An account with this email already exists.",
	CodeWeakPassword:  "Password is too weak.",
	CodeInvalidEmail:  "Invalid email address.",
}

// GenericErrorMessage is the last-resort display string.
const GenericErrorMessage = "An error occurred."

// ErrNoSession indicates a token or profile operation was attempted
// without an established provider session.
var ErrNoSession = errors.New("no provider session")

// ProviderError is a rejection from the identity provider.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return e.Code
}

// UserMessage resolves the display string for this error with a fixed
// fallback order: mapped code, then the provider's raw message, then the
// generic fallback.
func (e *ProviderError) UserMessage() string {
	if msg, ok := userMessages[e.Code]; ok {
		return msg
	}
	if e.Message != "" {
		return e.Message
	}
	return GenericErrorMessage
}

// UserMessage resolves the display string for any error coming out of a
// provider call. Non-provider errors collapse to the generic fallback.
func UserMessage(err error) string {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.UserMessage()
	}
	return GenericErrorMessage
}
