package models

// titleMaxLen is the display length a derived conversation title is
// truncated to, matching the server's own derivation.
const titleMaxLen = 50

// DeriveTitle builds a conversation title from the first user message:
// the text truncated to 50 characters with an ellipsis when truncation
// occurred. The result is a session-local placeholder until a history
// reload supplies the server's canonical title.
func DeriveTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= titleMaxLen {
		return text
	}
	return string(runes[:titleMaxLen]) + "..."
}
