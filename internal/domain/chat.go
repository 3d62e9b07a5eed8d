package domain

// User-facing texts returned in the error field. Nothing else ever reaches the caller on failure.
const (
	MessageRequiredText = "Message is required."
	GenericErrorText    = "An error occurred while processing your message. Please try again."
	MethodNotAllowed    = "Method not allowed."
)

// ChatResult is the payload returned to the caller. Exactly one of Response or
// Error is populated.
type ChatResult struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Reply returns a success payload carrying text.
func Reply(text string) ChatResult {
	return ChatResult{Response: text}
}

// Failure returns an error payload carrying one of the fixed user-facing texts.
func Failure(text string) ChatResult {
	return ChatResult{Error: text}
}
