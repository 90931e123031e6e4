// Package completion defines the interface to hosted chat-completion
// services and the typed errors the response generator's retry policy
// keys on.
package completion

import "context"

// Provider is a hosted chat-completion service.
//
// Implementations:
//   - OpenAIProvider: OpenAI-compatible chat completions over HTTP
//     (Groq by default)
//   - AnthropicProvider: Claude via the official Anthropic SDK
type Provider interface {
	// Complete sends the chat payload and returns the generated text from
	// the first choice. Failures are reported as *TransientError,
	// *StatusError, or *ParseError so callers can decide whether to retry;
	// any other error is a transport-level failure.
	Complete(ctx context.Context, req *Request) (string, error)
}

// Role is a chat message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in the chat payload.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a provider-independent chat completion request.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	TopP        float64
}
