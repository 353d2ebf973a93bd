// Package generate defines the text-generation collaborator used by the IME:
// a chat-style request, the Generator interface, the error taxonomy every
// backend maps its failures into, and the prompt builders for the four
// kinds of request the IME issues.
package generate

import "context"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role" msgpack:"role"`
	Content string `json:"content" msgpack:"content"`
}

// Request is a self-contained generation request.
type Request struct {
	Messages    []Message `json:"messages" msgpack:"messages"`
	MaxTokens   int       `json:"max_tokens" msgpack:"max_tokens"`
	Temperature float64   `json:"temperature" msgpack:"temperature"`
	TopP        float64   `json:"top_p" msgpack:"top_p"`
}

// Generator produces text for a request. Implementations return errors that
// match one of the ErrConfigurationMissing, ErrBadRequest,
// ErrUpstreamFailure or ErrMalformedResponse kinds via errors.Is.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Unconfigured is the Generator used when no backend is configured.
type Unconfigured struct{}

// Generate always fails with ErrConfigurationMissing.
func (Unconfigured) Generate(context.Context, Request) (string, error) {
	return "", &GenerationError{Kind: ErrConfigurationMissing}
}
