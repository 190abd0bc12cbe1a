// Package llm defines the model transport boundary. The agent treats a
// model as opaque text-in/text-out: the full conversation goes out, one
// response string comes back. Provider-specific framing stays inside the
// provider subpackages.
package llm

import (
	"context"

	"github.com/Yurii-huang/Jarvis/pkg/types"
)

// Provider is one concrete model backend.
type Provider interface {
	// ID returns the provider identifier ("openai", "gemini", "mock").
	ID() string

	// Call executes a synchronous chat request.
	Call(ctx context.Context, req *Request) (*Response, error)
}

// Request carries the conversation plus sampling options.
type Request struct {
	Model       string
	Messages    []types.Message
	MaxTokens   int
	Temperature float64
}

// Response is the provider's reply.
type Response struct {
	ID      string
	Model   string
	Content string
	Usage   types.Usage
}
