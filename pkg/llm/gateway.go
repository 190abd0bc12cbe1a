package llm

import (
	"context"

	"github.com/Yurii-huang/Jarvis/pkg/types"
)

// Options are the sampling settings applied to every call.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Gateway pairs a provider with call options and the retry policy. This is
// the only network-suspension point in the system.
type Gateway struct {
	provider Provider
	options  Options
	backoff  BackoffPolicy
}

func NewGateway(provider Provider, opts Options) *Gateway {
	if opts.Temperature == 0 {
		opts.Temperature = 0.7
	}
	return &Gateway{provider: provider, options: opts, backoff: DefaultBackoff()}
}

// SetBackoff overrides the retry policy (tests use a zero-delay policy).
func (g *Gateway) SetBackoff(p BackoffPolicy) { g.backoff = p }

// ProviderID returns the underlying provider identifier.
func (g *Gateway) ProviderID() string { return g.provider.ID() }

// Chat sends the conversation and returns the response text. Transport
// failures are retried with capped exponential backoff until the context is
// cancelled; errors returned from here are always TransportErrors.
func (g *Gateway) Chat(ctx context.Context, messages []types.Message) (string, error) {
	resp, err := Retry(ctx, g.backoff, func(ctx context.Context) (*Response, error) {
		return g.provider.Call(ctx, &Request{
			Model:       g.options.Model,
			Messages:    messages,
			MaxTokens:   g.options.MaxTokens,
			Temperature: g.options.Temperature,
		})
	})
	if err != nil {
		return "", &types.TransportError{Op: "chat", Err: err}
	}
	return resp.Content, nil
}

// ChatOnce sends a standalone prompt outside the main conversation, used
// for merge round-trips and completion summaries.
func (g *Gateway) ChatOnce(ctx context.Context, prompt string) (string, error) {
	return g.Chat(ctx, []types.Message{{Role: types.RoleUser, Content: prompt}})
}
