// Package mock is a scripted provider for tests: it replays a fixed list
// of responses and records every request it receives.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/Yurii-huang/Jarvis/pkg/llm"
	"github.com/Yurii-huang/Jarvis/pkg/types"
)

type Provider struct {
	mu        sync.Mutex
	responses []string
	next      int

	// Requests holds every request seen, in order.
	Requests []*llm.Request

	// Err, when set, is returned Failures times before responses resume.
	Err      error
	Failures int
}

func New(responses ...string) *Provider {
	return &Provider{responses: responses}
}

func (p *Provider) ID() string { return "mock" }

func (p *Provider) Call(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	reqCopy := *req
	reqCopy.Messages = append([]types.Message(nil), req.Messages...)
	p.Requests = append(p.Requests, &reqCopy)

	if p.Err != nil && p.Failures > 0 {
		p.Failures--
		return nil, p.Err
	}

	if p.next >= len(p.responses) {
		return nil, fmt.Errorf("mock provider exhausted after %d responses", len(p.responses))
	}
	content := p.responses[p.next]
	p.next++
	return &llm.Response{
		ID:      fmt.Sprintf("mock-%d", p.next),
		Model:   "mock-model",
		Content: content,
	}, nil
}

// CallCount returns how many requests have been made.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Requests)
}
