// Package openai adapts OpenAI-compatible chat endpoints (OpenAI, DeepSeek
// and other BaseURL-compatible services) to the llm.Provider interface.
package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/Yurii-huang/Jarvis/pkg/llm"
	"github.com/Yurii-huang/Jarvis/pkg/types"
)

type Config struct {
	APIKey  string
	BaseURL string
}

type Provider struct {
	client *openai.Client
	config Config
}

func New(cfg Config) *Provider {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}
}

func (p *Provider) ID() string { return "openai" }

func (p *Provider) Call(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    convertMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty choices in completion response")
	}
	return &llm.Response{
		ID:      resp.ID,
		Model:   resp.Model,
		Content: resp.Choices[0].Message.Content,
		Usage: types.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func convertMessages(msgs []types.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		role := string(m.Role)
		// The marker protocol carries tool output as plain user turns; the
		// chat API "tool" role requires native tool-call IDs we do not use.
		if m.Role == types.RoleTool {
			role = string(types.RoleUser)
		}
		content := m.Content
		if content == "" {
			// DeepSeek rejects omitted content fields; go-openai marks
			// Content omitempty.
			content = " "
		}
		result = append(result, openai.ChatCompletionMessage{Role: role, Content: content})
	}
	return result
}
