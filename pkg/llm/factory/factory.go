// Package factory builds the configured model provider.
package factory

import (
	"context"
	"fmt"

	"github.com/Yurii-huang/Jarvis/pkg/config"
	"github.com/Yurii-huang/Jarvis/pkg/llm"
	"github.com/Yurii-huang/Jarvis/pkg/llm/gemini"
	"github.com/Yurii-huang/Jarvis/pkg/llm/openai"
)

// NewGateway resolves the active provider from configuration and wraps it
// in a gateway with the matching call options.
func NewGateway(ctx context.Context, cfg *config.Config) (*llm.Gateway, error) {
	id, opts, err := cfg.ActiveProviderOptions()
	if err != nil {
		return nil, err
	}

	var provider llm.Provider
	switch id {
	case "gemini":
		provider, err = gemini.New(ctx, gemini.Config{
			APIKey:    opts.APIKey,
			ProjectID: opts.ProjectID,
			Location:  opts.Location,
		})
		if err != nil {
			return nil, err
		}
	case "openai", "deepseek":
		// DeepSeek speaks the OpenAI wire protocol; only BaseURL differs.
		provider = openai.New(openai.Config{APIKey: opts.APIKey, BaseURL: opts.BaseURL})
	default:
		return nil, fmt.Errorf("unknown provider: %s", id)
	}

	return llm.NewGateway(provider, llm.Options{
		Model:       opts.Model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}), nil
}
