// Package config loads layered configuration: defaults, then a YAML config
// file, then JARVIS_* environment variables (with .env / .env.local support).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ProviderOptions are the SDK-level options for one model provider.
type ProviderOptions struct {
	APIKey      string  `yaml:"api_key" envconfig:"API_KEY"`
	BaseURL     string  `yaml:"base_url" envconfig:"BASE_URL"`
	Model       string  `yaml:"model" envconfig:"MODEL"`
	ProjectID   string  `yaml:"project_id" envconfig:"PROJECT_ID"` // Vertex AI
	Location    string  `yaml:"location" envconfig:"LOCATION"`     // Vertex AI
	Temperature float64 `yaml:"temperature" envconfig:"TEMPERATURE"`
	MaxTokens   int     `yaml:"max_tokens" envconfig:"MAX_TOKENS"`
}

// PatchConfig controls the patch-application workflow. Defaults are seeded
// in Load before the YAML file is read; an envconfig default tag would
// overwrite file values whenever the env var is unset.
type PatchConfig struct {
	// ConfirmBeforeCommit gates the commit workflow on interactive approval.
	ConfirmBeforeCommit bool `yaml:"confirm_before_commit" envconfig:"CONFIRM_BEFORE_COMMIT"`

	// ConfirmSummary gates the final result text on one more confirmation,
	// allowing the user to override what the model sees.
	ConfirmSummary bool `yaml:"confirm_summary" envconfig:"CONFIRM_SUMMARY"`
}

// AgentConfig tunes the run-loop. Defaults are seeded in Load.
type AgentConfig struct {
	// SummaryReminderTurns is the turn count after which the loop appends a
	// soft reminder to use the summarization marker.
	SummaryReminderTurns int `yaml:"summary_reminder_turns" envconfig:"SUMMARY_REMINDER_TURNS"`

	// RecordMethodology enables the completion-time methodology capture.
	RecordMethodology bool `yaml:"record_methodology" envconfig:"RECORD_METHODOLOGY"`

	// MethodologyDir is where solved-problem write-ups are stored.
	MethodologyDir string `yaml:"methodology_dir" envconfig:"METHODOLOGY_DIR"`
}

// Config is the root configuration.
type Config struct {
	// ActiveProvider selects the transport; empty means auto-detect from
	// available API keys.
	ActiveProvider string `yaml:"active_provider" envconfig:"ACTIVE_PROVIDER"`

	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL"`

	Providers map[string]ProviderOptions `yaml:"provider"`

	Patch PatchConfig `yaml:"patch" envconfig:"PATCH"`
	Agent AgentConfig `yaml:"agent" envconfig:"AGENT"`
}

// providerEnvVars maps provider IDs to the env vars used for auto-detection.
var providerEnvVars = map[string]struct {
	APIKey  []string
	BaseURL []string
	Model   []string
}{
	"gemini": {
		APIKey: []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"},
		Model:  []string{"GEMINI_MODEL"},
	},
	"openai": {
		APIKey:  []string{"OPENAI_API_KEY"},
		BaseURL: []string{"OPENAI_API_BASE", "OPENAI_BASE_URL"},
		Model:   []string{"OPENAI_MODEL"},
	},
	"deepseek": {
		APIKey: []string{"DEEPSEEK_API_KEY"},
		Model:  []string{"DEEPSEEK_MODEL"},
	},
}

// providerDefaults holds per-provider defaults.
var providerDefaults = map[string]ProviderOptions{
	"gemini":   {Model: "gemini-2.0-flash"},
	"openai":   {BaseURL: "https://api.openai.com/v1", Model: "gpt-4o"},
	"deepseek": {BaseURL: "https://api.deepseek.com", Model: "deepseek-chat"},
}

// ActiveProviderOptions resolves the active provider and its merged options.
// Priority: explicit ActiveProvider > first provider with a key in env >
// first configured provider with a key.
func (c *Config) ActiveProviderOptions() (string, ProviderOptions, error) {
	if c.ActiveProvider != "" {
		if opts, ok := c.resolveProvider(c.ActiveProvider); ok {
			return c.ActiveProvider, opts, nil
		}
		return "", ProviderOptions{}, fmt.Errorf("active provider %q not configured", c.ActiveProvider)
	}

	for _, id := range []string{"gemini", "openai", "deepseek"} {
		if opts, ok := c.resolveProvider(id); ok {
			return id, opts, nil
		}
	}

	for id, opts := range c.Providers {
		if opts.APIKey != "" {
			return id, mergeOptions(providerDefaults[id], opts), nil
		}
	}

	return "", ProviderOptions{}, fmt.Errorf("no model provider configured or detected")
}

// resolveProvider merges defaults, env detection, and file config for id.
// Returns false when no API key can be found anywhere.
func (c *Config) resolveProvider(id string) (ProviderOptions, bool) {
	opts := providerDefaults[id]

	if env, ok := providerEnvVars[id]; ok {
		for _, v := range env.APIKey {
			if val := os.Getenv(v); val != "" {
				opts.APIKey = val
				break
			}
		}
		for _, v := range env.BaseURL {
			if val := os.Getenv(v); val != "" {
				opts.BaseURL = val
				break
			}
		}
		for _, v := range env.Model {
			if val := os.Getenv(v); val != "" {
				opts.Model = val
				break
			}
		}
	}

	if fileOpts, ok := c.Providers[id]; ok {
		opts = mergeOptions(opts, fileOpts)
	}
	return opts, opts.APIKey != ""
}

func mergeOptions(base, override ProviderOptions) ProviderOptions {
	result := base
	if override.APIKey != "" {
		result.APIKey = override.APIKey
	}
	if override.BaseURL != "" {
		result.BaseURL = override.BaseURL
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	if override.ProjectID != "" {
		result.ProjectID = override.ProjectID
	}
	if override.Location != "" {
		result.Location = override.Location
	}
	if override.Temperature > 0 {
		result.Temperature = override.Temperature
	}
	if override.MaxTokens != 0 {
		result.MaxTokens = override.MaxTokens
	}
	return result
}

// Load reads configuration from path, or from default locations when path
// is empty. Env vars override file values.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			candidate := filepath.Join(home, ".jarvis", "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
		if _, err := os.Stat("jarvis.yaml"); err == nil {
			path = "jarvis.yaml"
		}
	}

	// Layering is defaults, then file, then env: the literal carries the
	// defaults so the file can lower or disable them.
	cfg := &Config{
		Providers: make(map[string]ProviderOptions),
		Patch: PatchConfig{
			ConfirmBeforeCommit: true,
			ConfirmSummary:      true,
		},
		Agent: AgentConfig{
			SummaryReminderTurns: 10,
			RecordMethodology:    true,
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envconfig.Process("JARVIS", cfg); err != nil {
		return nil, fmt.Errorf("process env vars: %w", err)
	}

	if cfg.Agent.SummaryReminderTurns <= 0 {
		cfg.Agent.SummaryReminderTurns = 10
	}
	if cfg.Agent.MethodologyDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Agent.MethodologyDir = filepath.Join(home, ".jarvis", "methodologies")
		} else {
			cfg.Agent.MethodologyDir = ".jarvis-methodologies"
		}
	}

	return cfg, nil
}
