package types

import (
	"fmt"
	"sort"
	"strings"
)

// Parameter describes one tool argument.
type Parameter struct {
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

// Tool is a registered tool descriptor. Execution logic lives with the
// registry handlers, not here.
type Tool struct {
	Name        string               `json:"name" yaml:"name"`
	Description string               `json:"description" yaml:"description"`
	Parameters  map[string]Parameter `json:"parameters" yaml:"parameters"`
}

// ValidateArguments checks args against the declared parameter contract.
// Unknown keys are tolerated; missing required keys are not.
func (t Tool) ValidateArguments(args map[string]any) error {
	var missing []string
	for name, p := range t.Parameters {
		if !p.Required {
			continue
		}
		if _, ok := args[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: tool %q missing required arguments: %s",
			ErrArgumentValidation, t.Name, strings.Join(missing, ", "))
	}
	return nil
}

// PromptDoc renders the descriptor as prompt text so the model knows how
// to invoke the tool.
func (t Tool) PromptDoc() string {
	var b strings.Builder
	fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
	names := make([]string, 0, len(t.Parameters))
	for name := range t.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := t.Parameters[name]
		req := ""
		if p.Required {
			req = ", required"
		}
		fmt.Fprintf(&b, "    %s (%s%s): %s\n", name, p.Type, req, p.Description)
	}
	return b.String()
}

// ToolCall is an invocation directive extracted from model output.
type ToolCall struct {
	Name      string         `json:"name" yaml:"name"`
	Arguments map[string]any `json:"arguments" yaml:"arguments"`
}

// ToolResult is the outcome of one tool invocation. It is folded into a
// single tool-role message immediately after execution.
type ToolResult struct {
	Success bool   `json:"success"`
	Stdout  string `json:"stdout"`
	Stderr  string `json:"stderr,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Render flattens the result into the text the model sees next turn.
func (r ToolResult) Render() string {
	if !r.Success {
		return fmt.Sprintf("Execution failed: %s", r.Error)
	}
	parts := []string{fmt.Sprintf("Execution result:\n%s", r.Stdout)}
	if r.Stderr != "" {
		parts = append(parts, fmt.Sprintf("Stderr:\n%s", r.Stderr))
	}
	return strings.Join(parts, "\n\n")
}
