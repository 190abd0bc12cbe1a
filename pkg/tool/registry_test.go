package tool

import (
	"context"
	"strings"
	"testing"

	"github.com/Yurii-huang/Jarvis/pkg/types"
)

func echoTool(name string) (types.Tool, Handler) {
	def := types.Tool{
		Name:        name,
		Description: "echoes its input",
		Parameters: map[string]types.Parameter{
			"text": {Type: "string", Description: "text to echo", Required: true},
		},
	}
	h := func(ctx context.Context, args map[string]any) types.ToolResult {
		return types.ToolResult{Success: true, Stdout: args["text"].(string)}
	}
	return def, h
}

func TestRegisterOverwriteWins(t *testing.T) {
	r := NewRegistry()
	def, _ := echoTool("echo")
	r.Register(def, func(ctx context.Context, args map[string]any) types.ToolResult {
		return types.ToolResult{Success: true, Stdout: "first"}
	})
	r.Register(def, func(ctx context.Context, args map[string]any) types.ToolResult {
		return types.ToolResult{Success: true, Stdout: "second"}
	})

	res := r.Execute(context.Background(), types.ToolCall{
		Name:      "echo",
		Arguments: map[string]any{"text": "x"},
	})
	if !res.Success || res.Stdout != "second" {
		t.Fatalf("expected last registration to win, got %+v", res)
	}
}

func TestExecuteUnknownToolFailsClosed(t *testing.T) {
	r := NewRegistry()
	res := r.Execute(context.Background(), types.ToolCall{Name: "nope"})
	if res.Success {
		t.Fatal("expected failure for unknown tool")
	}
	if !strings.Contains(res.Error, "tool not found") {
		t.Fatalf("unexpected error: %q", res.Error)
	}
}

func TestExecuteArgumentValidation(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("echo"))

	res := r.Execute(context.Background(), types.ToolCall{
		Name:      "echo",
		Arguments: map[string]any{},
	})
	if res.Success {
		t.Fatal("expected validation failure")
	}
	if !strings.Contains(res.Error, "text") {
		t.Fatalf("error should name the missing argument, got %q", res.Error)
	}
}

func TestExecuteRecoverFromPanic(t *testing.T) {
	r := NewRegistry()
	def := types.Tool{Name: "boom", Description: "panics"}
	r.Register(def, func(ctx context.Context, args map[string]any) types.ToolResult {
		panic("kaboom")
	})

	res := r.Execute(context.Background(), types.ToolCall{Name: "boom", Arguments: map[string]any{}})
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Error, "kaboom") {
		t.Fatalf("panic message should surface, got %q", res.Error)
	}
}

func TestUseToolsRestrictsSubset(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("a"))
	r.Register(echoTool("b"))
	r.Register(echoTool("c"))

	r.UseTools([]string{"a", "c", "missing"})

	tools := r.List()
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(tools))
	}
	if tools[0].Name != "a" || tools[1].Name != "c" {
		t.Fatalf("unexpected tools: %+v", tools)
	}
}

func TestDontUseToolsExcludes(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("a"))
	r.Register(echoTool("b"))

	r.DontUseTools([]string{"a"})

	if _, ok := r.Get("a"); ok {
		t.Fatal("tool a should be excluded")
	}
	if _, ok := r.Get("b"); !ok {
		t.Fatal("tool b should remain")
	}
}

func TestFiltersAreInstanceLocal(t *testing.T) {
	r1 := NewRegistry()
	r2 := NewRegistry()
	r1.Register(echoTool("a"))
	r2.Register(echoTool("a"))

	r1.DontUseTools([]string{"a"})

	if _, ok := r2.Get("a"); !ok {
		t.Fatal("filter on r1 must not affect r2")
	}
}

func TestHelpTextListsParameters(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("echo"))
	help := r.HelpText()
	if !strings.Contains(help, "echo") || !strings.Contains(help, "text") {
		t.Fatalf("help text incomplete: %q", help)
	}
}
