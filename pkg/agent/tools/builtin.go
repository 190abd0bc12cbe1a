// Package tools provides the default tool set: code reading, shell
// execution, codebase search, user questions, and methodology lookup.
package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/Yurii-huang/Jarvis/pkg/methodology"
	"github.com/Yurii-huang/Jarvis/pkg/tool"
	"github.com/Yurii-huang/Jarvis/pkg/types"
	"github.com/Yurii-huang/Jarvis/pkg/ui"
)

// Deps carries the collaborators the default tools close over.
type Deps struct {
	WorkDir       string
	Interactor    ui.Interactor
	Methodologies methodology.Store
}

// RegisterDefaults installs the default tool set. Callers may re-register
// any name afterwards; the last registration wins.
func RegisterDefaults(reg *tool.Registry, deps Deps) {
	reg.Register(readCodeTool, handleReadCode(deps))
	reg.Register(executeShellTool, handleExecuteShell(deps))
	reg.Register(searchTool, handleSearch(deps))
	reg.Register(askUserTool, handleAskUser(deps))
	if deps.Methodologies != nil {
		reg.Register(methodologyTool, handleMethodology(deps))
	}
}

// Argument coercion: YAML scalars arrive as any.

func stringArg(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func fail(format string, args ...any) types.ToolResult {
	return types.ToolResult{Success: false, Error: fmt.Sprintf(format, args...)}
}

func ok(stdout string) types.ToolResult {
	return types.ToolResult{Success: true, Stdout: stdout}
}

// execute_shell

var executeShellTool = types.Tool{
	Name:        "execute_shell",
	Description: "Execute a shell command in the working directory and return its output",
	Parameters: map[string]types.Parameter{
		"command": {Type: "string", Description: "the command line to run", Required: true},
	},
}

func handleExecuteShell(deps Deps) tool.Handler {
	return func(ctx context.Context, args map[string]any) types.ToolResult {
		command := stringArg(args, "command")
		if command == "" {
			return fail("command is required")
		}

		cmd := exec.CommandContext(ctx, "bash", "-c", command)
		cmd.Dir = deps.WorkDir
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		err := cmd.Run()
		res := types.ToolResult{
			Success: err == nil,
			Stdout:  stdout.String(),
			Stderr:  stderr.String(),
		}
		if err != nil {
			res.Error = err.Error()
		}
		return res
	}
}
