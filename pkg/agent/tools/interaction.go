package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Yurii-huang/Jarvis/pkg/tool"
	"github.com/Yurii-huang/Jarvis/pkg/types"
	"github.com/Yurii-huang/Jarvis/pkg/ui"
)

var askUserTool = types.Tool{
	Name:        "ask_user",
	Description: "Ask the user a question and wait for their answer",
	Parameters: map[string]types.Parameter{
		"question": {Type: "string", Description: "the question to ask", Required: true},
	},
}

func handleAskUser(deps Deps) tool.Handler {
	return func(ctx context.Context, args map[string]any) types.ToolResult {
		question := stringArg(args, "question")
		if question == "" {
			return fail("question is required")
		}
		answer := deps.Interactor.ReadMultiline(question)
		if answer == ui.Interrupt {
			return fail("user interrupted the question")
		}
		return ok(answer)
	}
}

var methodologyTool = types.Tool{
	Name:        "methodology",
	Description: "Look up stored write-ups of previously solved similar problems",
	Parameters: map[string]types.Parameter{
		"problem": {Type: "string", Description: "description of the current problem", Required: true},
	},
}

func handleMethodology(deps Deps) tool.Handler {
	return func(ctx context.Context, args map[string]any) types.ToolResult {
		problem := stringArg(args, "problem")
		if problem == "" {
			return fail("problem is required")
		}
		found, err := deps.Methodologies.Find(ctx, problem, 3)
		if err != nil {
			return fail("methodology lookup: %v", err)
		}
		if len(found) == 0 {
			return ok("no similar methodologies recorded")
		}
		var b strings.Builder
		for i, m := range found {
			fmt.Fprintf(&b, "--- methodology %d: %s ---\n%s\n", i+1, m.Problem, m.Content)
		}
		return ok(b.String())
	}
}
