package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Yurii-huang/Jarvis/pkg/tool"
	"github.com/Yurii-huang/Jarvis/pkg/types"
)

var readCodeTool = types.Tool{
	Name:        "read_code",
	Description: "Read a file, or a line range of it, with line numbers",
	Parameters: map[string]types.Parameter{
		"path":       {Type: "string", Description: "file path relative to the working directory", Required: true},
		"start_line": {Type: "int", Description: "first line to read, 1-based (default 1)"},
		"end_line":   {Type: "int", Description: "last line to read, inclusive (default end of file)"},
	},
}

func handleReadCode(deps Deps) tool.Handler {
	return func(ctx context.Context, args map[string]any) types.ToolResult {
		path := stringArg(args, "path")
		if path == "" {
			return fail("path is required")
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(deps.WorkDir, path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fail("read %s: %v", path, err)
		}

		lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
		start := intArg(args, "start_line", 1)
		end := intArg(args, "end_line", len(lines))
		if start < 1 {
			start = 1
		}
		if end > len(lines) {
			end = len(lines)
		}
		if start > end {
			return fail("invalid line range %d-%d for %d-line file", start, end, len(lines))
		}

		var b strings.Builder
		for i := start; i <= end; i++ {
			fmt.Fprintf(&b, "%5d | %s\n", i, lines[i-1])
		}
		return ok(b.String())
	}
}
