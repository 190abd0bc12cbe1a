package tools

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Yurii-huang/Jarvis/pkg/tool"
	"github.com/Yurii-huang/Jarvis/pkg/types"
)

var searchTool = types.Tool{
	Name:        "search",
	Description: "Search the codebase for a regular expression and return matching lines",
	Parameters: map[string]types.Parameter{
		"pattern": {Type: "string", Description: "regular expression to search for", Required: true},
		"glob":    {Type: "string", Description: "filename glob filter, e.g. *.go"},
	},
}

const (
	maxSearchMatches  = 200
	maxSearchFileSize = 1 << 20 // skip files larger than 1 MiB
)

func handleSearch(deps Deps) tool.Handler {
	return func(ctx context.Context, args map[string]any) types.ToolResult {
		pattern := stringArg(args, "pattern")
		if pattern == "" {
			return fail("pattern is required")
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fail("invalid pattern: %v", err)
		}
		glob := stringArg(args, "glob")

		var b strings.Builder
		matches := 0
		err = filepath.WalkDir(deps.WorkDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			name := d.Name()
			if d.IsDir() {
				if name == ".git" || strings.HasPrefix(name, ".") && name != "." {
					return filepath.SkipDir
				}
				return nil
			}
			if glob != "" {
				if matched, _ := filepath.Match(glob, name); !matched {
					return nil
				}
			}
			if info, err := d.Info(); err != nil || info.Size() > maxSearchFileSize {
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil || !isText(data) {
				return nil
			}
			rel, _ := filepath.Rel(deps.WorkDir, path)
			for i, line := range strings.Split(string(data), "\n") {
				if re.MatchString(line) {
					fmt.Fprintf(&b, "%s:%d: %s\n", rel, i+1, line)
					matches++
					if matches >= maxSearchMatches {
						return filepath.SkipAll
					}
				}
			}
			return nil
		})
		if err != nil {
			return fail("search: %v", err)
		}
		if matches == 0 {
			return ok("no matches found")
		}
		out := b.String()
		if matches >= maxSearchMatches {
			out += fmt.Sprintf("... truncated at %d matches\n", maxSearchMatches)
		}
		return ok(out)
	}
}

// isText rejects binaries via a null-byte probe on the first 8 KiB.
func isText(data []byte) bool {
	probe := data
	if len(probe) > 8192 {
		probe = probe[:8192]
	}
	for _, b := range probe {
		if b == 0 {
			return false
		}
	}
	return true
}
