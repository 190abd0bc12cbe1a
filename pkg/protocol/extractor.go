// Package protocol extracts structured directives from free-form model
// output. Directives are bounded by fixed sentinel marker pairs and carry a
// YAML mapping body. The build is non-streaming: every response is a
// complete document, so an opening marker without its closing marker is a
// malformed call, not a partial one.
package protocol

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Yurii-huang/Jarvis/pkg/types"
)

// Default sentinel markers for the single-call tool protocol.
const (
	StartToolCall = "<START_TOOL_CALL>"
	EndToolCall   = "<END_TOOL_CALL>"
)

// SummaryMarker triggers conversation summarization when it appears
// anywhere in a response body. Checked by substring containment.
const SummaryMarker = "<SUMMARY_CONVERSATION>"

// MarkerPair bounds one directive inside otherwise free-form text.
type MarkerPair struct {
	Start string
	End   string
}

// Extractor scans responses for at most one tool call per pass.
type Extractor struct {
	markers MarkerPair
}

// NewExtractor returns an extractor configured with the given marker pair,
// falling back to the default tool-call markers when either side is empty.
func NewExtractor(markers MarkerPair) *Extractor {
	if markers.Start == "" || markers.End == "" {
		markers = MarkerPair{Start: StartToolCall, End: EndToolCall}
	}
	return &Extractor{markers: markers}
}

// callDocument is the wire shape of the YAML body between markers.
type callDocument struct {
	Name      string         `yaml:"name"`
	Arguments map[string]any `yaml:"arguments"`
}

// Extract returns the first complete call found in text, or nil when no
// marker pair is present. Text outside the markers is ignored here; callers
// keep the full response for display.
//
// Policy for multiple blocks in one response: this is a single-call
// protocol, so only the first complete block is honored.
func (e *Extractor) Extract(text string) (*types.ToolCall, error) {
	start := strings.Index(text, e.markers.Start)
	if start < 0 {
		return nil, nil
	}
	rest := text[start+len(e.markers.Start):]
	end := strings.Index(rest, e.markers.End)
	if end < 0 {
		return nil, fmt.Errorf("%w: opening marker %s has no matching %s",
			types.ErrMalformedCall, e.markers.Start, e.markers.End)
	}

	body := strings.Trim(rest[:end], "\n")
	if strings.TrimSpace(body) == "" {
		// Empty body between markers is an absence, not an error.
		return nil, nil
	}

	var doc callDocument
	if err := yaml.Unmarshal([]byte(body), &doc); err != nil {
		// The parser message is preserved: it becomes the next prompt so
		// the model can self-correct.
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedCall, err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("%w: missing required key \"name\"", types.ErrMalformedCall)
	}
	if doc.Arguments == nil {
		return nil, fmt.Errorf("%w: missing required key \"arguments\"", types.ErrMalformedCall)
	}

	return &types.ToolCall{Name: doc.Name, Arguments: doc.Arguments}, nil
}

// HasSummaryMarker reports whether the response requests summarization.
func HasSummaryMarker(text string) bool {
	return strings.Contains(text, SummaryMarker)
}

// CallPrompt documents the wire format for the system prompt.
func CallPrompt() string {
	return fmt.Sprintf(`To use a tool, emit exactly one block in this format:
%s
name: <tool_name>
arguments:
    <key>: <value>
%s
Only one tool call per response. Tool output is returned in the next message.`,
		StartToolCall, EndToolCall)
}
