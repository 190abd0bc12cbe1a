package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yurii-huang/Jarvis/pkg/types"
)

func TestExtractWellFormedCall(t *testing.T) {
	e := NewExtractor(MarkerPair{})
	text := "I will read the file now.\n" +
		"<START_TOOL_CALL>\n" +
		"name: read_code\n" +
		"arguments:\n" +
		"    path: pkg/tool/registry.go\n" +
		"    start_line: 10\n" +
		"<END_TOOL_CALL>\n" +
		"Waiting for the result."

	call, err := e.Extract(text)
	require.NoError(t, err)
	require.NotNil(t, call)
	assert.Equal(t, "read_code", call.Name)
	assert.Equal(t, "pkg/tool/registry.go", call.Arguments["path"])
	assert.Equal(t, 10, call.Arguments["start_line"])
}

func TestExtractNestedScalarArguments(t *testing.T) {
	e := NewExtractor(MarkerPair{})
	text := "<START_TOOL_CALL>\n" +
		"name: execute_shell\n" +
		"arguments:\n" +
		"    command: ls -la\n" +
		"    timeout: 30\n" +
		"    capture: true\n" +
		"<END_TOOL_CALL>"

	call, err := e.Extract(text)
	require.NoError(t, err)
	assert.Equal(t, "ls -la", call.Arguments["command"])
	assert.Equal(t, 30, call.Arguments["timeout"])
	assert.Equal(t, true, call.Arguments["capture"])
}

func TestExtractNoMarkers(t *testing.T) {
	e := NewExtractor(MarkerPair{})
	call, err := e.Extract("Just a plain answer with no directives at all.")
	assert.NoError(t, err)
	assert.Nil(t, call)
}

func TestExtractUnmatchedOpenMarker(t *testing.T) {
	e := NewExtractor(MarkerPair{})
	call, err := e.Extract("<START_TOOL_CALL>\nname: read_code\n")
	assert.Nil(t, call)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMalformedCall))
}

func TestExtractEmptyBodyIsAbsence(t *testing.T) {
	e := NewExtractor(MarkerPair{})
	call, err := e.Extract("<START_TOOL_CALL>\n\n<END_TOOL_CALL>")
	assert.NoError(t, err)
	assert.Nil(t, call)
}

func TestExtractMissingName(t *testing.T) {
	e := NewExtractor(MarkerPair{})
	_, err := e.Extract("<START_TOOL_CALL>\narguments:\n    path: x\n<END_TOOL_CALL>")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMalformedCall))
	assert.Contains(t, err.Error(), "name")
}

func TestExtractMissingArguments(t *testing.T) {
	e := NewExtractor(MarkerPair{})
	_, err := e.Extract("<START_TOOL_CALL>\nname: read_code\n<END_TOOL_CALL>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arguments")
}

func TestExtractInvalidYAML(t *testing.T) {
	e := NewExtractor(MarkerPair{})
	_, err := e.Extract("<START_TOOL_CALL>\nname: [unclosed\n<END_TOOL_CALL>")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMalformedCall))
}

func TestExtractFirstOfMultipleBlocks(t *testing.T) {
	e := NewExtractor(MarkerPair{})
	text := "<START_TOOL_CALL>\nname: first\narguments:\n    a: 1\n<END_TOOL_CALL>\n" +
		"<START_TOOL_CALL>\nname: second\narguments:\n    b: 2\n<END_TOOL_CALL>"

	call, err := e.Extract(text)
	require.NoError(t, err)
	assert.Equal(t, "first", call.Name)
}

func TestHasSummaryMarker(t *testing.T) {
	assert.True(t, HasSummaryMarker("Too much history. <SUMMARY_CONVERSATION>"))
	assert.False(t, HasSummaryMarker("No marker here."))
}
