// Package patch parses <PATCH> blocks out of model responses and applies
// them against the working tree with git-backed staging and rollback.
//
// Two block variants exist:
//
// Search/replace (precision edits, applied directly):
//
//	<PATCH>
//	File: path/to/file
//	>>>>>> SEARCH
//	old code
//	======
//	new code
//	<<<<<< REPLACE
//	</PATCH>
//
// Context-anchored (whole-file merge via one model round-trip):
//
//	<PATCH>
//	File: path/to/file
//	Reason: why
//	code snippet with context
//	</PATCH>
package patch

import (
	"fmt"
	"strings"

	"github.com/Yurii-huang/Jarvis/pkg/types"
)

// Block markers. The separator accepts five or more '=' characters.
const (
	BlockStart    = "<PATCH>"
	BlockEnd      = "</PATCH>"
	searchMarker  = ">>>>>> SEARCH"
	replaceMarker = "<<<<<< REPLACE"
)

// Shape discriminates a search/replace patch by its two text fields.
type Shape int

const (
	// ShapeAnchored replaces the first literal occurrence of OldCode.
	ShapeAnchored Shape = iota
	// ShapeWholeReplace overwrites the entire file with NewCode.
	ShapeWholeReplace
	// ShapeDelete removes the file.
	ShapeDelete
	// ShapeContext is a variant-A snippet merged by the model.
	ShapeContext
)

// Patch is one parsed block. Parsed fresh from each response, consumed once.
type Patch struct {
	File    string
	Reason  string
	OldCode string
	NewCode string
	Snippet string // variant A body
	shape   Shape
}

func (p Patch) Shape() Shape { return p.shape }

// ParseError reports where in the response a block went wrong.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return types.ErrMalformedCall }

// ContainsBlock reports whether text has at least one complete patch block.
// Markers count only on their own line, matching what Parse accepts; a
// response merely mentioning <PATCH> mid-sentence is not a patch.
func ContainsBlock(text string) bool {
	lines := strings.Split(text, "\n")
	start := -1
	for i, l := range lines {
		if strings.TrimSpace(l) == BlockStart {
			start = i
			break
		}
	}
	if start < 0 {
		return false
	}
	for _, l := range lines[start+1:] {
		if strings.TrimSpace(l) == BlockEnd {
			return true
		}
	}
	return false
}

// Parse extracts every complete patch block from the response, in order.
// Unlike the single-call tool protocol, multiple blocks are allowed; each
// is keyed by its declared file path and later blocks for the same file
// apply in sequence.
func Parse(text string) ([]Patch, error) {
	lines := strings.Split(text, "\n")
	var patches []Patch

	for i := 0; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != BlockStart {
			continue
		}
		startLine := i + 1 // 1-based, points at <PATCH>
		end := -1
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == BlockEnd {
				end = j
				break
			}
		}
		if end < 0 {
			return nil, &ParseError{Line: startLine, Msg: "unterminated <PATCH> block"}
		}
		p, err := parseBlock(lines[i+1:end], startLine+1)
		if err != nil {
			return nil, err
		}
		patches = append(patches, p)
		i = end
	}
	return patches, nil
}

// parseBlock parses one block body. firstLine is the 1-based line number of
// the body's first line, used for error positions.
func parseBlock(body []string, firstLine int) (Patch, error) {
	if len(body) == 0 {
		return Patch{}, &ParseError{Line: firstLine, Msg: "empty patch block"}
	}

	var p Patch
	idx := 0

	file, ok := strings.CutPrefix(body[idx], "File:")
	if !ok {
		return Patch{}, &ParseError{Line: firstLine + idx, Msg: `patch block must start with "File: <path>"`}
	}
	p.File = strings.TrimSpace(file)
	if p.File == "" {
		return Patch{}, &ParseError{Line: firstLine + idx, Msg: "empty file path"}
	}
	idx++

	if idx < len(body) {
		if reason, ok := strings.CutPrefix(body[idx], "Reason:"); ok {
			p.Reason = strings.TrimSpace(reason)
			idx++
		}
	}

	rest := body[idx:]
	if hasSearchMarker(rest) {
		return parseSearchReplace(p, rest, firstLine+idx)
	}

	// Variant A: everything remaining is the context snippet.
	p.Snippet = strings.Join(rest, "\n")
	p.shape = ShapeContext
	if strings.TrimSpace(p.Snippet) == "" {
		return Patch{}, &ParseError{Line: firstLine + idx, Msg: "patch block has no content"}
	}
	return p, nil
}

func hasSearchMarker(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) == searchMarker {
			return true
		}
	}
	return false
}

func isSeparator(line string) bool {
	t := strings.TrimSpace(line)
	if len(t) < 5 {
		return false
	}
	for _, r := range t {
		if r != '=' {
			return false
		}
	}
	return true
}

// parseSearchReplace parses the SEARCH/======/REPLACE triplet. lineNo is
// the 1-based number of lines[0].
func parseSearchReplace(p Patch, lines []string, lineNo int) (Patch, error) {
	idx := 0
	for idx < len(lines) && strings.TrimSpace(lines[idx]) != searchMarker {
		if strings.TrimSpace(lines[idx]) != "" {
			return Patch{}, &ParseError{Line: lineNo + idx, Msg: "unexpected content before SEARCH marker"}
		}
		idx++
	}
	idx++ // past the SEARCH marker

	sep := -1
	for j := idx; j < len(lines); j++ {
		if isSeparator(lines[j]) {
			sep = j
			break
		}
	}
	if sep < 0 {
		return Patch{}, &ParseError{Line: lineNo + idx - 1, Msg: "SEARCH section has no ====== separator"}
	}

	endRep := -1
	for j := sep + 1; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) == replaceMarker {
			endRep = j
			break
		}
	}
	if endRep < 0 {
		return Patch{}, &ParseError{Line: lineNo + sep, Msg: "separator has no REPLACE marker"}
	}

	p.OldCode = joinSection(lines[idx:sep])
	p.NewCode = joinSection(lines[sep+1 : endRep])

	switch {
	case p.OldCode == "" && p.NewCode == "":
		p.shape = ShapeDelete
	case p.OldCode == "":
		p.shape = ShapeWholeReplace
	default:
		p.shape = ShapeAnchored
	}
	return p, nil
}

// joinSection preserves the section verbatim, including interior blank
// lines, with a trailing newline so anchors match whole lines. An empty
// section stays empty.
func joinSection(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
