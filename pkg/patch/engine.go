package patch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Yurii-huang/Jarvis/pkg/config"
	"github.com/Yurii-huang/Jarvis/pkg/gitops"
	"github.com/Yurii-huang/Jarvis/pkg/types"
	"github.com/Yurii-huang/Jarvis/pkg/ui"
)

// Merger performs the variant-A whole-file merge round-trip.
type Merger interface {
	ChatOnce(ctx context.Context, prompt string) (string, error)
}

const (
	mergedCodeStart = "<MERGED_CODE>"
	mergedCodeEnd   = "</MERGED_CODE>"
)

// Engine applies parsed patches against the working tree. Rollback has two
// independent layers: per-file revert to the session baseline when an
// anchor fails, and whole-session hard reset when the commit is declined.
type Engine struct {
	git    *gitops.Client
	merger Merger
	io     ui.Interactor
	cfg    config.PatchConfig
	logger *slog.Logger
}

func NewEngine(git *gitops.Client, merger Merger, io ui.Interactor, cfg config.PatchConfig) *Engine {
	return &Engine{
		git:    git,
		merger: merger,
		io:     io,
		cfg:    cfg,
		logger: slog.Default().With("component", "patch"),
	}
}

// Name implements the agent output-handler contract.
func (e *Engine) Name() string { return "PATCH" }

// CanHandle reports whether the response carries at least one patch block.
func (e *Engine) CanHandle(response string) bool {
	return ContainsBlock(response)
}

// Handle runs one full apply-and-confirm cycle and returns the summary
// text fed back into the conversation.
func (e *Engine) Handle(ctx context.Context, response string) (string, error) {
	patches, err := Parse(response)
	if err != nil {
		// Fed back verbatim so the model can correct its block format.
		return "", fmt.Errorf("parse patches: %w", err)
	}
	if len(patches) == 0 {
		return "", nil
	}

	baseline, err := e.git.CurrentRevision(ctx)
	if err != nil {
		return "", fmt.Errorf("record baseline revision: %w", err)
	}

	// Group by declared file, preserving declaration order.
	var order []string
	byFile := make(map[string][]Patch)
	for _, p := range patches {
		if _, seen := byFile[p.File]; !seen {
			order = append(order, p.File)
		}
		byFile[p.File] = append(byFile[p.File], p)
	}

	var failures []string
	for _, file := range order {
		if err := e.applyFile(ctx, file, byFile[file]); err != nil {
			// Per-file rollback; other files continue independently.
			if revertErr := e.git.RevertFile(ctx, file); revertErr != nil {
				e.logger.Error("revert failed", "file", file, "error", revertErr)
			}
			ui.Print(ui.Error, "patch failed for %s: %v", file, err)
			failures = append(failures, fmt.Sprintf("%s: %v", file, err))
			continue
		}
		ui.Print(ui.Success, "patched %s", file)
	}

	summary := e.commitWorkflow(ctx, baseline, failures)
	return e.confirmSummary(summary), nil
}

// applyFile applies the file's patches in declared order. Any anchored
// match failure aborts the whole file.
func (e *Engine) applyFile(ctx context.Context, file string, patches []Patch) error {
	for i, p := range patches {
		e.logger.Info("applying patch", "file", file, "index", i+1, "total", len(patches))
		var err error
		switch p.Shape() {
		case ShapeDelete:
			err = e.applyDelete(ctx, file)
		case ShapeWholeReplace:
			err = e.writeFile(file, p.NewCode)
		case ShapeAnchored:
			err = e.applyAnchored(file, p)
		case ShapeContext:
			err = e.applyContextMerge(ctx, file, p)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// applyDelete removes the file from tracking and from disk. Deleting a
// non-existent file is a no-op success.
func (e *Engine) applyDelete(ctx context.Context, file string) error {
	if e.git.IsTracked(ctx, file) {
		return e.git.Remove(ctx, file)
	}
	abs := e.abs(file)
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// applyAnchored replaces the first verbatim occurrence of OldCode. Absence
// is a hard failure for the file, not a partial application; the same
// patch applied twice therefore fails the second time instead of drifting.
func (e *Engine) applyAnchored(file string, p Patch) error {
	data, err := os.ReadFile(e.abs(file))
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	content := string(data)
	idx := strings.Index(content, p.OldCode)
	if idx < 0 {
		return fmt.Errorf("%w: %s does not contain the search text", types.ErrPatchMatch, file)
	}
	merged := content[:idx] + p.NewCode + content[idx+len(p.OldCode):]
	ui.Print(ui.Info, "preview %s:\n%s", file, PreviewDiff(content, merged))
	return e.writeFile(file, merged)
}

// applyContextMerge asks the model to fold the snippet into the full file
// content and writes back the merged result.
func (e *Engine) applyContextMerge(ctx context.Context, file string, p Patch) error {
	current := ""
	if data, err := os.ReadFile(e.abs(file)); err == nil {
		current = string(data)
	}

	prompt := fmt.Sprintf(`You are a code reviewer. Merge the patch into the original code.
Original code of %s:
<CONTENT>
%s
</CONTENT>
Patch (reason: %s):
%s

Return the complete merged file content.
Output format:
%s
[merged code]
%s`, file, current, p.Reason, p.Snippet, mergedCodeStart, mergedCodeEnd)

	response, err := e.merger.ChatOnce(ctx, prompt)
	if err != nil {
		return fmt.Errorf("merge round-trip: %w", err)
	}
	merged, err := extractMergedCode(response)
	if err != nil {
		return err
	}
	ui.Print(ui.Info, "preview %s:\n%s", file, PreviewDiff(current, merged))
	return e.writeFile(file, merged)
}

func extractMergedCode(response string) (string, error) {
	start := strings.Index(response, mergedCodeStart)
	if start < 0 {
		return "", fmt.Errorf("%w: merge response has no %s block", types.ErrMalformedCall, mergedCodeStart)
	}
	rest := response[start+len(mergedCodeStart):]
	end := strings.Index(rest, mergedCodeEnd)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated %s block", types.ErrMalformedCall, mergedCodeStart)
	}
	return strings.Trim(rest[:end], "\n") + "\n", nil
}

// writeFile overwrites file content, creating parent directories for new
// files.
func (e *Engine) writeFile(file, content string) error {
	abs := e.abs(file)
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(abs, []byte(content), 0644)
}

func (e *Engine) abs(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(e.git.Dir, file)
}

// commitWorkflow stages everything, shows the diff, and either commits or
// hard-resets the session. The returned text is the agent-visible summary.
func (e *Engine) commitWorkflow(ctx context.Context, baseline string, failures []string) string {
	var b strings.Builder
	for _, f := range failures {
		fmt.Fprintf(&b, "❌ %s\n", f)
	}

	if err := e.git.StageAll(ctx); err != nil {
		fmt.Fprintf(&b, "❌ Failed to stage changes: %v\n", err)
		return b.String()
	}
	diff, err := e.git.DiffCached(ctx)
	if err != nil {
		fmt.Fprintf(&b, "❌ Failed to compute diff: %v\n", err)
		return b.String()
	}
	if strings.TrimSpace(diff) == "" {
		b.WriteString("There are no changes to commit")
		return b.String()
	}

	added, removed := diffStats(diff)
	ui.Print(ui.Info, "staged diff (+%d -%d):\n%s", added, removed, diff)

	if e.cfg.ConfirmBeforeCommit && !e.io.Confirm("Commit these changes?", true) {
		if err := e.git.ResetHard(ctx); err != nil {
			e.logger.Error("hard reset failed", "error", err)
		}
		fmt.Fprintf(&b, "❌ %v: all changes rolled back", types.ErrCommitRejected)
		return b.String()
	}

	commit, err := e.git.Commit(ctx, e.commitMessage(ctx))
	if err != nil {
		fmt.Fprintf(&b, "❌ Commit failed: %v\n", err)
		return b.String()
	}

	commits, err := e.git.CommitsBetween(ctx, baseline, commit.Hash)
	if err != nil || len(commits) == 0 {
		b.WriteString("✅ The patches have been applied (no new commits)")
		return b.String()
	}
	b.WriteString("✅ The patches have been applied\nCommit history:\n")
	for _, c := range commits {
		fmt.Fprintf(&b, "- %s: %s\n", c.ShortHash(), c.Message)
	}
	return b.String()
}

// commitMessage summarizes the staged change set from its file list.
func (e *Engine) commitMessage(ctx context.Context) string {
	diff, err := e.git.DiffCached(ctx)
	if err != nil {
		return "jarvis: apply patches"
	}
	var files []string
	for _, line := range strings.Split(diff, "\n") {
		if name, ok := strings.CutPrefix(line, "+++ b/"); ok {
			files = append(files, name)
		}
	}
	if len(files) == 0 {
		return "jarvis: apply patches"
	}
	if len(files) == 1 {
		return "jarvis: update " + files[0]
	}
	return fmt.Sprintf("jarvis: update %s and %d more files", files[0], len(files)-1)
}

// confirmSummary gates the final result text on one more confirmation,
// letting the user replace the agent-visible summary by hand.
func (e *Engine) confirmSummary(summary string) string {
	ui.Print(ui.Info, "%s", summary)
	if !e.cfg.ConfirmSummary {
		return summary
	}
	if e.io.Confirm("Use this result?", true) {
		return summary
	}
	custom := e.io.ReadMultiline("Enter a custom result:")
	if custom == "" || custom == ui.Interrupt {
		return summary
	}
	return custom
}

// diffStats counts added and removed lines in a unified diff.
func diffStats(diff string) (added, removed int) {
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			added++
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			removed++
		}
	}
	return
}

// PreviewDiff renders a semantic character diff between two revisions of a
// file for display purposes. Git owns the authoritative staged diff.
func PreviewDiff(oldContent, newContent string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldContent, newContent, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.DiffPrettyText(diffs)
}
