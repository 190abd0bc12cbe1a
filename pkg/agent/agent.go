// Package agent implements the task run-loop: a state machine that
// alternates between the model transport, tool execution, and user input
// until the task completes, is cancelled, or the model stops asking for
// anything.
package agent

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/Yurii-huang/Jarvis/pkg/llm"
	"github.com/Yurii-huang/Jarvis/pkg/methodology"
	"github.com/Yurii-huang/Jarvis/pkg/protocol"
	"github.com/Yurii-huang/Jarvis/pkg/tool"
	"github.com/Yurii-huang/Jarvis/pkg/types"
	"github.com/Yurii-huang/Jarvis/pkg/ui"
)

// State labels the run-loop phases. Exposed for observability; transitions
// are driven entirely by Run.
type State string

const (
	StateAwaitingModel      State = "AWAITING_MODEL"
	StateAwaitingToolResult State = "AWAITING_TOOL_RESULT"
	StateAwaitingUserInput  State = "AWAITING_USER_INPUT"
	StateSummarizing        State = "SUMMARIZING"
	StateCompleting         State = "COMPLETING"
	StateDone               State = "DONE"
)

// CompletionMarker is the fixed result a top-level agent returns when the
// user ends the task with empty input.
const CompletionMarker = "Task completed"

// CancelledMarker is returned when the user interrupts at an input point.
const CancelledMarker = "Task cancelled by user"

// OutputHandler intercepts whole model responses that carry a structured
// directive outside the single-call tool protocol (the patch workflow is
// one). Handlers are consulted in registration order before extraction.
type OutputHandler interface {
	Name() string
	CanHandle(response string) bool
	Handle(ctx context.Context, response string) (string, error)
}

// Options tune one agent instance.
type Options struct {
	// SystemPrompt seeds the system turn; tool documentation and the call
	// protocol description are appended to it.
	SystemPrompt string

	// IsSubAgent switches completion to a structured whole-task summary
	// instead of the fixed completion marker.
	IsSubAgent bool

	// SummaryReminderTurns is the turn count after which a soft reminder to
	// summarize is attached to outgoing prompts. Zero means the default of 10.
	SummaryReminderTurns int

	// RecordMethodology solicits a solved-problem write-up at completion and
	// saves it to the methodology store.
	RecordMethodology bool

	// WorkDir is where shell-prefixed user input runs.
	WorkDir string
}

// Agent owns one conversation and drives it to completion. Not safe for
// concurrent use; each concurrent task needs its own instance.
type Agent struct {
	gateway   *llm.Gateway
	registry  *tool.Registry
	extractor *protocol.Extractor
	io        ui.Interactor
	store     methodology.Store
	handlers  []OutputHandler
	logger    *slog.Logger
	opts      Options

	conversation []types.Message
	turns        int
	state        State
	task         string
}

func New(gateway *llm.Gateway, registry *tool.Registry, io ui.Interactor, opts Options) *Agent {
	if opts.SummaryReminderTurns <= 0 {
		opts.SummaryReminderTurns = 10
	}
	return &Agent{
		gateway:   gateway,
		registry:  registry,
		extractor: protocol.NewExtractor(protocol.MarkerPair{}),
		io:        io,
		logger:    slog.Default(),
		opts:      opts,
		state:     StateAwaitingModel,
	}
}

// SetLogger replaces the default logger.
func (a *Agent) SetLogger(l *slog.Logger) { a.logger = l }

// SetMethodologyStore wires the completion-time write-up store.
func (a *Agent) SetMethodologyStore(s methodology.Store) { a.store = s }

// AddHandler appends an output handler. Handlers run before tool-call
// extraction, in the order added.
func (a *Agent) AddHandler(h OutputHandler) { a.handlers = append(a.handlers, h) }

// State returns the current loop state.
func (a *Agent) State() State { return a.state }

// Conversation returns the live turn list. Callers must not mutate it.
func (a *Agent) Conversation() []types.Message { return a.conversation }

// Run drives the task to completion and returns the final result text.
// The only error paths out of here are context cancellation and transport
// failure after the retry policy gave up; everything recoverable is folded
// back into the conversation instead.
func (a *Agent) Run(ctx context.Context, task string) (string, error) {
	a.task = task
	a.conversation = []types.Message{
		{Role: types.RoleSystem, Content: a.systemPrompt()},
		{Role: types.RoleUser, Content: task},
	}
	a.turns = 0

	for {
		a.state = StateAwaitingModel
		a.turns++

		response, err := a.gateway.Chat(ctx, a.outgoing())
		if err != nil {
			a.state = StateDone
			return "", fmt.Errorf("model transport: %w", err)
		}
		a.append(types.RoleAssistant, response)
		a.logger.Debug("model response", "turn", a.turns, "bytes", len(response))

		if protocol.HasSummaryMarker(response) {
			a.state = StateSummarizing
			if err := a.summarize(ctx); err != nil {
				a.state = StateDone
				return "", err
			}
			continue
		}

		if handled, result := a.runHandlers(ctx, response); handled {
			a.append(types.RoleTool, result)
			continue
		}

		call, err := a.extractor.Extract(response)
		if err != nil {
			// The model sees its own mistake as the next message.
			ui.Print(ui.Error, "%v", err)
			a.append(types.RoleTool, err.Error())
			continue
		}

		if call != nil {
			a.state = StateAwaitingToolResult
			result := a.registry.Execute(ctx, *call)
			sev := ui.Success
			if !result.Success {
				sev = ui.Warning
			}
			ui.Print(sev, "tool %s: %s", call.Name, firstLine(result.Render()))
			a.append(types.RoleTool, result.Render())
			continue
		}

		a.state = StateAwaitingUserInput
		ui.Print(ui.Info, "%s", response)
		input := a.io.ReadMultiline("Your reply (empty line to finish the task):")

		switch {
		case input == ui.Interrupt:
			a.state = StateDone
			return CancelledMarker, nil
		case input == "":
			a.state = StateCompleting
			result, err := a.complete(ctx)
			a.state = StateDone
			return result, err
		case strings.HasPrefix(input, "!"):
			a.append(types.RoleUser, a.runShellInput(ctx, input))
		default:
			a.append(types.RoleUser, input)
		}
	}
}

func (a *Agent) append(role types.Role, content string) {
	a.conversation = append(a.conversation, types.Message{Role: role, Content: content})
}

func (a *Agent) systemPrompt() string {
	parts := []string{a.opts.SystemPrompt, a.registry.HelpText(), protocol.CallPrompt()}
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

// outgoing returns the messages for the next model call. Past the reminder
// threshold a soft nudge to summarize rides along without entering the
// stored conversation.
func (a *Agent) outgoing() []types.Message {
	if a.turns <= a.opts.SummaryReminderTurns {
		return a.conversation
	}
	reminder := fmt.Sprintf(
		"The conversation has run for %d turns. Consider emitting %s to condense the history.",
		a.turns, protocol.SummaryMarker)
	out := make([]types.Message, len(a.conversation), len(a.conversation)+1)
	copy(out, a.conversation)
	return append(out, types.Message{Role: types.RoleUser, Content: reminder})
}

// summarize condenses the whole history into a single synthetic turn. After
// it returns, the conversation is exactly {system, summary} and the turn
// counter restarts.
func (a *Agent) summarize(ctx context.Context) error {
	request := append(copyMessages(a.conversation), types.Message{
		Role: types.RoleUser,
		Content: "Summarize the conversation so far: the task, what has been " +
			"done, important findings, and what remains. Reply with the summary only.",
	})
	recap, err := a.gateway.Chat(ctx, request)
	if err != nil {
		return fmt.Errorf("summarization: %w", err)
	}

	a.conversation = []types.Message{
		a.conversation[0],
		{Role: types.RoleUser, Content: "Summary of the conversation so far:\n" + recap + "\n\nContinue the task."},
	}
	a.turns = 0
	ui.Print(ui.System, "conversation summarized")
	return nil
}

// complete finishes the task: optional methodology capture, then either a
// structured sub-agent summary or the fixed completion marker.
func (a *Agent) complete(ctx context.Context) (string, error) {
	if a.opts.RecordMethodology && a.store != nil {
		a.captureMethodology(ctx)
	}

	if a.opts.IsSubAgent {
		request := append(copyMessages(a.conversation), types.Message{
			Role: types.RoleUser,
			Content: "The task is finished. Produce a structured summary of the " +
				"whole task for the calling agent: goal, actions taken, outcome.",
		})
		summary, err := a.gateway.Chat(ctx, request)
		if err != nil {
			return "", fmt.Errorf("completion summary: %w", err)
		}
		return summary, nil
	}

	return CompletionMarker, nil
}

// captureMethodology is best-effort: a failed write-up never fails the task.
func (a *Agent) captureMethodology(ctx context.Context) {
	request := append(copyMessages(a.conversation), types.Message{
		Role: types.RoleUser,
		Content: "Write a short reusable methodology for solving this kind of " +
			"problem: what worked, pitfalls, and the order of steps. Reply with " +
			"the methodology only.",
	})
	content, err := a.gateway.Chat(ctx, request)
	if err != nil {
		a.logger.Warn("methodology capture failed", "error", err)
		return
	}
	err = a.store.Save(ctx, methodology.Methodology{Problem: a.task, Content: content})
	if err != nil {
		a.logger.Warn("methodology save failed", "error", err)
		return
	}
	ui.Print(ui.System, "methodology recorded")
}

func (a *Agent) runHandlers(ctx context.Context, response string) (bool, string) {
	for _, h := range a.handlers {
		if !h.CanHandle(response) {
			continue
		}
		result, err := h.Handle(ctx, response)
		if err != nil {
			ui.Print(ui.Error, "%s: %v", h.Name(), err)
			return true, fmt.Sprintf("%s handler failed: %v", h.Name(), err)
		}
		return true, result
	}
	return false, ""
}

// runShellInput executes a "!"-prefixed user line locally and folds the
// command plus its output into the user turn, so the model sees what the
// user saw.
func (a *Agent) runShellInput(ctx context.Context, input string) string {
	command := strings.TrimSpace(strings.TrimPrefix(input, "!"))
	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	cmd.Dir = a.opts.WorkDir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	ui.Print(ui.Info, "$ %s\n%s", command, out.String())

	text := fmt.Sprintf("I ran the shell command `%s`. Output:\n%s", command, out.String())
	if err != nil {
		text += fmt.Sprintf("\n(command failed: %v)", err)
	}
	return text
}

func copyMessages(in []types.Message) []types.Message {
	out := make([]types.Message, len(in), len(in)+1)
	copy(out, in)
	return out
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
