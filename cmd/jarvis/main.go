package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/Yurii-huang/Jarvis/pkg/agent"
	"github.com/Yurii-huang/Jarvis/pkg/agent/tools"
	"github.com/Yurii-huang/Jarvis/pkg/config"
	"github.com/Yurii-huang/Jarvis/pkg/gitops"
	"github.com/Yurii-huang/Jarvis/pkg/llm"
	"github.com/Yurii-huang/Jarvis/pkg/llm/factory"
	"github.com/Yurii-huang/Jarvis/pkg/methodology"
	"github.com/Yurii-huang/Jarvis/pkg/patch"
	"github.com/Yurii-huang/Jarvis/pkg/tool"
	"github.com/Yurii-huang/Jarvis/pkg/ui"
)

const systemPrompt = `You are Jarvis, a coding agent working inside the user's repository.
Work step by step: inspect before editing, use one tool per response, and
report what you did. When the task is done, reply without a tool call.`

// fileList is a repeatable -f flag.
type fileList []string

func (f *fileList) String() string { return strings.Join(*f, ",") }

func (f *fileList) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	configPath := flag.String("config", "", "path to configuration file")
	var files fileList
	flag.Var(&files, "f", "file to bring into the first prompt (repeatable)")
	flag.Parse()

	if err := run(ctx, logger, *configPath, files, flag.Args()); err != nil {
		logger.Error("jarvis exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath string, files fileList, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gateway, err := factory.NewGateway(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create model gateway: %w", err)
	}
	logger.Info("model gateway ready", "provider", gateway.ProviderID())

	workDir, err := os.Getwd()
	if err != nil {
		return err
	}

	store := methodology.NewFSStore(cfg.Agent.MethodologyDir)
	console := ui.NewConsole()

	task := strings.Join(args, " ")
	if task == "" {
		task, err = selectTask(workDir, console)
		if err != nil {
			return err
		}
	}

	for {
		if task == "" {
			task = console.ReadMultiline("Enter a task (empty to quit):")
			if task == "" || task == ui.Interrupt {
				return nil
			}
		}
		if strings.HasPrefix(task, "!") {
			runShell(ctx, workDir, strings.TrimPrefix(task, "!"))
			task = ""
			continue
		}

		a := buildAgent(ctx, gateway, console, store, cfg, workDir, logger)
		result, err := a.Run(ctx, withFileContext(task, files))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			ui.Print(ui.Error, "task failed: %v", err)
		} else {
			ui.Print(ui.Success, "%s", result)
		}
		files = nil
		task = ""
	}
}

// buildAgent assembles a fresh agent per task: its own registry, its own
// conversation. The patch workflow is attached only inside a git repository.
func buildAgent(ctx context.Context, gateway *llm.Gateway, console *ui.Console, store methodology.Store, cfg *config.Config, workDir string, logger *slog.Logger) *agent.Agent {
	registry := tool.NewRegistry()
	tools.RegisterDefaults(registry, tools.Deps{
		WorkDir:       workDir,
		Interactor:    console,
		Methodologies: store,
	})

	a := agent.New(gateway, registry, console, agent.Options{
		SystemPrompt:         systemPrompt,
		SummaryReminderTurns: cfg.Agent.SummaryReminderTurns,
		RecordMethodology:    cfg.Agent.RecordMethodology,
		WorkDir:              workDir,
	})
	a.SetLogger(logger)
	a.SetMethodologyStore(store)

	if root, err := gitops.FindRoot(workDir); err == nil {
		git := gitops.NewClient(root)
		commitPending(ctx, git)
		a.AddHandler(patch.NewEngine(git, gateway, console, cfg.Patch))
	} else {
		ui.Print(ui.Warning, "not inside a git repository, patch workflow disabled")
	}
	return a
}

// commitPending snapshots any uncommitted work so the session baseline is
// clean and rollback cannot destroy the user's own edits.
func commitPending(ctx context.Context, git *gitops.Client) {
	if !git.HasUncommittedChanges(ctx) {
		return
	}
	if err := git.StageAll(ctx); err != nil {
		ui.Print(ui.Warning, "stage pending changes: %v", err)
		return
	}
	c, err := git.Commit(ctx, "Snapshot uncommitted changes before task")
	if err != nil {
		ui.Print(ui.Warning, "snapshot commit: %v", err)
		return
	}
	ui.Print(ui.System, "snapshotted pending changes as %s", c.ShortHash())
}

// selectTask offers the predefined tasks from a .jarvis file, if present.
func selectTask(workDir string, console *ui.Console) (string, error) {
	data, err := os.ReadFile(filepath.Join(workDir, ".jarvis"))
	if err != nil {
		return "", nil
	}

	var tasks map[string]string
	if err := yaml.Unmarshal(data, &tasks); err != nil {
		return "", fmt.Errorf("parse .jarvis task file: %w", err)
	}
	if len(tasks) == 0 {
		return "", nil
	}

	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Predefined tasks:")
	for i, name := range names {
		fmt.Printf("  %d. %s\n", i+1, name)
	}
	choice := console.ReadLine("Pick a task number (empty for a custom task): ")
	if choice == "" {
		return "", nil
	}
	for i, name := range names {
		if choice == fmt.Sprint(i+1) || choice == name {
			return tasks[name], nil
		}
	}
	ui.Print(ui.Warning, "unknown task %q", choice)
	return "", nil
}

// withFileContext appends the -f file contents to the first prompt.
func withFileContext(task string, files fileList) string {
	if len(files) == 0 {
		return task
	}
	var b strings.Builder
	b.WriteString(task)
	b.WriteString("\n\nRelevant files:\n")
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(&b, "\n--- %s (unreadable: %v) ---\n", path, err)
			continue
		}
		fmt.Fprintf(&b, "\n--- %s ---\n%s\n", path, data)
	}
	return b.String()
}

func runShell(ctx context.Context, workDir, command string) {
	cmd := exec.CommandContext(ctx, "bash", "-c", strings.TrimSpace(command))
	cmd.Dir = workDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		ui.Print(ui.Error, "%v", err)
	}
}
