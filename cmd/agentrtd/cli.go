package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentrt/core/task"
)

// Flags is the reference host's flag set: generalized from the teacher's
// Slack-bound Flags struct down to what a terminal host actually needs —
// no Slack tokens, no allowlist, no session-file path.
type Flags struct {
	Log struct {
		Level  zerolog.Level `kong:"default='info',enum='trace,debug,info,warn,error,fatal,panic',env='LOG_LEVEL'"`
		Format string        `kong:"default='json',enum='json,console',env='LOG_FORMAT'"`
	} `kong:"embed,prefix='log.'"`

	CliCommand string `kong:"required,env='AGENTRT_CLI_COMMAND',help='Path to the agent CLI executable to supervise'"`

	WorkingDir string `kong:"default='.',env='AGENTRT_WORKING_DIR',help='Working directory for the child process'"`

	Model          string `kong:"env='AGENTRT_MODEL',help='Model identifier to pass to the CLI'"`
	PermissionMode string `kong:"default='default',env='AGENTRT_PERMISSION_MODE',help='Permission mode (default, acceptEdits, bypassPermissions)'"`
	MaxAttempts    int    `kong:"default=0,env='AGENTRT_MAX_ATTEMPTS',help='Max continuation attempts (0 uses the package default)'"`

	ConcurrencyCap int `kong:"default=0,env='AGENTRT_CONCURRENCY',help='Max tasks run simultaneously (0 uses the package default)'"`

	Prompt string `kong:"arg,help='Initial prompt for the task'"`

	GracefulShutdownTTL time.Duration `kong:"default='30s',env='AGENTRT_GRACEFUL_SHUTDOWN_TTL',help='Time to wait for graceful shutdown'"`
}

type CLI struct {
	Flags
}

// Run starts exactly one task from the command-line prompt and blocks until
// it reaches a terminal status or the process is asked to shut down. It is
// a reference wiring of task.Manager, not a multi-task daemon loop — the
// teacher's bot.Run() equivalent (an event loop admitting many tasks over
// time) belongs to whatever real host embeds this package, not to this
// terminal demonstrator.
func (cli *CLI) Run(ctx *context.Context, logger zerolog.Logger) (err error) {
	logger.Info().
		Str("cli_command", cli.CliCommand).
		Str("working_dir", cli.WorkingDir).
		Msg("starting agent task supervisor")

	caps := NewCapabilities(cli.Flags, logger)

	manager := task.NewManager(adapterFactory, caps, cli.ConcurrencyCap, logger)

	done := make(chan struct{})
	var finalErr error

	taskID := uuid.NewString()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	cb := task.Callbacks{
		OnMessage: func(msg task.Message) {
			logger.Debug().Str("kind", string(msg.Kind)).Msg("message persisted")
		},
		OnMessageBatch: func(messages []task.Message) {
			for _, msg := range messages {
				printMessage(out, msg)
			}
			out.Flush()
		},
		OnProgress: func(stage task.ProgressStage) {
			logger.Info().Str("stage", string(stage)).Msg("progress")
		},
		OnPermissionRequest: func(req task.PermissionRequest) {
			logger.Warn().
				Str("kind", string(req.Kind)).
				Str("file_operation", string(req.FileOperation)).
				Str("file_path", req.FilePath).
				Msg("permission request received; this reference host has no UI to answer it")
		},
		OnTodoUpdate: func(items []task.TodoItem) {
			for _, item := range items {
				fmt.Fprintf(out, "[%s] %s\n", item.Status, item.Content)
			}
			out.Flush()
		},
		OnStatusChange: func(status task.Status) {
			logger.Info().Str("status", string(status)).Msg("status change")
		},
		OnDebug: func(line string) {
			logger.Debug().Str("source", "child").Msg(line)
		},
		OnAuthError: func(authErr *task.AuthError) {
			logger.Error().Str("provider", authErr.ProviderID).Msg(authErr.Message)
		},
		OnError: func(taskErr error) {
			logger.Error().Err(taskErr).Msg("task error")
		},
		OnComplete: func(t task.Task) {
			finalErr = nil
			if t.Status == task.StatusFailed {
				finalErr = fmt.Errorf("task %s finished with status %s", t.ID, t.Status)
			}
			logger.Info().Str("status", string(t.Status)).Str("session_id", t.SessionID).Msg("task complete")
			close(done)
		},
	}

	cfg := task.Config{
		Prompt:         cli.Prompt,
		WorkingDir:     cli.WorkingDir,
		Model:          cli.Model,
		MaxAttempts:    cli.MaxAttempts,
		PermissionMode: cli.PermissionMode,
	}

	if _, err = manager.StartTask(taskID, cfg, cb); err != nil {
		return err
	}

	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	select {
	case <-done:
	case <-signals:
		start := time.Now()
		logger.Warn().
			Float64("ttl", cli.GracefulShutdownTTL.Seconds()).
			Msg("shutting down gracefully (send again to force)")

		manager.CancelTask(taskID)

		select {
		case <-done:
		case <-signals:
			logger.Warn().
				Float64("elapsed", time.Since(start).Seconds()).
				Msg("received second signal: forcing immediate exit")
			os.Exit(1)
		case <-time.After(cli.GracefulShutdownTTL):
			logger.Error().
				Float64("elapsed", time.Since(start).Seconds()).
				Msg("graceful shutdown timeout: forcing exit")
			os.Exit(1)
		}

		logger.Info().
			Float64("elapsed", time.Since(start).Seconds()).
			Msg("graceful shutdown complete")
	}

	return finalErr
}

func printMessage(out *bufio.Writer, msg task.Message) {
	switch msg.Kind {
	case task.MessageAssistant:
		fmt.Fprintln(out, msg.Content)
	case task.MessageTool:
		if msg.ToolInput != nil {
			fmt.Fprintf(out, "-> %s\n", msg.ToolName)
		} else {
			fmt.Fprintf(out, "<- %s: %s\n", msg.ToolName, msg.Content)
		}
	case task.MessageSystem:
		fmt.Fprintf(out, "* %s\n", msg.Content)
	}
}

// lookPathAvailable is a small seam kept separate from Capabilities so it
// can be swapped in tests; production always calls exec.LookPath.
var lookPathAvailable = func(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
