package main

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/agentrt/core/task"
)

// capabilities is the reference host's implementation of task.Capabilities:
// a single fixed CLI command resolved from a flag, a passthrough
// environment, and no debug log watcher. A real embedding host resolves
// the command from its own agent registry and injects per-task secrets;
// this one exists only to exercise the public API end to end.
type capabilities struct {
	cliCommand string
	model      string
	logger     zerolog.Logger
}

// NewCapabilities builds the reference host's Capabilities from its flags.
func NewCapabilities(flags Flags, logger zerolog.Logger) *capabilities {
	return &capabilities{
		cliCommand: flags.CliCommand,
		model:      flags.Model,
		logger:     logger.With().Str("component", "capabilities").Logger(),
	}
}

func (c *capabilities) GetCliCommand() (string, []string) {
	return c.cliCommand, nil
}

func (c *capabilities) BuildCliArgs(cfg task.Config) []string {
	args := []string{"--prompt", cfg.Prompt}
	if cfg.SessionID != "" {
		args = append(args, "--session-id", cfg.SessionID)
	}
	if cfg.Model != "" {
		args = append(args, "--model", cfg.Model)
	}
	if cfg.PermissionMode != "" {
		args = append(args, "--permission-mode", cfg.PermissionMode)
	}
	return args
}

func (c *capabilities) BuildEnvironment(taskID string) map[string]string {
	env := make(map[string]string, len(os.Environ())+1)
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				env[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	env["AGENTRT_TASK_ID"] = taskID
	return env
}

func (c *capabilities) IsCliAvailable() bool {
	return lookPathAvailable(c.cliCommand)
}

func (c *capabilities) OnBeforeStart() {
	c.logger.Debug().Msg("spawning child")
}

func (c *capabilities) OnBeforeTaskStart(cb task.Callbacks, isFirstTask bool) {
	c.logger.Info().Bool("first_task", isFirstTask).Msg("task starting")
}

func (c *capabilities) GetModelDisplayName(modelID string) string {
	if modelID == "" {
		return c.model
	}
	return modelID
}

func (c *capabilities) DebugLogPath(taskID string) string {
	return ""
}
