package main

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/agentrt/core/task"
)

func TestBuildCliArgs(t *testing.T) {
	c := NewCapabilities(Flags{}, zerolog.Nop())

	got := c.BuildCliArgs(task.Config{
		Prompt:         "do the thing",
		SessionID:      "sess-1",
		Model:          "opus",
		PermissionMode: "acceptEdits",
	})
	want := []string{
		"--prompt", "do the thing",
		"--session-id", "sess-1",
		"--model", "opus",
		"--permission-mode", "acceptEdits",
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestBuildCliArgs_OmitsEmptyOptionalFields(t *testing.T) {
	c := NewCapabilities(Flags{}, zerolog.Nop())
	got := c.BuildCliArgs(task.Config{Prompt: "hi"})
	want := []string{"--prompt", "hi"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBuildEnvironment_IncludesTaskID(t *testing.T) {
	c := NewCapabilities(Flags{}, zerolog.Nop())
	env := c.BuildEnvironment("task-42")
	if env["AGENTRT_TASK_ID"] != "task-42" {
		t.Fatalf("env[AGENTRT_TASK_ID] = %q, want task-42", env["AGENTRT_TASK_ID"])
	}
}

func TestGetModelDisplayName_FallsBackToConfiguredModel(t *testing.T) {
	c := NewCapabilities(Flags{Model: "sonnet"}, zerolog.Nop())
	if got := c.GetModelDisplayName(""); got != "sonnet" {
		t.Fatalf("got %q, want sonnet", got)
	}
	if got := c.GetModelDisplayName("haiku"); got != "haiku" {
		t.Fatalf("got %q, want haiku", got)
	}
}
