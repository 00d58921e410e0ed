package main

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/agentrt/core/task"
)

func TestPrintMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  task.Message
		want string
	}{
		{
			name: "assistant text",
			msg:  task.Message{Kind: task.MessageAssistant, Content: "hello"},
			want: "hello\n",
		},
		{
			name: "tool call",
			msg:  task.Message{Kind: task.MessageTool, ToolName: "bash", ToolInput: map[string]any{"command": "ls"}},
			want: "-> bash\n",
		},
		{
			name: "tool result",
			msg:  task.Message{Kind: task.MessageTool, ToolName: "bash", Content: "ok"},
			want: "<- bash: ok\n",
		},
		{
			name: "system message",
			msg:  task.Message{Kind: task.MessageSystem, Content: "Plan created."},
			want: "* Plan created.\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			out := bufio.NewWriter(&buf)
			printMessage(out, tt.msg)
			out.Flush()
			if got := buf.String(); got != tt.want {
				t.Errorf("printMessage(%+v) wrote %q, want %q", tt.msg, got, tt.want)
			}
		})
	}
}
