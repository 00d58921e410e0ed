package adapter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/calebcase/oops"
	"github.com/google/uuid"

	"github.com/agentrt/core/classify"
	"github.com/agentrt/core/completion"
	"github.com/agentrt/core/stream"
	"github.com/agentrt/core/task"
)

// handleMessage is the stream parser's onMessage callback: it implements
// the message dispatch table for every protocol message kind.
func (a *Adapter) handleMessage(msg stream.Message) {
	switch msg.Kind {
	case stream.KindStepStart:
		a.handleStepStart(msg)
	case stream.KindText:
		a.handleText(msg)
	case stream.KindToolCall:
		a.dispatchToolCall(msg.ToolName, msg.ToolInput)
	case stream.KindToolUse:
		if msg.ToolUseState.Status == stream.ToolPending {
			a.dispatchToolCall(msg.ToolName, msg.ToolUseState.Input)
		} else {
			a.dispatchToolResult(msg.ToolName, msg.ToolUseState.Output, msg.ToolUseState.Status == stream.ToolError)
		}
	case stream.KindToolResult:
		a.dispatchToolResult("", msg.Output, false)
	case stream.KindStepFinish:
		a.handleStepFinish(msg)
	case stream.KindError:
		a.handleStreamError(msg)
	}
}

// handleStreamError routes a structured error message to the auth-failure
// path when it matches a known provider authentication pattern, and to the
// generic failure path otherwise. Either way the task terminates failed.
func (a *Adapter) handleStreamError(msg stream.Message) {
	if authErr, ok := authErrorFromMessage(msg); ok {
		if a.cb.OnAuthError != nil {
			a.cb.OnAuthError(authErr)
		}
		a.finish(task.StatusFailed, authErr)
		return
	}
	a.finish(task.StatusFailed, oops.New("%s", classify.HumanizeError(msg.Err)))
}

// authErrorFromMessage reports whether msg's error text matches a known
// provider authentication failure pattern and, if so, builds the AuthError
// to propagate, pulling the provider id out of the envelope's raw fields
// when the child supplied one.
func authErrorFromMessage(msg stream.Message) (*task.AuthError, bool) {
	if !classify.IsAuthFailure(msg.Err) {
		return nil, false
	}
	providerID, _ := msg.Raw["provider"].(string)
	return &task.AuthError{ProviderID: providerID, Message: msg.Err}, true
}

func (a *Adapter) handleStepStart(msg stream.Message) {
	if msg.SessionID != "" {
		a.mu.Lock()
		a.sessionID = msg.SessionID
		a.mu.Unlock()
	}
	a.setToolCalledThisStep(false)
	a.progress(task.StageConnecting)
	a.armWaitingTimer()
}

// handleText forwards a text message to the host unless it is the answer
// to an enforcer-injected self-check prompt; either way it is recorded in
// history. The suppression lifts the moment any tool activity resumes
// (dispatchToolCall clears it), since that is the first sign the model has
// moved past answering the injected prompt and back to real work.
func (a *Adapter) handleText(msg stream.Message) {
	record := a.appendHistory(task.Message{
		Kind:    task.MessageAssistant,
		Content: classify.Sanitize(msg.Text),
	})
	if !a.suppressText {
		a.forward(record)
	}
}

func (a *Adapter) handleStepFinish(msg stream.Message) {
	a.stopWaitingTimer()

	if msg.Reason == stream.ReasonError {
		a.finish(task.StatusFailed, oops.New("adapter: step finished with an error reason"))
		return
	}

	a.enforcer.OnStepFinish(msg.Reason)
}

// dispatchToolCall handles both a tool_call message and a tool_use message
// still in its pending state: the call has been issued but has not yet
// resolved to a result.
func (a *Adapter) dispatchToolCall(name string, input any) {
	a.setToolCalledThisStep(true)
	a.suppressText = false

	if !a.planningSeen && !classify.IsHidden(name) && !classify.IsNonContinuation(name) && !classify.IsStartTask(name) {
		a.debugf("tool %q called before start_task", name)
	}

	if classify.IsHidden(name) {
		return
	}

	if strings.HasPrefix(name, "browser_") {
		a.progress(task.StageBrowser)
	} else {
		a.progress(task.StageToolUse)
	}

	record := a.appendHistory(task.Message{
		Kind:      task.MessageTool,
		ToolName:  name,
		ToolInput: input,
	})
	a.forward(record)

	switch {
	case classify.IsStartTask(name):
		a.planningSeen = true
		if items, ok := synthesizePlan(input); ok {
			plan := a.appendHistory(task.Message{Kind: task.MessageSystem, Content: "Plan created."})
			a.forward(plan)
			if a.cb.OnTodoUpdate != nil {
				a.cb.OnTodoUpdate(items)
			}
		}

	case classify.IsTodoWrite(name):
		if a.cb.OnTodoUpdate != nil {
			a.cb.OnTodoUpdate(parseTodoItems(input))
		}

	case classify.IsPermissionRequest(name):
		if a.cb.OnPermissionRequest != nil {
			a.cb.OnPermissionRequest(a.buildFilePermissionRequest(input))
		}

	case classify.IsCompletionTool(name):
		a.enforcer.OnCompleteTaskCall(parseCompleteTaskArgs(input))
	}
}

// dispatchToolResult handles a tool_result message and a tool_use message
// that has resolved to completed or error.
func (a *Adapter) dispatchToolResult(name string, output any, isError bool) {
	text := classify.Sanitize(stringifyOutput(output))
	text, shots := classify.ExtractScreenshots(text)

	msg := task.Message{Kind: task.MessageTool, ToolName: name, Content: text}
	for _, s := range shots {
		msg.Attachments = append(msg.Attachments, task.Attachment{Kind: task.AttachmentScreenshot, Data: s})
	}
	a.emit(msg)

	if isError && strings.HasPrefix(name, "browser_") {
		a.progress(task.StageBrowserRecovery)
	}
}

// buildFilePermissionRequest turns a request_file_permission tool call's
// input into the file variant of task.PermissionRequest. There is no wire
// signal for the tool variant (the protocol carries no "needs permission"
// state on an ordinary tool_use): the child process's own permission-prompt
// plumbing decides whether a tool call proceeds before it ever reaches the
// adapter, so only the file variant — raised by the model calling this one
// dedicated tool — is observable here.
func (a *Adapter) buildFilePermissionRequest(input any) task.PermissionRequest {
	args := parseFilePermissionArgs(input)
	return task.PermissionRequest{
		ID:             uuid.NewString(),
		TaskID:         a.taskID,
		Kind:           task.PermissionFile,
		CreatedAt:      time.Now(),
		FileOperation:  args.operation,
		FilePath:       args.path,
		TargetPath:     args.targetPath,
		ContentPreview: args.preview,
	}
}

type filePermissionArgs struct {
	operation  task.FileOperation
	path       string
	targetPath string
	preview    string
}

func parseFilePermissionArgs(input any) filePermissionArgs {
	m, _ := input.(map[string]any)
	get := func(key string) string {
		s, _ := m[key].(string)
		return s
	}
	return filePermissionArgs{
		operation:  task.FileOperation(get("file_operation")),
		path:       get("file_path"),
		targetPath: get("target_path"),
		preview:    get("content_preview"),
	}
}

func stringifyOutput(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func parseCompleteTaskArgs(input any) completion.CompleteTaskArgs {
	m, _ := input.(map[string]any)
	get := func(key string) string {
		s, _ := m[key].(string)
		return s
	}
	return completion.CompleteTaskArgs{
		Status:                 completion.CompletionStatus(get("status")),
		Summary:                get("summary"),
		OriginalRequestSummary: get("original_request_summary"),
		RemainingWork:          get("remaining_work"),
	}
}

func parseTodoItems(input any) []task.TodoItem {
	m, _ := input.(map[string]any)
	raw, _ := m["todos"].([]any)

	items := make([]task.TodoItem, 0, len(raw))
	for _, r := range raw {
		rm, ok := r.(map[string]any)
		if !ok {
			continue
		}
		id, _ := rm["id"].(string)
		if id == "" {
			id = uuid.NewString()
		}
		content, _ := rm["content"].(string)
		status, _ := rm["status"].(string)
		priority, _ := rm["priority"].(string)
		items = append(items, task.TodoItem{
			ID:       id,
			Content:  content,
			Status:   task.TodoStatus(status),
			Priority: task.TodoPriority(priority),
		})
	}
	return items
}

// synthesizePlan builds the synthetic todo list a start_task call with
// needs_planning produces: the first step in_progress, everything else
// pending. It reports false when the call carried no plan to synthesize.
func synthesizePlan(input any) ([]task.TodoItem, bool) {
	m, ok := input.(map[string]any)
	if !ok {
		return nil, false
	}
	needsPlanning, _ := m["needs_planning"].(bool)
	steps, _ := m["steps"].([]any)
	if !needsPlanning || len(steps) == 0 {
		return nil, false
	}

	items := make([]task.TodoItem, 0, len(steps))
	for i, s := range steps {
		content, _ := s.(string)
		status := task.TodoPending
		if i == 0 {
			status = task.TodoInProgress
		}
		items = append(items, task.TodoItem{
			ID:       uuid.NewString(),
			Content:  content,
			Status:   status,
			Priority: task.TodoMedium,
		})
	}
	return items, true
}
