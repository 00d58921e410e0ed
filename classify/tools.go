// Package classify implements tool classification and output sanitization:
// the closed sets of tool names that drive message-stream dispatch, and the
// text transforms applied to a tool's raw output before it reaches a host.
package classify

import "strings"

// hiddenTools are suppressed from the message stream entirely.
var hiddenTools = map[string]bool{
	"discard":      true,
	"extract":      true,
	"context_info": true,
	"prune":        true,
	"distill":      true,
}

// nonContinuationTools do not count as progress toward the user's goal;
// this set is the hidden set plus the protocol/bookkeeping tools.
var nonContinuationTools = map[string]bool{
	"discard":                 true,
	"extract":                 true,
	"context_info":            true,
	"prune":                   true,
	"distill":                 true,
	"todowrite":               true,
	"complete_task":           true,
	"AskUserQuestion":         true,
	"report_checkpoint":       true,
	"report_thought":          true,
	"request_file_permission": true,
	"start_task":              true,
	"skill":                   true,
}

// displayNames overrides the label shown for specific tools; anything
// absent here falls back to the raw tool name.
var displayNames = map[string]string{
	"browser_evaluate":   "Evaluating page",
	"browser_navigate":   "Navigating",
	"browser_click":      "Clicking",
	"browser_type":       "Typing",
	"browser_screenshot": "Taking screenshot",
	"bash":               "Running command",
	"read_file":          "Reading file",
	"write_file":         "Writing file",
	"edit_file":          "Editing file",
	"grep":               "Searching",
	"glob":               "Finding files",
	"web_search":         "Searching the web",
	"web_fetch":          "Fetching page",
}

// matches reports whether name is an exact match for key, or a namespaced
// variant of it (e.g. "providerA_todowrite" matches "todowrite").
func matches(name, key string) bool {
	if name == key {
		return true
	}
	return strings.HasSuffix(name, "_"+key)
}

// matchesSet reports whether name matches any member of set, exactly or as
// a namespaced suffix.
func matchesSet(name string, set map[string]bool) bool {
	for key := range set {
		if matches(name, key) {
			return true
		}
	}
	return false
}

// IsHidden reports whether name is a hidden tool: it is suppressed from
// the message stream and its result is never shown.
func IsHidden(name string) bool {
	return matchesSet(name, hiddenTools)
}

// IsNonContinuation reports whether name is a tool that does not count as
// progress toward the user's goal.
func IsNonContinuation(name string) bool {
	return matchesSet(name, nonContinuationTools)
}

// IsStartTask reports whether name is the start-task tool, exactly or as a
// namespaced variant (e.g. "providerA_start_task").
func IsStartTask(name string) bool {
	return matches(name, "start_task")
}

// IsCompletionTool reports whether name is the completion tool, exactly or
// as a namespaced variant (e.g. "providerA_complete_task").
func IsCompletionTool(name string) bool {
	return matches(name, "complete_task")
}

// IsTodoWrite reports whether name is the todo-list tool, exactly or as a
// namespaced variant (e.g. "providerA_todowrite").
func IsTodoWrite(name string) bool {
	return matches(name, "todowrite")
}

// IsPermissionRequest reports whether name is the file-permission tool,
// exactly or as a namespaced variant (e.g. "providerA_request_file_permission").
func IsPermissionRequest(name string) bool {
	return matches(name, "request_file_permission")
}

// DisplayName returns the human label shown for a tool call: an override
// if one exists, otherwise the raw tool name.
func DisplayName(name string) string {
	if label, ok := displayNames[name]; ok {
		return label
	}
	return name
}
