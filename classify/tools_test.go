package classify

import "testing"

func TestIsHidden(t *testing.T) {
	tests := []struct {
		name string
		tool string
		want bool
	}{
		{"exact hidden", "discard", true},
		{"namespaced hidden", "providerA_prune", true},
		{"namespaced multi-underscore hidden", "acme_context_info", true},
		{"not hidden", "bash", false},
		{"not hidden completion tool", "complete_task", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsHidden(tt.tool); got != tt.want {
				t.Errorf("IsHidden(%q) = %v, want %v", tt.tool, got, tt.want)
			}
		})
	}
}

func TestIsNonContinuation(t *testing.T) {
	tests := []struct {
		name string
		tool string
		want bool
	}{
		{"hidden set member", "extract", true},
		{"todowrite", "todowrite", true},
		{"namespaced todowrite", "providerA_todowrite", true},
		{"complete_task", "complete_task", true},
		{"AskUserQuestion", "AskUserQuestion", true},
		{"namespaced multi-underscore complete_task", "acme_complete_task", true},
		{"namespaced multi-underscore start_task", "acme_start_task", true},
		{"namespaced multi-underscore report_checkpoint", "acme_report_checkpoint", true},
		{"namespaced multi-underscore request_file_permission", "acme_request_file_permission", true},
		{"bash is continuation", "bash", false},
		{"browser_evaluate is continuation", "browser_evaluate", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNonContinuation(tt.tool); got != tt.want {
				t.Errorf("IsNonContinuation(%q) = %v, want %v", tt.tool, got, tt.want)
			}
		})
	}
}

func TestIsStartTask(t *testing.T) {
	tests := []struct {
		name string
		tool string
		want bool
	}{
		{"exact", "start_task", true},
		{"namespaced", "providerA_start_task", true},
		{"not start task", "complete_task", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStartTask(tt.tool); got != tt.want {
				t.Errorf("IsStartTask(%q) = %v, want %v", tt.tool, got, tt.want)
			}
		})
	}
}

func TestIsCompletionTool(t *testing.T) {
	tests := []struct {
		name string
		tool string
		want bool
	}{
		{"exact", "complete_task", true},
		{"namespaced", "providerA_complete_task", true},
		{"prefix-only does not count as namespaced", "complete_taskXYZ", false},
		{"not completion", "start_task", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCompletionTool(tt.tool); got != tt.want {
				t.Errorf("IsCompletionTool(%q) = %v, want %v", tt.tool, got, tt.want)
			}
		})
	}
}

func TestIsTodoWrite(t *testing.T) {
	tests := []struct {
		name string
		tool string
		want bool
	}{
		{"exact", "todowrite", true},
		{"namespaced", "providerA_todowrite", true},
		{"not todowrite", "complete_task", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTodoWrite(tt.tool); got != tt.want {
				t.Errorf("IsTodoWrite(%q) = %v, want %v", tt.tool, got, tt.want)
			}
		})
	}
}

func TestIsPermissionRequest(t *testing.T) {
	tests := []struct {
		name string
		tool string
		want bool
	}{
		{"exact", "request_file_permission", true},
		{"namespaced", "providerA_request_file_permission", true},
		{"not permission request", "complete_task", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPermissionRequest(tt.tool); got != tt.want {
				t.Errorf("IsPermissionRequest(%q) = %v, want %v", tt.tool, got, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		tool string
		want string
	}{
		{"override", "browser_evaluate", "Evaluating page"},
		{"no override falls back to raw name", "some_custom_tool", "some_custom_tool"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayName(tt.tool); got != tt.want {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.tool, got, tt.want)
			}
		})
	}
}
