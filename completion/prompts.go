package completion

import (
	"fmt"
	"strings"
)

// ContinuationPrompt is sent when a turn finished without a complete_task
// call and the machine still has attempts remaining. It must be gentle
// enough not to interrupt genuinely unfinished work, yet firm enough to
// force a terminal tool call eventually.
func ContinuationPrompt() string {
	return strings.TrimSpace(`
Before continuing, check: have you actually finished the task?

If there is more work to do, keep going.

If you believe the task is finished (or you are blocked and cannot make
further progress), you must call complete_task with one of:
  - "success" — the task is fully done.
  - "blocked" — you cannot proceed without something only the user can provide.
  - "partial" — you made progress but real work remains.
`)
}

// VerificationPrompt is sent after a claimed "success", before the task is
// allowed to finish. It echoes the model's own claim back at it and asks
// for independent proof rather than taking the claim at face value.
func VerificationPrompt(args CompleteTaskArgs) string {
	summary := args.Summary
	if summary == "" {
		summary = "(no summary was recorded)"
	}
	original := args.OriginalRequestSummary
	if original == "" {
		original = "(no original request summary was recorded)"
	}

	return strings.TrimSpace(fmt.Sprintf(`
You reported that this task is complete:

  Your summary: %s

The original request was:

  %s

Take a screenshot and compare the current state against the plan's
completion criteria before trusting your own summary.

If the criteria are genuinely met, call complete_task again with
"success". Otherwise, keep working.
`, summary, original))
}

// PartialContinuationPrompt is sent when the model reported "partial". It
// must force a concrete plan for the remaining work and forbids reporting
// "partial" a second time in a row, and forbids asking the user whether to
// continue — the decision to continue is already made.
func PartialContinuationPrompt(args CompleteTaskArgs) string {
	remaining := args.RemainingWork
	if remaining == "" {
		remaining = "(no remaining work was recorded)"
	}

	return strings.TrimSpace(fmt.Sprintf(`
You reported partial progress:

  Completed so far: %s
  Remaining work: %s

Before resuming, build a concrete todo list for the remaining work, then
continue without pausing to ask the user whether to proceed.

When you next call complete_task, the status must be "success" or a real
"blocked" — do not report "partial" again.
`, args.Summary, remaining))
}
