package completion

import (
	"fmt"

	"github.com/agentrt/core/stream"
)

// StepOutcome is what the enforcer decided a finished turn means for the
// task as a whole.
type StepOutcome int

const (
	// Continue means the step did not actually finish (a non-terminal
	// step_finish reason); the adapter should keep reading.
	Continue StepOutcome = iota
	// Pending means the turn finished but the protocol is not done; a
	// respawn decision will be made once the child process exits.
	Pending
	// Complete means the task is finished, one way or another; completion
	// itself is reported by OnProcessExit once the child exits.
	Complete
)

// Enforcer drives a Machine from the three events a Child-Process Adapter
// produces: a complete_task tool call, a step_finish, and a process exit.
// It never touches the child directly — spawning a verification or
// continuation session is delegated to callbacks the adapter supplies.
type Enforcer struct {
	machine *Machine

	calledThisTurn bool

	onStartVerification func(prompt string)
	onStartContinuation func(prompt string)
	onComplete          func()
	onExitError         func(exitCode int)
	onDebug             func(line string)
}

// NewEnforcer creates an Enforcer over a fresh Machine. Every callback is
// optional; a nil callback is simply not invoked.
func NewEnforcer(maxAttempts int, onStartVerification, onStartContinuation func(string), onComplete func(), onExitError func(int), onDebug func(string)) *Enforcer {
	return &Enforcer{
		machine:             NewMachine(maxAttempts),
		onStartVerification: onStartVerification,
		onStartContinuation: onStartContinuation,
		onComplete:          onComplete,
		onExitError:         onExitError,
		onDebug:             onDebug,
	}
}

// Machine exposes the underlying state machine, chiefly for tests and
// observability; callers should drive state transitions only through the
// enforcer's event methods.
func (e *Enforcer) Machine() *Machine { return e.machine }

// OnCompleteTaskCall records a complete_task tool call detected in the
// child's output. It reports whether the call was newly accepted: a call
// arriving while the task is already complete and not under verification
// is ignored.
func (e *Enforcer) OnCompleteTaskCall(args CompleteTaskArgs) bool {
	if e.machine.IsCompleteTaskCalled() && !e.machine.IsInVerificationMode() {
		e.debugf("complete_task ignored in state %s", e.machine.State())
		return false
	}

	e.machine.RecordCompleteTaskCall(args)
	e.calledThisTurn = true
	return true
}

// OnStepFinish processes a step_finish event and reports what it means for
// the task. Only stream.ReasonStop and stream.ReasonEndTurn are terminal;
// any other reason leaves the turn (and the calledThisTurn flag) open.
func (e *Enforcer) OnStepFinish(reason stream.StepFinishReason) StepOutcome {
	if !reason.Terminal() {
		return Continue
	}
	defer func() { e.calledThisTurn = false }()

	switch e.machine.State() {
	case AwaitingVerification, PartialContinuationPending:
		return Pending
	}

	if !e.calledThisTurn {
		if e.machine.IsInVerificationMode() {
			e.machine.VerificationContinuing()
			return Pending
		}
		if e.machine.ScheduleContinuation() {
			return Pending
		}
		return Complete
	}

	return Complete
}

// OnProcessExit processes the child's exit and, for every non-error,
// non-terminal outcome, decides whether to respawn the child for
// verification or continuation. A nonzero exitCode is always terminal and
// is reported via the onExitError callback instead.
func (e *Enforcer) OnProcessExit(exitCode int) {
	if exitCode != 0 {
		if e.onExitError != nil {
			e.onExitError(exitCode)
		}
		return
	}

	switch e.machine.State() {
	case AwaitingVerification:
		e.machine.StartVerification()
		e.spawnVerification()

	case PartialContinuationPending:
		args := e.machine.LastArgs()
		if !e.machine.StartPartialContinuation() {
			e.finish()
			return
		}
		e.calledThisTurn = false
		if e.onStartContinuation != nil {
			e.onStartContinuation(PartialContinuationPrompt(args))
		}

	case ContinuationPending:
		e.machine.StartContinuation()
		e.calledThisTurn = false
		if e.onStartContinuation != nil {
			e.onStartContinuation(ContinuationPrompt())
		}

	case VerificationContinuing:
		if !e.machine.ScheduleContinuation() {
			e.finish()
			return
		}
		e.machine.StartContinuation()
		e.calledThisTurn = false
		if e.onStartContinuation != nil {
			e.onStartContinuation(ContinuationPrompt())
		}

	default:
		e.finish()
	}
}

func (e *Enforcer) spawnVerification() {
	args := e.machine.LastArgs()
	if e.onStartVerification != nil {
		e.onStartVerification(VerificationPrompt(args))
	}
}

func (e *Enforcer) finish() {
	if e.onComplete != nil {
		e.onComplete()
	}
}

func (e *Enforcer) debugf(format string, args ...any) {
	if e.onDebug == nil {
		return
	}
	e.onDebug(fmt.Sprintf(format, args...))
}
