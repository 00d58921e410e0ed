package task

import "github.com/rs/zerolog"

// AdapterHandle is the minimal surface the Manager needs from a per-task
// child-process adapter. It is defined locally — rather than importing the
// adapter package directly — so that task has no import dependency on
// adapter at all; adapter depends on task instead, and any concrete
// adapter whose methods match this shape satisfies it structurally.
type AdapterHandle interface {
	// Start spawns the child and begins dispatching its output. It
	// returns synchronously only for errors that occur before the child
	// is running; all later errors surface through Callbacks.OnError.
	Start() error

	// Interrupt sends the cooperative interrupt signal; the child decides
	// how to react and may still complete successfully.
	Interrupt()

	// Cancel kills the child immediately; the task's terminal status will
	// be cancelled unless a natural completion already won the race.
	Cancel()

	// SendInput writes text to the child as the next turn's input. It
	// fails if the child is not currently running.
	SendInput(text string) error

	// Dispose is idempotent: it stops background watchers, kills the
	// child if still alive, and releases all resources.
	Dispose()
}

// AdapterFactory constructs the AdapterHandle for one task. The Manager
// calls it once per StartTask admission (including queued tasks promoted
// later), never more than once per task. logger is the Manager's own
// logger, scoped further by the adapter for its own component.
type AdapterFactory func(taskID string, cfg Config, caps Capabilities, cb Callbacks, logger zerolog.Logger) AdapterHandle
