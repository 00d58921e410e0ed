// Package adapter implements the Child-Process Adapter: one instance per
// task, owning the child process (spawned through a pseudoterminal), the
// stream parser, the completion enforcer, and the per-task message
// batcher. It generalizes the host-specific invocation the core once
// assumed — a single hardcoded CLI and wire format — behind the
// Capabilities the embedding host supplies.
package adapter

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/calebcase/oops"
	"github.com/creack/pty"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentrt/core/batch"
	"github.com/agentrt/core/classify"
	"github.com/agentrt/core/completion"
	"github.com/agentrt/core/stream"
	"github.com/agentrt/core/task"
)

// isWindows gates the interrupt sequence's Windows-only confirmation
// keystroke; the platform-specific spawn/kill split lives in the
// shell_*.go and procattr_*.go build-tagged files instead, since those
// differ in more than one conditional write.
var isWindows = runtime.GOOS == "windows"

// ptySize is the fixed pseudoterminal geometry: wide enough that a child's
// structured (JSON) output is never line-wrapped by the terminal itself.
var ptySize = &pty.Winsize{Cols: 32000, Rows: 30}

// waitingDelay is how long step_start waits for a tool call before the
// adapter reports that the child appears to be thinking rather than acting.
const waitingDelay = 500 * time.Millisecond

// Adapter drives one task's child process end to end. Callers interact with
// it only through the methods required by task.AdapterHandle.
type Adapter struct {
	taskID string
	caps   task.Capabilities
	cb     task.Callbacks
	logger zerolog.Logger

	parser   *stream.Parser
	enforcer *completion.Enforcer
	batcher  *batch.Batcher

	mu            sync.Mutex
	cfg           task.Config
	sessionID     string
	cmd           *exec.Cmd
	pty           *os.File
	wasInterrupted bool
	wasCancelled   bool
	lastSignal     string

	history []task.Message

	planningSeen       bool
	toolCalledThisStep bool
	suppressText       bool
	waitingTimer       *time.Timer

	logWatcher *logWatcher

	finishOnce sync.Once
	disposeOnce sync.Once
}

// New constructs an Adapter for one task. Its signature matches
// task.AdapterFactory; an embedding host wires it in as
// task.NewManager(adapter.New, caps, concurrencyCap, logger).
func New(taskID string, cfg task.Config, caps task.Capabilities, cb task.Callbacks, logger zerolog.Logger) task.AdapterHandle {
	a := &Adapter{
		taskID: taskID,
		cfg:    cfg,
		caps:   caps,
		cb:     cb,
		logger: logger.With().Str("component", "adapter").Str("task_id", taskID).Logger(),
	}

	maxAttempts := cfg.MaxAttempts
	a.enforcer = completion.NewEnforcer(
		maxAttempts,
		func(prompt string) { a.respawn(prompt) },
		func(prompt string) { a.respawn(prompt) },
		func() { a.finish(task.StatusCompleted, nil) },
		func(exitCode int) {
			a.mu.Lock()
			signal := a.lastSignal
			a.mu.Unlock()
			a.finish(task.StatusFailed, &task.ChildExitError{Code: exitCode, Signal: signal})
		},
		func(line string) {
			if cb.OnDebug != nil {
				cb.OnDebug(line)
			}
		},
	)

	a.batcher = batch.New(cb.OnMessage, cb.OnMessageBatch)

	a.parser = stream.New(a.handleMessage, func(err error) {
		a.debugf("stream parse error: %v", err)
	})

	return a
}

// Start spawns the child for the first time.
func (a *Adapter) Start() error {
	if path := a.caps.DebugLogPath(a.taskID); path != "" {
		lw := newLogWatcher(path, func(line string) {
			if a.cb.OnDebug != nil {
				a.cb.OnDebug(line)
			}
		}, a.logger)
		if err := lw.Start(); err != nil {
			a.logger.Debug().Err(err).Msg("debug log watcher unavailable")
		} else {
			a.logWatcher = lw
		}
	}

	return a.spawn(a.cfg.Prompt, a.cfg.SessionID)
}

// respawn tears down the finished child (it has already exited) and starts
// a fresh one with a new prompt, preserving the session id. The parser is
// reset; the enforcer and message history are not.
func (a *Adapter) respawn(prompt string) {
	a.parser.Reset()
	a.suppressText = true

	a.mu.Lock()
	sessionID := a.sessionID
	a.mu.Unlock()

	if err := a.spawn(prompt, sessionID); err != nil {
		a.finish(task.StatusFailed, err)
	}
}

// spawn builds the command line via Capabilities, wraps it for the current
// platform, and starts it under a pty. It runs caps.OnBeforeStart() before
// every spawn, including continuation and verification respawns.
func (a *Adapter) spawn(prompt, sessionID string) error {
	a.caps.OnBeforeStart()

	spawnCfg := a.cfg
	spawnCfg.Prompt = prompt
	spawnCfg.SessionID = sessionID

	command, staticArgs := a.caps.GetCliCommand()
	dynArgs := a.caps.BuildCliArgs(spawnCfg)
	fullArgs := append(append([]string{}, staticArgs...), dynArgs...)

	name, args, err := spawnArgs(command, fullArgs)
	if err != nil {
		return oops.Trace(err)
	}

	cmd := exec.Command(name, args...)
	cmd.Dir = a.cfg.WorkingDir
	cmd.Env = envSlice(a.caps.BuildEnvironment(a.taskID))
	setProcAttr(cmd)

	a.progress(task.StageLoading)

	ptmx, err := pty.StartWithSize(cmd, ptySize)
	if err != nil {
		return oops.Trace(err)
	}

	a.mu.Lock()
	a.cmd = cmd
	a.pty = ptmx
	a.mu.Unlock()

	a.setToolCalledThisStep(false)
	a.armWaitingTimer()

	go a.readLoop(ptmx, cmd)

	return nil
}

// readLoop feeds the stream parser from the pty until it closes, then waits
// for the process and reports its exit.
func (a *Adapter) readLoop(ptmx *os.File, cmd *exec.Cmd) {
	buf := make([]byte, 64*1024)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			a.parser.Feed([]byte(classify.StripANSI(string(buf[:n]))))
		}
		if err != nil {
			break
		}
	}
	a.parser.Flush()

	waitErr := cmd.Wait()
	_ = ptmx.Close()

	a.handleProcessExit(exitCode(waitErr), exitSignal(waitErr))
}

func (a *Adapter) handleProcessExit(code int, signal string) {
	a.stopWaitingTimer()

	a.mu.Lock()
	cancelled := a.wasCancelled
	interrupted := a.wasInterrupted
	a.lastSignal = signal
	a.mu.Unlock()

	if cancelled {
		a.finish(task.StatusCancelled, nil)
		return
	}
	if interrupted && code == 0 {
		a.finish(task.StatusInterrupted, nil)
		return
	}

	a.enforcer.OnProcessExit(code)
}

// Interrupt requests a cooperative stop: a Ctrl-C byte, followed on Windows
// by a confirmation keystroke for the "Terminate batch job?" prompt.
func (a *Adapter) Interrupt() {
	a.mu.Lock()
	a.wasInterrupted = true
	ptmx := a.pty
	a.mu.Unlock()

	if ptmx == nil {
		return
	}
	_, _ = ptmx.Write([]byte{0x03})

	if isWindows {
		time.AfterFunc(100*time.Millisecond, func() {
			a.mu.Lock()
			p := a.pty
			a.mu.Unlock()
			if p != nil {
				_, _ = p.Write([]byte("Y\n"))
			}
		})
	}
}

// Cancel kills the child immediately; the final status will be cancelled.
func (a *Adapter) Cancel() {
	a.mu.Lock()
	a.wasCancelled = true
	cmd := a.cmd
	a.mu.Unlock()

	if cmd != nil {
		killProcessGroup(cmd)
	}
}

// SendInput writes text, newline-terminated, to the child's pty.
func (a *Adapter) SendInput(text string) error {
	a.mu.Lock()
	ptmx := a.pty
	a.mu.Unlock()

	if ptmx == nil {
		return oops.New("adapter: task %s has no running child", a.taskID)
	}
	_, err := ptmx.Write([]byte(text + "\n"))
	if err != nil {
		return oops.Trace(err)
	}
	return nil
}

// Dispose is idempotent: it stops the log watcher, kills the child if still
// alive, and clears the parser.
func (a *Adapter) Dispose() {
	a.disposeOnce.Do(func() {
		if a.logWatcher != nil {
			a.logWatcher.Stop()
		}

		a.mu.Lock()
		cmd := a.cmd
		a.mu.Unlock()
		if cmd != nil {
			killProcessGroup(cmd)
		}

		a.parser.Reset()
	})
}

// finish emits the terminal callback pair exactly once, flushing any
// pending batched messages first.
func (a *Adapter) finish(status task.Status, err error) {
	a.finishOnce.Do(func() {
		a.batcher.Flush()

		if err != nil && a.cb.OnError != nil {
			a.cb.OnError(err)
		}
		if a.cb.OnComplete != nil {
			a.mu.Lock()
			sessionID := a.sessionID
			a.mu.Unlock()
			a.cb.OnComplete(task.Task{
				ID:         a.taskID,
				Prompt:     a.cfg.Prompt,
				Status:     status,
				WorkingDir: a.cfg.WorkingDir,
				SessionID:  sessionID,
			})
		}
	})
}

func (a *Adapter) armWaitingTimer() {
	a.stopWaitingTimer()
	a.mu.Lock()
	a.waitingTimer = time.AfterFunc(waitingDelay, func() {
		if !a.toolCalledDuringStep() && a.cb.OnProgress != nil {
			a.cb.OnProgress(task.StageWaiting)
		}
	})
	a.mu.Unlock()
}

func (a *Adapter) stopWaitingTimer() {
	a.mu.Lock()
	if a.waitingTimer != nil {
		a.waitingTimer.Stop()
	}
	a.mu.Unlock()
}

func (a *Adapter) setToolCalledThisStep(v bool) {
	a.mu.Lock()
	a.toolCalledThisStep = v
	a.mu.Unlock()
}

func (a *Adapter) toolCalledDuringStep() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.toolCalledThisStep
}

func (a *Adapter) progress(stage task.ProgressStage) {
	if a.cb.OnProgress != nil {
		a.cb.OnProgress(stage)
	}
}

func (a *Adapter) debugf(format string, args ...any) {
	if a.cb.OnDebug != nil {
		a.cb.OnDebug(fmt.Sprintf(format, args...))
	}
}

// appendHistory stamps msg with an id and timestamp, records it in the
// task's history, and returns the stamped copy. It does not forward msg to
// the host; callers decide separately whether forward should run.
func (a *Adapter) appendHistory(msg task.Message) task.Message {
	msg.TaskID = a.taskID
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.Timestamp = time.Now()

	a.mu.Lock()
	a.history = append(a.history, msg)
	a.mu.Unlock()

	return msg
}

// forward hands msg to the message batcher for host delivery.
func (a *Adapter) forward(msg task.Message) {
	a.batcher.Add(msg)
}

// emit records msg in history and forwards it unconditionally.
func (a *Adapter) emit(msg task.Message) {
	a.forward(a.appendHistory(msg))
}

// envSlice renders a host environment map as a sorted KEY=VALUE slice, for
// deterministic child environments (and deterministic tests).
func envSlice(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}
