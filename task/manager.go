package task

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultConcurrencyCap is the default number of tasks a Manager runs
// simultaneously before new admissions start queuing.
const DefaultConcurrencyCap = 10

type activeEntry struct {
	task    Task
	adapter AdapterHandle
}

type queuedEntry struct {
	id  string
	cfg Config
	cb  Callbacks
}

// Manager is the concurrency-limited, FIFO-queued registry of running and
// queued tasks. The active map and queue are mutated only under mu; every
// public method takes the lock briefly to mutate shared state and releases
// it before invoking any host-supplied callback or capability.
type Manager struct {
	mu  sync.Mutex
	cap int

	active map[string]*activeEntry
	queue  []queuedEntry

	startedAny bool

	factory AdapterFactory
	caps    Capabilities
	logger  zerolog.Logger
}

// NewManager creates a Manager. A concurrencyCap of 0 uses
// DefaultConcurrencyCap.
func NewManager(factory AdapterFactory, caps Capabilities, concurrencyCap int, logger zerolog.Logger) *Manager {
	if concurrencyCap <= 0 {
		concurrencyCap = DefaultConcurrencyCap
	}
	return &Manager{
		cap:     concurrencyCap,
		active:  make(map[string]*activeEntry),
		factory: factory,
		caps:    caps,
		logger:  logger.With().Str("component", "manager").Logger(),
	}
}

// StartTask admits a new task: it runs immediately if the manager is under
// its concurrency cap, queues if the cap is reached but the queue has
// room, or fails synchronously with ErrDuplicateTask, ErrCliMissing, or
// ErrQueueFull.
func (m *Manager) StartTask(taskID string, cfg Config, cb Callbacks) (Task, error) {
	if m.isActiveOrQueued(taskID) {
		m.logger.Warn().Str("task_id", taskID).Msg("rejected duplicate task")
		return Task{}, ErrDuplicateTask
	}

	if !m.caps.IsCliAvailable() {
		m.logger.Error().Str("task_id", taskID).Msg("rejected task: cli unavailable")
		return Task{}, ErrCliMissing
	}

	t := Task{
		ID:         taskID,
		Prompt:     cfg.Prompt,
		CreatedAt:  time.Now(),
		WorkingDir: cfg.WorkingDir,
		SessionID:  cfg.SessionID,
	}

	m.mu.Lock()
	if m.isActiveOrQueuedLocked(taskID) {
		m.mu.Unlock()
		return Task{}, ErrDuplicateTask
	}

	var execute, isFirstTask bool
	switch {
	case len(m.active) < m.cap:
		execute = true
		t.Status = StatusRunning
		t.StartedAt = time.Now()
		isFirstTask = !m.startedAny
		m.startedAny = true
		m.active[taskID] = &activeEntry{task: t}
	case len(m.queue) < m.cap:
		t.Status = StatusQueued
		m.queue = append(m.queue, queuedEntry{id: taskID, cfg: cfg, cb: cb})
	default:
		m.mu.Unlock()
		m.logger.Warn().Str("task_id", taskID).Msg("rejected task: queue full")
		return Task{}, ErrQueueFull
	}
	m.mu.Unlock()

	if execute {
		m.logger.Debug().Str("task_id", taskID).Msg("admitted task: running")
		go m.execute(taskID, cfg, cb, isFirstTask)
	} else {
		m.logger.Debug().Str("task_id", taskID).Msg("admitted task: queued")
	}

	return t, nil
}

func (m *Manager) isActiveOrQueued(taskID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isActiveOrQueuedLocked(taskID)
}

func (m *Manager) isActiveOrQueuedLocked(taskID string) bool {
	if _, ok := m.active[taskID]; ok {
		return true
	}
	for _, q := range m.queue {
		if q.id == taskID {
			return true
		}
	}
	return false
}

// execute runs the full task lifecycle: progress stages, the
// onBeforeTaskStart hook, adapter construction, and the child spawn
// itself. It always runs on its own goroutine.
func (m *Manager) execute(taskID string, cfg Config, cb Callbacks, isFirstTask bool) {
	emitProgress(cb, StageStarting)

	if m.caps != nil {
		m.caps.OnBeforeTaskStart(cb, isFirstTask)
	}

	emitProgress(cb, StageEnvironment)

	wrapped := cb
	wrapped.OnComplete = func(t Task) {
		m.cleanup(taskID)
		if cb.OnComplete != nil {
			cb.OnComplete(t)
		}
		m.drainQueue()
	}

	adapterHandle := m.factory(taskID, cfg, m.caps, wrapped, m.logger)

	m.mu.Lock()
	if entry, ok := m.active[taskID]; ok {
		entry.adapter = adapterHandle
	}
	m.mu.Unlock()

	if err := adapterHandle.Start(); err != nil {
		if cb.OnError != nil {
			cb.OnError(err)
		}
		wrapped.OnComplete(Task{ID: taskID, Status: StatusFailed})
	}
}

func emitProgress(cb Callbacks, stage ProgressStage) {
	if cb.OnProgress != nil {
		cb.OnProgress(stage)
	}
}

// cleanup removes taskID from the active map. It is called exactly once
// per task, from the wrapped OnComplete callback.
func (m *Manager) cleanup(taskID string) {
	m.mu.Lock()
	delete(m.active, taskID)
	m.mu.Unlock()
}

// drainQueue promotes queued tasks to execution while the manager is under
// its concurrency cap, strictly FIFO, emitting a running status-change on
// each promotion before it starts.
func (m *Manager) drainQueue() {
	type promotion struct {
		id string
		cfg Config
		cb Callbacks
	}
	var promotions []promotion

	m.mu.Lock()
	for len(m.active) < m.cap && len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]

		t := Task{
			ID:         next.id,
			Prompt:     next.cfg.Prompt,
			Status:     StatusRunning,
			CreatedAt:  time.Now(),
			StartedAt:  time.Now(),
			WorkingDir: next.cfg.WorkingDir,
			SessionID:  next.cfg.SessionID,
		}
		m.active[next.id] = &activeEntry{task: t}
		promotions = append(promotions, promotion{id: next.id, cfg: next.cfg, cb: next.cb})
	}
	m.mu.Unlock()

	for _, p := range promotions {
		m.logger.Debug().Str("task_id", p.id).Msg("promoted queued task to running")
		if p.cb.OnStatusChange != nil {
			p.cb.OnStatusChange(StatusRunning)
		}
		go m.execute(p.id, p.cfg, p.cb, false)
	}
}

// CancelTask cancels a task. A queued task is removed synchronously with
// no events emitted; an active task's child is killed, and its terminal
// status-cancelled event follows asynchronously through the normal
// completion path.
func (m *Manager) CancelTask(taskID string) {
	m.mu.Lock()
	for i, q := range m.queue {
		if q.id == taskID {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			m.mu.Unlock()
			return
		}
	}
	entry, ok := m.active[taskID]
	m.mu.Unlock()

	if ok && entry.adapter != nil {
		entry.adapter.Cancel()
	}
}

// InterruptTask requests a cooperative interrupt on an active task. It
// does not clean up; the child's own reaction to the interrupt decides the
// eventual terminal status.
func (m *Manager) InterruptTask(taskID string) {
	m.mu.Lock()
	entry, ok := m.active[taskID]
	m.mu.Unlock()

	if ok && entry.adapter != nil {
		entry.adapter.Interrupt()
	}
}

// SendResponse writes text to an active task's child. It fails with
// ErrTaskNotActive if the task is not currently running.
func (m *Manager) SendResponse(taskID, text string) error {
	m.mu.Lock()
	entry, ok := m.active[taskID]
	m.mu.Unlock()

	if !ok || entry.adapter == nil {
		return ErrTaskNotActive
	}
	return entry.adapter.SendInput(text)
}

// Dispose cancels all queued tasks (no events emitted) and requests
// cleanup on every active task. It does not wait for active tasks to
// finish tearing down.
func (m *Manager) Dispose() {
	m.mu.Lock()
	m.queue = nil
	handles := make([]AdapterHandle, 0, len(m.active))
	for _, entry := range m.active {
		if entry.adapter != nil {
			handles = append(handles, entry.adapter)
		}
	}
	m.mu.Unlock()

	for _, h := range handles {
		h.Cancel()
	}
}
