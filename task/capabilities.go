package task

// Capabilities is the inbound API an embedding host supplies at
// construction time: everything the core needs from the outside world to
// resolve, spawn, and environment a child CLI process.
type Capabilities interface {
	// GetCliCommand returns the absolute path to the CLI executable and any
	// static prefix arguments.
	GetCliCommand() (command string, args []string)

	// BuildCliArgs returns the dynamic arguments derived from the task
	// config: the prompt, an optional --session-id, an optional --model.
	BuildCliArgs(cfg Config) []string

	// BuildEnvironment returns the full environment for the child process,
	// keyed by the task id so the host can inject a per-task PATH, API
	// keys, etc.
	BuildEnvironment(taskID string) map[string]string

	// IsCliAvailable is a cheap probe (filesystem check or cached result)
	// consulted at admission time.
	IsCliAvailable() bool

	// OnBeforeStart runs once per child spawn (including continuation and
	// verification respawns), before the pty is created.
	OnBeforeStart()

	// OnBeforeTaskStart runs once per task before the first spawn.
	// isFirstTask is true only for the very first task this manager
	// instance ever started.
	OnBeforeTaskStart(cb Callbacks, isFirstTask bool)

	// GetModelDisplayName optionally maps a model id to a human label used
	// only in progress messages. An empty return means "use modelID as-is".
	GetModelDisplayName(modelID string) string

	// DebugLogPath optionally returns a log file the adapter should tail and
	// forward through Callbacks.OnDebug for the lifetime of the task. An
	// empty return means there is nothing to watch.
	DebugLogPath(taskID string) string
}

// ProgressStage enumerates the string constants a Callbacks.OnProgress call
// may report.
type ProgressStage string

const (
	StageStarting        ProgressStage = "starting"
	StageEnvironment     ProgressStage = "environment"
	StageLoading         ProgressStage = "loading"
	StageConnecting      ProgressStage = "connecting"
	StageWaiting         ProgressStage = "waiting"
	StageToolUse         ProgressStage = "tool-use"
	StageBrowser         ProgressStage = "browser"
	StageBrowserRecovery ProgressStage = "browser-recovery"
)

// Callbacks is the outbound, per-task API the core calls into. A terminal
// task delivers exactly one OnComplete or one OnError-then-OnComplete pair.
//
// OnMessage and OnMessageBatch are the two sides of the message batcher
// (§4.7): OnMessage fires once per message, synchronously, for durable
// per-message persistence; OnMessageBatch fires at most once per 50ms
// coalescing window (or on flush) with everything accumulated since the
// last delivery, for the host's live display. A host that only persists
// may ignore OnMessageBatch; a host that only renders may ignore OnMessage.
type Callbacks struct {
	OnMessage           func(Message)
	OnMessageBatch      func(messages []Message)
	OnProgress          func(stage ProgressStage)
	OnPermissionRequest func(PermissionRequest)
	OnComplete          func(t Task)
	OnError             func(err error)
	OnStatusChange      func(status Status)
	OnDebug             func(line string)
	OnTodoUpdate        func(items []TodoItem)
	OnAuthError         func(err *AuthError)
}
