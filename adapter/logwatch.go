package adapter

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// maxDebugLineLength is the per-line truncation applied before a debug log
// line is forwarded to the host's debug sink.
const maxDebugLineLength = 500

// logWatcher tails a host-supplied debug log file and forwards new lines,
// truncated, to onLine. Stop is idempotent.
type logWatcher struct {
	path   string
	onLine func(string)
	logger zerolog.Logger

	stopOnce sync.Once
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

func newLogWatcher(path string, onLine func(string), logger zerolog.Logger) *logWatcher {
	return &logWatcher{path: path, onLine: onLine, logger: logger, done: make(chan struct{})}
}

// Start begins tailing the log file from its current end-of-file. It
// returns an error only if the watcher itself could not be created; a
// missing log file is tolerated (nothing is forwarded until it appears).
func (w *logWatcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return err
	}

	offset := w.currentSize()

	go w.loop(offset)

	return nil
}

func (w *logWatcher) currentSize() int64 {
	info, err := os.Stat(w.path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func (w *logWatcher) loop(offset int64) {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			offset = w.drain(offset)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Debug().Err(err).Msg("debug log watcher error")
		}
	}
}

// drain reads everything new since offset and forwards each complete line,
// returning the new offset.
func (w *logWatcher) drain(offset int64) int64 {
	f, err := os.Open(w.path)
	if err != nil {
		return offset
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return offset
	}

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			// An unterminated tail is left for the next drain.
			break
		}
		offset += int64(len(line))
		line = line[:len(line)-1]
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
		if w.onLine != nil {
			w.onLine(truncateLine(line))
		}
	}

	return offset
}

func truncateLine(s string) string {
	if len(s) <= maxDebugLineLength {
		return s
	}
	return s[:maxDebugLineLength]
}

// Stop closes the underlying watcher exactly once.
func (w *logWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		if w.watcher != nil {
			_ = w.watcher.Close()
		}
	})
}
