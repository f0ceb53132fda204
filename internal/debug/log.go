// Package debug provides an opt-in file logger for tracing compile
// and trigger activity. The logger is an injected instance rather
// than process-wide state, so embedding hosts can run several
// controllers with separate logs or none at all.
package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger writes timestamped category-tagged lines to a file. The zero
// value and a nil Logger both discard everything.
type Logger struct {
	mu   sync.Mutex
	file *os.File
}

// Open creates a logger writing to the given path, truncating any
// previous log and creating parent directories as needed.
func Open(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	l := &Logger{file: f}
	l.Log("debug", "=== log started ===")
	return l, nil
}

// DefaultPath returns ~/.config/upiseq/debug.log.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "upiseq-debug.log"
	}
	return filepath.Join(home, ".config", "upiseq", "debug.log")
}

// Log writes one line. Safe on a nil or closed logger.
func (l *Logger) Log(category, format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.file, "[%s] %-10s %s\n", ts, category, fmt.Sprintf(format, args...))
	l.file.Sync()
}

// Close stops logging and releases the file.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}
