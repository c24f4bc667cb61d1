package api

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"
)

// Log levels
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// LogBuffer is a thread-safe ring buffer for log entries
type LogBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	cap     int
	now     func() time.Time

	// captured is set once log output flows into the buffer
	captured bool
}

// NewLogBuffer creates a new log buffer with the given capacity
func NewLogBuffer(capacity int) *LogBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &LogBuffer{
		entries: make([]LogEntry, 0, capacity),
		cap:     capacity,
		now:     time.Now,
	}
}

// Add adds a log entry to the buffer
func (lb *LogBuffer) Add(level, message string) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	entry := LogEntry{
		Timestamp: lb.now(),
		Level:     level,
		Message:   message,
	}

	if len(lb.entries) >= lb.cap {
		// Drop oldest
		copy(lb.entries, lb.entries[1:])
		lb.entries[len(lb.entries)-1] = entry
	} else {
		lb.entries = append(lb.entries, entry)
	}
}

// Entries returns all entries, optionally filtered by level
func (lb *LogBuffer) Entries(levels []string) []LogEntry {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	if len(levels) == 0 {
		result := make([]LogEntry, len(lb.entries))
		copy(result, lb.entries)
		return result
	}

	levelSet := make(map[string]bool)
	for _, l := range levels {
		levelSet[strings.ToLower(strings.TrimSpace(l))] = true
	}

	result := make([]LogEntry, 0)
	for _, e := range lb.entries {
		if levelSet[e.Level] {
			result = append(result, e)
		}
	}
	return result
}

// Clear removes all entries
func (lb *LogBuffer) Clear() {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.entries = lb.entries[:0]
}

// logWriter adapts LogBuffer to io.Writer for use with Go's log package
type logWriter struct {
	buf *LogBuffer
}

func (lw *logWriter) Write(p []byte) (n int, err error) {
	msg := strings.TrimSpace(string(p))
	if msg == "" {
		return len(p), nil
	}

	// Strip the "2006/01/02 15:04:05 " prefix of log.LstdFlags
	if len(msg) > 20 && msg[4] == '/' && msg[7] == '/' && msg[10] == ' ' {
		msg = msg[20:]
	}

	level, msg := splitLevel(msg)
	lw.buf.Add(level, msg)
	return len(p), nil
}

// splitLevel recognises the "ERROR: " / "WARN: " prefixes used across the
// code base
func splitLevel(msg string) (string, string) {
	switch {
	case strings.HasPrefix(msg, "ERROR: "):
		return LevelError, strings.TrimPrefix(msg, "ERROR: ")
	case strings.HasPrefix(msg, "WARN: "):
		return LevelWarn, strings.TrimPrefix(msg, "WARN: ")
	}
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "error") || strings.Contains(lower, "fail") {
		return LevelError, msg
	}
	return LevelInfo, msg
}

// InstallLogCapture sets up Go's log package to write to the LogBuffer
// and also to the previous output. Returns the multi-writer for additional use.
func InstallLogCapture(buf *LogBuffer) io.Writer {
	buf.mu.Lock()
	buf.captured = true
	buf.mu.Unlock()

	lw := &logWriter{buf: buf}
	multi := io.MultiWriter(lw, log.Writer())
	log.SetOutput(multi)
	log.SetFlags(log.LstdFlags)
	return multi
}

// Printf records a message, deriving the level from its prefix
func (lb *LogBuffer) Printf(format string, args ...any) {
	level, msg := splitLevel(fmt.Sprintf(format, args...))
	lb.Add(level, msg)
}

func (lb *LogBuffer) isCaptured() bool {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return lb.captured
}

// LogInfo logs an info message
func (lb *LogBuffer) LogInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if !lb.isCaptured() {
		lb.Add(LevelInfo, msg)
	}
	log.Println(msg)
}

// LogWarn logs a warning message
func (lb *LogBuffer) LogWarn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if !lb.isCaptured() {
		lb.Add(LevelWarn, msg)
	}
	log.Printf("WARN: %s", msg)
}

// LogError logs an error message
func (lb *LogBuffer) LogError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if !lb.isCaptured() {
		lb.Add(LevelError, msg)
	}
	log.Printf("ERROR: %s", msg)
}
