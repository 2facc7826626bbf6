// Package logging provides the ecosystem's buffered, per-key logger.
// Unlike the teacher's Configure(), which builds a single process-wide
// *slog.Logger and installs it via slog.SetDefault, this Logger is a
// constructor-injected value: callers hold a reference and pass it
// down explicitly, so nothing in the ecosystem depends on global
// logging state.
package logging

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Sink receives a fully buffered message when its key is flushed.
type Sink func(msg string)

const defaultKey = ""

// Logger buffers text per key and only hands it to the key's Sink on
// flush. A nil key addresses the default sink, which is backed by a
// *slog.Logger at construction time.
type Logger struct {
	mu      sync.Mutex
	sinks   map[string]Sink
	buffers map[string]string
}

// New returns a Logger whose default sink writes through base at Info
// level.
func New(base *slog.Logger) *Logger {
	l := &Logger{
		sinks:   make(map[string]Sink),
		buffers: make(map[string]string),
	}
	l.sinks[defaultKey] = func(msg string) {
		if msg == "" {
			return
		}
		base.Info(msg)
	}
	l.buffers[defaultKey] = ""
	return l
}

func keyOf(key *string) string {
	if key == nil {
		return defaultKey
	}
	return *key
}

// Register installs sink under key, replacing any prior sink for that
// key and resetting its buffer. A nil key replaces the default sink.
func (l *Logger) Register(key *string, sink Sink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := keyOf(key)
	l.sinks[k] = sink
	l.buffers[k] = ""
}

// Log appends msg to key's buffer. If key has never been registered,
// it is implicitly created with a no-op sink, matching the default
// sink's map-initialized presence in the original. If flush is true,
// the buffer is flushed immediately after appending.
func (l *Logger) Log(msg string, key *string, flush bool) {
	l.mu.Lock()
	k := keyOf(key)
	if _, ok := l.sinks[k]; !ok {
		l.sinks[k] = func(string) {}
	}
	l.buffers[k] += msg
	l.mu.Unlock()

	if flush {
		l.Flush(key)
	}
}

// Flush hands key's accumulated buffer to its sink and clears it.
func (l *Logger) Flush(key *string) {
	l.mu.Lock()
	k := keyOf(key)
	sink, ok := l.sinks[k]
	if !ok {
		l.mu.Unlock()
		return
	}
	msg := l.buffers[k]
	l.buffers[k] = ""
	l.mu.Unlock()

	sink(msg)
}

// Info appends a slog-style key/value message to the default key and
// flushes it immediately. It is the convenience entry point core
// components call instead of holding a *slog.Logger directly, so
// every core log line actually passes through Register/Log/Flush
// rather than around them.
func (l *Logger) Info(msg string, args ...any) {
	l.Log(formatKV(msg, args), nil, true)
}

// Warn is Info's counterpart for warnings. Logger has no level
// filtering of its own; both route through the same default sink.
func (l *Logger) Warn(msg string, args ...any) {
	l.Log(formatKV(msg, args), nil, true)
}

func formatKV(msg string, args []any) string {
	if len(args) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	return b.String()
}

// FlushAll flushes every registered key, including the default.
func (l *Logger) FlushAll() {
	l.mu.Lock()
	keys := make([]string, 0, len(l.sinks))
	for k := range l.sinks {
		keys = append(keys, k)
	}
	l.mu.Unlock()

	for _, k := range keys {
		key := k
		l.Flush(&key)
	}
}
