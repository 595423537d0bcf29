// Package observability adapts machine.Listener to two ready-made
// sinks: structured logging and in-memory metrics collection.
package observability

import (
	"fmt"
	"sync"

	"github.com/chartrunner/chartrunner/pkg/machine"
)

var _ machine.Listener = (*LoggingListener)(nil)

// LogLevel orders log verbosity from Error (least verbose) to Debug.
type LogLevel int

const (
	LogError LogLevel = iota
	LogWarning
	LogInfo
	LogDebug
)

func (l LogLevel) String() string {
	switch l {
	case LogError:
		return "ERROR"
	case LogWarning:
		return "WARN"
	case LogInfo:
		return "INFO"
	case LogDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// Sink receives formatted log lines. *log.Logger satisfies this via
// Printf; tests can supply a recording stub.
type Sink interface {
	Printf(format string, args ...any)
}

// LoggingListener implements machine.Listener by writing formatted
// lines to a Sink, filtered by Level.
type LoggingListener struct {
	Level  LogLevel
	Prefix string

	mu   sync.RWMutex
	sink Sink
}

// NewLoggingListener builds a LoggingListener writing through sink at
// the given level.
func NewLoggingListener(level LogLevel, prefix string, sink Sink) *LoggingListener {
	return &LoggingListener{Level: level, Prefix: prefix, sink: sink}
}

func (l *LoggingListener) log(level LogLevel, format string, args ...any) {
	if level > l.Level {
		return
	}
	l.mu.RLock()
	sink := l.sink
	l.mu.RUnlock()
	if sink == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.Prefix != "" {
		sink.Printf("[%s] [%s] %s", level, l.Prefix, msg)
		return
	}
	sink.Printf("[%s] %s", level, msg)
}

func (l *LoggingListener) OnEntry(stateID string) {
	l.log(LogInfo, "entering state: %s", stateID)
}

func (l *LoggingListener) OnExit(stateID string) {
	l.log(LogInfo, "exiting state: %s", stateID)
}

func (l *LoggingListener) OnTransition(from, eventType, to string) {
	l.log(LogInfo, "transition: %s -> %s on event %s", from, to, eventType)
}

func (l *LoggingListener) OnActionError(actionName, reason string) {
	l.log(LogError, "action %q failed: %s", actionName, reason)
}

func (l *LoggingListener) OnGuardRejected(transitionID, guardDescription string) {
	l.log(LogDebug, "transition %q rejected by guard: %s", transitionID, guardDescription)
}
