package observability_test

import (
	"testing"

	"github.com/chartrunner/chartrunner/pkg/observability"
	"github.com/stretchr/testify/assert"
)

type recordingSink struct{ lines []string }

func (s *recordingSink) Printf(format string, args ...any) {
	s.lines = append(s.lines, format)
	_ = args
}

func TestLoggingListenerFiltersByLevel(t *testing.T) {
	sink := &recordingSink{}
	l := observability.NewLoggingListener(observability.LogInfo, "test", sink)

	l.OnEntry("idle")
	l.OnExit("idle")
	l.OnTransition("idle", "Start", "active")
	l.OnGuardRejected("t1", "coins >= 10")
	l.OnActionError("heal", "boom")

	assert.Len(t, sink.lines, 4, "debug-level guard rejection should be filtered out at Info")
}

func TestLoggingListenerDebugLevelIncludesGuardRejections(t *testing.T) {
	sink := &recordingSink{}
	l := observability.NewLoggingListener(observability.LogDebug, "", sink)
	l.OnGuardRejected("t1", "coins >= 10")
	assert.Len(t, sink.lines, 1)
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "ERROR", observability.LogError.String())
	assert.Equal(t, "DEBUG", observability.LogDebug.String())
}
