package observability_test

import (
	"testing"
	"time"

	"github.com/chartrunner/chartrunner/pkg/observability"
	"github.com/stretchr/testify/assert"
)

func TestMetricsListenerCountsEntriesAndTransitions(t *testing.T) {
	l := observability.NewMetricsListener(nil)

	l.OnEntry("idle")
	l.OnTransition("idle", "Start", "active")
	l.OnEntry("active")

	visits := l.StateVisitCounts()
	assert.Equal(t, 1, visits["idle"])
	assert.Equal(t, 1, visits["active"])

	transitions := l.TransitionCounts()
	assert.Equal(t, 1, transitions["idle->active"])

	events := l.EventCounts()
	assert.Equal(t, 1, events["Start"])
}

func TestMetricsListenerTracksDwellTime(t *testing.T) {
	cur := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return cur }
	l := observability.NewMetricsListener(clock)

	l.OnEntry("idle")
	cur = cur.Add(5 * time.Second)
	l.OnExit("idle")

	spent := l.StateTimeSpent()
	assert.Equal(t, 5*time.Second, spent["idle"])
}

func TestMetricsListenerCountsErrorsAndRejections(t *testing.T) {
	l := observability.NewMetricsListener(nil)
	l.OnActionError("heal", "boom")
	l.OnGuardRejected("t1", "coins >= 10")
	l.OnGuardRejected("t1", "coins >= 10")

	assert.Equal(t, 1, l.ActionErrorCount())
	assert.Equal(t, 2, l.GuardRejectionCounts()["t1"])
}

func TestMetricsListenerReset(t *testing.T) {
	l := observability.NewMetricsListener(nil)
	l.OnEntry("idle")
	l.Reset()
	assert.Empty(t, l.StateVisitCounts())
}
