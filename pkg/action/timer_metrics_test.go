package action_test

import (
	"testing"
	"time"

	"github.com/chartrunner/chartrunner/pkg/action"
	"github.com/chartrunner/chartrunner/pkg/clock"
	"github.com/chartrunner/chartrunner/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerObservesDuration(t *testing.T) {
	ctx := value.NewContext()
	evt := value.NewEvent("Tick")
	mc := clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	inner := action.NewFunc("work", func(*value.Context, *value.Event) error {
		mc.Advance(250 * time.Millisecond)
		return nil
	})
	var observedName string
	var observedDur time.Duration
	timer := action.NewTimer("timed", inner, mc, func(name string, d time.Duration) {
		observedName, observedDur = name, d
	})
	require.NoError(t, timer.Run(&ctx, &evt))
	assert.Equal(t, "work", observedName)
	assert.Equal(t, 250*time.Millisecond, observedDur)
}

type recordingMetricsSink struct {
	counters map[string]int
}

func newRecordingMetricsSink() *recordingMetricsSink {
	return &recordingMetricsSink{counters: make(map[string]int)}
}

func (s *recordingMetricsSink) IncCounter(name string, _ map[string]string) {
	s.counters[name]++
}

func TestMetricsIncrementsOnSuccessAndFailure(t *testing.T) {
	ctx := value.NewContext()
	evt := value.NewEvent("Tick")
	sink := newRecordingMetricsSink()

	ok := action.NewMetrics("m-ok", action.NewFunc("ok", func(*value.Context, *value.Event) error { return nil }), sink, "attempts")
	require.NoError(t, ok.Run(&ctx, &evt))
	assert.Equal(t, 1, sink.counters["attempts"])

	bad := action.NewMetrics("m-bad", failing("bad"), sink, "attempts")
	require.Error(t, bad.Run(&ctx, &evt))
	assert.Equal(t, 1, sink.counters["attempts_failed"])
}
