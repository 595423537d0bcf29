package action

import (
	"time"

	"github.com/chartrunner/chartrunner/pkg/clock"
	"github.com/chartrunner/chartrunner/pkg/value"
)

// Timer wraps Inner, recording its wall-clock duration via Observe.
// Grounded on leptos-state's TimerAction, adapted to an injectable
// clock.Source for deterministic tests.
type Timer struct {
	Inner   Action
	Clock   clock.Source
	Observe func(name string, d time.Duration)
	ActName string
}

// NewTimer builds a Timer action wrapping inner.
func NewTimer(name string, inner Action, src clock.Source, observe func(string, time.Duration)) *Timer {
	if src == nil {
		src = clock.System
	}
	return &Timer{Inner: inner, Clock: src, Observe: observe, ActName: name}
}

func (a *Timer) Run(ctx *value.Context, event *value.Event) error {
	start := a.Clock.Now()
	err := a.Inner.Run(ctx, event)
	if a.Observe != nil {
		a.Observe(a.Inner.Name(), a.Clock.Now().Sub(start))
	}
	return err
}

func (a *Timer) Name() string {
	if a.ActName != "" {
		return a.ActName
	}
	return "timer(" + a.Inner.Name() + ")"
}

// MetricsSink receives counters emitted by a Metrics action.
type MetricsSink interface {
	IncCounter(name string, labels map[string]string)
}

// Metrics wraps Inner, incrementing a named counter on success and a
// separate one on failure. Grounded on leptos-state's MetricsAction.
type Metrics struct {
	Inner        Action
	Sink         MetricsSink
	CounterName  string
	FailedSuffix string
	ActName      string
}

// NewMetrics builds a Metrics action wrapping inner, reporting to sink
// under counterName (and counterName+"_failed" on error).
func NewMetrics(name string, inner Action, sink MetricsSink, counterName string) *Metrics {
	return &Metrics{Inner: inner, Sink: sink, CounterName: counterName, FailedSuffix: "_failed", ActName: name}
}

func (a *Metrics) Run(ctx *value.Context, event *value.Event) error {
	err := a.Inner.Run(ctx, event)
	if a.Sink == nil {
		return err
	}
	name := a.CounterName
	if err != nil {
		name += a.FailedSuffix
	}
	a.Sink.IncCounter(name, map[string]string{"action": a.Inner.Name()})
	return err
}

func (a *Metrics) Name() string {
	if a.ActName != "" {
		return a.ActName
	}
	return "metrics(" + a.Inner.Name() + ")"
}
