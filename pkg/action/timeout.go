package action

import (
	"context"
	"time"

	"github.com/chartrunner/chartrunner/pkg/value"
)

// Timeout runs Inner on its own goroutine and fails it if it has not
// completed within Deadline, in favor of a real wall-clock, blocking
// wait: the executor's Transition call blocks until either Inner
// finishes or Deadline elapses, rather than firing a later asynchronous
// event. Inner must still run to completion on its goroutine even after
// a timeout is declared (its eventual result is discarded); callers
// relying on Inner's side effects being abandoned immediately should not
// use Timeout.
type Timeout struct {
	Inner    Action
	Deadline time.Duration
	ActName  string
	// Fallback runs, against the same context, when Deadline breaches
	// before Inner completes. Optional.
	Fallback Action
}

// NewTimeout builds a Timeout action wrapping inner with the given
// deadline.
func NewTimeout(name string, inner Action, deadline time.Duration) *Timeout {
	return &Timeout{Inner: inner, Deadline: deadline, ActName: name}
}

func (a *Timeout) Run(ctx *value.Context, event *value.Event) error {
	cctx, cancel := context.WithTimeout(context.Background(), a.Deadline)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- a.Inner.Run(ctx, event)
	}()

	select {
	case err := <-done:
		return err
	case <-cctx.Done():
		if a.Fallback != nil {
			if err := a.Fallback.Run(ctx, event); err != nil {
				return err
			}
		}
		return value.NewActionError(a.Name(), "", cctx.Err())
	}
}

func (a *Timeout) Name() string {
	if a.ActName != "" {
		return a.ActName
	}
	return "timeout(" + a.Inner.Name() + ")"
}
