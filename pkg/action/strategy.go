package action

import (
	"github.com/chartrunner/chartrunner/pkg/value"
)

// ErrorHandlingStrategy controls how a List of actions reacts to a
// member failing: stop, continue, retry the failing action, or drop its
// error and go on.
type ErrorHandlingStrategy int

const (
	// ContinueOnError runs every action regardless of failures and
	// returns an aggregate error if any failed. This is the default for
	// entry/exit/transition action lists (it is the zero value).
	ContinueOnError ErrorHandlingStrategy = iota
	// StopOnError aborts the list on the first error, returning it.
	StopOnError
	// RetryOnError retries a failing action up to MaxRetries times
	// before continuing to the next action (or stopping, if retries are
	// exhausted and StopAfterRetries is set).
	RetryOnError
	// SkipOnError silently drops a failing action's error and continues.
	SkipOnError
)

// List runs a sequence of actions under a single ErrorHandlingStrategy.
type List struct {
	Actions          []Action
	Strategy         ErrorHandlingStrategy
	MaxRetries       int
	StopAfterRetries bool
	// OnError, if set, is invoked for every action error observed,
	// regardless of strategy. The executor does not set it: it reports a
	// list's returned error to on_action_error under the name
	// "action-list", not per failing action.
	OnError func(act Action, err error)
}

// NewList creates a List with the given strategy (ContinueOnError is the
// spec-mandated default for entry/exit/transition lists).
func NewList(strategy ErrorHandlingStrategy, actions ...Action) *List {
	return &List{Actions: actions, Strategy: strategy}
}

// Run executes every action in order per the configured strategy. It
// returns the first (or aggregate, for ContinueOnError and RetryOnError) error
// encountered, or nil if every action that mattered succeeded.
func (l *List) Run(ctx *value.Context, event *value.Event) error {
	collector := value.NewErrorCollector()
	for _, act := range l.Actions {
		err := l.runOne(act, ctx, event)
		if err == nil {
			continue
		}
		if l.OnError != nil {
			l.OnError(act, err)
		}
		switch l.Strategy {
		case StopOnError:
			return err
		case SkipOnError:
			continue
		case RetryOnError:
			collector.Add(err)
			if l.StopAfterRetries {
				return value.AsBuildError(collector)
			}
		case ContinueOnError:
			collector.Add(err)
		}
	}
	if !collector.HasErrors() {
		return nil
	}
	return value.AsBuildError(collector)
}

func (l *List) runOne(act Action, ctx *value.Context, event *value.Event) error {
	err := act.Run(ctx, event)
	if err == nil || l.Strategy != RetryOnError {
		return err
	}
	for attempt := 0; attempt < l.MaxRetries; attempt++ {
		err = act.Run(ctx, event)
		if err == nil {
			return nil
		}
	}
	if l.StopAfterRetries {
		return err
	}
	return err
}
