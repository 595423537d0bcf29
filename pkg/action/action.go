// Package action implements the action composition layer: the
// side-effecting operations run during entry, exit, and transition, plus
// the control-flow wrappers (sequential, conditional, retry, timeout,
// circuit breaker) that compose them.
package action

import (
	"fmt"

	"github.com/chartrunner/chartrunner/pkg/value"
)

// Action performs a side effect against a mutable context in response to
// an event. Implementations that mutate ctx.Data do so via ctx.Set;
// actions never replace ctx wholesale.
type Action interface {
	// Run executes the action. A returned error is handled according to
	// the ErrorHandlingStrategy of the list the action belongs to.
	Run(ctx *value.Context, event *value.Event) error
	// Name identifies the action for logging and metrics. The executor's
	// on_action_error callback does not carry it (it reports
	// "action-list").
	Name() string
}

// Func adapts a plain function into an Action.
type Func struct {
	Fn      func(ctx *value.Context, event *value.Event) error
	ActName string
}

// NewFunc wraps fn as a named Action.
func NewFunc(name string, fn func(ctx *value.Context, event *value.Event) error) *Func {
	return &Func{Fn: fn, ActName: name}
}

func (a *Func) Run(ctx *value.Context, event *value.Event) error { return a.Fn(ctx, event) }
func (a *Func) Name() string                                     { return a.ActName }

// Assign sets a single context field to a statically supplied value, or
// to the result of a derivation function when Derive is non-nil.
type Assign struct {
	Field   string
	Value   any
	Derive  func(ctx *value.Context, event *value.Event) any
	ActName string
}

// NewAssign creates an Assign action storing a constant value.
func NewAssign(name, field string, val any) *Assign {
	return &Assign{Field: field, Value: val, ActName: name}
}

// NewAssignDerived creates an Assign action computing its value from the
// context and event at run time.
func NewAssignDerived(name, field string, derive func(ctx *value.Context, event *value.Event) any) *Assign {
	return &Assign{Field: field, Derive: derive, ActName: name}
}

func (a *Assign) Run(ctx *value.Context, event *value.Event) error {
	v := a.Value
	if a.Derive != nil {
		v = a.Derive(ctx, event)
	}
	ctx.Set(a.Field, v)
	return nil
}

func (a *Assign) Name() string {
	if a.ActName != "" {
		return a.ActName
	}
	return fmt.Sprintf("assign(%s)", a.Field)
}

// Sink receives log lines emitted by a Log action. Implementations must
// be safe for concurrent use.
type Sink interface {
	Logf(format string, args ...any)
}

// Log emits a formatted line to a Sink whenever it runs.
type Log struct {
	Sink    Sink
	Format  string
	ActName string
}

// NewLog creates a Log action writing to sink.
func NewLog(name string, sink Sink, format string) *Log {
	return &Log{Sink: sink, Format: format, ActName: name}
}

func (a *Log) Run(ctx *value.Context, event *value.Event) error {
	if a.Sink == nil {
		return nil
	}
	eventType := ""
	if event != nil {
		eventType = event.Type
	}
	a.Sink.Logf(a.Format, eventType)
	return nil
}

func (a *Log) Name() string {
	if a.ActName != "" {
		return a.ActName
	}
	return "log"
}

// Noop performs no work; useful as a placeholder transition action or a
// default branch of a Conditional.
type Noop struct{}

func (Noop) Run(*value.Context, *value.Event) error { return nil }
func (Noop) Name() string                            { return "noop" }
