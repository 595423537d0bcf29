// Package guard implements the guard composition layer: pure
// predicates over (Context, Event) that gate
// candidate transitions, plus stateful and composite variants.
package guard

import (
	"fmt"

	"github.com/chartrunner/chartrunner/pkg/value"
)

// Guard decides whether a candidate transition is enabled. Implementations
// must be safe to invoke concurrently if the host dispatches events on
// multiple threads for distinct machine instances sharing a guard.
type Guard interface {
	// Check evaluates the guard against the given context and event.
	Check(ctx *value.Context, event *value.Event) bool
	// Description returns a human-readable description, used in
	// on_guard_rejected observability callbacks.
	Description() string
	// Clone returns an independent copy of the guard, including any
	// internal mutable state reset to its zero value where that is the
	// correct semantic (stateful guards override this explicitly).
	Clone() Guard
}

// Func adapts a plain predicate function into a Guard.
type Func struct {
	Fn   func(ctx *value.Context, event *value.Event) bool
	Desc string
}

// NewFunc wraps fn as a Guard with the given description.
func NewFunc(desc string, fn func(ctx *value.Context, event *value.Event) bool) *Func {
	return &Func{Fn: fn, Desc: desc}
}

func (g *Func) Check(ctx *value.Context, event *value.Event) bool { return g.Fn(ctx, event) }
func (g *Func) Description() string                              { return g.Desc }
func (g *Func) Clone() Guard                                      { return &Func{Fn: g.Fn, Desc: g.Desc} }

// Always is a guard that always passes.
type Always struct{}

func (Always) Check(*value.Context, *value.Event) bool { return true }
func (Always) Description() string                     { return "always" }
func (Always) Clone() Guard                             { return Always{} }

// Never is a guard that always fails.
type Never struct{}

func (Never) Check(*value.Context, *value.Event) bool { return false }
func (Never) Description() string                     { return "never" }
func (Never) Clone() Guard                             { return Never{} }

// FieldEquality passes when ctx.Data[Field] equals Want.
type FieldEquality struct {
	Field string
	Want  any
}

func (g FieldEquality) Check(ctx *value.Context, _ *value.Event) bool {
	v, ok := ctx.Get(g.Field)
	return ok && v == g.Want
}
func (g FieldEquality) Description() string {
	return fmt.Sprintf("%s == %v", g.Field, g.Want)
}
func (g FieldEquality) Clone() Guard { return g }

// Range passes when ctx.Data[Field], as a float64, is within [Min, Max].
type Range struct {
	Field    string
	Min, Max float64
}

func (g Range) Check(ctx *value.Context, _ *value.Event) bool {
	v, ok := ctx.Get(g.Field)
	if !ok {
		return false
	}
	f, ok := toFloat(v)
	if !ok {
		return false
	}
	return f >= g.Min && f <= g.Max
}
func (g Range) Description() string {
	return fmt.Sprintf("%s in [%v, %v]", g.Field, g.Min, g.Max)
}
func (g Range) Clone() Guard { return g }

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// NullCheck passes when ctx.Data[Field] is present and non-nil.
type NullCheck struct {
	Field string
	// WantPresent, when true, requires presence; when false, requires
	// absence (or a nil value).
	WantPresent bool
}

func (g NullCheck) Check(ctx *value.Context, _ *value.Event) bool {
	v, ok := ctx.Get(g.Field)
	present := ok && v != nil
	return present == g.WantPresent
}
func (g NullCheck) Description() string {
	if g.WantPresent {
		return fmt.Sprintf("%s is present", g.Field)
	}
	return fmt.Sprintf("%s is absent", g.Field)
}
func (g NullCheck) Clone() Guard { return g }

// EventTypeIs passes when the incoming event's Type matches Want. Useful
// when a transition is declared against an event pattern that also needs
// to check a payload predicate alongside the discriminator equality
// already performed by the executor.
type EventTypeIs struct {
	Want string
}

func (g EventTypeIs) Check(_ *value.Context, event *value.Event) bool {
	return event != nil && event.Type == g.Want
}
func (g EventTypeIs) Description() string { return fmt.Sprintf("event type == %s", g.Want) }
func (g EventTypeIs) Clone() Guard        { return g }

// StateAccessor reports the currently active StateValue. The caller
// supplies it when building an InState guard (the executor does not set
// it), so InState guards can query a configuration without the guard
// package depending on the machine package (which would create an
// import cycle).
type StateAccessor func() value.StateValue

// InState passes when the accessor's current configuration has the named
// state active anywhere on its spine or in any parallel region.
type InState struct {
	StateID  string
	Accessor StateAccessor
}

func (g *InState) Check(*value.Context, *value.Event) bool {
	if g.Accessor == nil {
		return false
	}
	return g.Accessor().Active(g.StateID)
}
func (g *InState) Description() string { return fmt.Sprintf("in state %s", g.StateID) }
func (g *InState) Clone() Guard        { return &InState{StateID: g.StateID, Accessor: g.Accessor} }
