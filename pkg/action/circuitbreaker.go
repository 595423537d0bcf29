package action

import (
	"sync"
	"time"

	"github.com/chartrunner/chartrunner/pkg/clock"
	"github.com/chartrunner/chartrunner/pkg/value"
)

// BreakerState is the lifecycle of a circuit breaker.
type BreakerState int

const (
	// Closed lets calls through normally.
	Closed BreakerState = iota
	// Open rejects every call without invoking Inner.
	Open
	// HalfOpen lets a single trial call through to probe recovery.
	HalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// breaker holds the mutable state for one named circuit.
type breaker struct {
	mu          sync.Mutex
	state       BreakerState
	failures    int
	threshold   int
	openedAt    time.Time
	resetAfter  time.Duration
	clk         clock.Source
}

func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case Closed:
		return true
	case Open:
		if b.clk.Now().Sub(b.openedAt) >= b.resetAfter {
			b.state = HalfOpen
			return true
		}
		return false
	case HalfOpen:
		return true
	default:
		return true
	}
}

func (b *breaker) recordResult(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.failures = 0
		b.state = Closed
		return
	}
	b.failures++
	if b.state == HalfOpen || b.failures >= b.threshold {
		b.state = Open
		b.openedAt = b.clk.Now()
	}
}

func (b *breaker) snapshot() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Registry keys circuit breaker state by name so multiple
// CircuitBreaker actions across different transitions (or different
// machine instances) sharing a name share fault state.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*breaker
}

// NewRegistry creates an empty circuit breaker registry.
func NewRegistry() *Registry {
	return &Registry{breakers: make(map[string]*breaker)}
}

func (r *Registry) get(name string, threshold int, resetAfter time.Duration, clk clock.Source) *breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.breakers[name]
	if !ok {
		b = &breaker{threshold: threshold, resetAfter: resetAfter, clk: clk}
		r.breakers[name] = b
	}
	return b
}

// State reports the current state of the named circuit, or Closed if it
// has never been used.
func (r *Registry) State(name string) BreakerState {
	r.mu.Lock()
	b, ok := r.breakers[name]
	r.mu.Unlock()
	if !ok {
		return Closed
	}
	return b.snapshot()
}

// CircuitBreaker wraps Inner, refusing to call it once Threshold
// consecutive failures have opened the named circuit, until ResetAfter
// has elapsed (at which point one trial call is allowed through in
// HalfOpen).
type CircuitBreaker struct {
	Inner       Action
	Registry    *Registry
	CircuitName string
	Threshold   int
	ResetAfter  time.Duration
	Clock       clock.Source
	ActName     string
	// Fallback runs, against the same context, in place of Inner while
	// the named circuit is open. Optional.
	Fallback Action
}

// NewCircuitBreaker builds a CircuitBreaker action keyed by name in
// registry.
func NewCircuitBreaker(actName string, inner Action, registry *Registry, name string, threshold int, resetAfter time.Duration, src clock.Source) *CircuitBreaker {
	if src == nil {
		src = clock.System
	}
	return &CircuitBreaker{
		Inner: inner, Registry: registry, CircuitName: name,
		Threshold: threshold, ResetAfter: resetAfter, Clock: src, ActName: actName,
	}
}

func (a *CircuitBreaker) Run(ctx *value.Context, event *value.Event) error {
	b := a.Registry.get(a.CircuitName, a.Threshold, a.ResetAfter, a.Clock)
	if !b.allow() {
		if a.Fallback != nil {
			return a.Fallback.Run(ctx, event)
		}
		return value.NewActionError(a.Name(), "", value.NewError(value.CodeActionError, "circuit open: "+a.CircuitName))
	}
	err := a.Inner.Run(ctx, event)
	b.recordResult(err)
	return err
}

func (a *CircuitBreaker) Name() string {
	if a.ActName != "" {
		return a.ActName
	}
	return "circuit-breaker(" + a.CircuitName + ")"
}
