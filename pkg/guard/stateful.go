package guard

import (
	"fmt"
	"sync"
	"time"

	"github.com/chartrunner/chartrunner/pkg/clock"
	"github.com/chartrunner/chartrunner/pkg/value"
)

// TimeGuard passes once at least Elapsed has passed since it was armed
// (first Check call, or the last Reset). Grounded on leptos-state's
// TimeGuard, adapted to an injectable clock.Source for deterministic
// tests instead of wall-clock sleeps.
type TimeGuard struct {
	Elapsed time.Duration
	Clock   clock.Source

	mu      sync.Mutex
	armedAt *time.Time
}

// NewTimeGuard creates a TimeGuard measured against src (clock.System if
// nil).
func NewTimeGuard(elapsed time.Duration, src clock.Source) *TimeGuard {
	if src == nil {
		src = clock.System
	}
	return &TimeGuard{Elapsed: elapsed, Clock: src}
}

func (g *TimeGuard) Check(*value.Context, *value.Event) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.Clock.Now()
	if g.armedAt == nil {
		g.armedAt = &now
		return g.Elapsed <= 0
	}
	return now.Sub(*g.armedAt) >= g.Elapsed
}

// Reset re-arms the guard so the next Check restarts the countdown.
func (g *TimeGuard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armedAt = nil
}

func (g *TimeGuard) Description() string {
	return fmt.Sprintf("elapsed >= %s", g.Elapsed)
}

func (g *TimeGuard) Clone() Guard {
	return NewTimeGuard(g.Elapsed, g.Clock)
}

// CounterGuard passes for the first Threshold calls, then fails forever
// (until Reset). Grounded on leptos-state's CounterGuard
// (`self.count.get() < self.max_count`, incrementing only on a pass).
type CounterGuard struct {
	Threshold int

	mu    sync.Mutex
	count int
}

// NewCounterGuard creates a CounterGuard allowing threshold passes.
func NewCounterGuard(threshold int) *CounterGuard {
	return &CounterGuard{Threshold: threshold}
}

func (g *CounterGuard) Check(*value.Context, *value.Event) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.count >= g.Threshold {
		return false
	}
	g.count++
	return true
}

// Reset zeroes the counter.
func (g *CounterGuard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.count = 0
}

// Count returns the number of passes since the last Reset (failed checks
// are not counted).
func (g *CounterGuard) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.count
}

func (g *CounterGuard) Description() string {
	return fmt.Sprintf("count < %d", g.Threshold)
}

func (g *CounterGuard) Clone() Guard {
	return NewCounterGuard(g.Threshold)
}

// RateLimitGuard passes at most MaxEvents times within Window, using a
// sliding log of pass timestamps.
type RateLimitGuard struct {
	MaxEvents int
	Window    time.Duration
	Clock     clock.Source

	mu     sync.Mutex
	events []time.Time
}

// NewRateLimitGuard creates a RateLimitGuard allowing at most maxEvents
// passes per window.
func NewRateLimitGuard(maxEvents int, window time.Duration, src clock.Source) *RateLimitGuard {
	if src == nil {
		src = clock.System
	}
	return &RateLimitGuard{MaxEvents: maxEvents, Window: window, Clock: src}
}

func (g *RateLimitGuard) Check(*value.Context, *value.Event) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.Clock.Now()
	cutoff := now.Add(-g.Window)
	kept := g.events[:0]
	for _, t := range g.events {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	g.events = kept
	if len(g.events) >= g.MaxEvents {
		return false
	}
	g.events = append(g.events, now)
	return true
}

func (g *RateLimitGuard) Description() string {
	return fmt.Sprintf("rate <= %d per %s", g.MaxEvents, g.Window)
}

func (g *RateLimitGuard) Clone() Guard {
	return NewRateLimitGuard(g.MaxEvents, g.Window, g.Clock)
}

// CooldownGuard passes once, then rejects every subsequent call until
// Cooldown has elapsed since the last pass.
type CooldownGuard struct {
	Cooldown time.Duration
	Clock    clock.Source

	mu       sync.Mutex
	lastPass *time.Time
}

// NewCooldownGuard creates a CooldownGuard with the given cooldown period.
func NewCooldownGuard(cooldown time.Duration, src clock.Source) *CooldownGuard {
	if src == nil {
		src = clock.System
	}
	return &CooldownGuard{Cooldown: cooldown, Clock: src}
}

func (g *CooldownGuard) Check(*value.Context, *value.Event) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.Clock.Now()
	if g.lastPass != nil && now.Sub(*g.lastPass) < g.Cooldown {
		return false
	}
	g.lastPass = &now
	return true
}

func (g *CooldownGuard) Description() string {
	return fmt.Sprintf("cooldown %s", g.Cooldown)
}

func (g *CooldownGuard) Clone() Guard {
	return NewCooldownGuard(g.Cooldown, g.Clock)
}
