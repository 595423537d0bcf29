package guard

import "github.com/chartrunner/chartrunner/pkg/value"

// Cache memoizes guard results for the lifetime of a single transition
// attempt: the executor evaluates guards once per candidate transition,
// but the same guard instance may appear on multiple candidate
// transitions examined during one event dispatch (e.g. a shared "has
// permission" guard used by several outgoing transitions of a state). A
// Cache ensures a stateful guard (CounterGuard, RateLimitGuard, ...) is
// only actually invoked once per dispatch regardless of how many
// candidates reference it: side effects happen once per event, not
// once per candidate.
//
// A fresh Cache must be created for every dispatch (the executor builds
// one per TryTransition/CanTransition call) and discarded afterward; it
// must never be reused across dispatches.
type Cache struct {
	results map[Guard]bool
}

// NewCache creates an empty guard result cache.
func NewCache() *Cache {
	return &Cache{results: make(map[Guard]bool)}
}

// Check returns g's cached result for this dispatch, evaluating and
// storing it on first use.
func (c *Cache) Check(g Guard, ctx *value.Context, event *value.Event) bool {
	if g == nil {
		return true
	}
	if v, ok := c.results[g]; ok {
		return v
	}
	v := g.Check(ctx, event)
	c.results[g] = v
	return v
}
