package action

import (
	"fmt"
	"sync"

	"github.com/chartrunner/chartrunner/pkg/value"
)

// Sequential runs its members in order under ContinueOnError semantics,
// collecting every failure rather than aborting partway.
type Sequential struct {
	Members []Action
	ActName string
}

// NewSequential builds a Sequential action wrapping members.
func NewSequential(name string, members ...Action) *Sequential {
	return &Sequential{Members: members, ActName: name}
}

func (a *Sequential) Run(ctx *value.Context, event *value.Event) error {
	return NewList(ContinueOnError, a.Members...).Run(ctx, event)
}

func (a *Sequential) Name() string {
	if a.ActName != "" {
		return a.ActName
	}
	return "sequential"
}

// Parallel runs its members against independent context clones (since
// the executor holds a single mutable context per Transition call, true
// concurrent mutation would race) and merges their resulting context
// data back into ctx once every member has completed. Members run on
// separate goroutines; Parallel waits for all of them before returning,
// so it never outlives the synchronous transition it belongs to.
type Parallel struct {
	Members []Action
	ActName string
}

// NewParallel builds a Parallel action wrapping members.
func NewParallel(name string, members ...Action) *Parallel {
	return &Parallel{Members: members, ActName: name}
}

func (a *Parallel) Run(ctx *value.Context, event *value.Event) error {
	type result struct {
		data map[string]any
		err  error
	}
	results := make([]result, len(a.Members))
	var wg sync.WaitGroup
	for i, m := range a.Members {
		wg.Add(1)
		go func(i int, m Action) {
			defer wg.Done()
			clone := ctx.Clone()
			err := m.Run(&clone, event)
			results[i] = result{data: clone.Data, err: err}
		}(i, m)
	}
	wg.Wait()

	collector := value.NewErrorCollector()
	for _, r := range results {
		for k, v := range r.data {
			ctx.Set(k, v)
		}
		collector.Add(r.err)
	}
	return value.AsBuildError(collector)
}

func (a *Parallel) Name() string {
	if a.ActName != "" {
		return a.ActName
	}
	return "parallel"
}

// Conditional runs Then if Predicate passes, else Else (if set).
type Conditional struct {
	Predicate func(ctx *value.Context, event *value.Event) bool
	Then      Action
	Else      Action
	ActName   string
}

// NewConditional builds a Conditional action.
func NewConditional(name string, predicate func(ctx *value.Context, event *value.Event) bool, then, els Action) *Conditional {
	return &Conditional{Predicate: predicate, Then: then, Else: els, ActName: name}
}

func (a *Conditional) Run(ctx *value.Context, event *value.Event) error {
	if a.Predicate(ctx, event) {
		if a.Then == nil {
			return nil
		}
		return a.Then.Run(ctx, event)
	}
	if a.Else == nil {
		return nil
	}
	return a.Else.Run(ctx, event)
}

func (a *Conditional) Name() string {
	if a.ActName != "" {
		return a.ActName
	}
	return "conditional"
}

// Composite groups members under an explicit ErrorHandlingStrategy,
// unlike Sequential which always uses ContinueOnError.
type Composite struct {
	Members  []Action
	Strategy ErrorHandlingStrategy
	ActName  string
}

// NewComposite builds a Composite action with the given strategy.
func NewComposite(name string, strategy ErrorHandlingStrategy, members ...Action) *Composite {
	return &Composite{Members: members, Strategy: strategy, ActName: name}
}

func (a *Composite) Run(ctx *value.Context, event *value.Event) error {
	return NewList(a.Strategy, a.Members...).Run(ctx, event)
}

func (a *Composite) Name() string {
	if a.ActName != "" {
		return a.ActName
	}
	return fmt.Sprintf("composite(%d members)", len(a.Members))
}
