// Package builder provides a fluent, imperative construction surface for
// machine.Machine: a chain of Add*/With* calls tracking a "current
// node" or "current transition", ending in Build() which validates
// everything at once and returns an immutable Machine.
package builder

import (
	"fmt"

	"github.com/chartrunner/chartrunner/pkg/action"
	"github.com/chartrunner/chartrunner/pkg/guard"
	"github.com/chartrunner/chartrunner/pkg/history"
	"github.com/chartrunner/chartrunner/pkg/machine"
	"github.com/chartrunner/chartrunner/pkg/value"
)

// MachineBuilder accumulates state nodes, transitions, and history
// bindings, deferring all validation to Build().
type MachineBuilder struct {
	name        string
	rootID      string
	nodes       map[string]*machine.StateNode
	order       []string
	transitions []*machine.Transition
	histories   map[string]machine.HistoryBinding
	tracker     *history.Tracker
	current     *machine.StateNode
	errs        *value.ErrorCollector
}

// NewMachineBuilder starts a builder for a machine named name. The name
// is descriptive only; it does not appear in the built Machine.
func NewMachineBuilder(name string) *MachineBuilder {
	return &MachineBuilder{
		name:      name,
		nodes:     make(map[string]*machine.StateNode),
		histories: make(map[string]machine.HistoryBinding),
		errs:      value.NewErrorCollector(),
	}
}

func (b *MachineBuilder) addNode(id string, kind machine.Kind, parentID string) *machine.StateNode {
	if id == "" {
		b.errs.Addf(value.CodeBuildError, "state id must not be empty")
	}
	if _, exists := b.nodes[id]; exists {
		b.errs.Addf(value.CodeBuildError, "duplicate state id %q", id)
	}
	n := &machine.StateNode{ID: id, Kind: kind, ParentID: parentID}
	b.nodes[id] = n
	b.order = append(b.order, id)
	if parentID != "" {
		if parent, ok := b.nodes[parentID]; ok {
			parent.Children = append(parent.Children, id)
		} else {
			b.errs.Addf(value.CodeUnresolvedReference, "state %q declares unknown parent %q", id, parentID)
		}
	}
	b.current = n
	return n
}

// AddRoot declares the machine's root node. Must be called exactly once,
// before any other Add* call that names it as a parent.
func (b *MachineBuilder) AddRoot(id string, kind machine.Kind) *MachineBuilder {
	if b.rootID != "" {
		b.errs.Addf(value.CodeBuildError, "root already set to %q, cannot set to %q", b.rootID, id)
		return b
	}
	b.rootID = id
	b.addNode(id, kind, "")
	return b
}

// AddAtomicState declares a leaf state.
func (b *MachineBuilder) AddAtomicState(id, parentID string) *MachineBuilder {
	b.addNode(id, machine.Atomic, parentID)
	return b
}

// AddFinalState declares a terminal leaf state.
func (b *MachineBuilder) AddFinalState(id, parentID string) *MachineBuilder {
	b.addNode(id, machine.Final, parentID)
	return b
}

// AddCompoundState declares a state with exactly one active child at a
// time. Call SetInitialChild afterward to name the default child.
func (b *MachineBuilder) AddCompoundState(id, parentID string) *MachineBuilder {
	b.addNode(id, machine.Compound, parentID)
	return b
}

// AddParallelState declares a state whose children are all active
// simultaneously as independent regions.
func (b *MachineBuilder) AddParallelState(id, parentID string) *MachineBuilder {
	b.addNode(id, machine.Parallel, parentID)
	return b
}

// AddHistoryState declares a shallow or deep history pseudo-state as a
// child of parentID, resolving to defaultTarget when the parent has
// never been visited.
func (b *MachineBuilder) AddHistoryState(id, parentID string, kind history.Kind, defaultTarget string) *MachineBuilder {
	nodeKind := machine.HistoryShallow
	if kind == history.Deep {
		nodeKind = machine.HistoryDeep
	}
	n := b.addNode(id, nodeKind, parentID)
	n.HistoryDefaultTarget = defaultTarget
	if _, exists := b.histories[parentID]; exists {
		b.errs.Addf(value.CodeHistoryError, "parent %q already has a history binding", parentID)
	}
	b.histories[parentID] = machine.HistoryBinding{NodeID: id, ParentID: parentID, Kind: kind}
	return b
}

// SetInitialChild names the child entered by default when the most
// recently added Compound state is entered without a history target.
func (b *MachineBuilder) SetInitialChild(id string) *MachineBuilder {
	if b.current == nil {
		b.errs.Addf(value.CodeBuildError, "SetInitialChild called before any state was added")
		return b
	}
	b.current.InitialChild = id
	return b
}

// WithEntryActions attaches an action list run whenever the most
// recently added state is entered.
func (b *MachineBuilder) WithEntryActions(list *action.List) *MachineBuilder {
	if b.current == nil {
		b.errs.Addf(value.CodeBuildError, "WithEntryActions called before any state was added")
		return b
	}
	b.current.EntryActions = list
	return b
}

// WithExitActions attaches an action list run whenever the most recently
// added state is exited.
func (b *MachineBuilder) WithExitActions(list *action.List) *MachineBuilder {
	if b.current == nil {
		b.errs.Addf(value.CodeBuildError, "WithExitActions called before any state was added")
		return b
	}
	b.current.ExitActions = list
	return b
}

// WithHistoryTracker sets the tracker used to record and resolve history
// pseudo-states. Required if any AddHistoryState call was made.
func (b *MachineBuilder) WithHistoryTracker(tracker *history.Tracker) *MachineBuilder {
	b.tracker = tracker
	return b
}

// TransitionBuilder configures the single most recently declared
// transition before the chain returns to its MachineBuilder.
type TransitionBuilder struct {
	builder *MachineBuilder
	tr      *machine.Transition
}

// AddTransition declares an external transition from sourceID to
// targetID on eventType.
func (b *MachineBuilder) AddTransition(sourceID, eventType, targetID string) *TransitionBuilder {
	tr := &machine.Transition{
		ID:        fmt.Sprintf("%s--%s-->%s#%d", sourceID, eventType, targetID, len(b.transitions)),
		SourceID:  sourceID,
		EventType: eventType,
		TargetID:  targetID,
	}
	b.transitions = append(b.transitions, tr)
	return &TransitionBuilder{builder: b, tr: tr}
}

// AddInternalTransition declares a transition that runs its actions
// without exiting or re-entering sourceID.
func (b *MachineBuilder) AddInternalTransition(sourceID, eventType string) *TransitionBuilder {
	tr := &machine.Transition{
		ID:        fmt.Sprintf("%s--%s-->#internal#%d", sourceID, eventType, len(b.transitions)),
		SourceID:  sourceID,
		EventType: eventType,
		Internal:  true,
	}
	b.transitions = append(b.transitions, tr)
	return &TransitionBuilder{builder: b, tr: tr}
}

// WithGuard attaches a guard condition to the transition.
func (t *TransitionBuilder) WithGuard(g guard.Guard) *TransitionBuilder {
	t.tr.Guard = g
	return t
}

// WithActions attaches the action list run during the transition.
func (t *TransitionBuilder) WithActions(list *action.List) *TransitionBuilder {
	t.tr.Actions = list
	return t
}

// WithPriority sets the tie-break priority; lower values win among
// multiple simultaneously enabled transitions.
func (t *TransitionBuilder) WithPriority(p int) *TransitionBuilder {
	t.tr.Priority = p
	return t
}

// WithID overrides the transition's generated identifier.
func (t *TransitionBuilder) WithID(id string) *TransitionBuilder {
	t.tr.ID = id
	return t
}

// Done returns to the owning MachineBuilder to continue the chain.
func (t *TransitionBuilder) Done() *MachineBuilder { return t.builder }

// Build validates the accumulated declarations and, if they are
// consistent, returns the immutable Machine. On failure it returns a
// *value.BuildError aggregating every violation found.
func (b *MachineBuilder) Build() (*machine.Machine, error) {
	validate(b)
	if err := value.AsBuildError(b.errs); err != nil {
		return nil, err
	}
	return machine.New(b.rootID, b.nodes, b.transitions, b.histories, b.tracker), nil
}
