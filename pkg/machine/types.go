// Package machine implements the statechart model and transition
// executor: an immutable Machine built once by pkg/builder,
// and the pure transition() function that walks it.
package machine

import (
	"github.com/chartrunner/chartrunner/pkg/action"
	"github.com/chartrunner/chartrunner/pkg/guard"
	"github.com/chartrunner/chartrunner/pkg/history"
)

// Kind discriminates the shape of a StateNode.
type Kind int

const (
	// Atomic is a leaf state with no children.
	Atomic Kind = iota
	// Compound nests children, exactly one of which is active at a time.
	Compound
	// Parallel nests children (regions), all of which are active
	// simultaneously.
	Parallel
	// Final marks a terminal atomic state within its parent region.
	Final
	// HistoryShallow is a pseudo-state resolving to the last immediate
	// child of its parent.
	HistoryShallow
	// HistoryDeep is a pseudo-state resolving to the last full atomic
	// leaf chain under its parent.
	HistoryDeep
)

// StateNode is one node of the flat state graph owned by a Machine:
// a single record keyed by ID rather than an interface hierarchy.
type StateNode struct {
	ID       string
	Kind     Kind
	ParentID string
	Children []string

	// InitialChild is the child entered by default when this node is
	// Compound. Unused for Atomic/Parallel/Final/history kinds.
	InitialChild string

	// EntryActions and ExitActions run, respectively, when this node is
	// entered or exited. Default error handling is ContinueOnError;
	// callers compose a different action.List if they want
	// StopOnError for a specific node.
	EntryActions *action.List
	ExitActions  *action.List

	// HistoryDefaultTarget applies only to HistoryShallow/HistoryDeep
	// nodes (Kind says which): it names the
	// sibling state entered when no prior record exists for ParentID.
	HistoryDefaultTarget string
}

// IsLeaf reports whether this node is a leaf in the active-configuration
// sense: Atomic or Final.
func (n *StateNode) IsLeaf() bool {
	return n.Kind == Atomic || n.Kind == Final
}

// IsHistory reports whether this node is a history pseudo-state.
func (n *StateNode) IsHistory() bool {
	return n.Kind == HistoryShallow || n.Kind == HistoryDeep
}

// Transition is one declared edge: from a source state, triggered by an
// event type, optionally guarded, running transition actions, and
// landing on a target state (or, for an internal transition, none).
type Transition struct {
	ID        string
	SourceID  string
	EventType string
	TargetID  string
	// Internal transitions run their actions without exiting/entering
	// the source state; TargetID is empty for these.
	Internal bool
	Guard    guard.Guard
	Actions  *action.List
	// Priority breaks ties among multiple enabled transitions declared
	// on the same source; lower values are preferred. Declaration order
	// is used when priorities are equal.
	Priority int
	declOrder int
}

// HistoryBinding links a history pseudo-state node to its parent and
// history kind. The binding holds no tracker: every binding of a Machine
// reads and writes the Machine's single history Tracker.
type HistoryBinding struct {
	NodeID   string
	ParentID string
	Kind     history.Kind
}
