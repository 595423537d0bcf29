package machine

import (
	"sort"

	"github.com/chartrunner/chartrunner/pkg/history"
	"github.com/chartrunner/chartrunner/pkg/value"
)

// MachineState is a value-semantics snapshot of a running machine: the
// active configuration and the user context at that point. Every
// Transition call produces a fresh MachineState rather than mutating
// one in place.
type MachineState struct {
	Value   value.StateValue
	Context value.Context
}

// Clone returns a MachineState with an independently mutable Context.
// Value is already immutable (StateValue never exposes a mutation
// method), so it is copied as-is.
func (s MachineState) Clone() MachineState {
	return MachineState{Value: s.Value, Context: s.Context.Clone()}
}

// Machine is the immutable statechart model: a flat map of StateNodes
// plus the transitions declared on them. Machines are built once by
// pkg/builder and never mutated afterward, so a single Machine can be
// shared across goroutines driving independent MachineState values
// concurrently.
type Machine struct {
	rootID      string
	nodes       map[string]*StateNode
	transitions map[string][]*Transition
	histories   map[string]HistoryBinding
	tracker     *history.Tracker
}

// New constructs a Machine from validated components. Intended to be
// called only by pkg/builder after validation has already run; it does
// not re-validate.
func New(rootID string, nodes map[string]*StateNode, transitions []*Transition, histories map[string]HistoryBinding, tracker *history.Tracker) *Machine {
	byID := make(map[string]*StateNode, len(nodes))
	for id, n := range nodes {
		byID[id] = n
	}
	bySource := make(map[string][]*Transition)
	for i, tr := range transitions {
		tr.declOrder = i
		bySource[tr.SourceID] = append(bySource[tr.SourceID], tr)
	}
	for _, list := range bySource {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Priority != list[j].Priority {
				return list[i].Priority < list[j].Priority
			}
			return list[i].declOrder < list[j].declOrder
		})
	}
	return &Machine{
		rootID:      rootID,
		nodes:       byID,
		transitions: bySource,
		histories:   histories,
		tracker:     tracker,
	}
}

// Node returns the node with the given ID, or nil if unknown.
func (m *Machine) Node(id string) *StateNode { return m.nodes[id] }

// TransitionsFrom returns the transitions declared with sourceID as
// their source, in priority/declaration order.
func (m *Machine) TransitionsFrom(sourceID string) []*Transition {
	return m.transitions[sourceID]
}

// StateCount returns the number of nodes in the machine.
func (m *Machine) StateCount() int { return len(m.nodes) }

// IsValidState reports whether sv describes a reachable configuration of
// this machine: every identifier on its spine exists, and the kinds
// agree (Simple only for Atomic/Final, Compound for Compound, Parallel
// for Parallel).
func (m *Machine) IsValidState(sv value.StateValue) bool {
	node, ok := m.nodes[sv.Name()]
	if !ok {
		return false
	}
	switch sv.Kind() {
	case value.KindSimple:
		return node.IsLeaf()
	case value.KindCompound:
		return node.Kind == Compound && m.IsValidState(sv.Child())
	case value.KindParallel:
		if node.Kind != Parallel {
			return false
		}
		for _, region := range sv.Regions() {
			if !m.IsValidState(region) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// IsLeaf reports whether id names an Atomic or Final node.
func (m *Machine) IsLeaf(id string) bool {
	n, ok := m.nodes[id]
	return ok && n.IsLeaf()
}

// InitialState computes the initial MachineState by descending from the
// root through InitialChild links (or, for Parallel nodes, into every
// region) until every branch reaches a leaf.
func (m *Machine) InitialState() MachineState {
	return MachineState{
		Value:   m.initialValue(m.rootID),
		Context: value.NewContext(),
	}
}

func (m *Machine) initialValue(id string) value.StateValue {
	node := m.nodes[id]
	switch node.Kind {
	case Compound:
		return value.Compound(id, m.initialValue(node.InitialChild))
	case Parallel:
		regions := make([]value.StateValue, len(node.Children))
		for i, child := range node.Children {
			regions[i] = m.initialValue(child)
		}
		return value.Parallel(id, regions)
	default:
		return value.Simple(id)
	}
}

// Ancestors returns every ancestor ID from id's parent up to (and
// including) the root, in that order.
func (m *Machine) Ancestors(id string) []string {
	var out []string
	cur := m.nodes[id]
	for cur != nil && cur.ParentID != "" {
		out = append(out, cur.ParentID)
		cur = m.nodes[cur.ParentID]
	}
	return out
}

// ActiveLeafPath returns every state ID on the active spine of sv, from
// root to the deepest leaf reached via Child/Regions[0], matching
// value.StateValue.Path.
func ActiveLeafPath(sv value.StateValue) []string { return sv.Path() }
