package machine_test

import (
	"testing"

	"github.com/chartrunner/chartrunner/pkg/machine"
	"github.com/chartrunner/chartrunner/pkg/value"
	"github.com/stretchr/testify/assert"
)

// TestTieBreakDeeperWins builds a nested machine where both the leaf and
// an ancestor declare a transition on the same event; the deeper
// (innermost) declaration must win.
func TestTieBreakDeeperWins(t *testing.T) {
	nodes := map[string]*machine.StateNode{
		"root": {ID: "root", Kind: machine.Compound, InitialChild: "outer", Children: []string{"outer", "outer-target", "inner-target"}},
		"outer": {
			ID: "outer", Kind: machine.Compound, ParentID: "root",
			InitialChild: "inner", Children: []string{"inner"},
		},
		"inner":        {ID: "inner", Kind: machine.Atomic, ParentID: "outer"},
		"outer-target": {ID: "outer-target", Kind: machine.Atomic, ParentID: "root"},
		"inner-target": {ID: "inner-target", Kind: machine.Atomic, ParentID: "root"},
	}
	transitions := []*machine.Transition{
		{ID: "outer-declared-first", SourceID: "outer", EventType: "Go", TargetID: "outer-target"},
		{ID: "inner-deeper", SourceID: "inner", EventType: "Go", TargetID: "inner-target"},
	}
	m := machine.New("root", nodes, transitions, nil, nil)
	ex := machine.NewExecutor(m, nil)
	state := m.InitialState()

	next, err := ex.TryTransition(state, value.NewEvent("Go"))
	assert.NoError(t, err)
	assert.Equal(t, "inner-target", next.Value.Leaf())
}

// TestTieBreakEarlierDeclarationWins builds two transitions on the same
// source and event; the earlier-declared one must win.
func TestTieBreakEarlierDeclarationWins(t *testing.T) {
	nodes := map[string]*machine.StateNode{
		"root":  {ID: "root", Kind: machine.Compound, InitialChild: "a", Children: []string{"a", "b", "c"}},
		"a":     {ID: "a", Kind: machine.Atomic, ParentID: "root"},
		"b":     {ID: "b", Kind: machine.Atomic, ParentID: "root"},
		"c":     {ID: "c", Kind: machine.Atomic, ParentID: "root"},
	}
	transitions := []*machine.Transition{
		{ID: "to-b", SourceID: "a", EventType: "Go", TargetID: "b"},
		{ID: "to-c", SourceID: "a", EventType: "Go", TargetID: "c"},
	}
	m := machine.New("root", nodes, transitions, nil, nil)
	ex := machine.NewExecutor(m, nil)
	state := m.InitialState()

	next := ex.Transition(state, value.NewEvent("Go"))
	assert.Equal(t, "b", next.Value.Leaf())
}

// TestParallelRegionsTransitionIndependently builds a parallel state with
// two regions and confirms a transition in one region leaves the other
// region's active leaf untouched.
func TestParallelRegionsTransitionIndependently(t *testing.T) {
	nodes := map[string]*machine.StateNode{
		"root": {ID: "root", Kind: machine.Parallel, Children: []string{"left", "right"}},
		"left": {
			ID: "left", Kind: machine.Compound, ParentID: "root",
			InitialChild: "left-a", Children: []string{"left-a", "left-b"},
		},
		"left-a": {ID: "left-a", Kind: machine.Atomic, ParentID: "left"},
		"left-b": {ID: "left-b", Kind: machine.Atomic, ParentID: "left"},
		"right": {
			ID: "right", Kind: machine.Compound, ParentID: "root",
			InitialChild: "right-a", Children: []string{"right-a", "right-b"},
		},
		"right-a": {ID: "right-a", Kind: machine.Atomic, ParentID: "right"},
		"right-b": {ID: "right-b", Kind: machine.Atomic, ParentID: "right"},
	}
	transitions := []*machine.Transition{
		{ID: "left-advance", SourceID: "left-a", EventType: "LeftGo", TargetID: "left-b"},
		{ID: "right-advance", SourceID: "right-a", EventType: "RightGo", TargetID: "right-b"},
	}
	m := machine.New("root", nodes, transitions, nil, nil)
	ex := machine.NewExecutor(m, nil)
	state := m.InitialState()

	assert.True(t, state.Value.Active("left-a"))
	assert.True(t, state.Value.Active("right-a"))

	state = ex.Transition(state, value.NewEvent("LeftGo"))
	assert.True(t, state.Value.Active("left-b"))
	assert.True(t, state.Value.Active("right-a"))

	state = ex.Transition(state, value.NewEvent("RightGo"))
	assert.True(t, state.Value.Active("left-b"))
	assert.True(t, state.Value.Active("right-b"))
}

func TestInternalTransitionLeavesConfigurationUnchanged(t *testing.T) {
	nodes := map[string]*machine.StateNode{
		"root": {ID: "root", Kind: machine.Compound, InitialChild: "a", Children: []string{"a"}},
		"a":    {ID: "a", Kind: machine.Atomic, ParentID: "root"},
	}
	transitions := []*machine.Transition{
		{ID: "internal", SourceID: "a", EventType: "Ping", Internal: true},
	}
	m := machine.New("root", nodes, transitions, nil, nil)
	ex := machine.NewExecutor(m, nil)
	state := m.InitialState()
	next := ex.Transition(state, value.NewEvent("Ping"))
	assert.Equal(t, "a", next.Value.Leaf())
	assert.True(t, state.Value.Equal(next.Value))
}
