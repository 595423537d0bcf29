package builder_test

import (
	"testing"
	"time"

	"github.com/chartrunner/chartrunner/pkg/builder"
	"github.com/chartrunner/chartrunner/pkg/clock"
	"github.com/chartrunner/chartrunner/pkg/guard"
	"github.com/chartrunner/chartrunner/pkg/history"
	"github.com/chartrunner/chartrunner/pkg/machine"
	"github.com/chartrunner/chartrunner/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSimpleToggleMachine(t *testing.T) {
	m, err := builder.NewMachineBuilder("toggle").
		AddRoot("root", machine.Compound).
		SetInitialChild("idle").
		AddAtomicState("idle", "root").
		AddAtomicState("active", "root").
		AddTransition("idle", "Start", "active").Done().
		AddTransition("active", "Stop", "idle").Done().
		Build()
	require.NoError(t, err)

	ex := machine.NewExecutor(m, nil)
	state := m.InitialState()
	assert.Equal(t, "idle", state.Value.Leaf())

	state = ex.Transition(state, value.NewEvent("Start"))
	assert.Equal(t, "active", state.Value.Leaf())
}

func TestBuildWithGuardedTransition(t *testing.T) {
	m, err := builder.NewMachineBuilder("heal").
		AddRoot("root", machine.Compound).
		SetInitialChild("idle").
		AddAtomicState("idle", "root").
		AddAtomicState("healing", "root").
		AddTransition("idle", "Heal", "healing").
		WithGuard(guard.Range{Field: "coins", Min: 10, Max: 1 << 30}).
		Done().
		Build()
	require.NoError(t, err)

	ex := machine.NewExecutor(m, nil)
	state := m.InitialState()
	state.Context.Set("coins", 5)
	unchanged := ex.Transition(state, value.NewEvent("Heal"))
	assert.Equal(t, "idle", unchanged.Value.Leaf())
}

func TestBuildWithHistoryState(t *testing.T) {
	tracker := history.NewTracker(clock.NewManual(time.Now()), 0, 0)
	m, err := builder.NewMachineBuilder("playing").
		AddRoot("root", machine.Compound).
		SetInitialChild("idle").
		AddAtomicState("idle", "root").
		AddCompoundState("playing", "root").
		SetInitialChild("level1").
		AddAtomicState("level1", "playing").
		AddAtomicState("level2", "playing").
		AddHistoryState("hist", "playing", history.Shallow, "level1").
		WithHistoryTracker(tracker).
		AddTransition("level1", "Next", "level2").Done().
		AddTransition("playing", "Exit", "idle").Done().
		AddTransition("idle", "Resume", "hist").Done().
		Build()
	require.NoError(t, err)
	assert.Equal(t, 6, m.StateCount())
}

func TestBuildFailsWithoutRoot(t *testing.T) {
	_, err := builder.NewMachineBuilder("broken").
		AddAtomicState("idle", "").
		Build()
	require.Error(t, err)
}

func TestBuildFailsWithDuplicateStateID(t *testing.T) {
	_, err := builder.NewMachineBuilder("broken").
		AddRoot("root", machine.Compound).
		SetInitialChild("idle").
		AddAtomicState("idle", "root").
		AddAtomicState("idle", "root").
		Build()
	require.Error(t, err)
	var buildErr *value.BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.GreaterOrEqual(t, len(buildErr.Violations), 1)
}

func TestBuildFailsWithUnresolvedTransitionTarget(t *testing.T) {
	_, err := builder.NewMachineBuilder("broken").
		AddRoot("root", machine.Compound).
		SetInitialChild("idle").
		AddAtomicState("idle", "root").
		AddTransition("idle", "Go", "nowhere").Done().
		Build()
	require.Error(t, err)
}

func TestBuildFailsWithMissingInitialChild(t *testing.T) {
	_, err := builder.NewMachineBuilder("broken").
		AddRoot("root", machine.Compound).
		AddAtomicState("idle", "root").
		Build()
	require.Error(t, err)
}

func TestBuildFailsWithHistoryStateMissingTracker(t *testing.T) {
	_, err := builder.NewMachineBuilder("broken").
		AddRoot("root", machine.Compound).
		SetInitialChild("idle").
		AddAtomicState("idle", "root").
		AddCompoundState("playing", "root").
		SetInitialChild("level1").
		AddAtomicState("level1", "playing").
		AddHistoryState("hist", "playing", history.Shallow, "level1").
		Build()
	require.Error(t, err)
}

func TestBuildSucceedsWithInternalTransition(t *testing.T) {
	_, err := builder.NewMachineBuilder("ok").
		AddRoot("root", machine.Compound).
		SetInitialChild("idle").
		AddAtomicState("idle", "root").
		AddInternalTransition("idle", "Ping").
		WithActions(nil).
		Done().
		Build()
	require.NoError(t, err)
}
