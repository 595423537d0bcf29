// Package chartrunner provides a hierarchical statechart runtime: typed
// guards, composable actions, shallow/deep history, pluggable
// persistence, and observability, built around an immutable Machine
// model and a pure, value-semantics executor. Gathers the subordinate
// packages behind one import path.
package chartrunner

import (
	"time"

	"github.com/chartrunner/chartrunner/pkg/action"
	"github.com/chartrunner/chartrunner/pkg/builder"
	"github.com/chartrunner/chartrunner/pkg/clock"
	"github.com/chartrunner/chartrunner/pkg/guard"
	"github.com/chartrunner/chartrunner/pkg/history"
	"github.com/chartrunner/chartrunner/pkg/machine"
	"github.com/chartrunner/chartrunner/pkg/observability"
	"github.com/chartrunner/chartrunner/pkg/persistence"
	"github.com/chartrunner/chartrunner/pkg/value"
)

// Core value types (pkg/value).
type (
	StateValue      = value.StateValue
	StateValueKind  = value.StateValueKind
	Event           = value.Event
	EventPriority   = value.EventPriority
	Context         = value.Context
	ErrorCode       = value.ErrorCode
	RuntimeError    = value.RuntimeError
	BuildError      = value.BuildError
	ErrorCollector  = value.ErrorCollector
)

const (
	KindSimple   = value.KindSimple
	KindCompound = value.KindCompound
	KindParallel = value.KindParallel
)

const (
	LowPriority      = value.LowPriority
	NormalPriority   = value.NormalPriority
	HighPriority     = value.HighPriority
	CriticalPriority = value.CriticalPriority
)

// Error codes (pkg/value), mirrored for callers that only import the
// root package.
const (
	CodeBuildError          = value.CodeBuildError
	CodeUnresolvedReference = value.CodeUnresolvedReference
	CodeMissingInitial      = value.CodeMissingInitial
	CodeInvalidHierarchy    = value.CodeInvalidHierarchy
	CodeNoEnabledTransition = value.CodeNoEnabledTransition
	CodeGuardError          = value.CodeGuardError
	CodeActionError         = value.CodeActionError
	CodeHistoryError        = value.CodeHistoryError
	CodePersistenceNotFound = value.CodePersistenceNotFound
	CodeChecksumMismatch    = value.CodeChecksumMismatch
	CodeSchemaIncompatible  = value.CodeSchemaIncompatible
	CodeBackendUnavailable  = value.CodeBackendUnavailable
	CodePermissionDenied    = value.CodePermissionDenied
)

// Clock abstraction (pkg/clock).
type (
	Clock  = clock.Source
	Manual = clock.Manual
)

// Guard types (pkg/guard).
type (
	Guard           = guard.Guard
	GuardCache      = guard.Cache
	CompositeLogic  = guard.CompositeLogic
)

// Action types (pkg/action).
type (
	Action             = action.Action
	ActionList         = action.List
	ErrorHandling      = action.ErrorHandlingStrategy
	Backoff            = action.Backoff
	BreakerState       = action.BreakerState
	BreakerRegistry    = action.Registry
)

const (
	StopOnError      = action.StopOnError
	ContinueOnError  = action.ContinueOnError
	RetryOnError     = action.RetryOnError
	SkipOnError      = action.SkipOnError
)

// History subsystem (pkg/history).
type (
	HistoryKind     = history.Kind
	HistoryEntry    = history.Entry
	HistoryTracker  = history.Tracker
	HistorySnapshot = history.Snapshot
)

const (
	HistoryShallowKind = history.Shallow
	HistoryDeepKind    = history.Deep
)

// Machine model and executor (pkg/machine).
type (
	Machine        = machine.Machine
	MachineState   = machine.MachineState
	StateNode      = machine.StateNode
	Transition     = machine.Transition
	HistoryBinding = machine.HistoryBinding
	Executor       = machine.Executor
	Listener       = machine.Listener
)

const (
	Atomic         = machine.Atomic
	Compound       = machine.Compound
	Parallel       = machine.Parallel
	Final          = machine.Final
	HistoryShallow = machine.HistoryShallow
	HistoryDeep    = machine.HistoryDeep
)

// Builder surface (pkg/builder).
type (
	MachineBuilder    = builder.MachineBuilder
	TransitionBuilder = builder.TransitionBuilder
)

// Persistence surface (pkg/persistence).
type (
	Storage        = persistence.Storage
	Codec          = persistence.Codec
	Manager        = persistence.Manager
	SnapshotRecord = persistence.SnapshotRecord
	MachineInfo    = persistence.MachineInfo
)

// Observability surface (pkg/observability).
type (
	LoggingListener = observability.LoggingListener
	MetricsListener = observability.MetricsListener
)

// NewMachineBuilder starts a fluent Machine construction chain.
func NewMachineBuilder(name string) *MachineBuilder {
	return builder.NewMachineBuilder(name)
}

// NewExecutor builds an Executor for m, reporting lifecycle events to
// listener (nil is accepted and treated as a no-op listener).
func NewExecutor(m *Machine, listener Listener) *Executor {
	return machine.NewExecutor(m, listener)
}

// NewContext creates an empty execution context.
func NewContext() Context { return value.NewContext() }

// NewEvent creates an event with the given type discriminator.
func NewEvent(eventType string) Event { return value.NewEvent(eventType) }

// SystemClock is the default, real-time Clock.
var SystemClock = clock.System

// NewManualClock creates a Clock a caller can advance explicitly, for
// deterministic tests of stateful guards, timers, and circuit breakers.
func NewManualClock(start time.Time) *Manual { return clock.NewManual(start) }

// NewHistoryTracker builds a history.Tracker bounded by maxPerState and
// maxTotal retained entries (0 means unbounded), driven by clk.
func NewHistoryTracker(clk Clock, maxPerState, maxTotal int) *HistoryTracker {
	return history.NewTracker(clk, maxPerState, maxTotal)
}

// NewManager builds a persistence.Manager over storage using codec, with
// now defaulting to time.Now when nil.
func NewManager(storage Storage, codec Codec, now func() time.Time) *Manager {
	return persistence.NewManager(storage, codec, now)
}

// NewMemoryStorage builds an in-memory reference Storage backend.
func NewMemoryStorage() *persistence.MemoryStorage { return persistence.NewMemoryStorage() }

// NewYAMLCodec builds the default YAML wire Codec.
func NewYAMLCodec() Codec { return persistence.YAMLCodec{} }

// NewIdentityCodec builds the reference round-trip Codec used to
// exercise the persistence round-trip property.
func NewIdentityCodec() Codec { return persistence.NewIdentityCodec() }
