package machine

import (
	"github.com/chartrunner/chartrunner/pkg/action"
	"github.com/chartrunner/chartrunner/pkg/guard"
	"github.com/chartrunner/chartrunner/pkg/history"
	"github.com/chartrunner/chartrunner/pkg/value"
)

// Executor runs Machine against successive MachineState values. It holds
// no mutable state of its own beyond what Machine and its injected
// history tracker own, so a single Executor can be shared across
// goroutines driving independent MachineState values.
type Executor struct {
	m        *Machine
	listener Listener
}

// NewExecutor builds an Executor over m. listener may be nil, in which
// case observability callbacks are skipped.
func NewExecutor(m *Machine, listener Listener) *Executor {
	if listener == nil {
		listener = NopListener{}
	}
	return &Executor{m: m, listener: listener}
}

// CanTransition reports whether Transition would change state for the
// given (state, event) pair, without running any actions.
func (ex *Executor) CanTransition(state MachineState, event value.Event) bool {
	_, found := ex.findEnabled(state, event)
	return found
}

// Transition runs one event against state, returning the resulting
// MachineState. If no enabled transition is found, the returned state
// equals the input ("no-op" / ignored-event semantics).
func (ex *Executor) Transition(state MachineState, event value.Event) MachineState {
	next, err := ex.TryTransition(state, event)
	if err != nil {
		return state
	}
	return next
}

// TryTransition runs one event against state, returning a
// *value.RuntimeError with CodeNoEnabledTransition if no transition was
// enabled, so callers wanting strict handling can distinguish "ignored
// event" from a successful transition.
func (ex *Executor) TryTransition(state MachineState, event value.Event) (MachineState, error) {
	candidate, found := ex.findEnabled(state, event)
	if !found {
		return state, value.NewTransitionError(state.Value.Leaf(), event.Type)
	}

	ctx := state.Context.Clone()
	ctx.Event = &event

	if candidate.tr.Internal || candidate.tr.TargetID == "" {
		if candidate.tr.Actions != nil {
			ex.runList(candidate.tr.Actions, &ctx)
		}
		ex.listener.OnTransition(candidate.chain[0], event.Type, state.Value.Leaf())
		ctx.Event = nil
		return MachineState{Value: state.Value, Context: ctx}, nil
	}

	effectiveTargetID, entryFull := ex.resolveTarget(candidate.tr.TargetID)

	exitChain, lcaID, lcaIdx := ex.exitPlan(candidate.chain, effectiveTargetID)
	ex.recordHistory(state.Value, exitChain)
	ex.runExitActions(exitChain, &ctx)

	if candidate.tr.Actions != nil {
		ex.runList(candidate.tr.Actions, &ctx)
	}

	between := ex.betweenPath(effectiveTargetID, lcaID)
	newChildValue := entryFull
	for i := len(between) - 2; i >= 0; i-- {
		newChildValue = value.Compound(between[i], newChildValue)
	}
	pathRootToLCA := ex.pathRootToLCA(candidate.chain, lcaIdx)
	newValue := applyAtLCA(state.Value, pathRootToLCA, newChildValue)

	entryChain := append(append([]string(nil), between[:len(between)-1]...), entryFull.Path()...)
	ex.runEntryActions(entryChain, &ctx)

	ex.listener.OnTransition(candidate.chain[0], event.Type, newValue.Leaf())
	ctx.Event = nil
	return MachineState{Value: newValue, Context: ctx}, nil
}

type candidateMatch struct {
	tr    *Transition
	chain []string
}

// findEnabled scans every currently active chain level by level
// (innermost first across all chains), using a
// fresh guard.Cache so a guard instance referenced by multiple candidate
// transitions is only actually evaluated once per dispatch.
func (ex *Executor) findEnabled(state MachineState, event value.Event) (candidateMatch, bool) {
	chains := activeChains(state.Value)
	cache := guard.NewCache()

	maxLen := 0
	for _, c := range chains {
		if len(c) > maxLen {
			maxLen = len(c)
		}
	}

	for level := 0; level < maxLen; level++ {
		for _, chain := range chains {
			if level >= len(chain) {
				continue
			}
			id := chain[level]
			for _, tr := range ex.m.TransitionsFrom(id) {
				if tr.EventType != event.Type {
					continue
				}
				if tr.Guard != nil && !cache.Check(tr.Guard, &state.Context, &event) {
					ex.listener.OnGuardRejected(tr.ID, tr.Guard.Description())
					continue
				}
				return candidateMatch{tr: tr, chain: chain}, true
			}
		}
	}
	return candidateMatch{}, false
}

// activeChains flattens sv into one ancestor chain (leaf to root,
// inclusive) per simultaneously active leaf.
func activeChains(sv value.StateValue) [][]string {
	switch sv.Kind() {
	case value.KindSimple:
		return [][]string{{sv.Name()}}
	case value.KindCompound:
		childChains := activeChains(sv.Child())
		out := make([][]string, len(childChains))
		for i, c := range childChains {
			out[i] = append(append([]string(nil), c...), sv.Name())
		}
		return out
	case value.KindParallel:
		var out [][]string
		for _, region := range sv.Regions() {
			regionChains := activeChains(region)
			for _, c := range regionChains {
				out = append(out, append(append([]string(nil), c...), sv.Name()))
			}
		}
		return out
	default:
		return [][]string{{sv.Name()}}
	}
}

// resolveTarget resolves the declared target of a transition into the
// real state identifier that is entered and the full subtree entered
// below it. For history pseudo-states this follows the tracker's last
// record (or the configured default target) and resolves to the
// history node's parent.
func (ex *Executor) resolveTarget(targetID string) (effectiveID string, entryValue value.StateValue) {
	node := ex.m.Node(targetID)
	if node != nil && node.IsHistory() {
		return node.ParentID, ex.resolveHistory(node)
	}
	return targetID, ex.enterDescent(targetID)
}

// exitPlan finds the least common ancestor of the active chain and the
// strict ancestors of effectiveTargetID (excluding the target itself, so
// a transition whose target is an active ancestor state always produces
// a full exit and re-entry of that state), returning the exit set (leaf
// to just-below-LCA), the LCA id, and its index within chain.
func (ex *Executor) exitPlan(chain []string, effectiveTargetID string) (exitChain []string, lcaID string, lcaIdx int) {
	targetAncestors := ex.m.Ancestors(effectiveTargetID)
	ancestorSet := make(map[string]bool, len(targetAncestors))
	for _, id := range targetAncestors {
		ancestorSet[id] = true
	}
	for i, id := range chain {
		if ancestorSet[id] {
			return append([]string(nil), chain[:i]...), id, i
		}
	}
	return append([]string(nil), chain[:len(chain)-1]...), chain[len(chain)-1], len(chain) - 1
}

// betweenPath returns the identifiers from the LCA's direct active
// branch down to (and including) effectiveTargetID, in root-to-leaf
// order.
func (ex *Executor) betweenPath(effectiveTargetID, lcaID string) []string {
	ancestors := ex.m.Ancestors(effectiveTargetID)
	idx := len(ancestors)
	for i, id := range ancestors {
		if id == lcaID {
			idx = i
			break
		}
	}
	reversed := make([]string, idx)
	for i := 0; i < idx; i++ {
		reversed[idx-1-i] = ancestors[i]
	}
	return append(reversed, effectiveTargetID)
}

// pathRootToLCA returns the ancestor chain from the machine root down to
// (and including) the LCA, derived from the leaf-to-root chain.
func (ex *Executor) pathRootToLCA(chain []string, lcaIdx int) []string {
	sub := chain[lcaIdx:]
	out := make([]string, len(sub))
	for i, id := range sub {
		out[len(sub)-1-i] = id
	}
	return out
}

// applyAtLCA rebuilds sv, replacing only the LCA's active branch with
// newChildValue, preserving every sibling (other parallel regions,
// other ancestors) untouched.
func applyAtLCA(sv value.StateValue, pathRootToLCA []string, newChildValue value.StateValue) value.StateValue {
	if len(pathRootToLCA) == 1 {
		switch sv.Kind() {
		case value.KindCompound:
			return value.Compound(sv.Name(), newChildValue)
		case value.KindParallel:
			regions := sv.Regions()
			for i, r := range regions {
				if r.Name() == newChildValue.Name() {
					regions[i] = newChildValue
					return value.Parallel(sv.Name(), regions)
				}
			}
			return value.Parallel(sv.Name(), regions)
		default:
			return newChildValue
		}
	}
	next := pathRootToLCA[1]
	switch sv.Kind() {
	case value.KindCompound:
		return value.Compound(sv.Name(), applyAtLCA(sv.Child(), pathRootToLCA[1:], newChildValue))
	case value.KindParallel:
		regions := sv.Regions()
		for i, r := range regions {
			if r.Name() == next {
				regions[i] = applyAtLCA(r, pathRootToLCA[1:], newChildValue)
				return value.Parallel(sv.Name(), regions)
			}
		}
		return value.Parallel(sv.Name(), regions)
	default:
		return sv
	}
}

// enterDescent builds the StateValue entered when targeting id: for
// atomic/final nodes, a leaf; for compound nodes, a descent through
// InitialChild; for parallel nodes, every region entered simultaneously.
// History pseudo-states must be resolved via resolveTarget before
// reaching here.
func (ex *Executor) enterDescent(id string) value.StateValue {
	node := ex.m.Node(id)
	switch node.Kind {
	case Compound:
		return value.Compound(id, ex.enterDescent(node.InitialChild))
	case Parallel:
		regions := make([]value.StateValue, len(node.Children))
		for i, child := range node.Children {
			regions[i] = ex.enterDescent(child)
		}
		return value.Parallel(id, regions)
	case HistoryShallow, HistoryDeep:
		return ex.resolveHistory(node)
	default:
		return value.Simple(id)
	}
}

func (ex *Executor) resolveHistory(node *StateNode) value.StateValue {
	if ex.m.tracker == nil {
		return value.Compound(node.ParentID, ex.enterDescent(node.HistoryDefaultTarget))
	}
	chain, ok := ex.m.tracker.LastChain(node.ParentID)
	if !ok || len(chain) == 0 {
		return value.Compound(node.ParentID, ex.enterDescent(node.HistoryDefaultTarget))
	}
	if node.Kind == HistoryShallow {
		return value.Compound(node.ParentID, ex.enterDescent(chain[0]))
	}
	return value.Compound(node.ParentID, buildDeepChain(chain))
}

// buildDeepChain reconstructs a nested Compound/Simple StateValue from a
// recorded atomic leaf chain (immediate child first, atomic leaf last).
func buildDeepChain(chain []string) value.StateValue {
	if len(chain) == 1 {
		return value.Simple(chain[0])
	}
	return value.Compound(chain[0], buildDeepChain(chain[1:]))
}

func (ex *Executor) runExitActions(exitChain []string, ctx *value.Context) {
	for _, id := range exitChain {
		ex.listener.OnExit(id)
		node := ex.m.Node(id)
		if node == nil || node.ExitActions == nil {
			continue
		}
		ex.runList(node.ExitActions, ctx)
	}
}

func (ex *Executor) runEntryActions(entryChain []string, ctx *value.Context) {
	for _, id := range entryChain {
		ex.listener.OnEntry(id)
		node := ex.m.Node(id)
		if node == nil || node.EntryActions == nil {
			continue
		}
		ex.runList(node.EntryActions, ctx)
	}
}

func (ex *Executor) runList(list *action.List, ctx *value.Context) {
	if err := list.Run(ctx, ctx.Event); err != nil {
		ex.listener.OnActionError("action-list", err.Error())
	}
}

// recordHistory finds every exited parent with a history binding and
// records the branch being left, using the pre-transition state value.
func (ex *Executor) recordHistory(oldSV value.StateValue, exitChain []string) {
	if ex.m.tracker == nil {
		return
	}
	for _, id := range exitChain {
		binding, ok := ex.m.histories[id]
		if !ok {
			continue
		}
		sub, ok := findSubValue(oldSV, id)
		if !ok || sub.Kind() != value.KindCompound {
			continue
		}
		switch binding.Kind {
		case history.Shallow:
			ex.m.tracker.Record(id, []string{sub.Child().Name()}, nil, "")
		case history.Deep:
			ex.m.tracker.Record(id, sub.Child().Path(), nil, "")
		}
	}
}

// findSubValue searches sv for the node named id, returning its
// sub-StateValue.
func findSubValue(sv value.StateValue, id string) (value.StateValue, bool) {
	if sv.Name() == id {
		return sv, true
	}
	switch sv.Kind() {
	case value.KindCompound:
		return findSubValue(sv.Child(), id)
	case value.KindParallel:
		for _, r := range sv.Regions() {
			if found, ok := findSubValue(r, id); ok {
				return found, true
			}
		}
	}
	return value.StateValue{}, false
}
