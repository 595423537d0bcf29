package guard

import (
	"fmt"
	"strings"

	"github.com/chartrunner/chartrunner/pkg/value"
)

// CompositeLogic selects how a CompositeGuard combines its members'
// results. Grounded on leptos-state's CompositeLogic enum, extended with
// AtLeast/AtMost/Majority.
type CompositeLogic int

const (
	// LogicAll requires every member to pass.
	LogicAll CompositeLogic = iota
	// LogicAny requires at least one member to pass.
	LogicAny
	// LogicNone requires every member to fail.
	LogicNone
	// LogicExactlyOne requires exactly one member to pass.
	LogicExactlyOne
	// LogicAtLeast requires at least N members to pass (N via AtLeastN).
	LogicAtLeast
	// LogicAtMost requires at most N members to pass (N via AtMostN).
	LogicAtMost
	// LogicMajority requires a strict majority of members to pass.
	LogicMajority
)

func (l CompositeLogic) String() string {
	switch l {
	case LogicAll:
		return "all"
	case LogicAny:
		return "any"
	case LogicNone:
		return "none"
	case LogicExactlyOne:
		return "exactly-one"
	case LogicAtLeast:
		return "at-least"
	case LogicAtMost:
		return "at-most"
	case LogicMajority:
		return "majority"
	default:
		return "unknown"
	}
}

// CompositeGuard combines member guards under a single CompositeLogic.
// AtLeastN/AtMostN are only consulted when Logic is LogicAtLeast or
// LogicAtMost respectively. Every member is evaluated (no short
// circuiting) so stateful guards like CounterGuard advance consistently
// regardless of evaluation order.
type CompositeGuard struct {
	Logic    CompositeLogic
	Members  []Guard
	AtLeastN int
	AtMostN  int
}

// All builds a CompositeGuard requiring every member to pass.
func All(members ...Guard) *CompositeGuard {
	return &CompositeGuard{Logic: LogicAll, Members: members}
}

// Any builds a CompositeGuard requiring at least one member to pass.
func Any(members ...Guard) *CompositeGuard {
	return &CompositeGuard{Logic: LogicAny, Members: members}
}

// None builds a CompositeGuard requiring every member to fail.
func None(members ...Guard) *CompositeGuard {
	return &CompositeGuard{Logic: LogicNone, Members: members}
}

// ExactlyOne builds a CompositeGuard requiring exactly one member to pass.
func ExactlyOne(members ...Guard) *CompositeGuard {
	return &CompositeGuard{Logic: LogicExactlyOne, Members: members}
}

// AtLeast builds a CompositeGuard requiring at least n members to pass.
func AtLeast(n int, members ...Guard) *CompositeGuard {
	return &CompositeGuard{Logic: LogicAtLeast, AtLeastN: n, Members: members}
}

// AtMost builds a CompositeGuard requiring at most n members to pass.
func AtMost(n int, members ...Guard) *CompositeGuard {
	return &CompositeGuard{Logic: LogicAtMost, AtMostN: n, Members: members}
}

// Majority builds a CompositeGuard requiring a strict majority to pass.
func Majority(members ...Guard) *CompositeGuard {
	return &CompositeGuard{Logic: LogicMajority, Members: members}
}

func (g *CompositeGuard) Check(ctx *value.Context, event *value.Event) bool {
	passed := 0
	for _, m := range g.Members {
		if m.Check(ctx, event) {
			passed++
		}
	}
	return evaluateLogic(g.Logic, passed, len(g.Members), g.AtLeastN, g.AtMostN)
}

func evaluateLogic(logic CompositeLogic, passed, total, atLeastN, atMostN int) bool {
	switch logic {
	case LogicAll:
		return passed == total
	case LogicAny:
		return passed > 0
	case LogicNone:
		return passed == 0
	case LogicExactlyOne:
		return passed == 1
	case LogicAtLeast:
		return passed >= atLeastN
	case LogicAtMost:
		return passed <= atMostN
	case LogicMajority:
		return passed*2 > total
	default:
		return false
	}
}

func (g *CompositeGuard) Description() string {
	descs := make([]string, len(g.Members))
	for i, m := range g.Members {
		descs[i] = m.Description()
	}
	switch g.Logic {
	case LogicAtLeast:
		return fmt.Sprintf("at-least(%d) of [%s]", g.AtLeastN, strings.Join(descs, ", "))
	case LogicAtMost:
		return fmt.Sprintf("at-most(%d) of [%s]", g.AtMostN, strings.Join(descs, ", "))
	default:
		return fmt.Sprintf("%s(%s)", g.Logic, strings.Join(descs, ", "))
	}
}

func (g *CompositeGuard) Clone() Guard {
	cloned := make([]Guard, len(g.Members))
	for i, m := range g.Members {
		cloned[i] = m.Clone()
	}
	return &CompositeGuard{Logic: g.Logic, Members: cloned, AtLeastN: g.AtLeastN, AtMostN: g.AtMostN}
}

// WeightedMember pairs a guard with its voting weight.
type WeightedMember struct {
	Guard  Guard
	Weight float64
}

// WeightedComposite passes when the sum of passing members' weights meets
// or exceeds Threshold, a weighted-voting variant useful for escalation
// policies.
type WeightedComposite struct {
	Members   []WeightedMember
	Threshold float64
}

// NewWeightedComposite builds a WeightedComposite with the given members
// and pass threshold.
func NewWeightedComposite(threshold float64, members ...WeightedMember) *WeightedComposite {
	return &WeightedComposite{Members: members, Threshold: threshold}
}

func (g *WeightedComposite) Check(ctx *value.Context, event *value.Event) bool {
	var sum float64
	for _, m := range g.Members {
		if m.Guard.Check(ctx, event) {
			sum += m.Weight
		}
	}
	return sum >= g.Threshold
}

func (g *WeightedComposite) Description() string {
	return fmt.Sprintf("weighted-sum >= %v (%d members)", g.Threshold, len(g.Members))
}

func (g *WeightedComposite) Clone() Guard {
	cloned := make([]WeightedMember, len(g.Members))
	for i, m := range g.Members {
		cloned[i] = WeightedMember{Guard: m.Guard.Clone(), Weight: m.Weight}
	}
	return &WeightedComposite{Members: cloned, Threshold: g.Threshold}
}

// SequentialGuard is identical to All/Any but short-circuits in
// evaluation order within a single Check call: evaluation stops at the
// first member that decides the outcome, so an earlier member can gate
// whether a later member is even consulted. Grounded on leptos-state's
// SequentialGuard::check (`self.guards.iter().all(...)` /
// `.any(...)`).
type SequentialGuard struct {
	Members []Guard
	Logic   CompositeLogic
}

// NewSequentialGuard builds a SequentialGuard requiring every member to
// pass, short-circuiting at the first failure.
func NewSequentialGuard(members ...Guard) *SequentialGuard {
	return &SequentialGuard{Members: members, Logic: LogicAll}
}

// NewSequentialAnyGuard builds a SequentialGuard requiring at least one
// member to pass, short-circuiting at the first success.
func NewSequentialAnyGuard(members ...Guard) *SequentialGuard {
	return &SequentialGuard{Members: members, Logic: LogicAny}
}

func (g *SequentialGuard) Check(ctx *value.Context, event *value.Event) bool {
	for _, m := range g.Members {
		passed := m.Check(ctx, event)
		if g.Logic == LogicAny && passed {
			return true
		}
		if g.Logic != LogicAny && !passed {
			return false
		}
	}
	return g.Logic != LogicAny
}

func (g *SequentialGuard) Description() string {
	descs := make([]string, len(g.Members))
	for i, m := range g.Members {
		descs[i] = m.Description()
	}
	sep := " && "
	if g.Logic == LogicAny {
		sep = " || "
	}
	return fmt.Sprintf("sequential[%s]", strings.Join(descs, sep))
}

func (g *SequentialGuard) Clone() Guard {
	cloned := make([]Guard, len(g.Members))
	for i, m := range g.Members {
		cloned[i] = m.Clone()
	}
	return &SequentialGuard{Members: cloned, Logic: g.Logic}
}
