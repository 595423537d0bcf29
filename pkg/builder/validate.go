package builder

import (
	"github.com/chartrunner/chartrunner/pkg/machine"
	"github.com/chartrunner/chartrunner/pkg/value"
)

// validate checks the structural rules required of a Machine before it
// is handed to machine.New, which does not re-validate:
//   - a root state was declared
//   - every Compound state names an InitialChild that exists and is one
//     of its own children
//   - every history state's default target exists and is a sibling
//     (child of the same parent) it resolves to
//   - every transition's source and target (when not internal) name
//     existing states
//   - every Parallel state has at least one region
//
// Violations accumulate in b.errs rather than stopping at the first one,
// so Build() can report everything wrong in a single pass.
func validate(b *MachineBuilder) {
	if b.rootID == "" {
		b.errs.Addf(value.CodeMissingInitial, "machine has no root state")
	}

	for _, id := range b.order {
		node := b.nodes[id]
		switch node.Kind {
		case machine.Compound:
			if node.InitialChild == "" {
				b.errs.Addf(value.CodeMissingInitial, "compound state %q has no initial child", id)
				continue
			}
			if !containsString(node.Children, node.InitialChild) {
				b.errs.Addf(value.CodeInvalidHierarchy, "compound state %q's initial child %q is not one of its children", id, node.InitialChild)
			}
		case machine.Parallel:
			if len(node.Children) == 0 {
				b.errs.Addf(value.CodeInvalidHierarchy, "parallel state %q has no regions", id)
			}
		}
		if node.IsHistory() {
			parent, ok := b.nodes[node.ParentID]
			if !ok {
				b.errs.Addf(value.CodeUnresolvedReference, "history state %q has no resolvable parent", id)
				continue
			}
			if node.HistoryDefaultTarget == "" {
				b.errs.Addf(value.CodeHistoryError, "history state %q has no default target", id)
				continue
			}
			if !containsString(parent.Children, node.HistoryDefaultTarget) {
				b.errs.Addf(value.CodeHistoryError, "history state %q's default target %q is not a sibling under %q", id, node.HistoryDefaultTarget, node.ParentID)
			}
			if b.tracker == nil {
				b.errs.Addf(value.CodeHistoryError, "history state %q declared but no tracker was supplied via WithHistoryTracker", id)
			}
		}
	}

	for _, tr := range b.transitions {
		if _, ok := b.nodes[tr.SourceID]; !ok {
			b.errs.Addf(value.CodeUnresolvedReference, "transition %q sources from unknown state %q", tr.ID, tr.SourceID)
		}
		if tr.Internal {
			if tr.TargetID != "" {
				b.errs.Addf(value.CodeBuildError, "internal transition %q must not declare a target", tr.ID)
			}
			continue
		}
		if tr.TargetID == "" {
			b.errs.Addf(value.CodeBuildError, "transition %q must declare a target or be marked internal", tr.ID)
			continue
		}
		if _, ok := b.nodes[tr.TargetID]; !ok {
			b.errs.Addf(value.CodeUnresolvedReference, "transition %q targets unknown state %q", tr.ID, tr.TargetID)
		}
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
