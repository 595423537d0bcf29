// Package value defines the core value types shared across the chartrunner
// statechart runtime: the active configuration (StateValue), events, and
// the execution context actions and guards observe.
package value

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// StateValueKind discriminates the shape of a StateValue node.
type StateValueKind int

const (
	// KindSimple is a leaf atomic (or final) state.
	KindSimple StateValueKind = iota
	// KindCompound nests a single active child under a parent.
	KindCompound
	// KindParallel nests every simultaneously active region under a parent.
	KindParallel
)

// StateValue is the active configuration of a machine: either a leaf
// (Simple), a compound state with one active child, or a parallel state
// with every region active at once. The zero value is not valid; use the
// constructors below.
type StateValue struct {
	kind     StateValueKind
	name     string
	child    *StateValue
	children []StateValue
}

// Simple constructs a leaf StateValue.
func Simple(name string) StateValue {
	return StateValue{kind: KindSimple, name: name}
}

// Compound constructs a StateValue for a compound state with the given
// active child.
func Compound(parent string, child StateValue) StateValue {
	c := child
	return StateValue{kind: KindCompound, name: parent, child: &c}
}

// Parallel constructs a StateValue for a parallel state with the given
// simultaneously active region configurations.
func Parallel(parent string, regions []StateValue) StateValue {
	cp := make([]StateValue, len(regions))
	copy(cp, regions)
	return StateValue{kind: KindParallel, name: parent, children: cp}
}

// Kind reports which shape this StateValue has.
func (v StateValue) Kind() StateValueKind { return v.kind }

// Name returns the identifier at this level of the configuration: the leaf
// name for Simple, or the parent identifier for Compound/Parallel.
func (v StateValue) Name() string { return v.name }

// Child returns the active child of a Compound StateValue. It panics if v
// is not Compound; callers should check Kind first.
func (v StateValue) Child() StateValue {
	if v.kind != KindCompound {
		panic("value: Child called on non-compound StateValue")
	}
	return *v.child
}

// Regions returns the active region configurations of a Parallel
// StateValue. It panics if v is not Parallel.
func (v StateValue) Regions() []StateValue {
	if v.kind != KindParallel {
		panic("value: Regions called on non-parallel StateValue")
	}
	cp := make([]StateValue, len(v.children))
	copy(cp, v.children)
	return cp
}

// Leaf returns the identifier of the deepest atomic state reached by
// always following the first active child/region.
func (v StateValue) Leaf() string {
	cur := v
	for {
		switch cur.kind {
		case KindSimple:
			return cur.name
		case KindCompound:
			cur = *cur.child
		case KindParallel:
			if len(cur.children) == 0 {
				return cur.name
			}
			cur = cur.children[0]
		default:
			return cur.name
		}
	}
}

// Path returns every state identifier on the spine from root to the
// primary leaf (see Leaf), inclusive.
func (v StateValue) Path() []string {
	var out []string
	cur := v
	for {
		out = append(out, cur.name)
		switch cur.kind {
		case KindCompound:
			cur = *cur.child
		case KindParallel:
			if len(cur.children) == 0 {
				return out
			}
			cur = cur.children[0]
		default:
			return out
		}
	}
}

// Active reports whether the given state identifier appears anywhere in
// this configuration (on the primary spine, or within any active
// parallel region).
func (v StateValue) Active(id string) bool {
	if v.name == id {
		return true
	}
	switch v.kind {
	case KindCompound:
		return v.child.Active(id)
	case KindParallel:
		for _, r := range v.children {
			if r.Active(id) {
				return true
			}
		}
	}
	return false
}

// Equal reports deep structural equality between two StateValues.
func (v StateValue) Equal(other StateValue) bool {
	if v.kind != other.kind || v.name != other.name {
		return false
	}
	switch v.kind {
	case KindCompound:
		return v.child.Equal(*other.child)
	case KindParallel:
		if len(v.children) != len(other.children) {
			return false
		}
		for i := range v.children {
			if !v.children[i].Equal(other.children[i]) {
				return false
			}
		}
	}
	return true
}

// String renders a human-readable dotted path, e.g. "playing.level1".
func (v StateValue) String() string {
	path := v.Path()
	out := path[0]
	for _, p := range path[1:] {
		out += "." + p
	}
	return out
}

// EventPriority mirrors the priority levels an event may carry; the core
// executor does not reorder events itself, but callers layering a queue
// on top may use this to do so.
type EventPriority int

const (
	LowPriority EventPriority = iota
	NormalPriority
	HighPriority
	CriticalPriority
)

// Event is a user-supplied trigger for transitions. Payload is opaque to
// the core; Type is used for transition matching.
type Event struct {
	Type      string
	Payload   any
	ID        string
	Timestamp time.Time
	Priority  EventPriority
	Metadata  map[string]any
}

// NewEvent creates an event with the given type discriminator, stamping a
// UUID and the current time.
func NewEvent(eventType string) Event {
	return Event{
		Type:      eventType,
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Priority:  NormalPriority,
		Metadata:  make(map[string]any),
	}
}

// NewEventWithPayload creates an event carrying an arbitrary payload.
func NewEventWithPayload(eventType string, payload any) Event {
	e := NewEvent(eventType)
	e.Payload = payload
	return e
}

// WithPriority returns a copy of the event with the given priority.
func (e Event) WithPriority(p EventPriority) Event {
	e.Priority = p
	return e
}

// WithMetadata returns a copy of the event with the given metadata key set.
func (e Event) WithMetadata(key string, val any) Event {
	e.Metadata = maps.Clone(e.Metadata)
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata[key] = val
	return e
}

// Metadatum retrieves a metadata value and whether it was present.
func (e Event) Metadatum(key string) (any, bool) {
	if e.Metadata == nil {
		return nil, false
	}
	v, ok := e.Metadata[key]
	return v, ok
}

// Clone returns a deep copy of the event (metadata map only; Payload is
// not deep-copied).
func (e Event) Clone() Event {
	e.Metadata = maps.Clone(e.Metadata)
	return e
}

// Context is the user-supplied, cloneable data carried alongside a
// MachineState. The core does not impose structure on it; Data holds
// whatever the host wants available to guards and actions, and Event
// holds the event currently being dispatched (nil outside a transition).
type Context struct {
	Event *Event
	Data  map[string]any
}

// NewContext creates an empty context.
func NewContext() Context {
	return Context{Data: make(map[string]any)}
}

// Get retrieves a value from context data.
func (c Context) Get(key string) (any, bool) {
	if c.Data == nil {
		return nil, false
	}
	v, ok := c.Data[key]
	return v, ok
}

// Set stores a value in context data; it returns nothing. The
// receiver's Data map is mutated in place: callers that need isolation
// should Clone first. This mirrors the executor's contract that it holds
// exclusive mutable access to a single context clone for the duration of
// one Transition call.
func (c *Context) Set(key string, val any) {
	if c.Data == nil {
		c.Data = make(map[string]any)
	}
	c.Data[key] = val
}

// Clone returns a context with an independently mutable Data map and a
// cloned Event, if any.
func (c Context) Clone() Context {
	nc := Context{Data: maps.Clone(c.Data)}
	if nc.Data == nil {
		nc.Data = make(map[string]any)
	}
	if c.Event != nil {
		e := c.Event.Clone()
		nc.Event = &e
	}
	return nc
}
