package observability

import (
	"sync"
	"time"

	"github.com/chartrunner/chartrunner/pkg/machine"
)

var _ machine.Listener = (*MetricsListener)(nil)

// MetricsListener collects counters and per-state dwell time from a
// running machine. Clock is injectable so dwell-time accounting is
// deterministic under test.
type MetricsListener struct {
	Clock func() time.Time

	mu               sync.RWMutex
	stateVisits      map[string]int
	stateTimeSpent   map[string]time.Duration
	lastEntry        map[string]time.Time
	eventCounts      map[string]int
	transitionCounts map[string]int
	guardRejections  map[string]int
	actionErrors     int
}

// NewMetricsListener builds an empty MetricsListener. clock defaults to
// time.Now.
func NewMetricsListener(clock func() time.Time) *MetricsListener {
	if clock == nil {
		clock = time.Now
	}
	return &MetricsListener{
		Clock:            clock,
		stateVisits:      make(map[string]int),
		stateTimeSpent:   make(map[string]time.Duration),
		lastEntry:        make(map[string]time.Time),
		eventCounts:      make(map[string]int),
		transitionCounts: make(map[string]int),
		guardRejections:  make(map[string]int),
	}
}

func (l *MetricsListener) OnEntry(stateID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stateVisits[stateID]++
	l.lastEntry[stateID] = l.Clock()
}

func (l *MetricsListener) OnExit(stateID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entered, ok := l.lastEntry[stateID]; ok {
		l.stateTimeSpent[stateID] += l.Clock().Sub(entered)
		delete(l.lastEntry, stateID)
	}
}

func (l *MetricsListener) OnTransition(from, eventType, to string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.eventCounts[eventType]++
	l.transitionCounts[from+"->"+to]++
}

func (l *MetricsListener) OnActionError(actionName, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.actionErrors++
}

func (l *MetricsListener) OnGuardRejected(transitionID, guardDescription string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.guardRejections[transitionID]++
}

// StateVisitCounts returns a copy of the per-state entry counts.
func (l *MetricsListener) StateVisitCounts() map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneIntMap(l.stateVisits)
}

// StateTimeSpent returns a copy of accumulated dwell time per state.
func (l *MetricsListener) StateTimeSpent() map[string]time.Duration {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]time.Duration, len(l.stateTimeSpent))
	for k, v := range l.stateTimeSpent {
		out[k] = v
	}
	return out
}

// EventCounts returns a copy of the per-event-type dispatch counts.
func (l *MetricsListener) EventCounts() map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneIntMap(l.eventCounts)
}

// TransitionCounts returns a copy of the per-"from->to" transition counts.
func (l *MetricsListener) TransitionCounts() map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneIntMap(l.transitionCounts)
}

// GuardRejectionCounts returns a copy of the per-transition guard
// rejection counts.
func (l *MetricsListener) GuardRejectionCounts() map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneIntMap(l.guardRejections)
}

// ActionErrorCount returns the total number of OnActionError callbacks
// observed.
func (l *MetricsListener) ActionErrorCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.actionErrors
}

// Reset clears all collected metrics.
func (l *MetricsListener) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stateVisits = make(map[string]int)
	l.stateTimeSpent = make(map[string]time.Duration)
	l.lastEntry = make(map[string]time.Time)
	l.eventCounts = make(map[string]int)
	l.transitionCounts = make(map[string]int)
	l.guardRejections = make(map[string]int)
	l.actionErrors = 0
}

func cloneIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
