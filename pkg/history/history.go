// Package history implements the history subsystem: remembering
// the most recent descendant configuration of compound states so a
// shallow or deep history pseudo-state can restore it later.
package history

import (
	"sort"
	"time"

	"github.com/chartrunner/chartrunner/pkg/clock"
	"github.com/chartrunner/chartrunner/pkg/value"
)

// Kind discriminates shallow from deep history recording.
type Kind int

const (
	// Shallow records only the immediate child of the parent.
	Shallow Kind = iota
	// Deep records the full atomic leaf chain beneath the parent.
	Deep
)

// Entry is one recorded visit: the state identifier chain captured when
// the parent was exited, a timestamp, and optionally a context
// snapshot and the triggering event's type.
type Entry struct {
	ParentID      string
	Chain         []string
	Timestamp     time.Time
	ContextSnap   map[string]any `yaml:"contextsnap,omitempty"`
	TriggerEvent  string
}

// Tracker records history entries per parent state, subject to
// per-state and global retention caps.
type Tracker struct {
	Clock          clock.Source
	MaxPerState    int
	MaxTotal       int
	SnapshotCtx    bool
	records        map[string][]Entry
}

// NewTracker creates a Tracker. maxPerState of 0 means unlimited;
// maxTotal of 0 means no global cap. The common default is
// max_per_state=100; callers pass 100 explicitly if they want the
// documented default rather than unlimited.
func NewTracker(src clock.Source, maxPerState, maxTotal int) *Tracker {
	if src == nil {
		src = clock.System
	}
	return &Tracker{
		Clock:       src,
		MaxPerState: maxPerState,
		MaxTotal:    maxTotal,
		records:     make(map[string][]Entry),
	}
}

// Record appends a new entry for parentID with the given descendant
// chain, evicting the oldest entry for that parent if MaxPerState is
// exceeded, then enforcing MaxTotal globally by evicting the globally
// oldest entries.
func (t *Tracker) Record(parentID string, chain []string, ctx *value.Context, eventType string) {
	e := Entry{
		ParentID:     parentID,
		Chain:        append([]string(nil), chain...),
		Timestamp:    t.Clock.Now(),
		TriggerEvent: eventType,
	}
	if t.SnapshotCtx && ctx != nil {
		e.ContextSnap = make(map[string]any, len(ctx.Data))
		for k, v := range ctx.Data {
			e.ContextSnap[k] = v
		}
	}
	t.records[parentID] = append(t.records[parentID], e)
	if t.MaxPerState > 0 && len(t.records[parentID]) > t.MaxPerState {
		overflow := len(t.records[parentID]) - t.MaxPerState
		t.records[parentID] = t.records[parentID][overflow:]
	}
	t.enforceGlobalCap()
}

func (t *Tracker) enforceGlobalCap() {
	if t.MaxTotal <= 0 {
		return
	}
	total := t.Total()
	for total > t.MaxTotal {
		oldestParent, oldestIdx := "", -1
		var oldestTime time.Time
		for parent, entries := range t.records {
			if len(entries) == 0 {
				continue
			}
			if oldestIdx == -1 || entries[0].Timestamp.Before(oldestTime) {
				oldestParent, oldestIdx, oldestTime = parent, 0, entries[0].Timestamp
			}
		}
		if oldestIdx == -1 {
			return
		}
		t.records[oldestParent] = t.records[oldestParent][1:]
		total--
	}
}

// Total returns the number of entries across every parent.
func (t *Tracker) Total() int {
	n := 0
	for _, entries := range t.records {
		n += len(entries)
	}
	return n
}

// LastChain returns the most recently recorded descendant chain for
// parentID, or (nil, false) if none has been recorded.
func (t *Tracker) LastChain(parentID string) ([]string, bool) {
	entries := t.records[parentID]
	if len(entries) == 0 {
		return nil, false
	}
	last := entries[len(entries)-1]
	return append([]string(nil), last.Chain...), true
}

// LastN returns up to n of the most recent entries for parentID, newest
// first.
func (t *Tracker) LastN(parentID string, n int) []Entry {
	entries := t.records[parentID]
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]Entry, n)
	for i := 0; i < n; i++ {
		out[i] = entries[len(entries)-1-i]
	}
	return out
}

// ExpireOlderThan removes every entry, across all parents, older than
// cutoff relative to the tracker's clock.
func (t *Tracker) ExpireOlderThan(maxAge time.Duration) {
	now := t.Clock.Now()
	cutoff := now.Add(-maxAge)
	for parent, entries := range t.records {
		kept := entries[:0]
		for _, e := range entries {
			if e.Timestamp.After(cutoff) {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(t.records, parent)
		} else {
			t.records[parent] = kept
		}
	}
}

// Stats summarizes the tracker's current occupancy.
type Stats struct {
	TotalEntries   int
	ParentCount    int
	PerParentCount map[string]int
	OldestEntry    *time.Time
	NewestEntry    *time.Time
}

// Stats computes a snapshot of the tracker's occupancy.
func (t *Tracker) Stats() Stats {
	s := Stats{PerParentCount: make(map[string]int)}
	for parent, entries := range t.records {
		s.ParentCount++
		s.PerParentCount[parent] = len(entries)
		s.TotalEntries += len(entries)
		for _, e := range entries {
			ts := e.Timestamp
			if s.OldestEntry == nil || ts.Before(*s.OldestEntry) {
				s.OldestEntry = &ts
			}
			if s.NewestEntry == nil || ts.After(*s.NewestEntry) {
				s.NewestEntry = &ts
			}
		}
	}
	return s
}

// Snapshot is a persistable capture of the tracker's full state.
type Snapshot struct {
	Timestamp time.Time
	Records   map[string][]Entry
}

// Snapshot captures the tracker's current records for persistence.
func (t *Tracker) Snapshot() Snapshot {
	cp := make(map[string][]Entry, len(t.records))
	for parent, entries := range t.records {
		cp[parent] = append([]Entry(nil), entries...)
	}
	return Snapshot{Timestamp: t.Clock.Now(), Records: cp}
}

// Restore replaces the tracker's records with those from snap.
func (t *Tracker) Restore(snap Snapshot) {
	t.records = make(map[string][]Entry, len(snap.Records))
	for parent, entries := range snap.Records {
		t.records[parent] = append([]Entry(nil), entries...)
	}
}

// Parents returns every parent identifier with at least one recorded
// entry, sorted for deterministic iteration.
func (t *Tracker) Parents() []string {
	out := make([]string, 0, len(t.records))
	for parent := range t.records {
		out = append(out, parent)
	}
	sort.Strings(out)
	return out
}
