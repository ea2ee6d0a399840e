package wheel

import "time"

// arbiterStarvationBoundNum / arbiterStarvationBoundDen fix the 0.9 scaling
// factor used to detect and correct starvation (kept as named integer
// constants, per the Open Question decision in DESIGN.md, rather than a
// configurable field: there is no need to make this tunable).
const (
	arbiterStarvationBoundNum = 9
	arbiterStarvationBoundDen = 10
)

// timingEntry is one member of a [TimingGroup]: its configured share of time
// (slotCount) and its accumulated runtime (sum).
type timingEntry struct {
	sum       time.Duration
	slotCount uint16
}

// proportional returns sum / slotCount, the per-slot time this entry has
// consumed — the quantity every admission decision compares across the
// group.
func (e timingEntry) proportional() time.Duration {
	return e.sum / time.Duration(e.slotCount)
}

// TimingGroup divides execution time fairly across a set of entries in
// proportion to each entry's configured slot count. Entries are keyed by int
// (an index into a [slab], reusing the same stable-address storage slab.go
// already provides) rather than a generic counter, since Go's
// operator-overloading-free generics make a time.Duration-only
// specialization the idiomatic choice.
type TimingGroup struct {
	entries *slab[timingEntry]
	max     time.Duration
}

// NewTimingGroup constructs an empty TimingGroup.
func NewTimingGroup() *TimingGroup {
	return &TimingGroup{entries: newSlab[timingEntry]()}
}

// Insert adds an entry with the given slot count (its proportional share of
// time relative to other entries) and returns its key. Panics if slotCount
// is zero, matching the source's NonZeroU16 requirement.
func (g *TimingGroup) Insert(slotCount uint16) int {
	if slotCount == 0 {
		panic("wheel: TimingGroup slot count is zero")
	}
	key, err := g.entries.Insert(timingEntry{slotCount: slotCount})
	if err != nil {
		panic(err)
	}
	return key
}

// Remove deletes the entry at key. Panics if key is not a member of this
// group, matching the source's .expect behavior.
func (g *TimingGroup) Remove(key int) {
	if _, ok := g.entries.Remove(key); !ok {
		panic("wheel: unknown key passed to TimingGroup.Remove")
	}
}

// Contains reports whether key is a member of this group.
func (g *TimingGroup) Contains(key int) bool {
	return g.entries.Get(key) != nil
}

// Count returns the number of entries currently in the group.
func (g *TimingGroup) Count() int { return g.entries.Len() }

// CanExecute reports whether the entry at key should be allowed to run now,
// applying the fair-share admission rule: an entry exactly at the group
// maximum is denied if some other entry is strictly below it; once the
// group-wide minimum falls to or below 90% of the maximum (starvation),
// only entries at or below that 90% bound are admitted. Panics if key is
// unknown.
func (g *TimingGroup) CanExecute(key int) bool {
	this := g.entries.Get(key)
	if this == nil {
		panic("wheel: unknown key passed to TimingGroup.CanExecute")
	}
	thisDur := this.proportional()

	if thisDur == g.max {
		allEqual := true
		g.entries.Each(func(_ slabKey, e *timingEntry) bool {
			if e.proportional() != thisDur {
				allEqual = false
				return false
			}
			return true
		})
		if !allEqual {
			return false
		}
	}

	bound := g.max * arbiterStarvationBoundNum / arbiterStarvationBoundDen

	minTime := thisDur
	first := true
	g.entries.Each(func(_ slabKey, e *timingEntry) bool {
		p := e.proportional()
		if first || p < minTime {
			minTime = p
			first = false
		}
		return true
	})

	if minTime <= bound {
		return thisDur <= bound
	}
	return true
}

// UpdateDuration adds dur to the accumulated runtime of the entry at key and
// refreshes the group maximum. Panics if key is unknown.
func (g *TimingGroup) UpdateDuration(key int, dur time.Duration) {
	entry := g.entries.Get(key)
	if entry == nil {
		panic("wheel: unknown key passed to TimingGroup.UpdateDuration")
	}
	entry.sum += dur
	if p := entry.proportional(); p > g.max {
		g.max = p
	}
}

// LoadBalance wraps a [Pollable] so that its advances are fair-share gated
// by a [TimingGroup]: when the group denies execution, Advance self-wakes
// and returns Pending without polling the wrapped unit, so the inner unit's
// own progress never counts against the group's timing.
type LoadBalance struct {
	group   *TimingGroup
	key     int
	clock   Clock
	inner   Pollable
	started bool
}

// NewLoadBalance wraps inner with fair-share gating under group, configured
// with the given slot count. clock defaults to [RealClock] if nil.
func NewLoadBalance(group *TimingGroup, slotCount uint16, clock Clock, inner Pollable) *LoadBalance {
	if clock == nil {
		clock = RealClock{}
	}
	return &LoadBalance{
		group: group,
		key:   group.Insert(slotCount),
		clock: clock,
		inner: inner,
	}
}

// Advance implements Pollable.
func (b *LoadBalance) Advance(cx *Context) bool {
	if !b.group.CanExecute(b.key) {
		cx.Waker().Wake()
		return false
	}
	start := b.clock.Now()
	ready := b.inner.Advance(cx)
	b.group.UpdateDuration(b.key, b.clock.Now().Sub(start))
	return ready
}

// Release removes this member from its group. Must be called once the
// wrapped task has completed (or been cancelled), mirroring the source's
// Drop impl for GenericLoadBalance; Go has no destructor to do this
// automatically.
func (b *LoadBalance) Release() {
	if b.group.Contains(b.key) {
		b.group.Remove(b.key)
	}
}
