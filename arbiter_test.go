package wheel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimingGroup_InsertZeroSlotCountPanics(t *testing.T) {
	g := NewTimingGroup()
	require.Panics(t, func() { g.Insert(0) })
}

func TestTimingGroup_RemoveUnknownKeyPanics(t *testing.T) {
	g := NewTimingGroup()
	require.Panics(t, func() { g.Remove(42) })
}

func TestTimingGroup_SingleEntryAlwaysCanExecute(t *testing.T) {
	g := NewTimingGroup()
	k := g.Insert(1)
	require.True(t, g.CanExecute(k))
	g.UpdateDuration(k, time.Second)
	require.True(t, g.CanExecute(k))
}

func TestTimingGroup_DeniesEntryAtMaxWhenAnotherIsLower(t *testing.T) {
	g := NewTimingGroup()
	a := g.Insert(1)
	b := g.Insert(1)

	g.UpdateDuration(a, 10*time.Millisecond)
	// a is now at the group max; b is strictly lower, so a should be denied.
	require.False(t, g.CanExecute(a))
	require.True(t, g.CanExecute(b))
}

func TestTimingGroup_StarvationBoundAdmitsOnlyBelowNinetyPercent(t *testing.T) {
	g := NewTimingGroup()
	a := g.Insert(1)
	b := g.Insert(1)

	g.UpdateDuration(a, 100*time.Millisecond) // max = 100ms
	g.UpdateDuration(b, 95*time.Millisecond)  // min = 95ms > 90ms bound: no starvation yet
	require.True(t, g.CanExecute(b))

	// a second group whose min is <= 90% of max (90ms bound): starvation
	// triggers, only entries at or below the bound are admitted.
	g2 := NewTimingGroup()
	c := g2.Insert(1)
	d := g2.Insert(1)
	g2.UpdateDuration(c, 100*time.Millisecond)
	g2.UpdateDuration(d, 50*time.Millisecond)
	require.True(t, g2.CanExecute(d), "far below the bound must be admitted")
	require.False(t, g2.CanExecute(c), "far above the bound must be denied during starvation")
}

func TestTimingGroup_RemoveThenContains(t *testing.T) {
	g := NewTimingGroup()
	k := g.Insert(1)
	require.True(t, g.Contains(k))
	g.Remove(k)
	require.False(t, g.Contains(k))
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestLoadBalance_AccumulatesElapsedTimeFromClock(t *testing.T) {
	g := NewTimingGroup()
	clock := &fakeClock{now: time.Unix(0, 0)}
	advanced := false
	inner := PollableFunc(func(cx *Context) bool {
		clock.now = clock.now.Add(5 * time.Millisecond)
		advanced = true
		return true
	})
	lb := NewLoadBalance(g, 1, clock, inner)

	cx := NewContext(NoopWaker{})
	ready := lb.Advance(cx)

	require.True(t, ready)
	require.True(t, advanced)
	require.Equal(t, 5*time.Millisecond, g.entries.Get(lb.key).sum)
}

func TestLoadBalance_DeniedExecutionSelfWakesWithoutPollingInner(t *testing.T) {
	g := NewTimingGroup()
	a := g.Insert(1)
	b := g.Insert(1)
	g.UpdateDuration(a, 10*time.Millisecond)

	polled := false
	inner := PollableFunc(func(cx *Context) bool { polled = true; return true })
	lb := &LoadBalance{group: g, key: a, clock: RealClock{}, inner: inner}
	_ = b

	woke := false
	cx := NewContext(WakerFunc(func() { woke = true }))
	ready := lb.Advance(cx)

	require.False(t, ready)
	require.False(t, polled)
	require.True(t, woke)
}

func TestLoadBalance_ReleaseRemovesFromGroup(t *testing.T) {
	g := NewTimingGroup()
	lb := NewLoadBalance(g, 1, nil, PollableFunc(func(cx *Context) bool { return true }))
	require.True(t, g.Contains(lb.key))
	lb.Release()
	require.False(t, g.Contains(lb.key))
	require.NotPanics(t, lb.Release, "Release is idempotent")
}

func TestRealClock_NowAdvances(t *testing.T) {
	var c RealClock
	t1 := c.Now()
	t2 := c.Now()
	require.False(t, t2.Before(t1))
}
