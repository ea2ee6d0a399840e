package wheel

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// scenarioCounter counts down from n, self-waking once per Pending return
// (a "yield once per iteration" task), tracking how many times Advance ran.
type scenarioCounter struct {
	remaining int
	advances  int
}

func (c *scenarioCounter) Advance(cx *Context) bool {
	c.advances++
	if c.remaining <= 0 {
		return true
	}
	c.remaining--
	cx.Waker().Wake()
	return false
}

// Scenario 1: three independent countdown tasks driven to completion.
func TestScenario1_ThreeCountdownTasksToCompletion(t *testing.T) {
	w := NewWheel()
	h := w.Handle()

	a := &scenarioCounter{remaining: 10}
	b := &scenarioCounter{remaining: 20}
	c := &scenarioCounter{remaining: 5}
	h.Spawn(TaskParams{}, a)
	h.Spawn(TaskParams{}, b)
	h.Spawn(TaskParams{}, c)

	cx := NewContext(NoopWaker{})
	done, err := w.Advance(cx)
	require.NoError(t, err)
	require.True(t, done)

	require.Equal(t, 0, a.remaining)
	require.Equal(t, 0, b.remaining)
	require.Equal(t, 0, c.remaining)
	require.Equal(t, 11, a.advances)
	require.Equal(t, 21, b.advances)
	require.Equal(t, 6, c.advances)
}

// Scenario 2: one running task, one born-Suspended-and-never-resumed task;
// the engine must report AllSuspended once the running task finishes.
func TestScenario2_AllSuspendedOnceRunningTaskFinishes(t *testing.T) {
	w := NewWheel()
	h := w.Handle()

	a := &scenarioCounter{remaining: 30}
	h.Spawn(TaskParams{}, a)
	neverTouched := true
	h.Spawn(TaskParams{Suspended: true}, PollableFunc(func(cx *Context) bool {
		neverTouched = false
		return true
	}))

	cx := NewContext(NoopWaker{})
	done, err := w.Advance(cx)
	require.False(t, done)
	var allSuspended *AllSuspendedError
	require.ErrorAs(t, err, &allSuspended)
	require.Equal(t, 1, allSuspended.SuspendedCount)
	require.Equal(t, 0, a.remaining)
	require.True(t, neverTouched, "a suspended-and-never-resumed task must never be advanced")
}

// externalSignal models an out-of-process event source a task awaits:
// registering the task's waker on Poll, and invoking it from another
// goroutine via fire.
type externalSignal struct {
	mu    sync.Mutex
	waker Waker
	fired bool
	polls int
}

func (s *externalSignal) poll(cx *Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++
	if s.fired {
		return true
	}
	s.waker = cx.Waker()
	return false
}

func (s *externalSignal) fire() {
	s.mu.Lock()
	s.fired = true
	w := s.waker
	s.mu.Unlock()
	if w != nil {
		w.Wake()
	}
}

// Scenario 3: a task awaiting an external signal parks the wheel; firing
// the signal from another goroutine wakes the outer driver exactly once,
// and the task completes on the next beat.
func TestScenario3_ExternalSignalWakesOuterDriverExactlyOnce(t *testing.T) {
	w := NewWheel()
	h := w.Handle()

	sig := &externalSignal{}
	id, err := h.Spawn(TaskParams{}, PollableFunc(sig.poll))
	require.NoError(t, err)

	var outerWakes int
	cx := NewContext(WakerFunc(func() { outerWakes++ }))

	done, err := w.Advance(cx)
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, 1, sig.polls)
	require.Equal(t, StateWaiting, h.GetState(id))
	require.Equal(t, 0, outerWakes)

	sig.fire()
	require.Equal(t, 1, outerWakes, "firing the signal must invoke the parked outer waker exactly once")

	done, err = w.Advance(cx)
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, 2, sig.polls)
	require.Equal(t, StateUnknown, h.GetState(id))
}

// Scenario 4: a task spawned from within another task's Advance, during the
// same beat the spawning task parks, must still be advanced this beat
// (the starvation-guard regression: a new task must never be missed just
// because the engine is about to park).
func TestScenario4_NewlySpawnedTaskRunsInTheSameBeat(t *testing.T) {
	w := NewWheel()
	h := w.Handle()

	newTaskRan := false
	waiter := PollableFunc(func(cx *Context) bool {
		h.Spawn(TaskParams{}, PollableFunc(func(cx *Context) bool {
			newTaskRan = true
			return true
		}))
		return false // parks; never self-wakes
	})
	h.Spawn(TaskParams{}, waiter)

	cx := NewContext(NoopWaker{})
	w.Advance(cx)

	require.True(t, newTaskRan, "a task spawned mid-beat must run before the beat parks")
}

type fairWorker struct {
	clock *fakeClock
	step  time.Duration
}

func (w *fairWorker) Advance(cx *Context) bool {
	w.clock.now = w.clock.now.Add(w.step)
	return false
}

// Scenario 5: three tasks sharing a fair-share group with equal slot counts
// but unequal per-turn work sizes converge to roughly equal total time.
func TestScenario5_FairShareConvergesWithinTwentyPercent(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	group := NewTimingGroup()
	steps := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}

	lbs := make([]*LoadBalance, len(steps))
	for i, step := range steps {
		lbs[i] = NewLoadBalance(group, 1, clock, &fairWorker{clock: clock, step: step})
	}

	cx := NewContext(NoopWaker{})
	const target = 2000 * time.Millisecond

	total := func() time.Duration {
		var sum time.Duration
		for _, lb := range lbs {
			sum += group.entries.Get(lb.key).sum
		}
		return sum
	}

	for i := 0; total() < target; i++ {
		require.Less(t, i, 2_000_000, "fair-share loop failed to converge within the iteration budget")
		lbs[i%len(lbs)].Advance(cx)
	}

	want := target / time.Duration(len(lbs))
	lower := want * 8 / 10
	upper := want * 12 / 10
	for i, lb := range lbs {
		got := group.entries.Get(lb.key).sum
		require.GreaterOrEqualf(t, got, lower, "task %d time %v below the +-20%% band around %v", i, got, want)
		require.LessOrEqualf(t, got, upper, "task %d time %v above the +-20%% band around %v", i, got, want)
	}
}

type scenario6Worker struct {
	created, disposed *int
}

func (w *scenario6Worker) Advance(cx *Context) bool { return false }
func (w *scenario6Worker) Dispose()                 { *w.disposed++ }

type scenario6Controller struct {
	h         *StaticHandle
	iteration int
}

func (c *scenario6Controller) Advance(cx *Context) bool {
	c.iteration++
	if c.iteration == 4 {
		c.h.Restart(1)
		return false // parks: never polled again
	}
	cx.Waker().Wake() // yield once per iteration
	return false
}

// Scenario 6: the static variant's restart/drop/re-init/re-lock cycle.
func TestScenario6_StaticVariantRestartDropReinitRelock(t *testing.T) {
	var created, disposed int
	def := NewStaticWheelDef(
		StaticDescriptor{Name: "controller", New: func(h *StaticHandle) Pollable {
			return &scenario6Controller{h: h}
		}},
		StaticDescriptor{Name: "worker", New: func(h *StaticHandle) Pollable {
			created++
			return &scenario6Worker{created: &created, disposed: &disposed}
		}},
	)

	w1 := def.Lock()
	gen1 := w1.Handle().Generation()
	cx := NewContext(NoopWaker{})
	for i := 0; i < 8; i++ {
		done, err := w1.Advance(cx)
		require.NoError(t, err)
		require.False(t, done)
	}
	require.Equal(t, 2, created, "worker must be created once at init and re-created exactly once by restart")
	require.Equal(t, 1, disposed, "the pre-restart instance must be disposed exactly once")

	w1.Close()
	require.Equal(t, 2, disposed, "closing the wheel must cancel (and dispose) every live instance")

	w2 := def.Lock()
	gen2 := w2.Handle().Generation()
	require.NotEqual(t, gen1, gen2, "relocking must advance the generation counter")

	for i := 0; i < 8; i++ {
		w2.Advance(cx)
	}
	require.GreaterOrEqual(t, created, 3, "the relocked definition must go through its own create/restart cycle")
	require.GreaterOrEqual(t, disposed, 3)
	w2.Close()
}
