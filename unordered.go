package wheel

// UnorderedEngine is the alternate scheduler algorithm: every beat walks the
// entire registry once in ascending TaskID order, rather than maintaining
// explicit runnable queues. Simpler bookkeeping (each beat snapshots the
// registry's keys into a fresh slice and walks it), at the cost of O(n) work even when only one task out of many is runnable (see
// DESIGN.md's Open Question decision: kept this way deliberately, not
// optimized).
type UnorderedEngine struct {
	registry   *Registry
	latch      wakeLatch
	current    TaskID
	hasCurrent bool
}

// NewUnorderedEngine constructs an empty UnorderedEngine over registry.
func NewUnorderedEngine(registry *Registry) *UnorderedEngine {
	return &UnorderedEngine{registry: registry}
}

func (e *UnorderedEngine) currentTaskID() (TaskID, bool) { return e.current, e.hasCurrent }

// spawn registers cell; the unordered engine has no queues to place it in,
// since every beat scans the whole registry.
func (e *UnorderedEngine) spawn(cell taskCell) (TaskID, error) {
	return e.registry.Insert(cell)
}

func (e *UnorderedEngine) resume(id TaskID) bool {
	cell := e.registry.Borrow(id)
	if cell == nil {
		return false
	}
	defer e.registry.Release()
	if cell.reason != reasonSuspended {
		return false
	}
	e.registry.markResumed(cell)
	return true
}

func (e *UnorderedEngine) suspend(id TaskID) bool {
	cell := e.registry.Borrow(id)
	if cell == nil {
		return false
	}
	defer e.registry.Release()
	if cell.reason != reasonActive {
		return false
	}
	e.registry.markSuspended(cell)
	return true
}

func (e *UnorderedEngine) cancel(id TaskID) bool {
	cell := e.registry.Borrow(id)
	if cell == nil {
		return false
	}
	defer e.registry.Release()
	if cell.reason == reasonCancelled {
		return false
	}
	e.registry.markCancelled(cell)
	return true
}

func (e *UnorderedEngine) getState(id TaskID) State {
	cell := e.registry.Borrow(id)
	if cell == nil {
		return StateUnknown
	}
	defer e.registry.Release()
	switch cell.reason {
	case reasonCancelled:
		return StateCancelled
	case reasonSuspended:
		return StateSuspended
	default:
		if cell.flags.isSet() {
			return StateRunnable
		}
		return StateWaiting
	}
}

// advance runs the engine to a fixed point: true means every task has
// finished; an *[AllSuspendedError] means every remaining task is
// suspended; otherwise (false, nil) means the outer driver should park and
// call advance again once woken.
func (e *UnorderedEngine) advance(cx *Context) (bool, error) {
	e.latch.clear()
	for {
		if e.beatOnce() {
			continue
		}
		e.latch.register(cx.Waker())
		if e.beatOnce() {
			e.latch.clear()
			continue
		}
		n := e.registry.Len()
		if n == 0 {
			return true, nil
		}
		if n == e.registry.SuspendedCount() {
			e.latch.clear()
			return false, &AllSuspendedError{SuspendedCount: n}
		}
		return false, nil
	}
}

// beatOnce advances every currently runnable task once, in ascending
// TaskID order, reaping any it finds already cancelled along the way.
// Returns whether any task was found runnable (and thus advanced or
// reaped) this pass.
func (e *UnorderedEngine) beatOnce() bool {
	anyPoll := false
	var ids []TaskID
	e.registry.Each(func(id TaskID, _ *taskCell) bool {
		ids = append(ids, id)
		return true
	})

	for _, id := range ids {
		cell := e.registry.Borrow(id)
		if cell == nil {
			continue
		}
		if cell.reason == reasonCancelled {
			e.registry.Release()
			e.registry.Remove(id)
			anyPoll = true
			continue
		}
		if cell.reason == reasonSuspended || !cell.flags.isSet() {
			e.registry.Release()
			continue
		}

		anyPoll = true
		e.current, e.hasCurrent = id, true
		ready := func() bool {
			defer func() {
				if r := recover(); r != nil {
					e.hasCurrent = false
					e.registry.Release()
					panic(r)
				}
			}()
			return cell.advance(&e.latch)
		}()
		e.hasCurrent = false
		e.registry.Release()

		if ready {
			e.registry.Remove(id)
		}
	}
	return anyPoll
}
