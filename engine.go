package wheel

// Engine is the default round-robin scheduler algorithm: two alternating
// runnable buffers (so a task that wakes itself mid-beat is deferred to the
// next beat rather than spinning forever) plus a deferred-wait list for
// tasks that returned Pending without being immediately re-queued.
type Engine struct {
	registry   *Registry
	runnable0  []TaskID
	runnable1  []TaskID
	deferred   []TaskID
	which      bool
	current    TaskID
	hasCurrent bool
	// selfEnqueued is live only for the duration of rotateOnce's per-task
	// handling: true if resume() already placed the currently-advancing
	// task back onto a queue during its own Advance call (a self
	// suspend/resume), so the normal post-advance requeue logic below does
	// not place it a second time.
	selfEnqueued bool
	// scanRegistry is set by cancel() when it cancels a task that was
	// Suspended: that task sits in no runnable queue and no deferred list,
	// so only a registry-wide sweep (run at the end of the next rotation)
	// will ever find and reap it.
	scanRegistry bool
	latch        wakeLatch
	logger       Logger
}

// NewEngine constructs an empty round-robin Engine over registry.
func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// currentTaskID returns the task presently being advanced, if any, so that
// a Handle can detect re-entrant self-reference for diagnostics.
func (e *Engine) currentTaskID() (TaskID, bool) { return e.current, e.hasCurrent }

// enqueueRunnable appends id onto whichever buffer is presently being
// filled for the next beat. With checkAbsent it is a no-op if id is already
// there, preventing a duplicate enqueue from a suspend/resume storm.
func (e *Engine) enqueueRunnable(id TaskID, checkAbsent bool) {
	dest := &e.runnable0
	if e.which {
		dest = &e.runnable1
	}
	if checkAbsent && containsTaskID(*dest, id) {
		return
	}
	*dest = append(*dest, id)
}

// spawn registers cell and, if it is not born suspended, enqueues it onto
// the currently-filling runnable buffer.
func (e *Engine) spawn(cell taskCell) (TaskID, error) {
	suspended := cell.reason == reasonSuspended
	id, err := e.registry.Insert(cell)
	if err != nil {
		return 0, err
	}
	if !suspended {
		e.enqueueRunnable(id, false)
	}
	return id, nil
}

// resume transitions the task at id from Suspended back to runnable. If its
// wake flag is set, or it is the task presently being advanced (a
// self-resume), it is enqueued (check-absent) onto the production buffer;
// otherwise it is added (check-absent) to the deferred list, since it is
// still waiting on whatever it was waiting on before being suspended.
// Returns false if id is unknown or was not suspended.
func (e *Engine) resume(id TaskID) bool {
	cell := e.registry.Borrow(id)
	if cell == nil {
		return false
	}
	defer e.registry.Release()
	if cell.reason != reasonSuspended {
		return false
	}
	e.registry.markResumed(cell)

	isCurrent := e.hasCurrent && e.current == id
	if cell.flags.isSet() || isCurrent {
		e.enqueueRunnable(id, true)
		if isCurrent {
			e.selfEnqueued = true
		}
	} else if !containsTaskID(e.deferred, id) {
		e.deferred = append(e.deferred, id)
	}
	return true
}

// suspend marks the task at id Suspended; it is dropped from whichever
// runnable queue it is sitting in the next time that queue is drained, and
// removed from the deferred list immediately if it is not presently
// runnable (a runnable entry is left for the queue walk to retire, since
// removing it here would race the append that is about to requeue it).
// Returns false if id is unknown or not presently active (already
// suspended or already cancelled).
func (e *Engine) suspend(id TaskID) bool {
	cell := e.registry.Borrow(id)
	if cell == nil {
		return false
	}
	defer e.registry.Release()
	if cell.reason != reasonActive {
		return false
	}
	e.registry.markSuspended(cell)
	if !cell.flags.isSet() {
		removeTaskID(&e.deferred, id)
	}
	return true
}

// cancel marks the task at id Cancelled. If it was Runnable or Waiting it
// is reaped the next time a queue walk or deferred drain encounters it; if
// it was Suspended, it sits in no queue at all, so the scan-registry flag
// is set to force a registry-wide sweep at the end of the next rotation.
// Returns false if id is unknown or already cancelled.
func (e *Engine) cancel(id TaskID) bool {
	cell := e.registry.Borrow(id)
	if cell == nil {
		return false
	}
	defer e.registry.Release()
	if cell.reason == reasonCancelled {
		return false
	}
	wasSuspended := cell.reason == reasonSuspended
	e.registry.markCancelled(cell)
	if wasSuspended {
		e.scanRegistry = true
	}
	return true
}

// getState reports id's externally observable [State].
func (e *Engine) getState(id TaskID) State {
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
// finished; an *[AllSuspendedError] means no task is runnable and every
// remaining task is suspended; otherwise (false, nil) means the outer
// driver should park on cx's waker and call advance again once woken.
func (e *Engine) advance(cx *Context) (bool, error) {
	for {
		e.latch.clear()
		parked := e.beatOnce(cx)
		e.which = !e.which
		if parked {
			return false, nil
		}
		if len(e.runnable0) == 0 && len(e.runnable1) == 0 && len(e.deferred) == 0 {
			break
		}
	}
	if n := e.registry.SuspendedCount(); n != 0 {
		return false, &AllSuspendedError{SuspendedCount: n}
	}
	return true, nil
}

// beatOnce runs one rotation of the buffer being consumed this beat (the
// one enqueueRunnable is not filling). A deferred
// drain is attempted whenever the deferred list is non-empty regardless of
// queue state, so a task cancelled or resumed while parked there is reaped
// or requeued promptly rather than only once both queues happen to be
// empty; parking (returning true) is only considered once that drain made
// no progress and both the consuming and producing buffers are empty.
func (e *Engine) beatOnce(cx *Context) bool {
	from, to := &e.runnable1, &e.runnable0
	if e.which {
		from, to = &e.runnable0, &e.runnable1
	}

	if len(e.deferred) > 0 && !e.drainDeferred(from) {
		if len(*from) == 0 && len(*to) == 0 {
			e.latch.register(cx.Waker())
			if !e.drainDeferred(from) {
				return true
			}
			e.latch.clear()
		}
	}
	e.rotateOnce(from, to)
	return false
}

// drainDeferred removes from the deferred list every entry that is no
// longer genuinely waiting: a Suspended entry is dropped (resume will
// enqueue or re-defer it when it matters); a Cancelled entry is dropped and
// reaped from the registry; a runnable entry (wake flag set) is moved onto
// dest. Reports whether anything was removed, for any of those three
// reasons and not only the runnable case, so the caller can tell whether
// this drain made progress.
func (e *Engine) drainDeferred(dest *[]TaskID) bool {
	prevLen := len(e.deferred)
	kept := e.deferred[:0]
	for _, id := range e.deferred {
		cell := e.registry.Borrow(id)
		if cell == nil {
			continue
		}
		switch cell.reason {
		case reasonCancelled:
			e.registry.Release()
			e.registry.Remove(id)
		case reasonSuspended:
			e.registry.Release()
		default:
			if cell.flags.isSet() {
				e.registry.Release()
				*dest = append(*dest, id)
			} else {
				e.registry.Release()
				kept = append(kept, id)
			}
		}
	}
	e.deferred = kept
	return len(kept) != prevLen
}

// rotateOnce advances every task presently queued in from exactly once,
// filing each into to (if immediately runnable again), deferred (if not),
// or removing it from the registry (if cancelled or finished). Once from is
// drained, if cancel() has flagged a scan since the last sweep, the whole
// registry is swept for cancelled cells that no queue walk would otherwise
// ever visit (a task cancelled while Suspended).
func (e *Engine) rotateOnce(from, to *[]TaskID) {
	for len(*from) > 0 {
		id := (*from)[0]
		*from = (*from)[1:]

		cell := e.registry.Borrow(id)
		if cell == nil {
			continue
		}
		if cell.reason == reasonCancelled {
			e.registry.Release()
			e.registry.Remove(id)
			continue
		}
		if cell.reason == reasonSuspended {
			e.registry.Release()
			continue
		}

		e.current, e.hasCurrent = id, true
		e.selfEnqueued = false
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
		cancelledDuring := cell.reason == reasonCancelled
		suspendedDuring := cell.reason == reasonSuspended
		selfEnqueued := e.selfEnqueued
		e.registry.Release()

		if ready || cancelledDuring {
			e.registry.Remove(id)
			if selfEnqueued {
				removeTaskID(to, id)
				removeTaskID(&e.deferred, id)
			}
			continue
		}
		if suspendedDuring || selfEnqueued {
			continue
		}
		if cell.flags.isSet() {
			*to = append(*to, id)
		} else {
			e.deferred = append(e.deferred, id)
		}
	}

	if e.scanRegistry {
		e.scanRegistry = false
		n := 0
		for _, id := range *to {
			cell := e.registry.Borrow(id)
			cancelled := cell != nil && cell.reason == reasonCancelled
			if cell != nil {
				e.registry.Release()
			}
			if !cancelled {
				(*to)[n] = id
				n++
			}
		}
		*to = (*to)[:n]
		e.registry.removeCancelled()
	}
}

func containsTaskID(s []TaskID, id TaskID) bool {
	for _, x := range s {
		if x == id {
			return true
		}
	}
	return false
}

func removeTaskID(s *[]TaskID, id TaskID) {
	for i, x := range *s {
		if x == id {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return
		}
	}
}
