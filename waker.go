package wheel

import "sync/atomic"

// Waker is anything that can be notified that the task (or, at the
// top level, the outer driver) it was handed to should be re-polled.
// Implementations must be safe to call Wake on from any goroutine,
// concurrently with themselves and with the wheel's own thread, and Wake
// must never block. Invoking Wake after whatever it names has already
// completed is permitted and must be a no-op.
//
// A task's own Waker (constructed internally by taskCell.advance) sets the
// task's wake flag and notifies the wheel-level [wakeLatch]. An embedder
// driving [Wheel.Advance] supplies its own Waker implementation — a channel
// send, a sync.Cond broadcast, an eventfd write — to be notified when the
// wheel has work again after parking with nothing runnable.
type Waker interface {
	Wake()
}

// WakerFunc adapts a plain function to Waker.
type WakerFunc func()

// Wake implements Waker.
func (f WakerFunc) Wake() { f() }

// NoopWaker is a Waker whose Wake does nothing, useful for driving a Wheel
// from a busy-poll loop (or a test) that does not need to block between
// Advance calls.
type NoopWaker struct{}

// Wake implements Waker.
func (NoopWaker) Wake() {}

// taskWakeFlags is the per-task atomic "runnable since last advance" flag:
// true iff a wake event has been observed since the last successful clear
// at the start of an advance.
type taskWakeFlags struct {
	runnable atomic.Bool
}

func (f *taskWakeFlags) set()        { f.runnable.Store(true) }
func (f *taskWakeFlags) clear()      { f.runnable.Store(false) }
func (f *taskWakeFlags) isSet() bool { return f.runnable.Load() }

// taskWaker is the concrete [Waker] a task cell's Context carries: waking
// it marks the owning task runnable and notifies the wheel-level latch so a
// parked outer driver is woken exactly once per park. It may be invoked
// from any goroutine, including concurrently with itself or with the
// wheel's own thread; Wake never blocks and never acquires a lock.
type taskWaker struct {
	flags *taskWakeFlags
	latch *wakeLatch
}

// Wake implements Waker.
func (w taskWaker) Wake() {
	if w.flags == nil {
		return
	}
	w.flags.set()
	if w.latch != nil {
		w.latch.notifyWake()
	}
}

// wakeLatch is a single-slot atomic registry for the embedder's outer
// [Waker], safe to register/clear from the wheel's own thread and to
// invoke (notifyWake) from any thread.
//
// notifyWake takes the registered waker out of the slot before invoking it
// (the "take-then-invoke" pattern): this guarantees a waker is never
// invoked while still claimed, and is invoked at most once per
// register/clear cycle even under concurrent notifyWake calls.
type wakeLatch struct {
	slot atomic.Pointer[Waker]
}

// register installs w as the waker to notify on the next wake, replacing
// any previously registered waker. Must only be called from the wheel's
// own thread. A nil w clears the slot.
func (l *wakeLatch) register(w Waker) {
	if w == nil {
		l.clear()
		return
	}
	l.slot.Store(&w)
}

// clear removes any registered waker without invoking it. Must only be
// called from the wheel's own thread.
func (l *wakeLatch) clear() {
	l.slot.Store(nil)
}

// notifyWake atomically takes the registered waker, if any, and invokes it.
// Returns whether a waker was present and invoked. Safe to call from any
// goroutine.
func (l *wakeLatch) notifyWake() bool {
	p := l.slot.Swap(nil)
	if p == nil {
		return false
	}
	(*p).Wake()
	return true
}
