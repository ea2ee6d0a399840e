package wheel

import (
	"errors"
)

// Disposer may optionally be implemented by a [Pollable] used in a static
// descriptor: Dispose is called when the scheduler discards the instance
// (on cancel, on restart-replacing-the-old-instance, or when the owning
// [StaticWheel] is torn down), after the slot's internal state has already
// been marked dropped. The "dropped" flag is committed strictly before
// teardown runs, so that a panicking Dispose still leaves the slot in a
// state the next call can act on instead of double-tearing-down.
type Disposer interface {
	Dispose()
}

// staticStatus is the per-beat instruction a slot's poll function is
// called with (0 is "poll normally").
type staticStatus uint8

const (
	staticStatusNormal  staticStatus = 0
	staticStatusRestart staticStatus = 1
	staticStatusCancel  staticStatus = 2
	staticStatusUninit  staticStatus = 3
)

// staticInitFlag is a slot's lazy-construction state.
type staticInitFlag uint8

const (
	staticFlagUninit staticInitFlag = iota
	staticFlagCreated
	staticFlagDropped
)

// staticReason is a static slot's lifecycle reason: a superset of the
// dynamic variant's [stopReason] that also distinguishes Restart (replace
// the instance before next poll) from RestartSuspended (the slot was asked
// to restart while suspended; the replacement is deferred until resumed)
// and Finished (the instance completed and was torn down, distinct from
// Cancelled for diagnostic purposes).
type staticReason uint8

const (
	staticReasonNone staticReason = iota
	staticReasonSuspended
	staticReasonCancelled
	staticReasonRestart
	staticReasonRestartSuspended
	staticReasonFinished
)

// StaticDescriptor configures one fixed slot of a [StaticWheelDef]: a name
// and a factory constructing a fresh [Pollable] each time the slot is
// (re)initialized. New is called at most once between any two teardowns of
// the slot, and must not retain the [*StaticHandle] passed to it beyond the
// lifetime of whichever [StaticWheel] is driving it.
//
// Go has no compiler-generated per-call-site state machine or MaybeUninit
// statics to build a slot from, so the per-slot stateless constructor is
// simply New, re-invoked by the scheduler itself on (re)initialization.
type StaticDescriptor struct {
	Name string
	New  func(h *StaticHandle) Pollable
	// Suspended spawns this slot directly into the Suspended state on
	// every (re)initialization, rather than Runnable.
	Suspended bool
}

// staticSlot is the runtime state backing one StaticDescriptor.
type staticSlot struct {
	reason   staticReason
	initFlag staticInitFlag
	instance Pollable
	flags    taskWakeFlags
}

// StaticWheelDef is a fixed, reusable set of task descriptors: unlike
// [Wheel], it allocates no per-task storage at spawn time (there is no
// spawn) and gates use to a single in-flight [StaticWheel] at a time via
// Lock/TryLock. Intended for targets where per-task heap allocation for
// the dynamic [Registry] is undesirable.
type StaticWheelDef struct {
	descriptors []StaticDescriptor
	slots       []staticSlot
	gate        *lifecycleGate
	latch       wakeLatch
	current     TaskID
	hasCurrent  bool
	suspendedN  int
	unfinishedN int
	initialized bool
	logger      Logger
}

// NewStaticWheelDef constructs a StaticWheelDef from a fixed set of
// descriptors. The returned value is intended to be stored once (e.g. in a
// package-level variable) and locked/unlocked repeatedly.
func NewStaticWheelDef(descriptors ...StaticDescriptor) *StaticWheelDef {
	return &StaticWheelDef{
		descriptors: descriptors,
		slots:       make([]staticSlot, len(descriptors)),
		unfinishedN: len(descriptors),
		gate:        newLifecycleGate(),
	}
}

// IsLocked reports whether a [StaticWheel] currently owns this definition.
func (def *StaticWheelDef) IsLocked() bool { return def.gate.isLocked() }

// TryLock attempts to acquire exclusive use of def, returning the
// [StaticWheel] and true on success, or (nil, false) if already locked.
func (def *StaticWheelDef) TryLock() (*StaticWheel, bool) {
	if _, ok := def.gate.tryLock(); !ok {
		return nil, false
	}
	def.init()
	return &StaticWheel{def: def}, true
}

// Lock acquires exclusive use of def, panicking with *[InvalidStateError]
// if it is already locked.
func (def *StaticWheelDef) Lock() *StaticWheel {
	w, ok := def.TryLock()
	if !ok {
		panic(&InvalidStateError{Op: "StaticWheelDef.Lock", Message: "already locked"})
	}
	return w
}

// init (re)initializes every slot to its starting reason: on first use
// every slot starts Uninit/None; on reuse after a prior [StaticWheel] was
// torn down, every slot is first forced through a cancel-drop cycle so
// stale instances from the previous lock cycle never leak into the new one.
func (def *StaticWheelDef) init() {
	suspended := 0
	if def.initialized {
		for i := range def.slots {
			def.pollSlot(i, staticStatusCancel)
		}
	}
	for i := range def.slots {
		def.slots[i].initFlag = staticFlagUninit
		def.slots[i].flags = taskWakeFlags{}
		def.slots[i].flags.set()
		if def.descriptors[i].Suspended {
			def.slots[i].reason = staticReasonSuspended
			suspended++
		} else {
			def.slots[i].reason = staticReasonNone
		}
	}
	def.suspendedN = suspended
	def.unfinishedN = len(def.slots)
	def.initialized = true
}

// Generation returns a counter incremented each time this definition is
// (re)locked, allowing a [StaticHandle] obtained from a previous lock cycle
// to be distinguished from the current one.
func (def *StaticWheelDef) Generation() uint64 { return def.gate.generation() }

func (def *StaticWheelDef) registeredCount() int { return len(def.descriptors) }

func (def *StaticWheelDef) getByName(name string) (TaskID, bool) {
	for i, d := range def.descriptors {
		if d.Name == name {
			return i, true
		}
	}
	return 0, false
}

func (def *StaticWheelDef) resume(id TaskID) bool {
	if id < 0 || id >= len(def.slots) {
		return false
	}
	slot := &def.slots[id]
	if slot.reason != staticReasonSuspended {
		return false
	}
	slot.reason = staticReasonNone
	def.suspendedN--
	return true
}

func (def *StaticWheelDef) suspend(id TaskID) bool {
	if id < 0 || id >= len(def.slots) {
		return false
	}
	slot := &def.slots[id]
	switch slot.reason {
	case staticReasonNone:
		slot.reason = staticReasonSuspended
		def.suspendedN++
		return true
	case staticReasonRestart:
		slot.reason = staticReasonRestartSuspended
		def.suspendedN++
		return true
	default:
		return false
	}
}

func (def *StaticWheelDef) restart(id TaskID) bool {
	if id < 0 || id >= len(def.slots) {
		return false
	}
	slot := &def.slots[id]
	switch slot.reason {
	case staticReasonSuspended, staticReasonRestartSuspended:
		def.suspendedN--
	case staticReasonCancelled, staticReasonFinished:
		def.unfinishedN++
	case staticReasonRestart:
		return true
	}
	slot.reason = staticReasonRestart
	return true
}

func (def *StaticWheelDef) cancel(id TaskID) bool {
	if id < 0 || id >= len(def.slots) {
		return false
	}
	slot := &def.slots[id]
	if slot.reason == staticReasonCancelled {
		return false
	}
	wasSuspended := slot.reason == staticReasonSuspended
	slot.reason = staticReasonCancelled
	if wasSuspended {
		def.suspendedN--
	}
	return true
}

func (def *StaticWheelDef) getState(id TaskID) State {
	if id < 0 || id >= len(def.slots) {
		return StateUnknown
	}
	slot := &def.slots[id]
	switch slot.reason {
	case staticReasonCancelled, staticReasonFinished:
		return StateCancelled
	case staticReasonSuspended, staticReasonRestartSuspended:
		return StateSuspended
	default:
		if slot.flags.isSet() {
			return StateRunnable
		}
		return StateWaiting
	}
}

// resetAllTasks drops every slot's live instance, panic-tolerantly: if
// disposing one slot panics, the sweep continues through the remaining
// slots before the panic is allowed to propagate, so a single
// misbehaving task's teardown can never strand its neighbors un-disposed.
func (def *StaticWheelDef) resetAllTasks() {
	if def.unfinishedN == 0 {
		return
	}
	var firstPanic any
	for i := range def.slots {
		func() {
			defer func() {
				if r := recover(); r != nil && firstPanic == nil {
					firstPanic = r
				}
			}()
			def.pollSlot(i, staticStatusCancel)
		}()
	}
	if firstPanic != nil {
		panic(firstPanic)
	}
}

// pollSlot runs one poll of slot idx under the given out-of-band status
// instruction. status == staticStatusNormal means "poll the live instance, lazily
// constructing it first if this is the slot's first poll since an
// Uninit state"; any other status tears the slot down. Restart then
// constructs a replacement and polls it this beat; Cancel and Uninit return
// without polling.
func (def *StaticWheelDef) pollSlot(idx int, status staticStatus) bool {
	slot := &def.slots[idx]

	if status != staticStatusNormal {
		switch slot.initFlag {
		case staticFlagCreated:
			if status == staticStatusRestart || status == staticStatusUninit {
				slot.initFlag = staticFlagUninit
			} else {
				slot.initFlag = staticFlagDropped
			}
			def.disposeSlot(slot)
		case staticFlagDropped:
			if status == staticStatusUninit {
				slot.initFlag = staticFlagUninit
			}
		case staticFlagUninit:
			if status == staticStatusCancel {
				slot.initFlag = staticFlagDropped
			}
		}
		if status == staticStatusRestart {
			slot.instance = def.descriptors[idx].New(&StaticHandle{def: def, generation: def.gate.generation()})
			slot.initFlag = staticFlagCreated
		} else {
			return true
		}
	} else {
		switch slot.initFlag {
		case staticFlagUninit:
			slot.instance = def.descriptors[idx].New(&StaticHandle{def: def, generation: def.gate.generation()})
			slot.initFlag = staticFlagCreated
		case staticFlagDropped:
			return true
		}
	}

	slot.flags.clear()
	cx := &Context{waker: taskWaker{flags: &slot.flags, latch: &def.latch}}
	ready := slot.instance.Advance(cx)
	if ready {
		slot.initFlag = staticFlagDropped
		def.disposeSlot(slot)
	}
	return ready
}

func (def *StaticWheelDef) disposeSlot(slot *staticSlot) {
	instance := slot.instance
	slot.instance = nil
	if d, ok := instance.(Disposer); ok {
		d.Dispose()
	}
}

// advance is the static variant's beat loop, including the
// RestartSuspended special case (drop the stale instance immediately, but
// stay Suspended rather than re-creating it until resumed).
func (def *StaticWheelDef) advance(cx *Context) (bool, error) {
	def.latch.clear()
	for {
		if def.beatOnce() {
			continue
		}
		def.latch.register(cx.Waker())
		if def.beatOnce() {
			def.latch.clear()
			continue
		}
		n := def.unfinishedN
		if n == 0 {
			return true, nil
		}
		if n == def.suspendedN {
			def.latch.clear()
			return false, &AllSuspendedError{SuspendedCount: n}
		}
		return false, nil
	}
}

func (def *StaticWheelDef) beatOnce() bool {
	anyPoll := false
	for i := range def.slots {
		slot := &def.slots[i]
		var restart bool
		switch slot.reason {
		case staticReasonNone:
		case staticReasonCancelled:
			// a Dropped slot was already torn down and counted out (by an
			// earlier beat, or by finishing), so it is reaped only once.
			if slot.initFlag != staticFlagDropped {
				def.pollSlot(i, staticStatusCancel)
				def.unfinishedN--
			}
			continue
		case staticReasonRestart:
			slot.reason = staticReasonNone
			restart = true
		case staticReasonRestartSuspended:
			slot.reason = staticReasonSuspended
			def.pollSlot(i, staticStatusUninit)
			continue
		case staticReasonFinished, staticReasonSuspended:
			continue
		}

		if !restart && !slot.flags.isSet() && slot.initFlag == staticFlagCreated {
			continue
		}

		def.current, def.hasCurrent = i, true
		anyPoll = true
		var ready bool
		if restart {
			ready = def.pollSlot(i, staticStatusRestart)
		} else {
			ready = def.pollSlot(i, staticStatusNormal)
		}
		def.hasCurrent = false

		if ready {
			slot.reason = staticReasonFinished
			def.unfinishedN--
		}
	}
	return anyPoll
}

// StaticWheel is the live, exclusive driver obtained from
// [StaticWheelDef.Lock] / [StaticWheelDef.TryLock]. [StaticWheel.Close]
// must be called before the underlying [StaticWheelDef] can be locked
// again; running Advance to completion does not release the lock.
type StaticWheel struct {
	def *StaticWheelDef
}

// Handle returns the control surface for tasks on this StaticWheel.
func (w *StaticWheel) Handle() *StaticHandle {
	return &StaticHandle{def: w.def, generation: w.def.gate.generation()}
}

// Advance runs the static scheduler until it must park; semantics match
// [Wheel.Advance].
func (w *StaticWheel) Advance(cx *Context) (bool, error) {
	done, err := w.def.advance(cx)
	if err != nil {
		var allSuspended *AllSuspendedError
		if errors.As(err, &allSuspended) {
			logWarningN(w.def.logger, "wheel: all static tasks suspended", allSuspended.SuspendedCount)
		}
	}
	return done, err
}

// Close tears down every live task instance (panic-tolerantly; see
// [StaticWheelDef]'s resetAllTasks) and releases the lock, allowing another
// [StaticWheelDef.Lock] call to succeed. Go has no destructor to run this
// automatically the way the Rust source's Drop impl for StaticWheel does,
// so embedders must call Close explicitly (typically via defer).
func (w *StaticWheel) Close() {
	defer w.def.gate.unlock()
	w.def.resetAllTasks()
}

// StaticHandle is the control surface for tasks on a [StaticWheel].
type StaticHandle struct {
	def        *StaticWheelDef
	generation uint64
}

// stale reports whether h was obtained from a lock cycle that has since
// been closed and relocked: the TaskIDs it was captured alongside no longer
// refer to the tasks the caller expects, so every mutating method below
// must reject it rather than act on the new cycle's slots.
func (h *StaticHandle) stale() bool { return h.generation != h.def.gate.generation() }

func (h *StaticHandle) Cancel(id TaskID) bool {
	if h.stale() {
		return false
	}
	return h.def.cancel(id)
}

func (h *StaticHandle) Suspend(id TaskID) bool {
	if h.stale() {
		return false
	}
	return h.def.suspend(id)
}

func (h *StaticHandle) Resume(id TaskID) bool {
	if h.stale() {
		return false
	}
	return h.def.resume(id)
}

func (h *StaticHandle) Restart(id TaskID) bool {
	if h.stale() {
		return false
	}
	return h.def.restart(id)
}

func (h *StaticHandle) GetState(id TaskID) State {
	if h.stale() {
		return StateUnknown
	}
	return h.def.getState(id)
}

// Current returns the TaskID presently being advanced, if any.
func (h *StaticHandle) Current() (TaskID, bool) { return h.def.current, h.def.hasCurrent }

// RegisteredCount returns the fixed number of descriptors in this
// definition.
func (h *StaticHandle) RegisteredCount() int { return h.def.registeredCount() }

// IDByIndex returns the TaskID for the descriptor at index i, panicking if
// out of range.
func (h *StaticHandle) IDByIndex(i int) TaskID {
	if i < 0 || i >= h.def.registeredCount() {
		panic("wheel: index out of bounds")
	}
	return i
}

// GetByName returns the TaskID of the descriptor named name, and true;
// otherwise (0, false).
func (h *StaticHandle) GetByName(name string) (TaskID, bool) { return h.def.getByName(name) }

// Generation returns the generation counter this handle was obtained
// under; if it differs from [StaticWheelDef.Generation], the StaticWheel
// this handle was created from has since been closed and relocked, and any
// TaskIDs captured under the old generation no longer refer to the tasks
// the caller expects.
func (h *StaticHandle) Generation() uint64 { return h.generation }
