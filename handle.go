package wheel

// Handle is the shared control surface for spawning and managing tasks on a
// [Wheel]. It is safe to call from inside a task's own Advance (spawning,
// cancelling or suspending other tasks, or itself, mid-advance is
// explicitly supported), and safe to retain past that call.
//
// Handle holds a plain pointer back to its owning Wheel: Go's garbage
// collector already keeps the Wheel alive for as long as anything
// (including a Handle) references it, so there is no "upgrade failure" case
// to model. IsValid is retained for interface parity and always reports
// true for a Handle obtained from [Wheel.Handle].
type Handle struct {
	wheel *Wheel
}

// IsValid reports whether this Handle's owning Wheel is still usable.
// Always true for a Handle obtained from [Wheel.Handle]; see the type's
// doc comment for why this differs from the Weak-pointer source.
func (h *Handle) IsValid() bool { return h.wheel != nil }

// Spawn registers a new task and returns its [TaskID]. Returns
// [ErrRegistryFull] if the registry's key space is exhausted.
func (h *Handle) Spawn(params TaskParams, p Pollable) (TaskID, error) {
	reason := reasonActive
	if params.Suspended {
		reason = reasonSuspended
	}
	cell := taskCell{
		pollable: p,
		reason:   reason,
		name:     taskName{name: params.Name, isSet: params.Name != ""},
	}
	cell.flags.set()
	id, err := h.wheel.engine.spawn(cell)
	if err != nil {
		return 0, err
	}
	logDebugID(h.wheel.logger, "wheel: task spawned", id)
	return id, nil
}

// Cancel marks the task at id Cancelled; it will not be advanced again and
// is reaped from the registry at the next safe point. Returns false if id
// is unknown or already cancelled.
func (h *Handle) Cancel(id TaskID) bool {
	ok := h.wheel.engine.cancel(id)
	if ok {
		logDebugID(h.wheel.logger, "wheel: task cancelled", id)
	}
	return ok
}

// Suspend marks the task at id Suspended; it will not be advanced again
// until [Handle.Resume]. Returns false if id is unknown or not active
// (already suspended or already cancelled).
func (h *Handle) Suspend(id TaskID) bool {
	ok := h.wheel.engine.suspend(id)
	if ok {
		logDebugID(h.wheel.logger, "wheel: task suspended", id)
	}
	return ok
}

// Resume clears the Suspended state of the task at id, re-queuing it.
// Returns false if id is unknown or not currently suspended.
func (h *Handle) Resume(id TaskID) bool {
	ok := h.wheel.engine.resume(id)
	if ok {
		logDebugID(h.wheel.logger, "wheel: task resumed", id)
	}
	return ok
}

// GetState reports id's externally observable [State].
func (h *Handle) GetState(id TaskID) State {
	return h.wheel.engine.getState(id)
}

// CurrentTask returns the TaskID of the task presently being advanced, and
// true, if Advance is currently executing a task's Pollable; otherwise
// (0, false).
func (h *Handle) CurrentTask() (TaskID, bool) {
	return h.wheel.engine.currentTaskID()
}

// Count returns the number of tasks currently registered, including
// suspended and cancelled-but-not-yet-reaped ones.
func (h *Handle) Count() int { return h.wheel.registry.Len() }

// WithName looks up id's name and, if it has one, invokes fn with it and
// returns (result, true); otherwise returns (zero, false). Go has no
// Option<&str>-returning closure idiom, so the result is threaded through a
// generic callback instead.
func WithName[T any](h *Handle, id TaskID, fn func(name string) T) (T, bool) {
	var zero T
	cell := h.wheel.registry.Borrow(id)
	if cell == nil {
		return zero, false
	}
	defer h.wheel.registry.Release()
	if !cell.name.isSet {
		return zero, false
	}
	return fn(cell.name.name), true
}

// GetByName returns the TaskID of the first registered task (in ascending
// TaskID order) whose name equals name, and true; otherwise (0, false).
// This is a linear scan over the registry.
func (h *Handle) GetByName(name string) (TaskID, bool) {
	var (
		found TaskID
		ok    bool
	)
	h.wheel.registry.Each(func(id TaskID, cell *taskCell) bool {
		if cell.name.isSet && cell.name.name == name {
			found, ok = id, true
			return false
		}
		return true
	})
	return found, ok
}
