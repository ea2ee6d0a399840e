package wheel

// Pollable is the opaque unit the scheduler multiplexes: a cooperative
// coroutine exposing a single advance operation. The scheduler never
// inspects a Pollable beyond calling Advance; all suspension-point and
// yielding machinery is the embedder's (or, for simple cases, [Once],
// [Times] and [Until]'s) responsibility.
type Pollable interface {
	// Advance runs one step of the unit. It returns true if the unit has
	// completed (Ready) and should be removed from the scheduler, or false
	// if it is not yet complete (Pending), in which case it must arrange,
	// before returning, to be woken later via cx.Waker().Wake() (directly,
	// or by handing that Waker to something that will call it).
	Advance(cx *Context) bool
}

// PollableFunc adapts a plain advance function to Pollable.
type PollableFunc func(cx *Context) bool

// Advance implements Pollable.
func (f PollableFunc) Advance(cx *Context) bool { return f(cx) }

// Context is passed to a Pollable's Advance call. It carries the [Waker]
// that must be armed before returning Pending.
type Context struct {
	waker Waker
}

// Waker returns the waker for the task currently being advanced (or, for a
// Context constructed directly via [NewContext] to drive [Wheel.Advance],
// whatever Waker the embedder supplied). Calling Wake on a task-level
// waker marks that task runnable and notifies the wheel's own latch.
func (cx *Context) Waker() Waker { return cx.waker }

// NewContext constructs a standalone Context around an arbitrary Waker, for
// embedders driving a [Pollable] directly without a [Wheel] (e.g. in tests,
// or to implement the "outer blocking loop" that drives [Wheel.Advance]
// itself, which this module leaves to the embedder).
func NewContext(w Waker) *Context { return &Context{waker: w} }

// State is the externally observable lifecycle state of a task, returned by
// [Handle.GetState].
type State int

const (
	// StateUnknown is returned for a TaskID not present in the registry
	// (never spawned, already completed, or already reaped after cancel).
	StateUnknown State = iota
	// StateRunnable means the task's wake flag is set and it is not
	// suspended: it will be advanced on an upcoming beat.
	StateRunnable
	// StateWaiting means the task is present, not runnable, and not
	// suspended or cancelled: it is parked awaiting an external wake.
	StateWaiting
	// StateSuspended means the task will not be advanced until Resume.
	StateSuspended
	// StateCancelled means the task has been marked for removal and will
	// be reaped (and never advanced again) at the next safe point.
	StateCancelled
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateRunnable:
		return "Runnable"
	case StateWaiting:
		return "Waiting"
	case StateSuspended:
		return "Suspended"
	case StateCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// stopReason is the task cell's internal lifecycle reason, a superset of
// [State] that also distinguishes Active (driving State's Runnable/Waiting
// split via the wake flag) from the static-variant-only
// Finished/Restart/RestartSuspended reasons (added in static.go).
type stopReason uint8

const (
	reasonActive stopReason = iota
	reasonSuspended
	reasonCancelled
)

// taskName holds a task's optional name: a task may be unnamed, or carry a
// name supplied at spawn time. A plain string with an isSet bool covers
// both cases.
type taskName struct {
	name  string
	isSet bool
}

func (n taskName) String() string {
	if !n.isSet {
		return ""
	}
	return n.name
}

// taskCell is one entry in the registry: a Pollable plus its wake flag,
// lifecycle reason, re-entrancy guard and name.
type taskCell struct {
	pollable Pollable
	flags    taskWakeFlags
	reason   stopReason
	name     taskName
	// advancing is the re-entrancy guard: true while this cell's Advance is
	// on the goroutine stack. A single-threaded wheel never advances two
	// cells concurrently, so a plain bool (not atomic) suffices; the guard
	// exists to catch a Pollable re-entering its own Advance synchronously,
	// which only a buggy embedder implementation could trigger.
	advancing bool
	id        TaskID
}

// advance runs one step of the cell's Pollable, enforcing the re-entrancy
// guard and clearing the wake flag before polling, so a Wake delivered
// during this very call correctly re-arms runnability for next time.
// Returns true if the Pollable completed (Ready).
func (c *taskCell) advance(latch *wakeLatch) (ready bool) {
	if c.advancing {
		panic(&ReentrancyViolationError{TaskID: c.id, Name: c.name.String()})
	}
	c.advancing = true
	defer func() { c.advancing = false }()

	c.flags.clear()
	cx := &Context{waker: taskWaker{flags: &c.flags, latch: latch}}
	return c.pollable.Advance(cx)
}
