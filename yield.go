package wheel

// Once, Times and Until are small reusable yield points for hand-written
// [Pollable] state machines that want to cede control to the scheduler
// without implementing their own wake bookkeeping. Go has no
// compiler-generated coroutine state machine to await these from, so they
// are plain structs a caller's own Pollable stores as a field and polls
// explicitly at the point it wants to yield (see doc.go's worked example).
//
// All three self-wake on every Pending return: with no external event to
// notify them, re-evaluation can only be driven by scheduling another beat
// immediately. This is appropriate for their intended use (ceding a turn,
// or busy-checking a predicate that is cheap to evaluate); a task waiting
// on a genuine external event should arm cx.Waker() itself and return
// false without self-waking.

// Once yields Pending exactly once, then Ready forever until Reset.
type Once struct{ done bool }

// Poll implements the yield point: false (Pending) the first call after
// construction or Reset, true (Ready) thereafter.
func (y *Once) Poll(cx *Context) bool {
	if y.done {
		return true
	}
	y.done = true
	cx.Waker().Wake()
	return false
}

// Reset rearms the yield point so the next Poll again returns Pending once.
func (y *Once) Reset() { y.done = false }

// Times yields Pending for the first n calls after construction or Reset,
// then Ready.
type Times struct{ remaining int }

// NewTimes constructs a Times yield point that will return Pending for the
// next n calls to Poll.
func NewTimes(n int) *Times { return &Times{remaining: n} }

// Poll implements the yield point.
func (y *Times) Poll(cx *Context) bool {
	if y.remaining <= 0 {
		return true
	}
	y.remaining--
	cx.Waker().Wake()
	return false
}

// Reset rearms the yield point for n further Pending calls.
func (y *Times) Reset(n int) { y.remaining = n }

// Until yields Pending while pred returns false, self-waking so the
// predicate is re-evaluated on the next beat.
type Until struct{ pred func() bool }

// NewUntil constructs an Until yield point gated on pred.
func NewUntil(pred func() bool) *Until { return &Until{pred: pred} }

// Poll implements the yield point: Ready once pred() returns true.
func (y *Until) Poll(cx *Context) bool {
	if y.pred() {
		return true
	}
	cx.Waker().Wake()
	return false
}
