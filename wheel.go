package wheel

import "errors"

// schedulerEngine is the common surface both [Engine] (round-robin) and
// [UnorderedEngine] (full-scan) implement, letting [Wheel] drive whichever
// one [Option]s selected without caring which.
type schedulerEngine interface {
	spawn(cell taskCell) (TaskID, error)
	resume(id TaskID) bool
	suspend(id TaskID) bool
	cancel(id TaskID) bool
	getState(id TaskID) State
	currentTaskID() (TaskID, bool)
	advance(cx *Context) (bool, error)
}

// Wheel is a single-threaded cooperative task scheduler: it owns a
// [Registry] of task cells and drives them to completion one beat at a
// time via Advance, called repeatedly by an embedder-supplied outer loop.
type Wheel struct {
	registry *Registry
	engine   schedulerEngine
	handle   *Handle
	logger   Logger
}

// New constructs a Wheel with the default round-robin [Engine] and no
// options.
func New() *Wheel { return NewWheel() }

// NewWheel constructs a Wheel, applying opts. See [WithUnorderedEngine] to
// select the [UnorderedEngine] instead of the default round-robin [Engine].
func NewWheel(opts ...Option) *Wheel {
	cfg := resolveOptions(opts)
	registry := NewRegistry()

	w := &Wheel{registry: registry, logger: cfg.logger}
	if cfg.unordered {
		w.engine = NewUnorderedEngine(registry)
	} else {
		w.engine = NewEngine(registry)
	}
	w.handle = &Handle{wheel: w}
	return w
}

// Handle returns the (single, shared) handle used to spawn and control
// tasks on this Wheel. Safe to call, and safe for the returned Handle's
// methods to be called, from inside a task's own Advance.
func (w *Wheel) Handle() *Handle { return w.handle }

// Advance runs the scheduler until it must park: it returns (true, nil)
// once every task has finished, (false, err) with err a non-nil
// *[AllSuspendedError] if every remaining task is suspended (a deadlock
// this scheduler cannot break on its own), or (false, nil) if cx's waker
// should be awaited by the embedder's own blocking primitive before
// calling Advance again.
func (w *Wheel) Advance(cx *Context) (bool, error) {
	done, err := w.engine.advance(cx)
	if err != nil {
		var allSuspended *AllSuspendedError
		if errors.As(err, &allSuspended) {
			logWarningN(w.logger, "wheel: all tasks suspended", allSuspended.SuspendedCount)
		}
	}
	return done, err
}
