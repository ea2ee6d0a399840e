// Package wheel implements a single-threaded cooperative task scheduler for
// environments without a heavyweight async runtime: bare-metal, embedded, or
// a single host thread inside a larger program. It multiplexes many
// user-defined cooperative tasks onto one execution context, providing
// spawn/cancel/suspend/resume/query primitives, fair round-robin ordering,
// and integration with an externally supplied blocking primitive.
//
// # Architecture
//
// A [Wheel] owns a [Registry] of task cells, each wrapping a caller's
// [Pollable] unit. The round-robin [Engine] (the default, see [NewWheel]) or
// the [UnorderedEngine] dequeues runnable tasks, advances them, and re-files
// each task according to its post-advance state. Tasks interact with the
// scheduler through a [Handle], which remains safe to call re-entrantly from
// inside a task's own advance. A [LoadBalance] wrapper optionally gates a
// group of tasks by accumulated runtime, for fair-share scheduling among a
// subset of tasks.
//
// The [StaticWheelDef] variant pins a fixed array of task descriptors at
// configuration time, useful on targets without a heap allocator for
// per-task storage; see [NewStaticWheelDef].
//
// # Thread Safety
//
// All scheduler state is confined to the thread that owns the [Wheel]; a
// task's [Pollable] is only ever advanced from that thread, never
// concurrently with itself. The only cross-thread surface is the wake path:
// a [Waker] may be invoked from any goroutine (or, on embedded targets, an
// interrupt handler) to mark a task runnable and notify the wheel's own
// latch. No lock is acquired from waker context.
//
// # Usage
//
// A sensor producer/consumer pair, the consumer cancelling the producer once
// it has seen enough. Each side is a small hand-written state machine (a
// struct implementing [Pollable]) that stores its own [Once]/[Until] yield
// point as a field, since a plain closure's locals do not survive across
// separate Advance calls the way an async fn's do in the source this
// scheduler is grounded on:
//
//	type producer struct {
//	    readings *[]int
//	    step     wheel.Once
//	}
//
//	func (p *producer) Advance(cx *wheel.Context) bool {
//	    if !p.step.Poll(cx) {
//	        return false // Pending: give other tasks a turn
//	    }
//	    *p.readings = append(*p.readings, readSensor())
//	    p.step.Reset()
//	    return false // runs until cancelled
//	}
//
//	type consumer struct {
//	    readings   *[]int
//	    producerID wheel.TaskID
//	    handle     *wheel.Handle
//	    i          int
//	    wait       *wheel.Until
//	}
//
//	func (c *consumer) Advance(cx *wheel.Context) bool {
//	    for c.i < 5 {
//	        if c.wait == nil {
//	            target := c.i
//	            c.wait = wheel.NewUntil(func() bool { return len(*c.readings) > target*10 })
//	        }
//	        if !c.wait.Poll(cx) {
//	            return false
//	        }
//	        processBatch(*c.readings)
//	        c.i++
//	        c.wait = nil
//	    }
//	    c.handle.Cancel(c.producerID)
//	    return true
//	}
//
//	w := wheel.New()
//	h := w.Handle()
//	var readings []int
//	producerID, _ := h.Spawn(wheel.TaskParams{}, &producer{readings: &readings})
//	h.Spawn(wheel.TaskParams{}, &consumer{readings: &readings, producerID: producerID, handle: h})
//
//	cx := wheel.NewContext(wheel.NoopWaker{})
//	for {
//	    done, err := w.Advance(cx)
//	    if err != nil {
//	        break // every remaining task is suspended; see AllSuspendedError
//	    }
//	    if done {
//	        break
//	    }
//	    // an outer driver would block on an external event here
//	}
//
// # Error Types
//
// [ErrRegistryFull] is returned by [Handle.Spawn] when a slab's key space is
// exhausted. [AllSuspendedError] is produced by [Wheel.Advance] / the
// engine's beat loop when every remaining task is suspended.
// Re-entrancy and registry-mutation-during-iteration violations panic with
// [ReentrancyViolationError] / [RegistryMutationError].
package wheel
