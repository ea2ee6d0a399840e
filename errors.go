package wheel

import (
	"errors"
	"fmt"
)

// ErrRegistryFull is returned by [Handle.Spawn] when the registry's key
// space is exhausted (the slab's key type cannot address another entry).
var ErrRegistryFull = errors.New("wheel: registry full")

// AllSuspendedError is produced when the engine's beat loop finds no
// runnable or waiting task remaining, but one or more tasks are Suspended.
// This surfaces a deadlock that the scheduler itself cannot break: a
// single-threaded driver has nothing left to do, because every remaining
// task requires an external resume that nobody scheduled.
type AllSuspendedError struct {
	// SuspendedCount is the number of tasks in the Suspended state at the
	// moment termination was detected.
	SuspendedCount int
}

// Error implements the error interface.
func (e *AllSuspendedError) Error() string {
	return fmt.Sprintf("wheel: all remaining tasks suspended (%d suspended)", e.SuspendedCount)
}

// Is reports whether target is an *AllSuspendedError, regardless of its
// SuspendedCount, so that callers can use errors.Is(err, new(AllSuspendedError))
// without caring about the exact count.
func (e *AllSuspendedError) Is(target error) bool {
	var t *AllSuspendedError
	return errors.As(target, &t)
}

// InvalidStateError reports a structural misuse of the static variant's
// configuration surface (for example, locking an already-locked
// [StaticWheelDef]). It is distinct from the boolean-returning
// suspend/resume/cancel transitions on the dynamic variant, which are
// defined by spec to be silent no-ops rather than errors.
type InvalidStateError struct {
	Op      string
	Message string
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("wheel: invalid state for %s", e.Op)
	}
	return fmt.Sprintf("wheel: invalid state for %s: %s", e.Op, e.Message)
}

// ReentrancyViolationError is the panic value raised when a task cell's
// Advance is invoked while that same cell's Advance is already on the
// goroutine stack. This can only happen from a programming error in the
// embedder's Pollable implementation (for example, a task that somehow
// obtains and polls its own handle synchronously); the scheduler never
// triggers this on its own.
type ReentrancyViolationError struct {
	TaskID TaskID
	Name   string
}

// Error implements the error interface.
func (e *ReentrancyViolationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("wheel: recursive call to Advance for task %v", e.TaskID)
	}
	return fmt.Sprintf("wheel: recursive call to Advance for task %v (%s)", e.TaskID, e.Name)
}

// RegistryMutationError is the panic value raised when the registry is
// mutated in a way that would violate its address-stability or
// iteration-safety invariants (inserting while an iterator is live, or
// removing while any borrow or iterator is live).
type RegistryMutationError struct {
	Op      string
	Message string
}

// Error implements the error interface.
func (e *RegistryMutationError) Error() string {
	return fmt.Sprintf("wheel: illegal registry mutation during %s: %s", e.Op, e.Message)
}

// WrapError wraps an error with a message and cause chain, matching the
// teacher's convenience helper for building descriptive, unwrappable errors.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}
