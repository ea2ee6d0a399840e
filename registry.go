package wheel

// TaskID identifies a spawned task for the lifetime of its registry entry.
// IDs are reused once a task is reaped (the slab's free-list discipline), so
// a TaskID must never be compared for identity across a cancel/respawn
// cycle; callers that need that are expected to use [WithName] /
// [Handle.GetByName] instead.
type TaskID = slabKey

// Registry owns the slab of task cells and enforces a borrow/iterate
// discipline: insert is forbidden while any iteration is in progress, and
// remove is forbidden while any borrow (a live *taskCell obtained via get,
// not yet released) is outstanding. Both counters are maintained
// unconditionally in every build, always validating rather than gating
// safety checks behind a debug build tag.
type Registry struct {
	slab        *slab[taskCell]
	iterating   int
	borrowed    int
	suspendedN  int
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{slab: newSlab[taskCell]()}
}

// Len returns the number of live task cells.
func (r *Registry) Len() int { return r.slab.Len() }

// SuspendedCount returns the number of cells currently in the Suspended
// reason, maintained incrementally by suspend/resume/cancel/insert/remove
// so [AllSuspendedError] can be constructed without a scan.
func (r *Registry) SuspendedCount() int { return r.suspendedN }

// Insert adds a new task cell and returns its TaskID. Panics with
// [RegistryMutationError] if called while an iteration (Each) is in
// progress.
func (r *Registry) Insert(cell taskCell) (TaskID, error) {
	if r.iterating > 0 {
		panic(&RegistryMutationError{Op: "Insert", Message: "registry is being iterated"})
	}
	id, err := r.slab.Insert(cell)
	if err != nil {
		return 0, err
	}
	cellPtr := r.slab.Get(id)
	cellPtr.id = id
	if cellPtr.reason == reasonSuspended {
		r.suspendedN++
	}
	return id, nil
}

// Remove deletes the task cell at id, returning it and true if present.
// Panics with [RegistryMutationError] if any borrow is outstanding
// (between a Borrow call and its release).
func (r *Registry) Remove(id TaskID) (taskCell, bool) {
	if r.borrowed > 0 {
		panic(&RegistryMutationError{Op: "Remove", Message: "a borrow is outstanding"})
	}
	cell, ok := r.slab.Remove(id)
	if ok && cell.reason == reasonSuspended {
		r.suspendedN--
	}
	return cell, ok
}

// Borrow returns a pointer to the task cell at id, or nil. The pointer is
// stable (the slab never relocates occupied entries) but callers must call
// Release before any Remove can proceed; Borrow/Release calls must nest
// like a stack discipline within a single beat.
func (r *Registry) Borrow(id TaskID) *taskCell {
	cell := r.slab.Get(id)
	if cell == nil {
		return nil
	}
	r.borrowed++
	return cell
}

// Release ends a Borrow obtained from the same Registry.
func (r *Registry) Release() {
	if r.borrowed == 0 {
		panic(&RegistryMutationError{Op: "Release", Message: "no outstanding borrow"})
	}
	r.borrowed--
}

// Each iterates every occupied cell in ascending TaskID order, calling fn
// with each cell's id and a pointer to it. fn must not Insert into this
// Registry (enforced: Insert panics for the duration of Each); fn may
// Borrow/Release and may Remove other cells so long as no borrow from this
// same Each call is still outstanding when it does so.
func (r *Registry) Each(fn func(id TaskID, cell *taskCell) bool) {
	r.iterating++
	defer func() { r.iterating-- }()
	r.slab.Each(fn)
}

// markSuspended / markResumed / markCancelled keep suspendedN in sync with
// a cell's reason transitions driven from handle.go / engine.go /
// unordered.go, so AllSuspendedError never needs an O(n) rescan.
func (r *Registry) markSuspended(cell *taskCell) {
	if cell.reason != reasonSuspended {
		cell.reason = reasonSuspended
		r.suspendedN++
	}
}

func (r *Registry) markResumed(cell *taskCell) {
	if cell.reason == reasonSuspended {
		r.suspendedN--
	}
	cell.reason = reasonActive
}

func (r *Registry) markCancelled(cell *taskCell) {
	if cell.reason == reasonSuspended {
		r.suspendedN--
	}
	cell.reason = reasonCancelled
}

// removeCancelled reaps every cell presently marked Cancelled. Used by the
// round-robin engine's scan-registry sweep to find cells that no runnable
// queue or deferred-list walk would otherwise ever visit (a task cancelled
// while Suspended).
func (r *Registry) removeCancelled() {
	var doomed []TaskID
	r.Each(func(id TaskID, cell *taskCell) bool {
		if cell.reason == reasonCancelled {
			doomed = append(doomed, id)
		}
		return true
	})
	for _, id := range doomed {
		r.Remove(id)
	}
}
