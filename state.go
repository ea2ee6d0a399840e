package wheel

import "sync/atomic"

// lifecycleGate is a single cache-line-padded atomic word combining a
// single-owner lock bit with a generation counter, used by
// [StaticWheelDef] to gate Lock/TryLock and hand out a generation number
// atomically with each successful lock, so a [StaticHandle] obtained under
// a previous lock cycle can tell it has gone stale without a separate
// load racing the lock transition.
//
// It is a pure-CAS, mutex-free state word with padding on both sides to
// prevent false sharing with neighboring fields.
type lifecycleGate struct { // betteralign:ignore
	_ [64]byte      // cache line padding (before value)
	v atomic.Uint64 // lock bit (63) | generation (0-62)
	_ [56]byte      // pad to complete cache line
}

const gateLockBit = uint64(1) << 63

// newLifecycleGate returns a gate in the unlocked state, primed so the
// first successful lock produces generation 0.
func newLifecycleGate() *lifecycleGate {
	g := &lifecycleGate{}
	g.v.Store(^uint64(0) &^ gateLockBit)
	return g
}

// tryLock attempts to claim the gate, returning the new generation and
// true on success, or (0, false) if already locked.
func (g *lifecycleGate) tryLock() (generation uint64, ok bool) {
	for {
		cur := g.v.Load()
		if cur&gateLockBit != 0 {
			return 0, false
		}
		gen := (cur + 1) &^ gateLockBit
		if g.v.CompareAndSwap(cur, gen|gateLockBit) {
			return gen, true
		}
	}
}

// unlock releases the gate, leaving the generation counter untouched until
// the next tryLock.
func (g *lifecycleGate) unlock() {
	for {
		cur := g.v.Load()
		if g.v.CompareAndSwap(cur, cur&^gateLockBit) {
			return
		}
	}
}

func (g *lifecycleGate) isLocked() bool { return g.v.Load()&gateLockBit != 0 }

func (g *lifecycleGate) generation() uint64 { return g.v.Load() &^ gateLockBit }
