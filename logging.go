package wheel

import "github.com/joeycumines/logiface"

// Logger is the structured-logging sink a [Wheel] writes scheduler
// lifecycle events to: spawn, cancel, suspend and resume (Debug, from
// [Handle]) and AllSuspended termination (Warning, from [Wheel.Advance] and
// [StaticWheel.Advance]). Parking, waking, panics and static-variant
// lock/generation changes are not logged. A nil Logger (the default; see
// [WithLogger]) disables logging entirely: each helper below returns early
// on a nil Logger, so call sites need no check of their own.
//
// Grounded on the sql/export package's *logiface.Logger[logiface.Event]
// field idiom: a plain struct field of this type, built with logiface's own
// level-gated Builder so that argument construction for a disabled level is
// skipped entirely.
type Logger = *logiface.Logger[logiface.Event]

func logDebug(l Logger, msg string) {
	if l == nil {
		return
	}
	l.Debug().Log(msg)
}

func logDebugID(l Logger, msg string, id TaskID) {
	if l == nil {
		return
	}
	if b := l.Debug(); b.Enabled() {
		b.Int64(`task`, int64(id)).Log(msg)
	}
}

func logWarning(l Logger, msg string) {
	if l == nil {
		return
	}
	l.Warning().Log(msg)
}

func logWarningN(l Logger, msg string, n int) {
	if l == nil {
		return
	}
	if b := l.Warning(); b.Enabled() {
		b.Int(`count`, n).Log(msg)
	}
}

func logErr(l Logger, msg string, recovered any) {
	if l == nil {
		return
	}
	if b := l.Err(); b.Enabled() {
		b.Any(`recovered`, recovered).Log(msg)
	}
}
