package wheel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandle_CurrentTaskDuringAdvance(t *testing.T) {
	w := NewWheel()
	h := w.Handle()
	var observed TaskID
	var sawCurrent bool
	var spawnedID TaskID

	p := PollableFunc(func(cx *Context) bool {
		observed, sawCurrent = h.CurrentTask()
		return true
	})
	spawnedID, err := h.Spawn(TaskParams{}, p)
	require.NoError(t, err)

	cx := NewContext(NoopWaker{})
	w.Advance(cx)

	require.True(t, sawCurrent)
	require.Equal(t, spawnedID, observed)

	_, sawCurrent = h.CurrentTask()
	require.False(t, sawCurrent, "no task is current once Advance has returned")
}

func TestHandle_CountIncludesSuspendedAndCancelledUntilReaped(t *testing.T) {
	w := NewWheel()
	h := w.Handle()
	var log []string
	idA, _ := h.Spawn(TaskParams{}, &countdown{remaining: 1, name: "a", log: &log})
	idB, _ := h.Spawn(TaskParams{}, &countdown{remaining: 1, name: "b", log: &log})
	require.Equal(t, 2, h.Count())

	h.Suspend(idA)
	h.Cancel(idB)
	require.Equal(t, 2, h.Count(), "suspended/cancelled tasks are still registered until reaped")

	h.Resume(idA)
	drive(t, w)
	require.Equal(t, 0, h.Count())
}

func TestHandle_SpawnUnnamedHasNoName(t *testing.T) {
	w := NewWheel()
	h := w.Handle()
	id, _ := h.Spawn(TaskParams{}, PollableFunc(func(cx *Context) bool { return true }))

	_, ok := WithName(h, id, func(n string) string { return n })
	require.False(t, ok)
}

func TestHandle_DoubleCancelIsNoop(t *testing.T) {
	w := NewWheel()
	h := w.Handle()
	id, _ := h.Spawn(TaskParams{}, PollableFunc(func(cx *Context) bool { return false }))
	require.True(t, h.Cancel(id))
	require.False(t, h.Cancel(id))
}

func TestHandle_ResumeUnknownReturnsFalse(t *testing.T) {
	w := NewWheel()
	h := w.Handle()
	require.False(t, h.Resume(123))
	require.False(t, h.Suspend(123))
	require.False(t, h.Cancel(123))
}

func TestHandle_IsValid(t *testing.T) {
	w := NewWheel()
	require.True(t, w.Handle().IsValid())
}
