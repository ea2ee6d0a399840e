package wheel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnordered_CountdownCompletes(t *testing.T) {
	w := NewWheel(WithUnorderedEngine())
	h := w.Handle()
	var log []string
	_, err := h.Spawn(TaskParams{}, &countdown{remaining: 3, name: "a", log: &log})
	require.NoError(t, err)

	drive(t, w)
	require.Equal(t, []string{"a", "a", "a"}, log)
}

func TestUnordered_ScansInAscendingKeyOrder(t *testing.T) {
	w := NewWheel(WithUnorderedEngine())
	h := w.Handle()
	var log []string
	idA, _ := h.Spawn(TaskParams{}, &countdown{remaining: 1, name: "a", log: &log})
	idB, _ := h.Spawn(TaskParams{}, &countdown{remaining: 2, name: "b", log: &log})
	_ = idA
	_ = idB

	drive(t, w)
	require.Equal(t, []string{"a", "b", "b"}, log)
}

func TestUnordered_AllSuspendedError(t *testing.T) {
	w := NewWheel(WithUnorderedEngine())
	h := w.Handle()
	var log []string
	id, _ := h.Spawn(TaskParams{}, &countdown{remaining: 5, name: "a", log: &log})
	require.True(t, h.Suspend(id))

	cx := NewContext(NoopWaker{})
	done, err := w.Advance(cx)
	require.False(t, done)
	var allSuspended *AllSuspendedError
	require.ErrorAs(t, err, &allSuspended)
}

func TestUnordered_CancelRemovesBeforeAdvance(t *testing.T) {
	w := NewWheel(WithUnorderedEngine())
	h := w.Handle()
	var log []string
	id, _ := h.Spawn(TaskParams{}, &countdown{remaining: 100, name: "a", log: &log})
	require.True(t, h.Cancel(id))

	cx := NewContext(NoopWaker{})
	done, err := w.Advance(cx)
	require.NoError(t, err)
	require.True(t, done)
	require.Empty(t, log)
}

func TestUnordered_GetByNameAndWithName(t *testing.T) {
	w := NewWheel(WithUnorderedEngine())
	h := w.Handle()
	var log []string
	id, _ := h.Spawn(TaskParams{Name: "worker"}, &countdown{remaining: 1, name: "worker", log: &log})

	found, ok := h.GetByName("worker")
	require.True(t, ok)
	require.Equal(t, id, found)

	name, ok := WithName(h, id, func(n string) string { return n })
	require.True(t, ok)
	require.Equal(t, "worker", name)

	_, ok = h.GetByName("nonexistent")
	require.False(t, ok)
}
