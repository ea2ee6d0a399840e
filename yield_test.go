package wheel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOnce_PendingOnceThenReady(t *testing.T) {
	var y Once
	wakes := 0
	cx := NewContext(WakerFunc(func() { wakes++ }))

	require.False(t, y.Poll(cx))
	require.Equal(t, 1, wakes)
	require.True(t, y.Poll(cx))
	require.True(t, y.Poll(cx))
	require.Equal(t, 1, wakes, "Ready calls must not self-wake")
}

func TestOnce_Reset(t *testing.T) {
	var y Once
	cx := NewContext(NoopWaker{})
	y.Poll(cx)
	require.True(t, y.Poll(cx))
	y.Reset()
	require.False(t, y.Poll(cx))
}

func TestTimes_PendingForNCallsThenReady(t *testing.T) {
	y := NewTimes(3)
	cx := NewContext(NoopWaker{})
	require.False(t, y.Poll(cx))
	require.False(t, y.Poll(cx))
	require.False(t, y.Poll(cx))
	require.True(t, y.Poll(cx))
	require.True(t, y.Poll(cx))
}

func TestTimes_ZeroIsImmediatelyReady(t *testing.T) {
	y := NewTimes(0)
	cx := NewContext(NoopWaker{})
	require.True(t, y.Poll(cx))
}

func TestTimes_Reset(t *testing.T) {
	y := NewTimes(1)
	cx := NewContext(NoopWaker{})
	y.Poll(cx)
	require.True(t, y.Poll(cx))
	y.Reset(2)
	require.False(t, y.Poll(cx))
	require.False(t, y.Poll(cx))
	require.True(t, y.Poll(cx))
}

func TestUntil_ReadyOncePredicateTrue(t *testing.T) {
	n := 0
	y := NewUntil(func() bool { return n >= 3 })
	cx := NewContext(NoopWaker{})

	require.False(t, y.Poll(cx))
	n = 3
	require.True(t, y.Poll(cx))
}
