package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shakilemon73/Tni-news-sub001/internal/clock"
)

func TestAllowPerKey(t *testing.T) {
	t.Parallel()

	clk := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	l := New(Config{RPS: 1, Burst: 2, Clock: clk})

	require.True(t, l.Allow("10.0.0.1"))
	require.True(t, l.Allow("10.0.0.1"))
	require.False(t, l.Allow("10.0.0.1"))
	require.True(t, l.Allow("10.0.0.2"), "keys are independent")

	clk.Advance(time.Second)
	require.True(t, l.Allow("10.0.0.1"))
	require.False(t, l.Allow("10.0.0.1"))
}

func TestDisabledLimiterAlwaysAllows(t *testing.T) {
	t.Parallel()

	l := New(Config{})
	for range 100 {
		require.True(t, l.Allow("k"))
	}
	require.Zero(t, l.Len())

	var nilLimiter *Limiter
	require.True(t, nilLimiter.Allow("k"))
}

func TestIdleKeysAreSwept(t *testing.T) {
	t.Parallel()

	clk := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	l := New(Config{RPS: 5, Burst: 1, Clock: clk})

	l.Allow("a")
	l.Allow("b")
	require.Equal(t, 2, l.Len())

	clk.Advance(idleAfter)
	l.Allow("c")
	require.Equal(t, 1, l.Len())
}
