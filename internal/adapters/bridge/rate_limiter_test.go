package bridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowAndForget(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	require.True(t, rl.Allow("a"))
	require.True(t, rl.Allow("a"))
	require.False(t, rl.Allow("a"))
	require.True(t, rl.Allow("b"))

	rl.Forget("a")
	require.True(t, rl.Allow("a"))
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)

	require.True(t, rl.Allow("a"))
	require.False(t, rl.Allow("a"))
	require.Eventually(t, func() bool { return rl.Allow("a") }, time.Second, 5*time.Millisecond)
}
