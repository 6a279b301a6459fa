package classifier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterBurstThenWait(t *testing.T) {
	rl := NewRateLimiter(2)
	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.lastRefill = now

	assert.Zero(t, rl.take())
	assert.Zero(t, rl.take())
	assert.Equal(t, 30*time.Second, rl.take())

	now = now.Add(30 * time.Second)
	assert.Zero(t, rl.take())
}

func TestRateLimiterWaitHonoursContext(t *testing.T) {
	rl := NewRateLimiter(1)
	require.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, rl.Wait(ctx), context.DeadlineExceeded)
}
