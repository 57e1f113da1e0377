package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimit(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})
	require.NoError(t, c.AcquireMemory(60))
	assert.ErrorIs(t, c.AcquireMemory(50), ErrMemoryLimitExceeded)
	assert.Equal(t, int64(60), c.MemoryUsage())

	c.ReleaseMemory(60)
	require.NoError(t, c.AcquireMemory(100))
	assert.Equal(t, int64(100), c.MemoryLimit())
}

func TestUnlimited(t *testing.T) {
	c := NewController(Config{})
	require.NoError(t, c.AcquireMemory(1<<40))
	require.NoError(t, c.AcquireIO(context.Background(), 1<<20))
	assert.Equal(t, int64(1<<20), c.IOBytes())

	var nilc *Controller
	assert.NoError(t, nilc.AcquireMemory(10))
	assert.NoError(t, nilc.AcquireIO(context.Background(), 10))
	nilc.ReleaseMemory(10)
	assert.Zero(t, nilc.MemoryUsage())
	assert.Zero(t, nilc.IOBytes())
}

func TestIOPacing(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1000})
	start := time.Now()
	// The first 1000 bytes are the initial burst; the next 200 must wait.
	require.NoError(t, c.AcquireIO(context.Background(), 1200))
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestIOCancel(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 10})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.AcquireIO(ctx, 100))
}
