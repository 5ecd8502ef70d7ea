package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pjcs50/hotel-management-snapshot-sub002/internal/apperr"
)

func TestGateTimeout(t *testing.T) {
	g := NewGate(50 * time.Millisecond)
	ctx := context.Background()

	held, err := g.Acquire(ctx, 1)
	require.NoError(t, err)
	assert.True(t, held.Holds(1))
	assert.False(t, held.Holds(2))

	_, err = g.Acquire(ctx, 1)
	require.Error(t, err)
	assert.True(t, apperr.Retryable(err))

	other, err := g.Acquire(ctx, 2)
	require.NoError(t, err)
	other.Release()

	held.Release()
	held.Release()

	again, err := g.Acquire(ctx, 1)
	require.NoError(t, err)
	again.Release()
}

func TestGateContextCancel(t *testing.T) {
	g := NewGate(time.Second)

	held, err := g.Acquire(context.Background(), 1)
	require.NoError(t, err)
	defer held.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = g.Acquire(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, apperr.Retryable(err))
}

func TestGateMultipleRoomsReleasedOnFailure(t *testing.T) {
	g := NewGate(50 * time.Millisecond)
	ctx := context.Background()

	held, err := g.Acquire(ctx, 3)
	require.NoError(t, err)

	_, err = g.Acquire(ctx, 3, 1, 1)
	require.Error(t, err)

	free, err := g.Acquire(ctx, 1)
	require.NoError(t, err, "room 1 must be released after a partial acquire")
	free.Release()
	held.Release()

	both, err := g.Acquire(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, both.Holds(1))
	assert.True(t, both.Holds(2))
	both.Release()
}

func TestGateMutualExclusion(t *testing.T) {
	g := NewGate(time.Second)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := g.Acquire(ctx, 1)
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			defer p.Release()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}
