package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/reperio/internal/common"
)

func TestPool_RunsAllJobs(t *testing.T) {
	pool := NewPool(3, common.GetLogger())
	pool.Start()

	var completed int64
	for i := 0; i < 20; i++ {
		err := pool.Submit(func(ctx context.Context) error {
			atomic.AddInt64(&completed, 1)
			return nil
		})
		require.NoError(t, err)
	}
	pool.Wait()

	assert.Equal(t, int64(20), atomic.LoadInt64(&completed))
	assert.Empty(t, pool.Errors())
}

func TestPool_BoundedConcurrency(t *testing.T) {
	pool := NewPool(2, common.GetLogger())
	pool.Start()

	var mu sync.Mutex
	inFlight, peak := 0, 0
	for i := 0; i < 10; i++ {
		err := pool.Submit(func(ctx context.Context) error {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			inFlight--
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
	}
	pool.Wait()

	assert.LessOrEqual(t, peak, 2)
	assert.Greater(t, peak, 0)
}

func TestPool_FailedJobDoesNotStopOthers(t *testing.T) {
	pool := NewPool(2, common.GetLogger())
	pool.Start()

	var completed int64
	for i := 0; i < 6; i++ {
		i := i
		err := pool.Submit(func(ctx context.Context) error {
			if i%2 == 0 {
				return errors.New("simulated pipeline failure")
			}
			atomic.AddInt64(&completed, 1)
			return nil
		})
		require.NoError(t, err)
	}
	pool.Wait()

	assert.Equal(t, int64(3), atomic.LoadInt64(&completed))
	assert.Len(t, pool.Errors(), 3)
}

func TestPool_ShutdownCancelsJobContext(t *testing.T) {
	pool := NewPool(1, common.GetLogger())
	pool.Start()

	started := make(chan struct{})
	cancelled := make(chan struct{})
	err := pool.Submit(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})
	require.NoError(t, err)

	<-started
	pool.Shutdown()

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("job context was not cancelled on shutdown")
	}
}

func TestPool_DefaultWorkerCount(t *testing.T) {
	pool := NewPool(0, common.GetLogger())
	assert.Equal(t, 4, pool.maxWorkers)
}
