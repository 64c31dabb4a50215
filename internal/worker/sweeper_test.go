package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/attendance-service/internal/ratelimit"
)

type countingSweeper struct {
	calls atomic.Int32
}

func (s *countingSweeper) Sweep() int {
	s.calls.Add(1)
	return 1
}

func TestStartSweeperRunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &countingSweeper{}
	done := StartSweeper(ctx, s, 5*time.Millisecond, nil)

	require.Eventually(t, func() bool { return s.calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestStartSweeperWithoutStore(t *testing.T) {
	done := StartSweeper(context.Background(), nil, time.Second, nil)
	_, open := <-done
	assert.False(t, open)
}

func TestStartSweeperAcceptsMemoryLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := StartSweeper(ctx, ratelimit.NewMemoryLimiter(10), time.Hour, nil)
	cancel()
	<-done
}
