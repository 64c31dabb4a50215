package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper drops expired entries from an in-process store.
type Sweeper interface {
	Sweep() int
}

// StartSweeper runs s every interval until ctx ends. It returns a channel
// closed once the loop has exited.
func StartSweeper(ctx context.Context, s Sweeper, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if s == nil || interval <= 0 {
		close(done)
		return done
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.Sweep(); removed > 0 {
					logger.Debug("rate limit windows swept", zap.Int("removed", removed))
				}
			}
		}
	}()
	return done
}
