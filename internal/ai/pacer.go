package ai

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out successive provider calls so a multi-page document does not
// burst through the account's rate limit.
type Pacer interface {
	Wait(ctx context.Context) error
}

type limiterPacer struct {
	limiter *rate.Limiter
}

// NewPacer allows one call per interval, with a burst of one. A zero or
// negative interval disables pacing.
func NewPacer(interval time.Duration) Pacer {
	if interval <= 0 {
		return limiterPacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return limiterPacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (p limiterPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
