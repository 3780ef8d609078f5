package tracking

import (
	"context"
	"log/slog"
	"time"

	"github.com/BearBump/ParcelBox/internal/models"
)

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type rateLimited struct {
	next      Provider
	rl        RateLimiter
	perMinute int64
	pause     time.Duration
	now       func() time.Time
}

// RateLimited throttles calls to next with a per-minute counter. Over the limit the call
// is delayed briefly and then still made.
func RateLimited(next Provider, rl RateLimiter, perMinute int64) Provider {
	if rl == nil || perMinute <= 0 {
		return next
	}
	return &rateLimited{
		next:      next,
		rl:        rl,
		perMinute: perMinute,
		pause:     500 * time.Millisecond,
		now:       time.Now,
	}
}

func (p *rateLimited) GetTrackingData(ctx context.Context, req Request) (*models.TrackingData, error) {
	minuteKey := "rl:provider:" + p.now().UTC().Format("200601021504")
	allowed, n, err := p.rl.Allow(ctx, minuteKey, p.perMinute, 70*time.Second)
	if err != nil {
		return nil, err
	}
	if !allowed {
		slog.Warn("provider rate limit exceeded", "count", n, "limit", p.perMinute)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.pause):
		}
	}
	return p.next.GetTrackingData(ctx, req)
}
