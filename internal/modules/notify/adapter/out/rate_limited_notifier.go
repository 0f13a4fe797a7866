package out

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"staywithme/internal/modules/notify/domain"
	notifyout "staywithme/internal/modules/notify/port/out"
	"staywithme/internal/platform/clock"
)

const NonUrgentInterval = 30 * time.Second

// RateLimitedNotifier lets at most one non-urgent notification through per
// interval. Urgent notifications always pass and do not consume the budget.
type RateLimitedNotifier struct {
	next    notifyout.Notifier
	clock   clock.Clock
	mu      sync.Mutex
	limiter *rate.Limiter
}

func NewRateLimitedNotifier(next notifyout.Notifier, clk clock.Clock, interval time.Duration) notifyout.Notifier {
	if interval <= 0 {
		interval = NonUrgentInterval
	}
	return &RateLimitedNotifier{
		next:    next,
		clock:   clk,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (n *RateLimitedNotifier) Show(ctx context.Context, notification domain.Notification) error {
	if !notification.Urgent {
		n.mu.Lock()
		allowed := n.limiter.AllowN(n.clock.Now(), 1)
		n.mu.Unlock()
		if !allowed {
			return domain.ErrRateLimited
		}
	}
	return n.next.Show(ctx, notification)
}
