package ratelimiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

type RateLimiter interface {
	TakeToken() bool
	Wait(ctx context.Context) error
}

// TokenBucket paces outbound requests: capacity is the burst size and
// interval the minimum spacing between refilled tokens.
type TokenBucket struct {
	limiter *rate.Limiter
}

func NewTokenBucket(capacity int, interval time.Duration) *TokenBucket {
	if capacity <= 0 {
		capacity = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &TokenBucket{limiter: rate.NewLimiter(limit, capacity)}
}

// NewPerSecond builds a bucket refilling perSecond tokens each second.
func NewPerSecond(capacity, perSecond int) *TokenBucket {
	if perSecond <= 0 {
		perSecond = 1
	}
	return NewTokenBucket(capacity, time.Second/time.Duration(perSecond))
}

func (tb *TokenBucket) TakeToken() bool {
	return tb.limiter.Allow()
}

// Wait blocks until a token is available or ctx is done.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.limiter.Wait(ctx)
}
