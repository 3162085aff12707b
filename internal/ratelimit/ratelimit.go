// Package ratelimit guards calls to external providers (routing, LLM,
// outbound mail) with independent per-provider token buckets.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// BucketConfig describes one provider bucket: burst capacity and the
// steady refill rate in tokens per second.
type BucketConfig struct {
	Capacity     int     `json:"capacity" mapstructure:"capacity"`
	RefillPerSec float64 `json:"refill_per_sec" mapstructure:"refill_per_sec"`
}

// Blocked reports that no token is available for a provider. Callers may
// wait RetryAfter once or fail the enclosing operation as transient.
type Blocked struct {
	Provider   string
	RetryAfter time.Duration
}

func (b Blocked) Error() string {
	return fmt.Sprintf("rate limited for provider %q, retry after %s", b.Provider, b.RetryAfter)
}

// Limiter owns all provider buckets. No other component mutates them.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*rate.Limiter
	configs  map[string]BucketConfig
	fallback BucketConfig
}

func New(configs map[string]BucketConfig, fallback BucketConfig) *Limiter {
	if fallback.Capacity <= 0 {
		fallback = BucketConfig{Capacity: 10, RefillPerSec: 1}
	}
	return &Limiter{
		buckets:  map[string]*rate.Limiter{},
		configs:  configs,
		fallback: fallback,
	}
}

func (l *Limiter) bucket(provider string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[provider]; ok {
		return b
	}
	cfg, ok := l.configs[provider]
	if !ok || cfg.Capacity <= 0 {
		cfg = l.fallback
	}
	b := rate.NewLimiter(rate.Limit(cfg.RefillPerSec), cfg.Capacity)
	l.buckets[provider] = b
	return b
}

// Acquire consumes one token from the provider's bucket, refilled lazily
// since the last call. When empty it returns Blocked with the duration
// until the next token; it never waits.
func (l *Limiter) Acquire(provider string) error {
	b := l.bucket(provider)
	res := b.Reserve()
	if !res.OK() {
		return Blocked{Provider: provider, RetryAfter: time.Second}
	}
	if delay := res.Delay(); delay > 0 {
		res.Cancel()
		return Blocked{Provider: provider, RetryAfter: delay}
	}
	return nil
}

// AcquireWait tries once, and on Blocked waits out the indicated delay a
// single time before retrying. A second block or an expired context is
// surfaced to the caller.
func (l *Limiter) AcquireWait(ctx context.Context, provider string) error {
	err := l.Acquire(provider)
	blocked, ok := err.(Blocked)
	if !ok {
		return err
	}
	if deadline, has := ctx.Deadline(); has && time.Until(deadline) < blocked.RetryAfter {
		return blocked
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(blocked.RetryAfter):
	}
	return l.Acquire(provider)
}
