// Package distance resolves an origin/destination ZIP pair into routed
// miles and a transit estimate. Results are cached per ZIP pair for the
// process lifetime and concurrent lookups for the same pair are coalesced
// into a single provider call.
package distance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/swiftfreight/quote-engine/internal/models"
	"github.com/swiftfreight/quote-engine/internal/ratelimit"
	"github.com/swiftfreight/quote-engine/internal/zipdb"
)

var (
	ErrDistanceUnavailable = errors.New("distance unavailable")
	ErrProviderTimeout     = errors.New("routing provider timeout")
)

// Provider is the external routing collaborator. Implementations return
// routed miles and driving duration; transit days are derived here.
type Provider interface {
	Route(ctx context.Context, origin, dest zipdb.Info) (models.RouteDistance, error)
}

const (
	defaultMaxRetries  = 2
	defaultBackoffBase = 500 * time.Millisecond
	defaultJitterMax   = 100 * time.Millisecond

	// Estimate used when a ZIP is well-formed but absent from the
	// reference set. Such requests always carry an unresolvable_zip
	// warning and end up in human review, so the figure only has to be
	// plausible, not accurate.
	unresolvedMiles = 1000.0
	unresolvedHours = 16.0
)

type Resolver struct {
	provider Provider
	limiter  *ratelimit.Limiter
	logger   zerolog.Logger

	maxRetries  int
	backoffBase time.Duration
	jitterMax   time.Duration

	mu    sync.RWMutex
	cache map[string]models.RouteDistance
	group singleflight.Group
}

func NewResolver(provider Provider, limiter *ratelimit.Limiter, logger zerolog.Logger) *Resolver {
	return &Resolver{
		provider:    provider,
		limiter:     limiter,
		logger:      logger,
		maxRetries:  defaultMaxRetries,
		backoffBase: defaultBackoffBase,
		jitterMax:   defaultJitterMax,
		cache:       map[string]models.RouteDistance{},
	}
}

// Resolve returns the routed distance for a ZIP pair, from cache when
// possible. Concurrent callers for the same pair share one provider call
// and, on failure, the same error.
func (r *Resolver) Resolve(ctx context.Context, originZip, destZip string) (models.RouteDistance, error) {
	key := originZip + "-" + destZip

	r.mu.RLock()
	cached, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	origin, originOK := zipdb.Lookup(originZip)
	dest, destOK := zipdb.Lookup(destZip)
	if !originOK || !destOK {
		est := models.RouteDistance{Miles: unresolvedMiles, DurationHours: unresolvedHours}
		est.TransitDays = transitDays(est)
		return est, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		d, err := r.fetch(ctx, origin, dest)
		if err != nil {
			return nil, err
		}
		d.TransitDays = transitDays(d)
		r.mu.Lock()
		r.cache[key] = d
		r.mu.Unlock()
		return d, nil
	})
	if err != nil {
		return models.RouteDistance{}, err
	}
	return v.(models.RouteDistance), nil
}

func (r *Resolver) fetch(ctx context.Context, origin, dest zipdb.Info) (models.RouteDistance, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := r.backoffBase * time.Duration(1<<(attempt-1))
			if r.jitterMax > 0 {
				backoff += time.Duration(rand.Int63n(int64(r.jitterMax)))
			}
			select {
			case <-ctx.Done():
				return models.RouteDistance{}, fmt.Errorf("%w: %v", ErrProviderTimeout, ctx.Err())
			case <-time.After(backoff):
			}
		}

		if err := r.limiter.AcquireWait(ctx, "routing"); err != nil {
			return models.RouteDistance{}, err
		}

		d, err := r.provider.Route(ctx, origin, dest)
		if err == nil && d.Miles <= 0 {
			// A zero or negative distance is a provider fault, never a
			// valid value.
			err = fmt.Errorf("provider returned non-positive distance %.2f", d.Miles)
		}
		if err == nil {
			return d, nil
		}
		lastErr = err
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return models.RouteDistance{}, fmt.Errorf("%w: %v", ErrProviderTimeout, err)
		}
		r.logger.Warn().Err(err).Int("attempt", attempt+1).
			Str("origin", origin.City).Str("destination", dest.City).
			Msg("routing provider call failed")
	}
	return models.RouteDistance{}, fmt.Errorf("%w: %v", ErrDistanceUnavailable, lastErr)
}

// transitDays derives business transit days: eight driving hours per day
// when the provider reported a duration, 500 miles per day otherwise.
// Clamped to 1..7.
func transitDays(d models.RouteDistance) int {
	var days int
	if d.DurationHours > 0 {
		days = int(math.Ceil(d.DurationHours / 8))
	} else {
		days = int(math.Ceil(d.Miles / 500))
	}
	if days < 1 {
		days = 1
	}
	if days > 7 {
		days = 7
	}
	return days
}
