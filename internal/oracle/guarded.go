package oracle

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/GiovanniGatti/trutheval/internal/resilience"
)

// GuardConfig bounds the load a run puts on a provider.
type GuardConfig struct {
	// RateLimit is the sustained request rate per second. Zero disables
	// throttling.
	RateLimit float64
	Retry     resilience.RetryConfig
	Breaker   resilience.BreakerConfig
}

// Guarded throttles, retries and circuit-breaks calls to a Completer.
type Guarded struct {
	name    string
	next    Completer
	limiter *rate.Limiter
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
}

// Guard wraps next. name identifies the provider in logs.
func Guard(name string, next Completer, cfg GuardConfig) *Guarded {
	g := &Guarded{
		name:    name,
		next:    next,
		breaker: resilience.NewBreaker(name, cfg.Breaker),
		retry:   cfg.Retry,
	}
	if cfg.RateLimit > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	if g.retry.OnRetry == nil {
		g.retry.OnRetry = resilience.LogRetry(name)
	}
	return g
}

// Complete implements Completer.
func (g *Guarded) Complete(ctx context.Context, messages []Message) (Completion, error) {
	out, err := resilience.Retry(ctx, g.retry, func(ctx context.Context) (Completion, error) {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return Completion{}, eris.Wrap(err, "oracle: rate limit wait")
			}
		}
		return resilience.Guard(ctx, g.breaker, func(ctx context.Context) (Completion, error) {
			return g.next.Complete(ctx, messages)
		})
	})
	if err != nil {
		return Completion{}, eris.Wrapf(err, "oracle: %s query", g.name)
	}
	return out, nil
}
