package cascade

import (
	"context"

	"github.com/sells-group/tariff-cli/internal/resilience"
)

// BreakerSecondary wraps a Secondary in a circuit breaker so a
// persistently failing cross-reference source short-circuits to a soft
// failure instead of burning the full timeout on every request.
type BreakerSecondary struct {
	inner   Secondary
	breaker *resilience.CircuitBreaker
}

func NewBreakerSecondary(inner Secondary, cfg resilience.CircuitBreakerConfig) *BreakerSecondary {
	return &BreakerSecondary{inner: inner, breaker: resilience.NewCircuitBreaker(cfg)}
}

func (b *BreakerSecondary) Configured() bool { return b.inner.Configured() }

func (b *BreakerSecondary) Indicators(ctx context.Context) ([]Indicator, error) {
	return resilience.ExecuteVal(ctx, b.breaker, func(ctx context.Context) ([]Indicator, error) {
		return b.inner.Indicators(ctx)
	})
}

func (b *BreakerSecondary) Rate(ctx context.Context, ind Indicator, reporter, partner, product string) (*float64, string, error) {
	type rated struct {
		rate *float64
		url  string
	}
	out, err := resilience.ExecuteVal(ctx, b.breaker, func(ctx context.Context) (rated, error) {
		rate, url, err := b.inner.Rate(ctx, ind, reporter, partner, product)
		return rated{rate: rate, url: url}, err
	})
	return out.rate, out.url, err
}
