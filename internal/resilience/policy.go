package resilience

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/terra/internal/config"
)

// Policy combines retries with a circuit breaker. Each attempt passes
// through the breaker; ErrCircuitOpen is not transient, so an opening
// circuit stops the remaining retries.
type Policy struct {
	Retry   RetryConfig
	Breaker *CircuitBreaker
}

// NewPolicy builds a Policy for the named service from SoilGrids settings.
// Zero values fall back to the defaults.
func NewPolicy(service string, cfg config.SoilGridsConfig) *Policy {
	retry := DefaultRetryConfig()
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialBackoffMS > 0 {
		retry.InitialBackoff = time.Duration(cfg.InitialBackoffMS) * time.Millisecond
	}
	retry.OnRetry = RetryLogger(service, "query")

	cb := DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold > 0 {
		cb.FailureThreshold = cfg.FailureThreshold
	}
	if cfg.ResetTimeoutSecs > 0 {
		cb.ResetTimeout = time.Duration(cfg.ResetTimeoutSecs) * time.Second
	}
	// Only upstream trouble counts against the service.
	cb.ShouldTrip = IsTransient
	cb.OnStateChange = func(from, to CircuitState) {
		zap.L().Warn("resilience: circuit state changed",
			zap.String("service", service),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
	}

	return &Policy{Retry: retry, Breaker: NewCircuitBreaker(cb)}
}

// Call runs fn under p's breaker and retry settings.
func Call[T any](ctx context.Context, p *Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	return DoVal(ctx, p.Retry, func(ctx context.Context) (T, error) {
		return ExecuteVal(ctx, p.Breaker, fn)
	})
}
