// Package remote governs calls to an externally billed detector: every call
// must pass the rate limiter and a circuit breaker, and temporary failures are
// retried.
package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"goflare.io/slopscan/internal/limiter"
	"goflare.io/slopscan/internal/retrier"
)

// ErrRateLimited is returned when the limiter denies a call.
var ErrRateLimited = errors.New("remote detector rate limit reached")

// Verdict is what a remote detector reports for one text. Score is the
// probability in [0, 1] that the text is machine-generated; the caller applies
// its own threshold.
type Verdict struct {
	Score float64
}

// Detector classifies text using an external service. Implementations are
// supplied by the caller; slopscan ships none.
type Detector interface {
	Detect(ctx context.Context, text string) (Verdict, error)
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func(ctx context.Context, text string) (Verdict, error)

// Detect implements Detector.
func (f DetectorFunc) Detect(ctx context.Context, text string) (Verdict, error) {
	return f(ctx, text)
}

// Gateway wraps a Detector with rate limiting, circuit breaking and retry.
type Gateway struct {
	detector Detector
	limiter  *limiter.SlidingWindow
	breaker  *gobreaker.CircuitBreaker
	retrier  *retrier.Retrier
	logger   *zap.Logger
}

// NewGateway creates a Gateway. The breaker settings are used as given, except
// that OnStateChange is wrapped to log transitions.
func NewGateway(
	detector Detector,
	lim *limiter.SlidingWindow,
	settings gobreaker.Settings,
	r *retrier.Retrier,
	logger *zap.Logger,
) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}

	onChange := settings.OnStateChange
	settings.OnStateChange = func(name string, from, to gobreaker.State) {
		logger.Warn("Circuit breaker state changed",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()))
		if onChange != nil {
			onChange(name, from, to)
		}
	}

	return &Gateway{
		detector: detector,
		limiter:  lim,
		breaker:  gobreaker.NewCircuitBreaker(settings),
		retrier:  r,
		logger:   logger,
	}
}

// Detect consumes one limiter slot and calls the detector. Retries happen
// inside the breaker, so a retried call counts once.
func (g *Gateway) Detect(ctx context.Context, text string) (Verdict, error) {
	if !g.limiter.TryAcquire() {
		return Verdict{}, fmt.Errorf("%w: retry in %s", ErrRateLimited, g.limiter.TimeUntilReset().Round(time.Millisecond))
	}

	v, err := g.breaker.Execute(func() (any, error) {
		var verdict Verdict
		err := g.retrier.Run(ctx, func() error {
			var err error
			verdict, err = g.detector.Detect(ctx, text)
			return err
		})
		return verdict, err
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("remote detector failed: %w", err)
	}
	return v.(Verdict), nil
}

// State 返回熔斷器狀態
func (g *Gateway) State() gobreaker.State {
	return g.breaker.State()
}
