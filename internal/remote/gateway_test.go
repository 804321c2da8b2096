package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap/zaptest"

	"goflare.io/slopscan/internal/limiter"
	"goflare.io/slopscan/internal/retrier"
)

var errUpstream = errors.New("upstream unavailable")

func newGateway(t *testing.T, d Detector, maxPerMinute int, settings gobreaker.Settings) *Gateway {
	t.Helper()
	lim, err := limiter.NewSlidingWindow(maxPerMinute, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	r, err := retrier.New([]time.Duration{0, 0}, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewGateway(d, lim, settings, r, zaptest.NewLogger(t))
}

func TestGatewaySuccess(t *testing.T) {
	d := DetectorFunc(func(ctx context.Context, text string) (Verdict, error) {
		return Verdict{Score: 0.91}, nil
	})
	g := newGateway(t, d, 5, gobreaker.Settings{Name: "test"})

	v, err := g.Detect(context.Background(), "text")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if v.Score != 0.91 {
		t.Errorf("Verdict = %+v", v)
	}
}

func TestGatewayRateLimited(t *testing.T) {
	calls := 0
	d := DetectorFunc(func(ctx context.Context, text string) (Verdict, error) {
		calls++
		return Verdict{}, nil
	})
	g := newGateway(t, d, 2, gobreaker.Settings{Name: "test"})

	for i := 0; i < 2; i++ {
		if _, err := g.Detect(context.Background(), "text"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if _, err := g.Detect(context.Background(), "text"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
	if calls != 2 {
		t.Errorf("detector called %d times, want 2", calls)
	}
}

func TestGatewayRetriesTemporaryErrors(t *testing.T) {
	calls := 0
	d := DetectorFunc(func(ctx context.Context, text string) (Verdict, error) {
		calls++
		if calls < 3 {
			return Verdict{}, retrier.MarkTemporary(errUpstream)
		}
		return Verdict{Score: 0.2}, nil
	})
	g := newGateway(t, d, 5, gobreaker.Settings{Name: "test"})

	v, err := g.Detect(context.Background(), "text")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if calls != 3 || v.Score != 0.2 {
		t.Errorf("calls = %d, verdict = %+v", calls, v)
	}
}

func TestGatewayBreakerOpens(t *testing.T) {
	calls := 0
	d := DetectorFunc(func(ctx context.Context, text string) (Verdict, error) {
		calls++
		return Verdict{}, errUpstream
	})

	var opened bool
	g := newGateway(t, d, 100, gobreaker.Settings{
		Name:    "test",
		Timeout: time.Hour,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 2
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			opened = to == gobreaker.StateOpen
		},
	})

	for i := 0; i < 2; i++ {
		if _, err := g.Detect(context.Background(), "text"); !errors.Is(err, errUpstream) {
			t.Fatalf("call %d err = %v", i, err)
		}
	}
	if g.State() != gobreaker.StateOpen || !opened {
		t.Fatalf("breaker state = %v, want open", g.State())
	}

	if _, err := g.Detect(context.Background(), "text"); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("err = %v, want ErrOpenState", err)
	}
	if calls != 2 {
		t.Errorf("detector called %d times with open breaker", calls)
	}
}
