// Package limiter governs how often a billable operation may run within a
// rolling one-minute window.
package limiter

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"goflare.io/slopscan/internal/utils"
)

const (
	// Window 滑動窗口長度
	Window = 60 * time.Second

	DefaultMaxPerMinute = 30
)

// ErrInvalidRate is returned for a non-positive per-minute limit.
var ErrInvalidRate = errors.New("max requests per minute must be at least 1")

// SlidingWindow admits at most max requests in any trailing Window.
type SlidingWindow struct {
	max    int
	now    utils.Clock
	logger *zap.Logger

	mu       sync.Mutex
	requests []time.Time // ascending admission times
}

// NewSlidingWindow creates a limiter. A nil clock uses time.Now and a nil
// logger disables logging.
func NewSlidingWindow(maxPerMinute int, clock utils.Clock, logger *zap.Logger) (*SlidingWindow, error) {
	if maxPerMinute < 1 {
		return nil, ErrInvalidRate
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlidingWindow{
		max:      maxPerMinute,
		now:      utils.ClockOrDefault(clock),
		logger:   logger,
		requests: make([]time.Time, 0, maxPerMinute),
	}, nil
}

// TryAcquire records a request and returns true if the window has room,
// otherwise it returns false without recording anything.
func (w *SlidingWindow) TryAcquire() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.prune(now)

	if len(w.requests) >= w.max {
		w.logger.Warn("Rate limit reached",
			zap.Int("requests", len(w.requests)),
			zap.Int("max_per_minute", w.max))
		return false
	}

	w.requests = append(w.requests, now)
	return true
}

// TimeUntilReset returns how long until the oldest request leaves the window.
func (w *SlidingWindow) TimeUntilReset() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.requests) == 0 {
		return 0
	}
	return max(0, w.requests[0].Add(Window).Sub(w.now()))
}

// Count 返回窗口內的請求數
func (w *SlidingWindow) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(w.now())
	return len(w.requests)
}

// Max 返回每分鐘上限
func (w *SlidingWindow) Max() int {
	return w.max
}

// Reset 清空窗口
func (w *SlidingWindow) Reset() {
	w.mu.Lock()
	w.requests = w.requests[:0]
	w.mu.Unlock()
}

// prune drops requests at least Window old. Callers hold w.mu.
func (w *SlidingWindow) prune(now time.Time) {
	i := 0
	for i < len(w.requests) && now.Sub(w.requests[i]) >= Window {
		i++
	}
	if i > 0 {
		w.requests = append(w.requests[:0], w.requests[i:]...)
	}
}
