package service

import (
	"go.uber.org/atomic"

	"goflare.io/slopscan/models"
)

// counters are the running statistics. They change only under Service.mu held
// shared, and are zeroed under Service.mu held exclusively.
type counters struct {
	totalAnalyzed   atomic.Int64
	aiDetected      atomic.Int64
	humanDetected   atomic.Int64
	errors          atomic.Int64
	localDetections atomic.Int64
	apiCalls        atomic.Int64
}

func (c *counters) zero() {
	c.totalAnalyzed.Store(0)
	c.aiDetected.Store(0)
	c.humanDetected.Store(0)
	c.errors.Store(0)
	c.localDetections.Store(0)
	c.apiCalls.Store(0)
}

// Stats returns a snapshot of the running statistics together with cache and
// limiter occupancy.
func (s *Service) Stats() models.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.Stats{
		TotalAnalyzed:   s.stats.totalAnalyzed.Load(),
		AIDetected:      s.stats.aiDetected.Load(),
		HumanDetected:   s.stats.humanDetected.Load(),
		Errors:          s.stats.errors.Load(),
		LocalDetections: s.stats.localDetections.Load(),
		APICalls:        s.stats.apiCalls.Load(),
		CacheHitRate:    s.cache.HitRate(),
		CacheSize:       s.cache.Len(),
		Limiter: models.LimiterStatus{
			RequestsThisWindow: s.limiter.Count(),
			MaxPerMinute:       s.limiter.Max(),
			MsUntilReset:       s.limiter.TimeUntilReset().Milliseconds(),
		},
	}
}

// Reset clears the cache and zeroes the statistics. In-flight classifications
// finish before the reset is applied.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Clear()
	s.stats.zero()
	s.logger.Info("Detector reset completed")
}
