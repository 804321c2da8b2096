package fifo

import (
	"math"

	"go.uber.org/atomic"

	"goflare.io/slopscan/models"
)

// Metrics 定義快取指標統計
type Metrics struct {
	Hits        atomic.Int64
	Misses      atomic.Int64
	Evictions   atomic.Int64
	Expirations atomic.Int64
	Collisions  atomic.Int64
}

// Snapshot copies the counters.
func (m *Metrics) Snapshot() models.CacheMetrics {
	return models.CacheMetrics{
		Hits:        m.Hits.Load(),
		Misses:      m.Misses.Load(),
		Evictions:   m.Evictions.Load(),
		Expirations: m.Expirations.Load(),
		Collisions:  m.Collisions.Load(),
	}
}

// HitRate returns hits/(hits+misses) as a rounded percentage, 0 without lookups.
func (m *Metrics) HitRate() int {
	hits := m.Hits.Load()
	total := hits + m.Misses.Load()
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(hits) / float64(total) * 100))
}

func (m *Metrics) resetLookups() {
	m.Hits.Store(0)
	m.Misses.Store(0)
}
