package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"goflare.io/slopscan/pkg/serialization"
)

// SnapshotCache is a ResultCache that can be written to and restored from a stream.
type SnapshotCache interface {
	ResultCache
	Export(enc serialization.Encoder) (int, error)
	Import(dec serialization.Decoder) (int, error)
}

// RunJanitor purges expired cache entries every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.cache.Purge(); n > 0 {
				s.logger.Debug("Purged expired cache entries", zap.Int("count", n))
			}
		case <-ctx.Done():
			s.logger.Info("Stopping cache janitor due to context cancellation")
			return
		}
	}
}

// Export writes the live cache entries to w.
func (s *Service) Export(w io.Writer, newEncoder serialization.EncoderFunc) (int, error) {
	sc, ok := s.cache.(SnapshotCache)
	if !ok {
		return 0, fmt.Errorf("cache %T does not support snapshots", s.cache)
	}
	return sc.Export(newEncoder(w))
}

// Import restores cache entries from r.
func (s *Service) Import(r io.Reader, newDecoder serialization.DecoderFunc) (int, error) {
	sc, ok := s.cache.(SnapshotCache)
	if !ok {
		return 0, fmt.Errorf("cache %T does not support snapshots", s.cache)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return sc.Import(newDecoder(r))
}
