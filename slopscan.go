// Package slopscan classifies text as machine-generated or human-written using
// a weighted table of lexical and structural heuristics.
package slopscan

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"goflare.io/slopscan/internal/cache/fifo"
	"goflare.io/slopscan/internal/config"
	"goflare.io/slopscan/internal/features"
	"goflare.io/slopscan/internal/fingerprint"
	"goflare.io/slopscan/internal/limiter"
	"goflare.io/slopscan/internal/remote"
	"goflare.io/slopscan/internal/retrier"
	"goflare.io/slopscan/internal/scoring"
	"goflare.io/slopscan/internal/service"
	"goflare.io/slopscan/internal/utils"
	"goflare.io/slopscan/models"
)

type (
	// Option 定義初始化 Detector 的選項
	Option = config.Option

	// Verdict is the raw score a remote detector reports.
	Verdict = remote.Verdict
	// RemoteDetector is an externally billed classifier called before local patterns.
	RemoteDetector = remote.Detector
	// RemoteDetectorFunc adapts a function to RemoteDetector.
	RemoteDetectorFunc = remote.DetectorFunc

	// Contribution is one rule that fired while scoring.
	Contribution = scoring.Contribution
)

// WithLogger 設置自定義的日誌記錄器
func WithLogger(logger *zap.Logger) Option { return config.WithLogger(logger) }

// WithCacheCapacity 設置結果快取的最大項目數
func WithCacheCapacity(n int) Option { return config.WithCacheCapacity(n) }

// WithCacheTTL 設置結果快取項目的存活時間
func WithCacheTTL(ttl time.Duration) Option { return config.WithCacheTTL(ttl) }

// WithMaxRequestsPerMinute 設置遠端檢測每分鐘的呼叫上限
func WithMaxRequestsPerMinute(n int) Option { return config.WithMaxRequestsPerMinute(n) }

// WithMinTextLength 設置可分析文本的最短長度
func WithMinTextLength(n int) Option { return config.WithMinTextLength(n) }

// WithAIThreshold 設置判定為 AI 的分數閾值（嚴格大於）
func WithAIThreshold(threshold float64) Option { return config.WithAIThreshold(threshold) }

// WithHashAlgorithm selects the cache key hasher, "rolling32" or "xxhash64".
func WithHashAlgorithm(name string) Option { return config.WithHashAlgorithm(name) }

// WithCleanupInterval starts a background purge of expired entries.
func WithCleanupInterval(interval time.Duration) Option {
	return config.WithCleanupInterval(interval)
}

// WithSerialization 設置快取快照的序列化方式
func WithSerialization(name string) Option { return config.WithSerialization(name) }

// WithRemoteDetector 設置遠端檢測器
func WithRemoteDetector(d RemoteDetector) Option { return config.WithRemoteDetector(d) }

// WithCircuitBreaker 設置遠端熔斷器
func WithCircuitBreaker(settings gobreaker.Settings) Option {
	return config.WithCircuitBreaker(settings)
}

// WithRetrierBackoff 設置遠端重試的退避間隔
func WithRetrierBackoff(backoff []time.Duration, jitter float64) Option {
	return config.WithRetrierBackoff(backoff, jitter)
}

// WithClock 設置時鐘，主要用於測試
func WithClock(clock func() time.Time) Option { return config.WithClock(clock) }

// Detector 定義 slopscan 的主要結構體
type Detector struct {
	cfg       *config.Config
	service   *service.Service
	cache     *fifo.Cache
	limiter   *limiter.SlidingWindow
	extractor *features.Extractor
	engine    *scoring.Engine
	gateway   *remote.Gateway
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New 初始化 Detector，接受多個配置選項
func New(opts ...Option) (*Detector, error) {
	cfg, err := config.NewConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create config: %w", err)
	}
	clock := utils.ClockOrDefault(cfg.Clock)

	hasher, err := fingerprint.New(cfg.HashAlgorithm)
	if err != nil {
		return nil, err
	}

	cache, err := fifo.New(cfg.CacheCapacity, cfg.CacheTTL,
		fifo.WithHasher(hasher),
		fifo.WithClock(clock),
		fifo.WithLogger(cfg.Logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	lim, err := limiter.NewSlidingWindow(cfg.MaxRequestsPerMinute, clock, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize limiter: %w", err)
	}

	engine, err := scoring.New(cfg.AIThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize scoring engine: %w", err)
	}

	d := &Detector{
		cfg:       cfg,
		cache:     cache,
		limiter:   lim,
		extractor: features.New(),
		engine:    engine,
		logger:    cfg.Logger,
	}

	deps := service.Dependencies{
		Cache:         cache,
		Limiter:       lim,
		Extractor:     d.extractor,
		Scorer:        engine,
		MinTextLength: cfg.MinTextLength,
		Clock:         clock,
		Logger:        cfg.Logger,
	}

	if cfg.RemoteDetector != nil {
		r, err := retrier.New(cfg.ResilienceConfig.RetrierBackoff, cfg.ResilienceConfig.RetrierJitter, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize retrier: %w", err)
		}
		d.gateway = remote.NewGateway(cfg.RemoteDetector, lim, cfg.ResilienceConfig.CircuitBreaker, r, cfg.Logger)
		deps.Remote = d.gateway
	}

	d.service, err = service.New(deps)
	if err != nil {
		return nil, err
	}

	if cfg.CleanupInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		d.cancel = cancel
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.service.RunJanitor(ctx, cfg.CleanupInterval)
		}()
	}

	d.logger.Info("Detector initialized",
		zap.Int("cache_capacity", cfg.CacheCapacity),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Float64("ai_threshold", cfg.AIThreshold),
		zap.String("hash", cfg.HashAlgorithm),
		zap.Bool("remote", d.gateway != nil))

	return d, nil
}

// Classify 分析文本並返回結果，不會失敗
func (d *Detector) Classify(text string) models.Result {
	return d.service.Classify(text)
}

// ClassifyContext is Classify with a context bounding the remote path.
func (d *Detector) ClassifyContext(ctx context.Context, text string) models.Result {
	return d.service.ClassifyContext(ctx, text)
}

// Explain lists the rules that fire for text, bypassing the cache and the
// length check.
func (d *Detector) Explain(text string) []Contribution {
	return d.engine.Explain(d.extractor.Extract(strings.TrimSpace(text)))
}

// Stats 返回統計快照
func (d *Detector) Stats() models.Stats {
	return d.service.Stats()
}

// Reset 清空快取並歸零統計
func (d *Detector) Reset() {
	d.service.Reset()
}

// Export writes the live cache to w with the configured serialization.
func (d *Detector) Export(w io.Writer) (int, error) {
	return d.service.Export(w, d.cfg.Serialization.Encoder)
}

// Import restores cache entries written by Export. Expired entries are skipped.
func (d *Detector) Import(r io.Reader) (int, error) {
	return d.service.Import(r, d.cfg.Serialization.Decoder)
}

// CircuitState reports the remote breaker state. It is StateClosed when no
// remote detector is configured.
func (d *Detector) CircuitState() gobreaker.State {
	if d.gateway == nil {
		return gobreaker.StateClosed
	}
	return d.gateway.State()
}

// Close 停止背景清理，釋放資源
func (d *Detector) Close() error {
	d.closeOnce.Do(func() {
		if d.cancel != nil {
			d.cancel()
		}
		d.wg.Wait()
	})
	return nil
}
