package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"goflare.io/slopscan/internal/cache/fifo"
	"goflare.io/slopscan/internal/fingerprint"
	"goflare.io/slopscan/internal/limiter"
	"goflare.io/slopscan/internal/remote"
	"goflare.io/slopscan/internal/scoring"
	"goflare.io/slopscan/internal/utils"
	"goflare.io/slopscan/pkg/serialization"
)

// DefaultMinTextLength 最短可分析的文本長度（字元）
const DefaultMinTextLength = 50

// Config 用於 Detector 的配置，在建構時固定
type Config struct {
	CacheCapacity        int
	CacheTTL             time.Duration
	MaxRequestsPerMinute int
	MinTextLength        int
	AIThreshold          float64
	HashAlgorithm        string
	CleanupInterval      time.Duration // 0 disables the background purge

	ResilienceConfig ResilienceConfig
	Serialization    SerializationConfig

	RemoteDetector remote.Detector
	Clock          utils.Clock
	Logger         *zap.Logger
}

// ResilienceConfig 用於設置遠端檢測的重試和熔斷器
type ResilienceConfig struct {
	CircuitBreaker gobreaker.Settings
	RetrierBackoff []time.Duration
	RetrierJitter  float64
}

// SerializationConfig 快取快照的序列化配置
type SerializationConfig struct {
	Type    string
	Encoder serialization.EncoderFunc
	Decoder serialization.DecoderFunc
}

// Option 函數類型
type Option func(*Config) error

var (
	ErrInvalidMinLength = errors.New("min text length must not be negative")
	ErrInvalidInterval  = errors.New("cleanup interval must not be negative")
)

// NewConfig 創建一個默認的 Config，允許覆蓋特定參數
func NewConfig(options ...Option) (*Config, error) {
	cfg := &Config{
		CacheCapacity:        fifo.DefaultCapacity,
		CacheTTL:             fifo.DefaultTTL,
		MaxRequestsPerMinute: limiter.DefaultMaxPerMinute,
		MinTextLength:        DefaultMinTextLength,
		AIThreshold:          scoring.DefaultThreshold,
		HashAlgorithm:        fingerprint.Rolling32Type,
		ResilienceConfig: ResilienceConfig{
			CircuitBreaker: gobreaker.Settings{
				Name:        "RemoteDetector",
				MaxRequests: 1,
				Interval:    60 * time.Second,
				Timeout:     30 * time.Second,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures > 3
				},
			},
			RetrierBackoff: []time.Duration{
				100 * time.Millisecond,
				200 * time.Millisecond,
				400 * time.Millisecond,
			},
			RetrierJitter: 0.2,
		},
		Serialization: SerializationConfig{
			Type:    serialization.JSONType,
			Encoder: serialization.JSONEncoder,
			Decoder: serialization.JSONDecoder,
		},
		Clock: time.Now,
	}

	// 應用所有選項
	for _, option := range options {
		if err := option(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.Logger == nil {
		logger, err := zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize default logger: %w", err)
		}
		cfg.Logger = logger
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 最終檢查
func (c *Config) Validate() error {
	switch {
	case c.CacheCapacity < 1:
		return fifo.ErrInvalidCapacity
	case c.CacheTTL <= 0:
		return fifo.ErrInvalidTTL
	case c.MaxRequestsPerMinute < 1:
		return limiter.ErrInvalidRate
	case c.MinTextLength < 0:
		return ErrInvalidMinLength
	case c.AIThreshold < 0 || c.AIThreshold > 1:
		return scoring.ErrInvalidThreshold
	case c.CleanupInterval < 0:
		return ErrInvalidInterval
	}
	if _, err := fingerprint.New(c.HashAlgorithm); err != nil {
		return err
	}
	return nil
}

// WithLogger 設置自定義 Logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) error {
		if logger != nil {
			c.Logger = logger
		}
		return nil
	}
}

// WithCacheCapacity 設置快取容量
func WithCacheCapacity(capacity int) Option {
	return func(c *Config) error {
		if capacity < 1 {
			return fifo.ErrInvalidCapacity
		}
		c.CacheCapacity = capacity
		return nil
	}
}

// WithCacheTTL 設置快取項目存活時間
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Config) error {
		if ttl <= 0 {
			return fifo.ErrInvalidTTL
		}
		c.CacheTTL = ttl
		return nil
	}
}

// WithMaxRequestsPerMinute 設置每分鐘請求上限
func WithMaxRequestsPerMinute(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return limiter.ErrInvalidRate
		}
		c.MaxRequestsPerMinute = n
		return nil
	}
}

// WithMinTextLength 設置最短文本長度
func WithMinTextLength(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return ErrInvalidMinLength
		}
		c.MinTextLength = n
		return nil
	}
}

// WithAIThreshold 設置判定閾值
func WithAIThreshold(threshold float64) Option {
	return func(c *Config) error {
		if threshold < 0 || threshold > 1 {
			return scoring.ErrInvalidThreshold
		}
		c.AIThreshold = threshold
		return nil
	}
}

// WithHashAlgorithm 設置快取鍵雜湊算法
func WithHashAlgorithm(name string) Option {
	return func(c *Config) error {
		if _, err := fingerprint.New(name); err != nil {
			return err
		}
		c.HashAlgorithm = name
		return nil
	}
}

// WithCleanupInterval 設置過期項目清理間隔
func WithCleanupInterval(interval time.Duration) Option {
	return func(c *Config) error {
		if interval < 0 {
			return ErrInvalidInterval
		}
		c.CleanupInterval = interval
		return nil
	}
}

// WithSerialization 設置序列化方式
func WithSerialization(name string) Option {
	return func(c *Config) error {
		enc, dec, err := serialization.Lookup(name)
		if err != nil {
			return err
		}
		c.Serialization = SerializationConfig{Type: name, Encoder: enc, Decoder: dec}
		return nil
	}
}

// WithRemoteDetector 設置遠端檢測器
func WithRemoteDetector(d remote.Detector) Option {
	return func(c *Config) error {
		c.RemoteDetector = d
		return nil
	}
}

// WithCircuitBreaker 設置遠端熔斷器
func WithCircuitBreaker(settings gobreaker.Settings) Option {
	return func(c *Config) error {
		c.ResilienceConfig.CircuitBreaker = settings
		return nil
	}
}

// WithRetrierBackoff 設置重試退避間隔
func WithRetrierBackoff(backoff []time.Duration, jitter float64) Option {
	return func(c *Config) error {
		c.ResilienceConfig.RetrierBackoff = backoff
		c.ResilienceConfig.RetrierJitter = jitter
		return nil
	}
}

// WithClock 設置時鐘
func WithClock(clock utils.Clock) Option {
	return func(c *Config) error {
		c.Clock = utils.ClockOrDefault(clock)
		return nil
	}
}
