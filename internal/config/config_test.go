package config

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"goflare.io/slopscan/internal/cache/fifo"
	"goflare.io/slopscan/internal/fingerprint"
	"goflare.io/slopscan/internal/limiter"
	"goflare.io/slopscan/internal/scoring"
	"goflare.io/slopscan/pkg/serialization"
)

func TestDefaults(t *testing.T) {
	cfg, err := NewConfig(WithLogger(zap.NewNop()))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	if cfg.CacheCapacity != 1000 {
		t.Errorf("CacheCapacity = %d", cfg.CacheCapacity)
	}
	if cfg.CacheTTL != time.Hour {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.MaxRequestsPerMinute != 30 {
		t.Errorf("MaxRequestsPerMinute = %d", cfg.MaxRequestsPerMinute)
	}
	if cfg.MinTextLength != 50 {
		t.Errorf("MinTextLength = %d", cfg.MinTextLength)
	}
	if cfg.AIThreshold != 0.65 {
		t.Errorf("AIThreshold = %v", cfg.AIThreshold)
	}
	if cfg.HashAlgorithm != fingerprint.Rolling32Type {
		t.Errorf("HashAlgorithm = %q", cfg.HashAlgorithm)
	}
	if cfg.Serialization.Type != serialization.JSONType {
		t.Errorf("Serialization.Type = %q", cfg.Serialization.Type)
	}
}

func TestDefaultLogger(t *testing.T) {
	cfg, err := NewConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Logger == nil {
		t.Error("default logger not set")
	}
}

func TestOptionValidation(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
		want error
	}{
		{"capacity", WithCacheCapacity(0), fifo.ErrInvalidCapacity},
		{"ttl", WithCacheTTL(-time.Second), fifo.ErrInvalidTTL},
		{"rate", WithMaxRequestsPerMinute(0), limiter.ErrInvalidRate},
		{"min length", WithMinTextLength(-1), ErrInvalidMinLength},
		{"threshold", WithAIThreshold(1.5), scoring.ErrInvalidThreshold},
		{"hash", WithHashAlgorithm("sha1"), fingerprint.ErrUnknownAlgorithm},
		{"interval", WithCleanupInterval(-time.Minute), ErrInvalidInterval},
		{"serialization", WithSerialization("xml"), serialization.ErrUnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(WithLogger(zap.NewNop()), tt.opt)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestOptionsApply(t *testing.T) {
	cfg, err := NewConfig(
		WithLogger(zap.NewNop()),
		WithCacheCapacity(10),
		WithCacheTTL(time.Minute),
		WithMaxRequestsPerMinute(5),
		WithMinTextLength(0),
		WithAIThreshold(0.5),
		WithHashAlgorithm(fingerprint.XXHash64Type),
		WithSerialization(serialization.GobType),
		WithRetrierBackoff(nil, 0),
	)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.CacheCapacity != 10 || cfg.CacheTTL != time.Minute || cfg.MaxRequestsPerMinute != 5 {
		t.Errorf("cache/limiter options not applied: %+v", cfg)
	}
	if cfg.MinTextLength != 0 || cfg.AIThreshold != 0.5 {
		t.Errorf("classification options not applied: %+v", cfg)
	}
	if cfg.HashAlgorithm != fingerprint.XXHash64Type || cfg.Serialization.Type != serialization.GobType {
		t.Errorf("codec options not applied: %+v", cfg)
	}
	if len(cfg.ResilienceConfig.RetrierBackoff) != 0 {
		t.Errorf("RetrierBackoff = %v", cfg.ResilienceConfig.RetrierBackoff)
	}
}
