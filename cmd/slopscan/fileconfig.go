package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"goflare.io/slopscan"
)

// fileConfig is the on-disk configuration. Unset fields keep the library
// defaults; pointers distinguish an explicit zero from absence.
type fileConfig struct {
	CacheCapacity        int      `toml:"cache_capacity" yaml:"cache_capacity"`
	CacheTTL             string   `toml:"cache_ttl" yaml:"cache_ttl"`
	MaxRequestsPerMinute int      `toml:"max_requests_per_minute" yaml:"max_requests_per_minute"`
	MinTextLength        *int     `toml:"min_text_length" yaml:"min_text_length"`
	AIThreshold          *float64 `toml:"ai_threshold" yaml:"ai_threshold"`
	HashAlgorithm        string   `toml:"hash_algorithm" yaml:"hash_algorithm"`
	Serialization        string   `toml:"serialization" yaml:"serialization"`
	Snapshot             string   `toml:"snapshot" yaml:"snapshot"`
}

// loadFileConfig reads path as TOML or YAML, chosen by extension.
func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return cfg, fmt.Errorf("parse %s: unknown key %q", path, undecoded[0].String())
		}
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config format %q (want .toml, .yaml or .yml)", ext)
	}

	return cfg, nil
}

// options translates the file into detector options.
func (c fileConfig) options() ([]slopscan.Option, error) {
	var opts []slopscan.Option

	if c.CacheCapacity != 0 {
		opts = append(opts, slopscan.WithCacheCapacity(c.CacheCapacity))
	}
	if c.CacheTTL != "" {
		ttl, err := time.ParseDuration(c.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("cache_ttl: %w", err)
		}
		opts = append(opts, slopscan.WithCacheTTL(ttl))
	}
	if c.MaxRequestsPerMinute != 0 {
		opts = append(opts, slopscan.WithMaxRequestsPerMinute(c.MaxRequestsPerMinute))
	}
	if c.MinTextLength != nil {
		opts = append(opts, slopscan.WithMinTextLength(*c.MinTextLength))
	}
	if c.AIThreshold != nil {
		opts = append(opts, slopscan.WithAIThreshold(*c.AIThreshold))
	}
	if c.HashAlgorithm != "" {
		opts = append(opts, slopscan.WithHashAlgorithm(c.HashAlgorithm))
	}
	if c.Serialization != "" {
		opts = append(opts, slopscan.WithSerialization(c.Serialization))
	}
	return opts, nil
}
