package slopscan

import (
	"goflare.io/slopscan/internal/cache/fifo"
	"goflare.io/slopscan/internal/config"
	"goflare.io/slopscan/internal/fingerprint"
	"goflare.io/slopscan/internal/limiter"
	"goflare.io/slopscan/internal/remote"
	"goflare.io/slopscan/internal/scoring"
	"goflare.io/slopscan/pkg/serialization"
)

var (
	ErrInvalidCapacity          = fifo.ErrInvalidCapacity
	ErrInvalidTTL               = fifo.ErrInvalidTTL
	ErrInvalidRate              = limiter.ErrInvalidRate
	ErrInvalidThreshold         = scoring.ErrInvalidThreshold
	ErrInvalidMinLength         = config.ErrInvalidMinLength
	ErrInvalidInterval          = config.ErrInvalidInterval
	ErrUnknownHash              = fingerprint.ErrUnknownAlgorithm
	ErrUnsupportedSerialization = serialization.ErrUnsupportedType
	ErrRateLimited              = remote.ErrRateLimited
)
