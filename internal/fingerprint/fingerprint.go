// Package fingerprint derives short deterministic cache keys from text.
package fingerprint

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/cespare/xxhash/v2"
)

const (
	// Rolling32Type 原始的 32 位多項式滾動雜湊
	Rolling32Type = "rolling32"
	// XXHash64Type 64 位 xxhash
	XXHash64Type = "xxhash64"
)

// ErrUnknownAlgorithm is returned by New for unregistered hash names.
var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

// Hasher maps text to a key. Implementations must be pure.
type Hasher interface {
	Sum(text string) string
}

// Rolling32 computes h = h*31 + c over UTF-16 code units, wrapping to a signed
// 32-bit integer, and renders it in base 36.
type Rolling32 struct{}

// Sum implements Hasher.
func (Rolling32) Sum(text string) string {
	var h int32
	for _, r := range text {
		if r1, r2 := utf16.EncodeRune(r); r1 != unicode.ReplacementChar || r2 != unicode.ReplacementChar {
			h = h*31 + int32(r1)
			h = h*31 + int32(r2)
			continue
		}
		h = h*31 + int32(r)
	}
	return strconv.FormatInt(int64(h), 36)
}

// XXHash64 is a wider hash with far fewer collisions than Rolling32.
type XXHash64 struct{}

// Sum implements Hasher.
func (XXHash64) Sum(text string) string {
	return strconv.FormatUint(xxhash.Sum64String(text), 36)
}

// New returns the hasher registered under name.
func New(name string) (Hasher, error) {
	switch strings.ToLower(name) {
	case "", Rolling32Type:
		return Rolling32{}, nil
	case XXHash64Type:
		return XXHash64{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, name)
	}
}
