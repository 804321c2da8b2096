package utils

import (
	"math"
	"time"
)

// Clock 返回當前時間，測試中可替換
type Clock func() time.Time

// ClockOrDefault 未設置時使用 time.Now
func ClockOrDefault(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Clamp01 將數值限制在 [0, 1]
func Clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
