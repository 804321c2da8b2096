package fifo

import (
	"time"

	"goflare.io/slopscan/models"
)

// Entry is one cached classification. Entries are never mutated, an overwrite
// replaces the whole value.
type Entry struct {
	Key        string
	Text       string
	Result     models.Result
	InsertedAt time.Time
}

// expired reports whether the entry is older than ttl at now.
func (e *Entry) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.InsertedAt) > ttl
}
