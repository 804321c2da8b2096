package fifo

import (
	"github.com/bits-and-blooms/bloom/v3"
)

const bloomFalsePositiveRate = 0.01

// keyFilter short-circuits lookups for keys that were never inserted.
// Evictions leave stale bits behind, so the filter is rebuilt from live keys
// once a full capacity worth of entries has been evicted. Callers hold Cache.mu.
type keyFilter struct {
	filter   *bloom.BloomFilter
	capacity int
	stale    int
}

func newKeyFilter(capacity int) *keyFilter {
	return &keyFilter{
		filter:   bloom.NewWithEstimates(uint(capacity), bloomFalsePositiveRate),
		capacity: capacity,
	}
}

func (f *keyFilter) add(key string) {
	f.filter.AddString(key)
}

func (f *keyFilter) mayContain(key string) bool {
	return f.filter.TestString(key)
}

// evicted records a removal and reports whether a rebuild is due.
func (f *keyFilter) evicted() bool {
	f.stale++
	return f.stale >= f.capacity
}

func (f *keyFilter) rebuild(keys func(yield func(string))) {
	f.filter.ClearAll()
	f.stale = 0
	keys(f.add)
}
