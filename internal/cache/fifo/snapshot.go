package fifo

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"goflare.io/slopscan/pkg/serialization"
)

// Export writes every live entry, oldest insertion first.
func (c *Cache) Export(enc serialization.Encoder) (int, error) {
	c.mu.Lock()
	now := c.now()
	entries := make([]Entry, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		entry := elem.Value.(*Entry)
		if !entry.expired(now, c.ttl) {
			entries = append(entries, *entry)
		}
	}
	c.mu.Unlock()

	for i := range entries {
		if err := enc.Encode(&entries[i]); err != nil {
			return i, fmt.Errorf("failed to encode entry %s: %w", entries[i].Key, err)
		}
	}
	return len(entries), nil
}

// Import reads entries until EOF and inserts them in stream order, keeping their
// original insertion time. Keys are recomputed with this cache's hasher and
// entries that have already expired are skipped.
func (c *Cache) Import(dec serialization.Decoder) (int, error) {
	imported := 0
	for {
		var entry Entry
		if err := dec.Decode(&entry); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return imported, fmt.Errorf("failed to decode entry: %w", err)
		}

		entry.Key = c.hasher.Sum(entry.Text)

		c.mu.Lock()
		if entry.expired(c.now(), c.ttl) {
			c.mu.Unlock()
			continue
		}
		c.insert(&entry)
		c.mu.Unlock()
		imported++
	}

	c.logger.Info("Imported cache snapshot", zap.Int("entries", imported))
	return imported, nil
}
