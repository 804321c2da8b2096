package retrier

import (
	"errors"
	"fmt"
)

// ErrTemporary tags remote failures worth another attempt.
var ErrTemporary = errors.New("temporary failure")

// timeout 是 net.Error 等逾時錯誤提供的方法
type timeout interface {
	Timeout() bool
}

// IsTemporary reports whether err is tagged with ErrTemporary or is a timeout
// somewhere in its chain.
func IsTemporary(err error) bool {
	if errors.Is(err, ErrTemporary) {
		return true
	}
	var t timeout
	return errors.As(err, &t) && t.Timeout()
}

// MarkTemporary tags err with ErrTemporary. The original error stays
// reachable through errors.Is and errors.As.
func MarkTemporary(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTemporary, err)
}
