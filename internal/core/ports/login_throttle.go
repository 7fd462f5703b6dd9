package ports

import "context"

// LoginThrottle limits repeated failed login attempts per account. A nil or
// always-allowing implementation disables throttling; the throttle is
// advisory and must fail open when its backing store is unreachable.
type LoginThrottle interface {
	// Allow reports whether another login attempt for the key is permitted.
	Allow(ctx context.Context, key string) (bool, error)
	// RecordFailure counts a failed attempt against the key.
	RecordFailure(ctx context.Context, key string) error
	// Reset clears the failure count after a successful login.
	Reset(ctx context.Context, key string) error
}
