package ports

import (
	"context"
	"time"

	"github.com/homehaven/marketplace-api/internal/core/domain"
)

// RefreshTokenRepository persists refresh-token records keyed by digest.
// Implementations never see or store the raw token value except transiently
// inside Create, which generates it and hands it back for client delivery.
type RefreshTokenRepository interface {
	// Create mints a new opaque token for the user, persists its digest and
	// returns the raw value. The record expires ttl from now.
	Create(ctx context.Context, userID string, ttl time.Duration) (string, error)

	// Consume atomically deletes the record matching rawToken's digest and
	// returns it. Exactly one of any number of concurrent Consume calls with
	// the same raw token succeeds. Returns domain.ErrRefreshTokenNotFound
	// when no record matches and domain.ErrRefreshTokenExpired when the
	// matched record is past its expiry (the stale record is deleted either
	// way).
	Consume(ctx context.Context, rawToken string) (*domain.RefreshTokenRecord, error)

	// Revoke deletes the record matching rawToken's digest. Idempotent:
	// revoking an unknown token is not an error.
	Revoke(ctx context.Context, rawToken string) error

	// RevokeAllForUser deletes every record owned by the user.
	RevokeAllForUser(ctx context.Context, userID string) error

	// DeleteExpired removes records whose expiry has passed and reports how
	// many were swept. Expired records are already unusable; this is cleanup.
	DeleteExpired(ctx context.Context) (int64, error)
}
