package domain

import "time"

// RefreshTokenRecord is the persisted half of a session. Only the SHA-256
// digest of the opaque token is stored; the raw value lives exclusively in
// the client's cookie. One record per login or rotation (multi-session).
type RefreshTokenRecord struct {
	TokenHash string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the record is unusable at the given instant.
func (r RefreshTokenRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// AccessTokenClaims is the verified identity extracted from an access token.
type AccessTokenClaims struct {
	UserID string
	Role   Role
}
