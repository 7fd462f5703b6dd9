package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/homehaven/marketplace-api/internal/core/domain"
)

const defaultAccessTTL = 15 * time.Minute

// accessClaims is the signed payload of an access token. Expiry is an
// absolute timestamp inside the signature, not re-derived on verification.
type accessClaims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenSigner issues and verifies short-lived stateless access tokens.
// The signing key is loaded once at startup and read-only afterwards, so
// concurrent use needs no synchronization. Rotating the key invalidates all
// outstanding access tokens, which is acceptable at a 15-minute lifetime.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenSigner builds a signer for HS256 tokens with the given lifetime.
func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}
	return &TokenSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// IssueAccess signs a new access token for the subject and returns it with
// its absolute expiry.
func (s *TokenSigner) IssueAccess(userID string, role domain.Role) (string, time.Time, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)

	claims := accessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry. Every failure mode — malformed,
// forged, expired — yields the same domain.ErrInvalidAccessToken so callers
// cannot be used as an oracle for which check failed.
func (s *TokenSigner) Verify(token string) (domain.AccessTokenClaims, error) {
	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return domain.AccessTokenClaims{}, domain.ErrInvalidAccessToken
	}
	return domain.AccessTokenClaims{UserID: claims.Subject, Role: claims.Role}, nil
}
