package ports

import (
	"context"
	"time"

	"github.com/homehaven/marketplace-api/internal/core/domain"
)

// LoginResult is what a successful login or refresh hands to the transport
// layer: a bearer access token for the response body and a raw refresh token
// destined for an HttpOnly cookie.
type LoginResult struct {
	AccessToken     string
	AccessExpiresAt time.Time
	RefreshToken    string
	User            *domain.User
}

// SessionService orchestrates the credential and session lifecycle.
type SessionService interface {
	Register(ctx context.Context, email, password, fullName string, role domain.Role) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Refresh(ctx context.Context, rawRefreshToken string) (*LoginResult, error)
	// Logout revokes the session best-effort; it never returns an error for
	// an unknown or already-revoked token.
	Logout(ctx context.Context, rawRefreshToken string)
	// LogoutAll revokes every session the user holds.
	LogoutAll(ctx context.Context, userID string) error
}
