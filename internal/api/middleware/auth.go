package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/homehaven/marketplace-api/internal/core/domain"
)

// Echo context keys populated by Auth on successful verification.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// TokenVerifier checks an access token's signature and expiry.
type TokenVerifier interface {
	Verify(token string) (domain.AccessTokenClaims, error)
}

// Auth verifies the bearer access token and injects identity into the
// request context. The token is read from the Authorization header only;
// cookie transport for access tokens is deliberately unsupported, so a
// browser can never replay one on its own.
//
// Every failure — missing header, bad scheme, forged or expired token —
// short-circuits with the same authentication error before any handler runs.
func Auth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return domain.ErrInvalidAccessToken
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return domain.ErrInvalidAccessToken
			}

			claims, err := verifier.Verify(parts[1])
			if err != nil {
				return domain.ErrInvalidAccessToken
			}

			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextRole, claims.Role)

			return next(c)
		}
	}
}
