package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/homehaven/marketplace-api/internal/api/middleware"
	"github.com/homehaven/marketplace-api/internal/core/domain"
)

// ctxIdentity extracts the identity injected by the Auth middleware and
// fast-fails before any service call: a handler must never run with partial
// or unverified identity, so an absent user id or role means the middleware
// did not run and the request is rejected as unauthenticated.
func ctxIdentity(c echo.Context) (userID string, role domain.Role, err error) {
	userID, _ = c.Get(middleware.ContextUserID).(string)
	role, _ = c.Get(middleware.ContextRole).(domain.Role)
	if userID == "" || !role.Valid() {
		return "", "", domain.ErrInvalidAccessToken
	}
	return userID, role, nil
}
