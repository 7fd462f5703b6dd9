package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/homehaven/marketplace-api/internal/core/domain"
)

// RBAC enforces role-based access control. It must run after Auth; an
// authenticated request with a role outside the allowed set fails with the
// authorization error, which maps to 403 rather than 401.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(domain.Role)
			if _, ok := allowed[role]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
