package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/docvault/document-service/internal/core/domain"
)

// RBAC enforces role-based access control. It must run after Auth.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(string)
			if role == "" {
				return domain.ErrTokenMissing
			}
			if _, ok := allowed[role]; !ok {
				return domain.ErrAdminRequired
			}
			return next(c)
		}
	}
}
