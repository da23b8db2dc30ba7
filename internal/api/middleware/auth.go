package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/docvault/document-service/internal/core/domain"
)

// Context keys set by Auth.
const (
	ContextUser  = "user"
	ContextRole  = "role"
	ContextToken = "token"
)

// IdentityResolver turns a bearer token into the user it names.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (*domain.User, error)
}

// Auth validates the bearer token and injects the resolved user into context.
func Auth(resolver IdentityResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return domain.ErrTokenMissing
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return domain.ErrAuthHeader
			}
			token := strings.TrimSpace(parts[1])

			user, err := resolver.ResolveIdentity(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(ContextUser, user)
			c.Set(ContextRole, user.Role)
			c.Set(ContextToken, token)

			return next(c)
		}
	}
}
