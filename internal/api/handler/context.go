package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/docvault/document-service/internal/api/middleware"
	"github.com/docvault/document-service/internal/core/domain"
)

// currentUser returns the user injected by the Auth middleware. A missing
// user means the route was mounted without Auth; treat it as unauthenticated.
func currentUser(c echo.Context) (*domain.User, error) {
	u, _ := c.Get(middleware.ContextUser).(*domain.User)
	if u == nil {
		return nil, domain.ErrTokenMissing
	}
	return u, nil
}

func currentToken(c echo.Context) (string, error) {
	token, _ := c.Get(middleware.ContextToken).(string)
	if token == "" {
		return "", domain.ErrTokenMissing
	}
	return token, nil
}

// pathID parses the :id path parameter.
func pathID(c echo.Context, resource string) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, domain.Errorf(domain.ErrValidation, "invalid %s id", resource)
	}
	return id, nil
}
