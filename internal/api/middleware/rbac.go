package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/communityboard/board-system/internal/core/domain"
)

// AdminWrites guards the write routes of admin-only tables. Admin
// identities and the service-role key pass.
func AdminWrites() echo.MiddlewareFunc {
	return guard("admin role required", func(c echo.Context) bool {
		if isService(c) {
			return true
		}
		identity, _ := c.Get(KeyIdentity).(*domain.Identity)
		return identity != nil && identity.IsAdmin()
	})
}

// RequireServiceRole admits only requests made with the service-role key.
func RequireServiceRole() echo.MiddlewareFunc {
	return guard("service role required", isService)
}

func guard(reason string, allow func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allow(c) {
				return echo.NewHTTPError(http.StatusForbidden, reason)
			}
			return next(c)
		}
	}
}

func isService(c echo.Context) bool {
	service, _ := c.Get(KeyService).(bool)
	return service
}
