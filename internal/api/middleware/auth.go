package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/communityboard/board-system/internal/core/domain"
)

// Context keys set by the middleware in this package.
const (
	KeyIdentity = "identity"
	KeyRole     = "role"
	KeyService  = "service_role"
	KeyToken    = "token"
)

// Roles placed under KeyRole when no identity is attached.
const (
	RoleAnon    = "anon"
	RoleService = "service_role"
)

// APIKeyHeader carries the project key on every request.
const APIKeyHeader = "apikey"

// APIKey admits requests carrying either the anon key or the service-role
// key and records which one was used.
func APIKey(anonKey, serviceKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(APIKeyHeader)
			switch {
			case key == "":
				return echo.NewHTTPError(http.StatusUnauthorized, "missing api key")
			case secureEqual(key, serviceKey):
				c.Set(KeyService, true)
				c.Set(KeyRole, RoleService)
			case secureEqual(key, anonKey):
				c.Set(KeyService, false)
				c.Set(KeyRole, RoleAnon)
			default:
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid api key")
			}
			return next(c)
		}
	}
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Authenticator resolves a bearer token to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Identity, error)
}

// Auth validates the bearer token and injects the identity into context.
// With required false, requests without an Authorization header pass
// through anonymously; a header that is present must still be valid.
func Auth(authn Authenticator, required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				if required {
					return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
				}
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			identity, err := authn.Authenticate(c.Request().Context(), parts[1])
			if err != nil {
				return err
			}

			c.Set(KeyIdentity, identity)
			c.Set(KeyToken, parts[1])
			if service, _ := c.Get(KeyService).(bool); !service {
				c.Set(KeyRole, string(identity.Role))
			}

			return next(c)
		}
	}
}
