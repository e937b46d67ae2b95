package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/communityboard/board-system/internal/api/middleware"
	"github.com/communityboard/board-system/internal/core/domain"
	"github.com/communityboard/board-system/internal/core/ports"
)

// actorFrom builds the caller from what the APIKey and Auth middleware left
// in context. A missing identity is not an error here; services decide.
func actorFrom(c echo.Context) ports.Actor {
	identity, _ := c.Get(middleware.KeyIdentity).(*domain.Identity)
	service, _ := c.Get(middleware.KeyService).(bool)
	return ports.Actor{Identity: identity, Service: service}
}

// identityFrom returns the authenticated identity or ErrNotAuthenticated.
func identityFrom(c echo.Context) (*domain.Identity, error) {
	identity, _ := c.Get(middleware.KeyIdentity).(*domain.Identity)
	if identity == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return identity, nil
}
