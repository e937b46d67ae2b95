package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/communityboard/board-system/internal/api/middleware"
	"github.com/communityboard/board-system/internal/core/domain"
	"github.com/communityboard/board-system/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SignUp creates an account and returns its first session.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        body  body      signUpRequest  true  "Email, password and optional role metadata"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  api.ErrorResponse
// @Failure      403   {object}  api.ErrorResponse
// @Failure      409   {object}  api.ErrorResponse
// @Failure      422   {object}  api.ErrorResponse
// @Router       /auth/v1/signup [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	session, err := h.authService.SignUp(c.Request().Context(), req.Email, req.Password, domain.Role(req.Data.Role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(session))
}

// Token exchanges email and password for a session.
//
// @Summary      Sign in with password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        grant_type  query     string              true  "Must be password"
// @Param        body        body      credentialsRequest  true  "Credentials"
// @Success      200         {object}  sessionResponse
// @Failure      400         {object}  api.ErrorResponse
// @Router       /auth/v1/token [post]
func (h *AuthHandler) Token(c echo.Context) error {
	if gt := c.QueryParam("grant_type"); gt != "password" {
		return echo.NewHTTPError(http.StatusBadRequest, "unsupported grant_type")
	}

	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return domain.ErrInvalidCredentials
	}

	session, err := h.authService.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(session))
}

// User returns the identity behind the bearer token.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Success      200  {object}  domain.Identity
// @Failure      401  {object}  api.ErrorResponse
// @Router       /auth/v1/user [get]
func (h *AuthHandler) User(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, identity)
}

// Logout revokes the bearer token.
//
// @Summary      Sign out
// @Tags         auth
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  api.ErrorResponse
// @Router       /auth/v1/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	token, _ := c.Get(middleware.KeyToken).(string)
	if token == "" {
		return domain.ErrNotAuthenticated
	}
	if err := h.authService.SignOut(c.Request().Context(), token); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AdminDeleteUser removes any account. Requires the service-role key.
//
// @Summary      Delete a user (privileged)
// @Tags         auth
// @Security     ApiKeyAuth
// @Param        id   path  string  true  "Identity id"
// @Success      204
// @Failure      403  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /auth/v1/admin/users/{id} [delete]
func (h *AuthHandler) AdminDeleteUser(c echo.Context) error {
	if err := h.authService.DeleteIdentity(c.Request().Context(), actorFrom(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteSelf removes the caller's own account.
//
// @Summary      Delete the current user
// @Tags         auth
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  api.ErrorResponse
// @Router       /rest/v1/rpc/delete_user [post]
func (h *AuthHandler) DeleteSelf(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	actor := ports.Actor{Identity: identity}
	if err := h.authService.DeleteIdentity(c.Request().Context(), actor, identity.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
