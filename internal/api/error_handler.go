package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/communityboard/board-system/internal/core/domain"
)

// ErrorResponse is the canonical error envelope for all API errors. Code is
// stable and lets clients recover the domain error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error codes carried in ErrorResponse.Code.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeIdentityExists     = "identity_exists"
	CodeNotAuthenticated   = "not_authenticated"
	CodeTokenRevoked       = "token_revoked"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeInvalidKind        = "invalid_kind"
	CodeInvalidInput       = "invalid_input"
	CodeUnknownTable       = "unknown_table"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes and error codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "code": "<code>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, ErrorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, ErrorResponse{Error: fmt.Sprintf("%v", he.Message), Code: codeForStatus(he.Code)}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusBadRequest, ErrorResponse{Error: "invalid login credentials", Code: CodeInvalidCredentials}
	case errors.Is(err, domain.ErrIdentityExists):
		return http.StatusConflict, ErrorResponse{Error: "user already registered", Code: CodeIdentityExists}
	case errors.Is(err, domain.ErrTokenRevoked):
		return http.StatusUnauthorized, ErrorResponse{Error: "session has been signed out", Code: CodeTokenRevoked}
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, ErrorResponse{Error: "not authenticated", Code: CodeNotAuthenticated}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, ErrorResponse{Error: "access forbidden", Code: CodeForbidden}
	case errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "record not found", Code: CodeNotFound}
	case errors.Is(err, domain.ErrIdentityNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "user not found", Code: CodeNotFound}
	case errors.Is(err, domain.ErrUnknownTable):
		return http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: CodeUnknownTable}
	case errors.Is(err, domain.ErrInvalidKind):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: CodeInvalidKind}
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidInput}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, ErrorResponse{Error: "internal server error"}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return CodeNotAuthenticated
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return CodeInvalidInput
	}
	return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}
