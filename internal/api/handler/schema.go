package handler

import "github.com/communityboard/board-system/internal/core/domain"

type signUpMetadata struct {
	Role string `json:"role" validate:"omitempty,oneof=member admin"`
}

type signUpRequest struct {
	Email    string         `json:"email"    validate:"required,email"`
	Password string         `json:"password" validate:"required,min=6"`
	Data     signUpMetadata `json:"data"`
}

type credentialsRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// sessionResponse mirrors domain.Session with the token type spelled out.
type sessionResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresAt   int64           `json:"expires_at"`
	User        domain.Identity `json:"user"`
}

func toSessionResponse(s *domain.Session) sessionResponse {
	return sessionResponse{
		AccessToken: s.AccessToken,
		TokenType:   "bearer",
		ExpiresAt:   s.ExpiresAt.Unix(),
		User:        s.Identity,
	}
}

type deletedResponse struct {
	Deleted int64 `json:"deleted"`
}

type uploadResponse struct {
	URL string `json:"url"`
}
