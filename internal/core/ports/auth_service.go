package ports

import (
	"context"

	"github.com/communityboard/board-system/internal/core/domain"
)

// AuthService is the store's auth subsystem.
type AuthService interface {
	SignUp(ctx context.Context, email, password string, role domain.Role) (*domain.Session, error)
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	// Authenticate resolves a bearer token to the live identity behind it.
	Authenticate(ctx context.Context, token string) (*domain.Identity, error)
	SignOut(ctx context.Context, token string) error
	// DeleteIdentity removes an account. Only the account itself or a
	// service-role caller may do so. It does not touch the account's rows;
	// callers are expected to have removed them first.
	DeleteIdentity(ctx context.Context, actor Actor, id string) error
}
