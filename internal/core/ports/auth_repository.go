package ports

import (
	"context"
	"time"

	"github.com/communityboard/board-system/internal/core/domain"
)

// IdentityRepository defines persistence for accounts.
type IdentityRepository interface {
	Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
	Delete(ctx context.Context, id string) error
}

// TokenDenylist remembers access tokens that were signed out before they
// expired.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
