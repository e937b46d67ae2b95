package ports

import (
	"context"

	"github.com/communityboard/board-system/internal/core/domain"
)

// Actor is the caller of a store operation as established by the API key
// and bearer token.
type Actor struct {
	Identity *domain.Identity
	// Service is true when the request carried the service-role key.
	Service bool
}

// RecordService holds the store-side authorization rules for one table.
type RecordService[R domain.Record, D domain.Draft[R], P domain.Patch[R]] interface {
	Table() domain.Table
	List(ctx context.Context) ([]R, error)
	Create(ctx context.Context, actor Actor, ownerID string, draft D) (R, error)
	Update(ctx context.Context, actor Actor, id string, patch P) (R, error)
	Delete(ctx context.Context, actor Actor, id string) error
	DeleteByOwner(ctx context.Context, actor Actor, ownerID string) (int64, error)
}
