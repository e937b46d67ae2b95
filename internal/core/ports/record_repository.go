package ports

import (
	"context"
	"time"

	"github.com/communityboard/board-system/internal/core/domain"
)

// RecordRepository defines persistence for one table.
type RecordRepository[R domain.Record] interface {
	// List returns every row ordered by created_at, then id, descending.
	List(ctx context.Context) ([]R, error)
	FindByID(ctx context.Context, id string) (R, error)
	Insert(ctx context.Context, record R) error
	// Update sets the given columns plus updated_at and returns the new row.
	Update(ctx context.Context, id string, changes map[string]any, now time.Time) (R, error)
	Delete(ctx context.Context, id string) error
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}
