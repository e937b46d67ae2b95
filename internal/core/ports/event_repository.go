package ports

import (
	"context"

	"github.com/communityboard/board-system/internal/core/domain"
)

// EventRepository persists the audit feed.
type EventRepository interface {
	InsertEvent(ctx context.Context, event *domain.RecordEvent) error
}
