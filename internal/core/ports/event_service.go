package ports

import (
	"context"

	"github.com/communityboard/board-system/internal/core/domain"
)

// EventService processes audit events taken off the dispatcher.
type EventService interface {
	Process(ctx context.Context, event domain.RecordEvent) error
}

// EventPublisher hands audit events to the asynchronous pipeline.
type EventPublisher interface {
	Publish(event domain.RecordEvent)
}
