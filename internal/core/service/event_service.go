package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/communityboard/board-system/internal/core/domain"
	"github.com/communityboard/board-system/internal/core/ports"
	"github.com/communityboard/board-system/internal/pkg/metrics"
)

// DedupChecker abstracts the idempotency store (Redis).
type DedupChecker interface {
	IsDuplicate(ctx context.Context, event domain.RecordEvent) (bool, error)
	Mark(ctx context.Context, event domain.RecordEvent) error
}

type eventService struct {
	eventRepo ports.EventRepository
	dedup     DedupChecker
	log       zerolog.Logger
}

// NewEventService returns the audit EventService implementation.
func NewEventService(eventRepo ports.EventRepository, dedup DedupChecker, log zerolog.Logger) ports.EventService {
	return &eventService{
		eventRepo: eventRepo,
		dedup:     dedup,
		log:       log,
	}
}

// Process deduplicates and persists a single audit event.
func (s *eventService) Process(ctx context.Context, in domain.RecordEvent) (err error) {
	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.AuditProcessingDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	}()

	// Duplicates are skipped silently; a broken dedup store does not stop
	// the event from being recorded.
	isDup, err := s.dedup.IsDuplicate(ctx, in)
	if err != nil {
		s.log.Warn().Err(err).Str("record_id", in.RecordID).Msg("dedup check failed, processing anyway")
	} else if isDup {
		metrics.AuditDedupTotal.WithLabelValues("hit").Inc()
		s.log.Debug().Str("record_id", in.RecordID).Str("action", string(in.Action)).Msg("duplicate event skipped")
		return nil
	}
	metrics.AuditDedupTotal.WithLabelValues("miss").Inc()

	if err := s.eventRepo.InsertEvent(ctx, &in); err != nil {
		metrics.AuditErrorsTotal.WithLabelValues("insert_failed").Inc()
		return fmt.Errorf("process event: insert: %w", err)
	}

	if markErr := s.dedup.Mark(ctx, in); markErr != nil {
		s.log.Warn().Err(markErr).Str("record_id", in.RecordID).Msg("failed to set dedup key")
	}

	metrics.AuditEventsTotal.WithLabelValues(string(in.Table), string(in.Action)).Inc()
	s.log.Debug().
		Str("table", string(in.Table)).
		Str("record_id", in.RecordID).
		Str("action", string(in.Action)).
		Str("actor_id", in.ActorID).
		Msg("event processed")

	return nil
}
