package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/communityboard/board-system/internal/core/domain"
	"github.com/communityboard/board-system/internal/core/ports"
	"github.com/communityboard/board-system/internal/pkg/metrics"
)

// RecordService enforces the store-side write rules for one table:
// lost-found and job rows belong to their owner, news rows to admins.
// Clients are never trusted to check this themselves.
type RecordService[R domain.Record, D domain.Draft[R], P domain.Patch[R]] struct {
	table  domain.Table
	repo   ports.RecordRepository[R]
	events ports.EventPublisher
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

func NewRecordService[R domain.Record, D domain.Draft[R], P domain.Patch[R]](
	table domain.Table,
	repo ports.RecordRepository[R],
	events ports.EventPublisher,
	logger zerolog.Logger,
) *RecordService[R, D, P] {
	if events == nil {
		events = noopPublisher{}
	}
	return &RecordService[R, D, P]{
		table:  table,
		repo:   repo,
		events: events,
		logger: logger.With().Str("table", string(table)).Logger(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

type (
	LostFoundService = RecordService[domain.LostFoundRecord, domain.LostFoundDraft, domain.LostFoundPatch]
	JobService       = RecordService[domain.JobRecord, domain.JobDraft, domain.JobPatch]
	NewsService      = RecordService[domain.NewsRecord, domain.NewsDraft, domain.NewsPatch]
)

func NewLostFoundService(repo ports.RecordRepository[domain.LostFoundRecord], events ports.EventPublisher, logger zerolog.Logger) *LostFoundService {
	return NewRecordService[domain.LostFoundRecord, domain.LostFoundDraft, domain.LostFoundPatch](domain.TableLostFound, repo, events, logger)
}

func NewJobService(repo ports.RecordRepository[domain.JobRecord], events ports.EventPublisher, logger zerolog.Logger) *JobService {
	return NewRecordService[domain.JobRecord, domain.JobDraft, domain.JobPatch](domain.TableJobs, repo, events, logger)
}

func NewNewsService(repo ports.RecordRepository[domain.NewsRecord], events ports.EventPublisher, logger zerolog.Logger) *NewsService {
	return NewRecordService[domain.NewsRecord, domain.NewsDraft, domain.NewsPatch](domain.TableNews, repo, events, logger)
}

func (s *RecordService[R, D, P]) Table() domain.Table { return s.table }

func (s *RecordService[R, D, P]) List(ctx context.Context) ([]R, error) {
	return s.repo.List(ctx)
}

// Create inserts a row owned by the caller. ownerID may be empty; when set
// it must name the caller.
func (s *RecordService[R, D, P]) Create(ctx context.Context, actor ports.Actor, ownerID string, draft D) (R, error) {
	var zero R
	if actor.Identity == nil {
		return zero, domain.ErrNotAuthenticated
	}
	if ownerID != "" && ownerID != actor.Identity.ID {
		return zero, s.deny()
	}
	if s.table.AdminOnly() && !actor.Identity.IsAdmin() {
		return zero, s.deny()
	}
	if err := draft.Validate(); err != nil {
		return zero, err
	}

	record := draft.Build(s.newID(), actor.Identity.ID, s.timestamp())
	if err := s.repo.Insert(ctx, record); err != nil {
		s.logger.Error().Err(err).Msg("failed to insert record")
		return zero, err
	}

	s.written(actor, record.RecordID(), domain.ActionCreated)
	return record, nil
}

func (s *RecordService[R, D, P]) Update(ctx context.Context, actor ports.Actor, id string, patch P) (R, error) {
	var zero R
	if err := patch.Validate(); err != nil {
		return zero, err
	}
	if err := s.authorize(ctx, actor, id); err != nil {
		return zero, err
	}

	updated, err := s.repo.Update(ctx, id, patch.Changes(), s.timestamp())
	if err != nil {
		return zero, err
	}

	s.written(actor, id, domain.ActionUpdated)
	return updated, nil
}

func (s *RecordService[R, D, P]) Delete(ctx context.Context, actor ports.Actor, id string) error {
	if err := s.authorize(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.written(actor, id, domain.ActionDeleted)
	return nil
}

// DeleteByOwner removes every row owned by ownerID. Callers may only clear
// their own rows unless they hold the service-role key.
func (s *RecordService[R, D, P]) DeleteByOwner(ctx context.Context, actor ports.Actor, ownerID string) (int64, error) {
	if ownerID == "" {
		return 0, domain.ErrInvalidInput
	}
	if !actor.Service {
		if actor.Identity == nil {
			return 0, domain.ErrNotAuthenticated
		}
		if actor.Identity.ID != ownerID {
			return 0, s.deny()
		}
		if s.table.AdminOnly() && !actor.Identity.IsAdmin() {
			return 0, s.deny()
		}
	}

	n, err := s.repo.DeleteByOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	s.logger.Info().Str("owner_id", ownerID).Int64("deleted", n).Msg("owner rows deleted")
	if n > 0 {
		metrics.RecordWritesTotal.WithLabelValues(string(s.table), string(domain.ActionDeleted)).Add(float64(n))
		s.events.Publish(domain.RecordEvent{
			Table:    s.table,
			RecordID: "owner:" + ownerID,
			Action:   domain.ActionDeleted,
			ActorID:  actorID(actor),
			At:       s.timestamp(),
		})
	}
	return n, nil
}

// authorize loads the row and checks the caller may change it.
func (s *RecordService[R, D, P]) authorize(ctx context.Context, actor ports.Actor, id string) error {
	if actor.Service {
		return nil
	}
	if actor.Identity == nil {
		return domain.ErrNotAuthenticated
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if s.table.AdminOnly() {
		if !actor.Identity.IsAdmin() {
			return s.deny()
		}
		return nil
	}
	if current.RecordOwner() != actor.Identity.ID {
		return s.deny()
	}
	return nil
}

func (s *RecordService[R, D, P]) deny() error {
	metrics.RecordWriteDeniedTotal.WithLabelValues(string(s.table)).Inc()
	return domain.ErrForbidden
}

func (s *RecordService[R, D, P]) written(actor ports.Actor, id string, action domain.RecordAction) {
	metrics.RecordWritesTotal.WithLabelValues(string(s.table), string(action)).Inc()
	s.logger.Info().Str("record_id", id).Str("action", string(action)).Str("actor_id", actorID(actor)).Msg("record written")
	s.events.Publish(domain.RecordEvent{
		Table:    s.table,
		RecordID: id,
		Action:   action,
		ActorID:  actorID(actor),
		At:       s.timestamp(),
	})
}

// timestamp is truncated to the store's millisecond precision so returned
// rows compare equal to listed ones.
func (s *RecordService[R, D, P]) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}
