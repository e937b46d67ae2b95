package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/communityboard/board-system/internal/core/domain"
	"github.com/communityboard/board-system/internal/core/ports"
)

type stubEventRepo struct {
	insertErr error
	inserted  []*domain.RecordEvent
}

func (r *stubEventRepo) InsertEvent(_ context.Context, e *domain.RecordEvent) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, e)
	return nil
}

type stubDedup struct {
	dupResult bool
	dupErr    error
	markErr   error
	marked    []string
}

func (d *stubDedup) IsDuplicate(context.Context, domain.RecordEvent) (bool, error) {
	return d.dupResult, d.dupErr
}

func (d *stubDedup) Mark(_ context.Context, e domain.RecordEvent) error {
	if d.markErr != nil {
		return d.markErr
	}
	d.marked = append(d.marked, e.RecordID+":"+string(e.Action))
	return nil
}

func newEventSvc(repo *stubEventRepo, dedup *stubDedup) ports.EventService {
	return NewEventService(repo, dedup, zerolog.Nop())
}

func sampleEvent() domain.RecordEvent {
	return domain.RecordEvent{
		Table:    domain.TableJobs,
		RecordID: "job-1",
		Action:   domain.ActionCreated,
		ActorID:  "alice",
		At:       time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestEventService_Process_HappyPath(t *testing.T) {
	repo := &stubEventRepo{}
	dedup := &stubDedup{}
	svc := newEventSvc(repo, dedup)

	if err := svc.Process(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if len(repo.inserted) != 1 || repo.inserted[0].RecordID != "job-1" {
		t.Fatalf("expected event inserted, got %+v", repo.inserted)
	}
	if len(dedup.marked) != 1 || dedup.marked[0] != "job-1:created" {
		t.Fatalf("expected dedup mark, got %v", dedup.marked)
	}
}

func TestEventService_Process_DuplicateSkipped(t *testing.T) {
	repo := &stubEventRepo{}
	svc := newEventSvc(repo, &stubDedup{dupResult: true})

	if err := svc.Process(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("duplicate should be skipped silently, got %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Fatalf("duplicate must not be inserted")
	}
}

func TestEventService_Process_DedupErrorFailsOpen(t *testing.T) {
	repo := &stubEventRepo{}
	svc := newEventSvc(repo, &stubDedup{dupErr: errors.New("redis down")})

	if err := svc.Process(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("expected processing despite dedup error, got %v", err)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected event inserted")
	}
}

func TestEventService_Process_InsertError(t *testing.T) {
	boom := errors.New("mongo down")
	dedup := &stubDedup{}
	svc := newEventSvc(&stubEventRepo{insertErr: boom}, dedup)

	if err := svc.Process(context.Background(), sampleEvent()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped insert error, got %v", err)
	}
	if len(dedup.marked) != 0 {
		t.Fatalf("failed insert must not be marked")
	}
}

func TestEventService_Process_MarkErrorIgnored(t *testing.T) {
	repo := &stubEventRepo{}
	svc := newEventSvc(repo, &stubDedup{markErr: errors.New("redis down")})

	if err := svc.Process(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("mark failure should not fail processing, got %v", err)
	}
}
