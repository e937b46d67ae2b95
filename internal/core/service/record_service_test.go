package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/communityboard/board-system/internal/core/domain"
	"github.com/communityboard/board-system/internal/core/ports"
)

// memRecordRepo is an in-memory ports.RecordRepository that applies patches
// through the domain Patch type, like the store does with $set.
type memRecordRepo[R domain.Record, P domain.Patch[R]] struct {
	mu      sync.Mutex
	rows    map[string]R
	listErr error
	patches map[string]P
}

func newMemRecordRepo[R domain.Record, P domain.Patch[R]]() *memRecordRepo[R, P] {
	return &memRecordRepo[R, P]{rows: make(map[string]R), patches: make(map[string]P)}
}

func (r *memRecordRepo[R, P]) List(context.Context) ([]R, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]R, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].RecordCreatedAt(), out[j].RecordCreatedAt()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return out[i].RecordID() > out[j].RecordID()
	})
	return out, nil
}

func (r *memRecordRepo[R, P]) FindByID(_ context.Context, id string) (R, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return row, domain.ErrRecordNotFound
	}
	return row, nil
}

func (r *memRecordRepo[R, P]) Insert(_ context.Context, record R) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[record.RecordID()] = record
	return nil
}

// Update needs the typed patch; stage it with stagePatch before calling the
// service.
func (r *memRecordRepo[R, P]) Update(_ context.Context, id string, _ map[string]any, now time.Time) (R, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return row, domain.ErrRecordNotFound
	}
	if p, ok := r.patches[id]; ok {
		p.Apply(&row, now)
	}
	r.rows[id] = row
	return row, nil
}

func (r *memRecordRepo[R, P]) stagePatch(id string, p P) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patches[id] = p
}

func (r *memRecordRepo[R, P]) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return domain.ErrRecordNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *memRecordRepo[R, P]) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, row := range r.rows {
		if row.RecordOwner() == ownerID {
			delete(r.rows, id)
			n++
		}
	}
	return n, nil
}

var (
	alice = &domain.Identity{ID: "alice", Email: "alice@example.com", Role: domain.RoleMember}
	bob   = &domain.Identity{ID: "bob", Email: "bob@example.com", Role: domain.RoleMember}
	admin = &domain.Identity{ID: "root", Email: "root@example.com", Role: domain.RoleAdmin}
)

func member(i *domain.Identity) ports.Actor { return ports.Actor{Identity: i} }

func newLostFoundFixture() (*LostFoundService, *memRecordRepo[domain.LostFoundRecord, domain.LostFoundPatch], *recordingPublisher) {
	repo := newMemRecordRepo[domain.LostFoundRecord, domain.LostFoundPatch]()
	pub := &recordingPublisher{}
	svc := NewLostFoundService(repo, pub, zerolog.Nop())
	ids := []string{"lf-1", "lf-2", "lf-3", "lf-4"}
	svc.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		base = base.Add(time.Minute)
		return base
	}
	return svc, repo, pub
}

func TestRecordService_CreateSetsOwnerAndTimestamps(t *testing.T) {
	svc, _, pub := newLostFoundFixture()

	got, err := svc.Create(context.Background(), member(alice), "", domain.LostFoundDraft{
		Title:       "  Blue wallet ",
		Description: "Left near the station",
		Kind:        domain.KindLost,
		Location:    "  ",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	want := domain.LostFoundRecord{
		ID:          "lf-1",
		Title:       "Blue wallet",
		Description: "Left near the station",
		Kind:        domain.KindLost,
		OwnerID:     "alice",
		CreatedAt:   time.Date(2024, 3, 1, 9, 1, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2024, 3, 1, 9, 1, 0, 0, time.UTC),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Create mismatch (-want +got):\n%s", diff)
	}

	events := pub.all()
	if len(events) != 1 || events[0].Action != domain.ActionCreated || events[0].ActorID != "alice" {
		t.Fatalf("unexpected audit events: %+v", events)
	}
}

func TestRecordService_CreateRejects(t *testing.T) {
	svc, repo, _ := newLostFoundFixture()
	valid := domain.LostFoundDraft{Title: "Keys", Description: "Three keys", Kind: domain.KindFound}

	cases := []struct {
		name    string
		actor   ports.Actor
		ownerID string
		draft   domain.LostFoundDraft
		want    error
	}{
		{"anonymous", ports.Actor{}, "", valid, domain.ErrNotAuthenticated},
		{"foreign owner", member(alice), "bob", valid, domain.ErrForbidden},
		{"bad kind", member(alice), "", domain.LostFoundDraft{Title: "Keys", Description: "x", Kind: "stolen"}, domain.ErrInvalidKind},
		{"blank title", member(alice), "", domain.LostFoundDraft{Title: " ", Description: "x", Kind: domain.KindLost}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tc.actor, tc.ownerID, tc.draft); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if len(repo.rows) != 0 {
		t.Fatalf("rejected creates must not write, found %d rows", len(repo.rows))
	}
}

func TestRecordService_UpdateOwnerOnly(t *testing.T) {
	svc, repo, _ := newLostFoundFixture()
	created, err := svc.Create(context.Background(), member(alice), "alice", domain.LostFoundDraft{
		Title: "Umbrella", Description: "Black", Kind: domain.KindFound,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	title := "Red umbrella"
	patch := domain.LostFoundPatch{Title: &title}
	repo.stagePatch(created.ID, patch)

	if _, err := svc.Update(context.Background(), member(bob), created.ID, patch); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}

	updated, err := svc.Update(context.Background(), member(alice), created.ID, patch)
	if err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	if updated.Title != "Red umbrella" || updated.OwnerID != "alice" {
		t.Fatalf("unexpected updated row: %+v", updated)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Fatalf("updated_at not advanced: %v <= %v", updated.UpdatedAt, updated.CreatedAt)
	}

	if _, err := svc.Update(context.Background(), member(alice), "missing", patch); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if _, err := svc.Update(context.Background(), member(alice), created.ID, domain.LostFoundPatch{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty patch, got %v", err)
	}
}

func TestRecordService_DeleteOwnerOnly(t *testing.T) {
	svc, repo, _ := newLostFoundFixture()
	created, _ := svc.Create(context.Background(), member(alice), "", domain.LostFoundDraft{
		Title: "Bike", Description: "Green", Kind: domain.KindLost,
	})

	if err := svc.Delete(context.Background(), member(bob), created.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(context.Background(), member(alice), created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(repo.rows) != 0 {
		t.Fatalf("row not deleted")
	}
}

func TestRecordService_DeleteByOwner(t *testing.T) {
	svc, repo, _ := newLostFoundFixture()
	draft := domain.LostFoundDraft{Title: "Cat", Description: "Grey", Kind: domain.KindLost}
	_, _ = svc.Create(context.Background(), member(alice), "", draft)
	_, _ = svc.Create(context.Background(), member(alice), "", draft)
	_, _ = svc.Create(context.Background(), member(bob), "", draft)

	if _, err := svc.DeleteByOwner(context.Background(), member(bob), "alice"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	n, err := svc.DeleteByOwner(context.Background(), member(alice), "alice")
	if err != nil {
		t.Fatalf("delete by owner failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows deleted, got %d", n)
	}

	n, err = svc.DeleteByOwner(context.Background(), member(alice), "alice")
	if err != nil || n != 0 {
		t.Fatalf("second delete should be a no-op, got n=%d err=%v", n, err)
	}

	n, err = svc.DeleteByOwner(context.Background(), ports.Actor{Service: true}, "bob")
	if err != nil || n != 1 {
		t.Fatalf("service delete: n=%d err=%v", n, err)
	}
	if len(repo.rows) != 0 {
		t.Fatalf("expected empty table, got %d rows", len(repo.rows))
	}
}

func TestRecordService_ListNewestFirst(t *testing.T) {
	svc, _, _ := newLostFoundFixture()
	draft := domain.LostFoundDraft{Title: "Item", Description: "x", Kind: domain.KindFound}
	for i := 0; i < 3; i++ {
		if _, err := svc.Create(context.Background(), member(alice), "", draft); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	rows, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var ids []string
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"lf-3", "lf-2", "lf-1"}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestNewsService_AdminOnly(t *testing.T) {
	repo := newMemRecordRepo[domain.NewsRecord, domain.NewsPatch]()
	svc := NewNewsService(repo, nil, zerolog.Nop())
	draft := domain.NewsDraft{Title: "Fair", Content: "Saturday at noon"}

	if _, err := svc.Create(context.Background(), member(alice), "", draft); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for member, got %v", err)
	}

	post, err := svc.Create(context.Background(), member(admin), "", draft)
	if err != nil {
		t.Fatalf("admin create failed: %v", err)
	}
	if post.AuthorID != admin.ID {
		t.Fatalf("expected author %s, got %s", admin.ID, post.AuthorID)
	}

	if err := svc.Delete(context.Background(), member(alice), post.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for member delete, got %v", err)
	}
	if _, err := svc.DeleteByOwner(context.Background(), member(alice), "alice"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for member bulk delete, got %v", err)
	}
	if n, err := svc.DeleteByOwner(context.Background(), member(admin), admin.ID); err != nil || n != 1 {
		t.Fatalf("admin bulk delete: n=%d err=%v", n, err)
	}
}
