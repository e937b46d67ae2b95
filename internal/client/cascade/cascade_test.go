package cascade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/communityboard/board-system/internal/client/gateway"
	"github.com/communityboard/board-system/internal/client/gateway/gatewaytest"
	"github.com/communityboard/board-system/internal/core/domain"
)

type fakeSession struct {
	identity   *domain.Identity
	signOutErr error
	signOuts   int
}

func (s *fakeSession) Identity() (domain.Identity, bool) {
	if s.identity == nil {
		return domain.Identity{}, false
	}
	return *s.identity, true
}

func (s *fakeSession) SignOut(context.Context) error {
	s.signOuts++
	s.identity = nil
	return s.signOutErr
}

type fakeIdentities struct {
	adminErr   error
	selfErr    error
	adminCalls int
	selfCalls  int
	deleted    []string
}

func (f *fakeIdentities) AdminDeleteUser(_ context.Context, id string) error {
	f.adminCalls++
	if f.adminErr != nil {
		return f.adminErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIdentities) DeleteSelf(context.Context) error {
	f.selfCalls++
	if f.selfErr != nil {
		return f.selfErr
	}
	f.deleted = append(f.deleted, "self")
	return nil
}

type (
	lostFoundTable = gatewaytest.MemTable[domain.LostFoundRecord, domain.LostFoundDraft, domain.LostFoundPatch]
	jobsTable      = gatewaytest.MemTable[domain.JobRecord, domain.JobDraft, domain.JobPatch]
	newsTable      = gatewaytest.MemTable[domain.NewsRecord, domain.NewsDraft, domain.NewsPatch]
)

type fixture struct {
	session    *fakeSession
	identities *fakeIdentities
	lostFound  *lostFoundTable
	jobs       *jobsTable
	news       *newsTable
	cursor     *MemoryCursor
	cascade    *Cascade
}

func newFixture(identity domain.Identity) *fixture {
	f := &fixture{
		session:    &fakeSession{identity: &identity},
		identities: &fakeIdentities{},
		lostFound:  gatewaytest.NewMemTable[domain.LostFoundRecord, domain.LostFoundDraft, domain.LostFoundPatch](domain.TableLostFound),
		jobs:       gatewaytest.NewMemTable[domain.JobRecord, domain.JobDraft, domain.JobPatch](domain.TableJobs),
		news:       gatewaytest.NewMemTable[domain.NewsRecord, domain.NewsDraft, domain.NewsPatch](domain.TableNews),
		cursor:     NewMemoryCursor(),
	}
	tables := Tables{
		LostFound: gateway.New[domain.LostFoundRecord, domain.LostFoundDraft, domain.LostFoundPatch](f.lostFound, f.session, zerolog.Nop()),
		Jobs:      gateway.New[domain.JobRecord, domain.JobDraft, domain.JobPatch](f.jobs, f.session, zerolog.Nop()),
		News:      gateway.New[domain.NewsRecord, domain.NewsDraft, domain.NewsPatch](f.news, f.session, zerolog.Nop()),
	}
	f.cascade = New(f.session, f.identities, tables, f.cursor, zerolog.Nop())
	return f
}

var created = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// seed gives u two lost-found rows and one job, plus one row of each
// for someone else.
func (f *fixture) seed(u string) {
	f.lostFound.Seed(
		domain.LostFoundRecord{ID: "lf1", OwnerID: u, Kind: domain.KindLost, CreatedAt: created},
		domain.LostFoundRecord{ID: "lf2", OwnerID: u, Kind: domain.KindFound, CreatedAt: created},
		domain.LostFoundRecord{ID: "lf3", OwnerID: "other", Kind: domain.KindFound, CreatedAt: created},
	)
	f.jobs.Seed(
		domain.JobRecord{ID: "j1", OwnerID: u, Kind: domain.KindOffer, CreatedAt: created},
		domain.JobRecord{ID: "j2", OwnerID: "other", Kind: domain.KindOffer, CreatedAt: created},
	)
}

var (
	member = domain.Identity{ID: "u1", Email: "u1@example.com", Role: domain.RoleMember}
	admin  = domain.Identity{ID: "a1", Email: "a1@example.com", Role: domain.RoleAdmin}
)

func TestMemberCascade(t *testing.T) {
	f := newFixture(member)
	f.seed(member.ID)

	if err := f.cascade.Run(context.Background(), domain.ConfirmationPhrase); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if n := f.lostFound.OwnedBy(member.ID); n != 0 {
		t.Errorf("lost-found rows left: %d", n)
	}
	if n := f.jobs.OwnedBy(member.ID); n != 0 {
		t.Errorf("job rows left: %d", n)
	}
	if f.lostFound.OwnedBy("other") != 1 || f.jobs.OwnedBy("other") != 1 {
		t.Error("rows of other identities were removed")
	}
	if len(f.identities.deleted) != 1 || f.identities.deleted[0] != member.ID {
		t.Errorf("identity deletions = %v", f.identities.deleted)
	}
	if _, ok := f.session.Identity(); ok || f.session.signOuts != 1 {
		t.Error("session should be signed out exactly once")
	}
	if step, _ := f.cursor.Load(context.Background(), member.ID); step != domain.StepNone {
		t.Errorf("cursor not cleared: %s", step)
	}
}

func TestNonAdminNeverTouchesNews(t *testing.T) {
	f := newFixture(member)
	f.news.Seed(domain.NewsRecord{ID: "n1", AuthorID: member.ID, CreatedAt: created})

	if err := f.cascade.Run(context.Background(), domain.ConfirmationPhrase); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls := f.news.Calls("delete_by_owner"); calls != 0 {
		t.Errorf("news deletion attempted %d times", calls)
	}
}

func TestAdminCascadeRemovesNews(t *testing.T) {
	f := newFixture(admin)
	f.news.Seed(
		domain.NewsRecord{ID: "n1", AuthorID: admin.ID, CreatedAt: created},
		domain.NewsRecord{ID: "n2", AuthorID: "someone", CreatedAt: created},
	)

	if err := f.cascade.Run(context.Background(), domain.ConfirmationPhrase); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n := f.news.OwnedBy(admin.ID); n != 0 {
		t.Errorf("news rows left: %d", n)
	}
	if n := f.news.OwnedBy("someone"); n != 1 {
		t.Errorf("foreign news rows = %d, want 1", n)
	}
}

func TestWrongPhraseDeletesNothing(t *testing.T) {
	for _, phrase := range []string{"", "delete my account", "DELETE MY ACCOUNT ", " DELETE MY ACCOUNT", "DELETE"} {
		f := newFixture(member)
		f.seed(member.ID)

		err := f.cascade.Run(context.Background(), phrase)
		if !errors.Is(err, domain.ErrConfirmationMismatch) {
			t.Fatalf("%q: expected ErrConfirmationMismatch, got %v", phrase, err)
		}
		if f.lostFound.Calls("delete_by_owner")+f.jobs.Calls("delete_by_owner") != 0 {
			t.Errorf("%q: deletion attempted", phrase)
		}
		if f.identities.adminCalls+f.identities.selfCalls != 0 || f.session.signOuts != 0 {
			t.Errorf("%q: identity or session touched", phrase)
		}
	}
}

func TestRequiresSession(t *testing.T) {
	f := newFixture(member)
	f.session.identity = nil

	err := f.cascade.Run(context.Background(), domain.ConfirmationPhrase)
	if !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestAbortsOnFirstFailure(t *testing.T) {
	f := newFixture(member)
	f.seed(member.ID)
	boom := errors.New("transport error")
	f.lostFound.FailNext("delete_by_owner", boom)

	err := f.cascade.Run(context.Background(), domain.ConfirmationPhrase)

	var ce *domain.CascadeError
	if !errors.As(err, &ce) || ce.Step != domain.StepLostFound {
		t.Fatalf("expected CascadeError at lost_found, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("cause lost: %v", err)
	}
	if calls := f.jobs.Calls("delete_by_owner"); calls != 0 {
		t.Errorf("job deletion attempted %d times", calls)
	}
	if f.identities.adminCalls+f.identities.selfCalls != 0 {
		t.Error("identity deletion attempted")
	}
	if f.session.signOuts != 0 {
		t.Error("signed out after a failed step")
	}
}

func TestFailureLeavesEarlierStepsDone(t *testing.T) {
	f := newFixture(member)
	f.seed(member.ID)
	f.jobs.FailNext("delete_by_owner", errors.New("timeout"))

	err := f.cascade.Run(context.Background(), domain.ConfirmationPhrase)

	var ce *domain.CascadeError
	if !errors.As(err, &ce) || ce.Step != domain.StepJobs {
		t.Fatalf("expected CascadeError at jobs, got %v", err)
	}
	if n := f.lostFound.OwnedBy(member.ID); n != 0 {
		t.Errorf("lost-found rows should stay deleted, %d left", n)
	}
	if n := f.jobs.OwnedBy(member.ID); n != 1 {
		t.Errorf("job rows = %d, want 1", n)
	}
	if step, _ := f.cursor.Load(context.Background(), member.ID); step != domain.StepLostFound {
		t.Errorf("cursor = %s, want lost_found", step)
	}
}

func TestRetryRepeatsBulkDeletes(t *testing.T) {
	f := newFixture(member)
	f.seed(member.ID)
	f.identities.adminErr = errors.New("forbidden")
	f.identities.selfErr = errors.New("rpc unavailable")

	err := f.cascade.Run(context.Background(), domain.ConfirmationPhrase)
	var ce *domain.CascadeError
	if !errors.As(err, &ce) || ce.Step != domain.StepIdentity {
		t.Fatalf("expected CascadeError at identity, got %v", err)
	}
	if f.session.signOuts != 0 {
		t.Fatal("signed out before the identity was deleted")
	}

	// Posted between the failed run and the retry.
	f.lostFound.Seed(domain.LostFoundRecord{ID: "lf9", OwnerID: member.ID, Kind: domain.KindLost, CreatedAt: created})

	f.identities.selfErr = nil
	if err := f.cascade.Run(context.Background(), domain.ConfirmationPhrase); err != nil {
		t.Fatalf("retry: %v", err)
	}

	if n := f.lostFound.OwnedBy(member.ID); n != 0 {
		t.Errorf("row created before the retry survived, %d left", n)
	}
	if calls := f.lostFound.Calls("delete_by_owner"); calls != 2 {
		t.Errorf("lost-found step ran %d times, want 2", calls)
	}
	if calls := f.jobs.Calls("delete_by_owner"); calls != 2 {
		t.Errorf("jobs step ran %d times, want 2", calls)
	}
	if f.session.signOuts != 1 {
		t.Errorf("sign outs = %d, want 1", f.session.signOuts)
	}
	if step, _ := f.cursor.Load(context.Background(), member.ID); step != domain.StepNone {
		t.Errorf("cursor not cleared: %s", step)
	}
}

func TestRetrySkipsCompletedIdentityDeletion(t *testing.T) {
	f := newFixture(member)
	if err := f.cursor.Save(context.Background(), member.ID, domain.StepIdentity); err != nil {
		t.Fatalf("save cursor: %v", err)
	}

	if err := f.cascade.Run(context.Background(), domain.ConfirmationPhrase); err != nil {
		t.Fatalf("run: %v", err)
	}
	if f.identities.adminCalls != 0 || f.identities.selfCalls != 0 {
		t.Errorf("identity deleted again: admin=%d self=%d", f.identities.adminCalls, f.identities.selfCalls)
	}
	if f.session.signOuts != 1 {
		t.Errorf("sign outs = %d, want 1", f.session.signOuts)
	}
}

func TestIdentityFallsBackToSelfDeletion(t *testing.T) {
	f := newFixture(member)
	f.identities.adminErr = errors.New("service role required")

	if err := f.cascade.Run(context.Background(), domain.ConfirmationPhrase); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.identities.adminCalls != 1 || f.identities.selfCalls != 1 {
		t.Errorf("admin calls %d, self calls %d", f.identities.adminCalls, f.identities.selfCalls)
	}
}

func TestPrivilegedDeletionSkipsFallback(t *testing.T) {
	f := newFixture(member)

	if err := f.cascade.Run(context.Background(), domain.ConfirmationPhrase); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.identities.selfCalls != 0 {
		t.Errorf("self-deletion called %d times", f.identities.selfCalls)
	}
}

func TestSignOutFailureClearsCursor(t *testing.T) {
	f := newFixture(member)
	f.session.signOutErr = errors.New("network down")

	err := f.cascade.Run(context.Background(), domain.ConfirmationPhrase)
	var ce *domain.CascadeError
	if !errors.As(err, &ce) || ce.Step != domain.StepSignOut {
		t.Fatalf("expected CascadeError at sign_out, got %v", err)
	}
	if _, ok := f.session.Identity(); ok {
		t.Error("session should be anonymous after a failed sign-out")
	}
	if step, _ := f.cursor.Load(context.Background(), member.ID); step != domain.StepNone {
		t.Errorf("cursor = %s, want cleared", step)
	}
}
