package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	"github.com/communityboard/board-system/internal/client"
	"github.com/communityboard/board-system/internal/client/cascade"
	"github.com/communityboard/board-system/internal/client/gateway/gatewaytest"
	"github.com/communityboard/board-system/internal/core/domain"
	"github.com/communityboard/board-system/internal/core/ports"
	"github.com/communityboard/board-system/internal/pkg/config"
)

type account struct {
	password string
	identity domain.Identity
}

// fakeRemote stands in for boardd across several command runs.
type fakeRemote struct {
	mu        sync.Mutex
	accounts  map[string]account
	session   *domain.Session
	listeners map[int]func(ports.AuthEvent)
	next      int

	lostFound *gatewaytest.MemTable[domain.LostFoundRecord, domain.LostFoundDraft, domain.LostFoundPatch]
	jobs      *gatewaytest.MemTable[domain.JobRecord, domain.JobDraft, domain.JobPatch]
	news      *gatewaytest.MemTable[domain.NewsRecord, domain.NewsDraft, domain.NewsPatch]
	cursor    *cascade.MemoryCursor
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		accounts:  make(map[string]account),
		listeners: make(map[int]func(ports.AuthEvent)),
		lostFound: gatewaytest.NewMemTable[domain.LostFoundRecord, domain.LostFoundDraft, domain.LostFoundPatch](domain.TableLostFound),
		jobs:      gatewaytest.NewMemTable[domain.JobRecord, domain.JobDraft, domain.JobPatch](domain.TableJobs),
		news:      gatewaytest.NewMemTable[domain.NewsRecord, domain.NewsDraft, domain.NewsPatch](domain.TableNews),
		cursor:    cascade.NewMemoryCursor(),
	}
}

func (f *fakeRemote) backend(_ context.Context, _ *config.ClientConfig, log zerolog.Logger) (*Backend, error) {
	board := client.New(f, client.Tables{LostFound: f.lostFound, Jobs: f.jobs, News: f.news}, f.cursor, log)
	return &Backend{Board: board}, nil
}

func (f *fakeRemote) emit(ev ports.AuthEvent) {
	f.mu.Lock()
	fns := make([]func(ports.AuthEvent), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (f *fakeRemote) GetSession(context.Context) (*domain.Session, error) { return f.session, nil }

func (f *fakeRemote) SignInWithPassword(_ context.Context, email, password string) error {
	acc, ok := f.accounts[email]
	if !ok || acc.password != password {
		return domain.ErrInvalidCredentials
	}
	f.session = &domain.Session{AccessToken: "t", Identity: acc.identity}
	f.emit(ports.AuthEvent{Kind: ports.AuthSignedIn, Session: f.session})
	return nil
}

func (f *fakeRemote) SignUp(_ context.Context, email, password string, role domain.Role) error {
	if _, ok := f.accounts[email]; ok {
		return domain.ErrIdentityExists
	}
	acc := account{password: password, identity: domain.Identity{ID: "id-" + email, Email: email, Role: role}}
	f.accounts[email] = acc
	f.session = &domain.Session{AccessToken: "t", Identity: acc.identity}
	f.emit(ports.AuthEvent{Kind: ports.AuthSignedIn, Session: f.session})
	return nil
}

func (f *fakeRemote) SignOut(context.Context) error {
	f.session = nil
	f.emit(ports.AuthEvent{Kind: ports.AuthSignedOut})
	return nil
}

func (f *fakeRemote) OnAuthStateChange(fn func(ports.AuthEvent)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

func (f *fakeRemote) AdminDeleteUser(context.Context, string) error { return domain.ErrForbidden }

func (f *fakeRemote) DeleteSelf(context.Context) error {
	if f.session == nil {
		return domain.ErrNotAuthenticated
	}
	delete(f.accounts, f.session.Identity.Email)
	return nil
}

func testEnv(t *testing.T) envconfig.Lookuper {
	return envconfig.MapLookuper(map[string]string{
		"BOARD_URL":       "http://board.test",
		"BOARD_ANON_KEY":  "anon",
		"BOARD_STATE_DIR": t.TempDir(),
	})
}

// run builds a fresh root per invocation; cobra keeps flag values between
// Execute calls on the same command tree.
func run(t *testing.T, f *fakeRemote, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("test", WithLookuper(testEnv(t)), WithBackend(f.backend))
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	return v
}

func TestMissingConfigIsFatal(t *testing.T) {
	root := NewRootCmd("test", WithLookuper(envconfig.MapLookuper(map[string]string{})), WithBackend(newFakeRemote().backend))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"whoami"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "BOARD_URL") {
		t.Fatalf("expected a BOARD_URL error, got %v", err)
	}
}

func TestSignUpAndWhoAmI(t *testing.T) {
	f := newFakeRemote()

	out, err := run(t, f, "secret1\n", "signup", "--email", "ann@example.com")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	got := decode[whoAmI](t, out)
	if got.State != "authenticated" || got.User == nil || got.User.Email != "ann@example.com" || got.IsAdmin {
		t.Errorf("signup output = %+v", got)
	}

	out, err = run(t, f, "", "whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if got := decode[whoAmI](t, out); got.User == nil || got.User.ID != "id-ann@example.com" {
		t.Errorf("whoami output = %+v", got)
	}
}

func TestSignUpAdminPromptsForEmail(t *testing.T) {
	f := newFakeRemote()

	out, err := run(t, f, "root@example.com\nsecret1\n", "signup", "--admin")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if got := decode[whoAmI](t, out); !got.IsAdmin {
		t.Errorf("expected admin, got %+v", got)
	}
}

func TestSignInBadPassword(t *testing.T) {
	f := newFakeRemote()
	if _, err := run(t, f, "secret1\n", "signup", "--email", "ann@example.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, f, "", "signout"); err != nil {
		t.Fatal(err)
	}

	_, err := run(t, f, "wrong\n", "signin", "--email", "ann@example.com")
	if err == nil {
		t.Fatal("expected an error")
	}
	if msg := Notice(err); msg != "invalid email or password" {
		t.Errorf("notice = %q", msg)
	}

	if _, err := run(t, f, "secret1\n", "signin", "--email", "ann@example.com"); err != nil {
		t.Fatalf("signin: %v", err)
	}
}

func TestRecordLifecycle(t *testing.T) {
	f := newFakeRemote()
	if _, err := run(t, f, "secret1\n", "signup", "--email", "ann@example.com"); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, f, "", "jobs", "create",
		"--title", " Gardener ", "--description", "Weekly", "--type", "offer", "--salary", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	created := decode[domain.JobRecord](t, out)
	if created.Title != "Gardener" || created.OwnerID != "id-ann@example.com" || created.SalaryRange != nil {
		t.Errorf("created = %+v", created)
	}

	out, err = run(t, f, "", "jobs", "update", created.ID, "--location", "Old town")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	updated := decode[domain.JobRecord](t, out)
	if updated.Location == nil || *updated.Location != "Old town" || updated.Title != "Gardener" {
		t.Errorf("updated = %+v", updated)
	}

	out, err = run(t, f, "", "jobs", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if rows := decode[[]domain.JobRecord](t, out); len(rows) != 1 || rows[0].ID != created.ID {
		t.Errorf("list = %+v", rows)
	}

	if _, err := run(t, f, "", "jobs", "delete", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	out, _ = run(t, f, "", "jobs", "list")
	if rows := decode[[]domain.JobRecord](t, out); len(rows) != 0 {
		t.Errorf("list after delete = %+v", rows)
	}
}

func TestCreateRejectsBadKind(t *testing.T) {
	f := newFakeRemote()
	if _, err := run(t, f, "secret1\n", "signup", "--email", "ann@example.com"); err != nil {
		t.Fatal(err)
	}

	_, err := run(t, f, "", "lost-found", "create", "--title", "Cat", "--description", "Grey", "--type", "stolen")
	if !errors.Is(err, domain.ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestCreateRequiresSession(t *testing.T) {
	_, err := run(t, newFakeRemote(), "", "lost-found", "create", "--title", "Cat", "--description", "Grey", "--type", "found")
	if !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if msg := Notice(err); !strings.Contains(msg, "not signed in") {
		t.Errorf("notice = %q", msg)
	}
}

func TestDeleteAccountWrongPhrase(t *testing.T) {
	f := newFakeRemote()
	if _, err := run(t, f, "secret1\n", "signup", "--email", "ann@example.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, f, "", "lost-found", "create", "--title", "Cat", "--description", "Grey", "--type", "found"); err != nil {
		t.Fatal(err)
	}

	_, err := run(t, f, "delete my account\n", "delete-account")
	if !errors.Is(err, domain.ErrConfirmationMismatch) {
		t.Fatalf("expected ErrConfirmationMismatch, got %v", err)
	}
	if f.lostFound.OwnedBy("id-ann@example.com") != 1 {
		t.Error("rows deleted despite the wrong phrase")
	}
}

func TestDeleteAccount(t *testing.T) {
	f := newFakeRemote()
	if _, err := run(t, f, "secret1\n", "signup", "--email", "ann@example.com"); err != nil {
		t.Fatal(err)
	}
	for _, title := range []string{"Cat", "Umbrella"} {
		if _, err := run(t, f, "", "lost-found", "create", "--title", title, "--description", "d", "--type", "found"); err != nil {
			t.Fatal(err)
		}
	}

	out, err := run(t, f, "DELETE MY ACCOUNT\n", "delete-account")
	if err != nil {
		t.Fatalf("delete-account: %v", err)
	}
	if got := decode[whoAmI](t, out); got.State != "anonymous" || got.User != nil {
		t.Errorf("after deletion = %+v", got)
	}
	if f.lostFound.OwnedBy("id-ann@example.com") != 0 {
		t.Error("rows survived")
	}
	if _, ok := f.accounts["ann@example.com"]; ok {
		t.Error("account survived")
	}
}

func TestNotice(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&domain.CascadeError{Step: domain.StepJobs, Err: errors.New("timeout")}, "account deletion stopped at step jobs: timeout; run delete-account again to continue"},
		{&domain.FetchError{Table: domain.TableNews, Err: errors.New("offline")}, "could not load news_posts: offline"},
		{&domain.WriteError{Table: domain.TableJobs, Op: "update", ID: "j1", Err: domain.ErrForbidden}, "you are not allowed to update this job_posts row"},
		{&domain.WriteError{Table: domain.TableJobs, Op: "delete", ID: "j1", Err: domain.ErrRecordNotFound}, "job_posts row j1 does not exist"},
		{&domain.AuthError{Op: "sign_up", Err: domain.ErrIdentityExists}, "an account with this email already exists"},
		{errors.New("plain"), "plain"},
	}
	for _, tc := range cases {
		if got := Notice(tc.err); got != tc.want {
			t.Errorf("Notice(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
