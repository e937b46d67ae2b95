package ports

import (
	"context"

	"github.com/communityboard/board-system/internal/core/domain"
)

// AuthEventKind names a session transition reported by the remote auth
// subsystem.
type AuthEventKind string

const (
	AuthInitialSession AuthEventKind = "INITIAL_SESSION"
	AuthSignedIn       AuthEventKind = "SIGNED_IN"
	AuthSignedOut      AuthEventKind = "SIGNED_OUT"
)

// AuthEvent is delivered to OnAuthStateChange listeners. Session is nil for
// AuthSignedOut.
type AuthEvent struct {
	Kind    AuthEventKind
	Session *domain.Session
}

// AuthClient is the client's view of the remote auth subsystem.
type AuthClient interface {
	// GetSession returns the persisted session, or nil when there is none.
	GetSession(ctx context.Context) (*domain.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password string, role domain.Role) error
	SignOut(ctx context.Context) error
	OnAuthStateChange(fn func(AuthEvent)) (unsubscribe func())
	// AdminDeleteUser is the privileged deletion path; it fails without the
	// service-role key.
	AdminDeleteUser(ctx context.Context, id string) error
	// DeleteSelf is the self-service deletion procedure.
	DeleteSelf(ctx context.Context) error
}

// Table is the client's view of one remote table.
type Table[R domain.Record, D domain.Draft[R], P domain.Patch[R]] interface {
	Name() domain.Table
	SelectAll(ctx context.Context) ([]R, error)
	Insert(ctx context.Context, ownerID string, draft D) (R, error)
	Update(ctx context.Context, id string, patch P) (R, error)
	Delete(ctx context.Context, id string) error
	DeleteByOwner(ctx context.Context, ownerID string) error
}

// CursorStore persists the last completed account deletion step per
// identity so an interrupted deletion can resume.
type CursorStore interface {
	Load(ctx context.Context, identityID string) (domain.CascadeStep, error)
	Save(ctx context.Context, identityID string, step domain.CascadeStep) error
	Clear(ctx context.Context, identityID string) error
}
