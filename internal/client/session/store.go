// Package session holds the client's view of who is signed in.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/communityboard/board-system/internal/core/domain"
	"github.com/communityboard/board-system/internal/core/ports"
)

// State is a Store lifecycle state.
//
//	Uninitialized → Loading → {Authenticated, Anonymous}
//	Authenticated ⇄ Anonymous
type State int

const (
	Uninitialized State = iota
	Loading
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	}
	return "unknown"
}

// Change is delivered to subscribers on every state or identity change.
// Identity is nil unless To is Authenticated.
type Change struct {
	From     State
	To       State
	Identity *domain.Identity
}

// Store tracks the current identity. Sign-in and sign-up do not return the
// identity; it arrives through the auth client's state-change notifications,
// and dependents learn about it through Subscribe.
type Store struct {
	auth ports.AuthClient
	log  zerolog.Logger

	mu        sync.RWMutex
	state     State
	identity  *domain.Identity
	listeners map[int]func(Change)
	nextID    int
	unsub     func()
}

func New(auth ports.AuthClient, log zerolog.Logger) *Store {
	return &Store{
		auth:      auth,
		log:       log,
		listeners: make(map[int]func(Change)),
	}
}

// Init resolves the persisted session. It is a no-op after the first call.
// A failed lookup leaves the store Anonymous rather than failing.
func (s *Store) Init(ctx context.Context) {
	if !s.begin() {
		return
	}
	unsub := s.auth.OnAuthStateChange(s.onAuthEvent)
	s.mu.Lock()
	s.unsub = unsub
	s.mu.Unlock()

	sess, err := s.auth.GetSession(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("session lookup failed, continuing signed out")
		s.set(Anonymous, nil)
		return
	}
	if sess == nil {
		s.set(Anonymous, nil)
		return
	}
	s.set(Authenticated, &sess.Identity)
}

// Close stops listening to the auth client.
func (s *Store) Close() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (s *Store) onAuthEvent(ev ports.AuthEvent) {
	switch ev.Kind {
	case ports.AuthSignedIn, ports.AuthInitialSession:
		if ev.Session == nil {
			s.set(Anonymous, nil)
			return
		}
		s.set(Authenticated, &ev.Session.Identity)
	case ports.AuthSignedOut:
		s.set(Anonymous, nil)
	}
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Loading reports whether the initial session lookup is still running.
func (s *Store) Loading() bool {
	return s.State() == Loading
}

// Identity returns the signed-in identity, if any.
func (s *Store) Identity() (domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != Authenticated || s.identity == nil {
		return domain.Identity{}, false
	}
	return *s.identity, true
}

func (s *Store) IsAdmin() bool {
	id, ok := s.Identity()
	return ok && id.IsAdmin()
}

func (s *Store) SignIn(ctx context.Context, email, password string) error {
	if err := s.auth.SignInWithPassword(ctx, email, password); err != nil {
		return &domain.AuthError{Op: "sign_in", Err: err}
	}
	return nil
}

// SignUp creates a member account.
func (s *Store) SignUp(ctx context.Context, email, password string) error {
	return s.signUp(ctx, email, password, domain.RoleMember)
}

// SignUpAdmin creates an account carrying the admin role in its sign-up
// metadata. Whether that is honoured is up to the remote store.
func (s *Store) SignUpAdmin(ctx context.Context, email, password string) error {
	return s.signUp(ctx, email, password, domain.RoleAdmin)
}

func (s *Store) signUp(ctx context.Context, email, password string, role domain.Role) error {
	if err := s.auth.SignUp(ctx, email, password, role); err != nil {
		return &domain.AuthError{Op: "sign_up", Err: err}
	}
	return nil
}

// SignOut ends the session. The store is Anonymous afterwards even when the
// remote call fails; that failure is still returned.
func (s *Store) SignOut(ctx context.Context) error {
	err := s.auth.SignOut(ctx)
	s.set(Anonymous, nil)
	if err != nil {
		return &domain.AuthError{Op: "sign_out", Err: err}
	}
	return nil
}

// Subscribe registers fn for every Change until the returned func is called.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// set moves to state with identity and notifies subscribers outside the
// lock. Repeating the current state with the same identity is silent.
func (s *Store) set(state State, identity *domain.Identity) {
	var copied *domain.Identity
	if identity != nil {
		c := *identity
		copied = &c
	}

	s.mu.Lock()
	from := s.state
	if from == state && sameIdentity(s.identity, copied) {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.identity = copied
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.notify(listeners, Change{From: from, To: state, Identity: copied})
}

// begin moves the store from Uninitialized to Loading. Only the first
// caller gets true.
func (s *Store) begin() bool {
	s.mu.Lock()
	if s.state != Uninitialized {
		s.mu.Unlock()
		return false
	}
	s.state = Loading
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.notify(listeners, Change{From: Uninitialized, To: Loading})
	return true
}

func (s *Store) listenersLocked() []func(Change) {
	listeners := make([]func(Change), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	return listeners
}

func (s *Store) notify(listeners []func(Change), change Change) {
	s.log.Debug().Stringer("from", change.From).Stringer("to", change.To).Msg("session state changed")
	for _, fn := range listeners {
		fn(change)
	}
}

func sameIdentity(a, b *domain.Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID && a.Role == b.Role
}
