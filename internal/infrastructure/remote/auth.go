package remote

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/communityboard/board-system/internal/core/domain"
	"github.com/communityboard/board-system/internal/core/ports"
)

type sessionBody struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresAt   int64           `json:"expires_at"`
	User        domain.Identity `json:"user"`
}

func (b sessionBody) session() *domain.Session {
	return &domain.Session{
		AccessToken: b.AccessToken,
		ExpiresAt:   time.Unix(b.ExpiresAt, 0).UTC(),
		Identity:    b.User,
	}
}

type signUpBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Data     struct {
		Role domain.Role `json:"role,omitempty"`
	} `json:"data"`
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GetSession returns the persisted session after confirming it with the
// store. A session the store no longer accepts is discarded and nil is
// returned.
func (c *Client) GetSession(ctx context.Context) (*domain.Session, error) {
	s, err := c.loadPersisted()
	if err != nil || s == nil {
		return nil, err
	}

	var identity domain.Identity
	err = c.do(ctx, request{method: http.MethodGet, path: "/auth/v1/user"}, &identity)
	switch {
	case err == nil:
		s.Identity = identity
		c.setSession(s)
		return s, nil
	case errors.Is(err, domain.ErrNotAuthenticated), errors.Is(err, domain.ErrTokenRevoked):
		c.log.Info().Msg("stored session rejected, signing out locally")
		c.setSession(nil)
		return nil, nil
	default:
		return nil, err
	}
}

func (c *Client) loadPersisted() (*domain.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded || c.sessions == nil {
		return c.session, nil
	}
	s, err := c.sessions.Load()
	if err != nil {
		return nil, err
	}
	c.session = s
	c.loaded = true
	return s, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) error {
	var out sessionBody
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/v1/token",
		query:     url.Values{"grant_type": {"password"}},
		body:      credentialsBody{Email: email, Password: password},
		anonymous: true,
	}, &out)
	if err != nil {
		return err
	}
	c.signedIn(out.session())
	return nil
}

func (c *Client) SignUp(ctx context.Context, email, password string, role domain.Role) error {
	body := signUpBody{Email: email, Password: password}
	body.Data.Role = role

	var out sessionBody
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/v1/signup",
		body:      body,
		anonymous: true,
	}, &out)
	if err != nil {
		return err
	}
	c.signedIn(out.session())
	return nil
}

// SignOut revokes the token remotely and always drops the local session.
func (c *Client) SignOut(ctx context.Context) error {
	var err error
	if c.current() != nil {
		err = c.do(ctx, request{method: http.MethodPost, path: "/auth/v1/logout"}, nil)
		if errors.Is(err, domain.ErrNotAuthenticated) || errors.Is(err, domain.ErrTokenRevoked) {
			err = nil
		}
	}
	c.setSession(nil)
	c.emit(ports.AuthEvent{Kind: ports.AuthSignedOut})
	return err
}

// AdminDeleteUser only succeeds for callers holding the service-role key;
// with the anon key the store answers 403.
func (c *Client) AdminDeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/auth/v1/admin/users/" + url.PathEscape(id)}, nil)
}

func (c *Client) DeleteSelf(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/rest/v1/rpc/delete_user"}, nil)
}

func (c *Client) OnAuthStateChange(fn func(ports.AuthEvent)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Client) signedIn(s *domain.Session) {
	c.setSession(s)
	c.emit(ports.AuthEvent{Kind: ports.AuthSignedIn, Session: s})
}

func (c *Client) setSession(s *domain.Session) {
	c.mu.Lock()
	c.session = s
	c.loaded = true
	c.mu.Unlock()

	if c.sessions == nil {
		return
	}
	var err error
	if s == nil {
		err = c.sessions.Clear()
	} else {
		err = c.sessions.Save(s)
	}
	if err != nil {
		c.log.Warn().Err(err).Msg("failed to persist session")
	}
}

// emit calls listeners synchronously, outside the lock.
func (c *Client) emit(ev ports.AuthEvent) {
	c.mu.RLock()
	fns := make([]func(ports.AuthEvent), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
