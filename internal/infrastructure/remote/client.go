// Package remote talks to boardd over HTTP. Client implements
// ports.AuthClient; Table implements ports.Table for each record table.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/communityboard/board-system/internal/core/domain"
	"github.com/communityboard/board-system/internal/core/ports"
)

const maxErrorBody = 64 << 10

// SessionPersister keeps the session between processes.
// localstate.SessionFile satisfies it.
type SessionPersister interface {
	Load() (*domain.Session, error)
	Save(*domain.Session) error
	Clear() error
}

type Config struct {
	URL     string
	AnonKey string
	Timeout time.Duration
}

type Client struct {
	base     *url.URL
	anonKey  string
	http     *http.Client
	sessions SessionPersister
	log      zerolog.Logger

	mu        sync.RWMutex
	session   *domain.Session
	loaded    bool
	listeners map[int]func(ports.AuthEvent)
	nextID    int
}

var _ ports.AuthClient = (*Client)(nil)

// New builds a Client. sessions may be nil, in which case the session only
// lives in memory.
func New(cfg Config, sessions SessionPersister, log zerolog.Logger) (*Client, error) {
	if cfg.URL == "" || cfg.AnonKey == "" {
		return nil, errors.New("remote: store URL and anon key are required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("remote: invalid store URL %q", cfg.URL)
	}
	return &Client{
		base:      base,
		anonKey:   cfg.AnonKey,
		http:      &http.Client{Timeout: cfg.Timeout},
		sessions:  sessions,
		log:       log,
		listeners: make(map[int]func(ports.AuthEvent)),
	}, nil
}

// StatusError is returned for error responses whose code has no domain
// equivalent.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("remote: %d %s", e.Status, e.Message)
}

type errorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var codeErrors = map[string]error{
	"invalid_credentials": domain.ErrInvalidCredentials,
	"identity_exists":     domain.ErrIdentityExists,
	"not_authenticated":   domain.ErrNotAuthenticated,
	"token_revoked":       domain.ErrTokenRevoked,
	"forbidden":           domain.ErrForbidden,
	"not_found":           domain.ErrRecordNotFound,
	"invalid_kind":        domain.ErrInvalidKind,
	"invalid_input":       domain.ErrInvalidInput,
	"unknown_table":       domain.ErrUnknownTable,
}

// decodeError turns a non-2xx response into a domain error when the code is
// known, a *StatusError otherwise.
func decodeError(resp *http.Response) error {
	var env errorEnvelope
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(raw, &env); err != nil {
		env.Error = strings.TrimSpace(string(raw))
	}

	if sentinel, ok := codeErrors[env.Code]; ok {
		if env.Error == "" {
			return sentinel
		}
		return fmt.Errorf("%w: %s", sentinel, env.Error)
	}
	return &StatusError{Status: resp.StatusCode, Code: env.Code, Message: env.Error}
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	// raw bodies skip JSON encoding
	raw         io.Reader
	contentType string
	// anonymous requests never carry the bearer token
	anonymous bool
}

// do sends req and decodes a 2xx JSON body into out when out is non-nil.
func (c *Client) do(ctx context.Context, req request, out any) error {
	u := *c.base
	u.Path = c.base.Path + req.path
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	body := req.raw
	contentType := req.contentType
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return err
	}
	httpReq.Header.Set("apikey", c.anonKey)
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if !req.anonymous {
		if s := c.current(); s != nil {
			httpReq.Header.Set("Authorization", "Bearer "+s.AccessToken)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Debug().Err(err).Str("method", req.method).Str("path", req.path).Msg("request failed")
		return fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", req.method).
		Str("path", req.path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.method, req.path, err)
	}
	return nil
}

func (c *Client) current() *domain.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}
