package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/communityboard/board-system/internal/core/domain"
	"github.com/communityboard/board-system/internal/core/ports"
	"github.com/communityboard/board-system/internal/pkg/metrics"
)

const minPasswordLen = 6

// AuthService implements sign-up, sign-in, token checks and account
// deletion.
type AuthService struct {
	repo             ports.IdentityRepository
	denylist         ports.TokenDenylist
	events           ports.EventPublisher
	jwtSecret        string
	tokenTTL         time.Duration
	allowAdminSignup bool
	logger           zerolog.Logger
	now              func() time.Time
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithAdminSignup controls whether sign-up may request the admin role.
func WithAdminSignup(allowed bool) AuthOption {
	return func(s *AuthService) { s.allowAdminSignup = allowed }
}

// WithEventPublisher sends identity deletions to the audit feed.
func WithEventPublisher(p ports.EventPublisher) AuthOption {
	return func(s *AuthService) { s.events = p }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

func NewAuthService(repo ports.IdentityRepository, denylist ports.TokenDenylist, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger, opts ...AuthOption) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	s := &AuthService{
		repo:             repo,
		denylist:         denylist,
		events:           noopPublisher{},
		jwtSecret:        jwtSecret,
		tokenTTL:         tokenTTL,
		allowAdminSignup: true,
		logger:           logger,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type tokenClaims struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *AuthService) SignUp(ctx context.Context, email, password string, role domain.Role) (*domain.Session, error) {
	session, err := s.signUp(ctx, email, password, role)
	observeAuth("signup", err)
	return session, err
}

func (s *AuthService) signUp(ctx context.Context, email, password string, role domain.Role) (*domain.Session, error) {
	email = normalizeEmail(email)
	if email == "" || len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: email and a password of at least %d characters are required", domain.ErrInvalidInput, minPasswordLen)
	}
	if role == "" {
		role = domain.RoleMember
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	// Role comes from client-supplied signup metadata.
	if role == domain.RoleAdmin && !s.allowAdminSignup {
		return nil, domain.ErrForbidden
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	identity, err := s.repo.Create(ctx, &domain.Identity{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("identity_id", identity.ID).Str("role", string(identity.Role)).Msg("identity created")
	return s.issue(identity)
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	session, err := s.signIn(ctx, email, password)
	observeAuth("signin", err)
	return session, err
}

func (s *AuthService) signIn(ctx context.Context, email, password string) (*domain.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	identity, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issue(identity)
}

func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Identity, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if revoked {
		return nil, domain.ErrTokenRevoked
	}

	identity, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, domain.ErrNotAuthenticated
		}
		return nil, err
	}
	return identity, nil
}

func (s *AuthService) SignOut(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err == nil {
		err = s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
	}
	observeAuth("signout", err)
	return err
}

func (s *AuthService) DeleteIdentity(ctx context.Context, actor ports.Actor, id string) error {
	path := "privileged"
	if !actor.Service {
		if actor.Identity == nil {
			return domain.ErrNotAuthenticated
		}
		if actor.Identity.ID != id {
			return domain.ErrForbidden
		}
		path = "self"
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	metrics.IdentitiesDeletedTotal.WithLabelValues(path).Inc()
	s.logger.Info().Str("identity_id", id).Str("path", path).Msg("identity deleted")
	s.events.Publish(domain.RecordEvent{
		Table:    domain.TableIdentities,
		RecordID: id,
		Action:   domain.ActionDeleted,
		ActorID:  actorID(actor),
		At:       s.now().UTC(),
	})
	return nil
}

func (s *AuthService) issue(identity *domain.Identity) (*domain.Session, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	claims := tokenClaims{
		Email: identity.Email,
		Role:  identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}
	return &domain.Session{AccessToken: signed, ExpiresAt: expiresAt.UTC(), Identity: *identity}, nil
}

func (s *AuthService) parse(token string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !tkn.Valid || claims.Subject == "" || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func observeAuth(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.AuthAttemptsTotal.WithLabelValues(op, result).Inc()
}

func actorID(actor ports.Actor) string {
	if actor.Identity != nil {
		return actor.Identity.ID
	}
	if actor.Service {
		return "service_role"
	}
	return ""
}

type noopPublisher struct{}

func (noopPublisher) Publish(domain.RecordEvent) {}
