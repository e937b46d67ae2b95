// Package localstate keeps the CLI's state between runs as TOML files in
// the state directory.
package localstate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/communityboard/board-system/internal/core/domain"
)

const (
	sessionFileName = "session.toml"
	cursorFileName  = "cascade.toml"
)

type sessionDoc struct {
	AccessToken string    `toml:"access_token"`
	ExpiresAt   time.Time `toml:"expires_at"`
	User        userDoc   `toml:"user"`
}

type userDoc struct {
	ID    string `toml:"id"`
	Email string `toml:"email"`
	Role  string `toml:"role"`
}

// SessionFile persists the signed-in session.
type SessionFile struct {
	path string
	now  func() time.Time
}

func NewSessionFile(dir string) *SessionFile {
	return &SessionFile{path: filepath.Join(dir, sessionFileName), now: time.Now}
}

func (f *SessionFile) Path() string { return f.path }

// Load returns the stored session, or nil when there is none or it has
// expired.
func (f *SessionFile) Load() (*domain.Session, error) {
	var doc sessionDoc
	if _, err := toml.DecodeFile(f.path, &doc); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if doc.AccessToken == "" || doc.User.ID == "" {
		return nil, nil
	}
	if !doc.ExpiresAt.IsZero() && !f.now().Before(doc.ExpiresAt) {
		return nil, nil
	}

	return &domain.Session{
		AccessToken: doc.AccessToken,
		ExpiresAt:   doc.ExpiresAt,
		Identity: domain.Identity{
			ID:    doc.User.ID,
			Email: doc.User.Email,
			Role:  domain.Role(doc.User.Role),
		},
	}, nil
}

func (f *SessionFile) Save(s *domain.Session) error {
	doc := sessionDoc{
		AccessToken: s.AccessToken,
		ExpiresAt:   s.ExpiresAt.UTC(),
		User: userDoc{
			ID:    s.Identity.ID,
			Email: s.Identity.Email,
			Role:  string(s.Identity.Role),
		},
	}
	return writeTOML(f.path, doc)
}

// Clear removes the file; a missing file is not an error.
func (f *SessionFile) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// writeTOML replaces path atomically; the file may hold a bearer token so
// it is private to the user.
func writeTOML(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	buf := strings.Builder{}
	if err := toml.NewEncoder(&buf).Encode(v); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(buf.String()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
