package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrIdentityExists       = errors.New("identity already exists")
	ErrIdentityNotFound     = errors.New("identity not found")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrForbidden            = errors.New("access forbidden")
	ErrTokenRevoked         = errors.New("token revoked")
	ErrRecordNotFound       = errors.New("record not found")
	ErrInvalidKind          = errors.New("invalid record kind")
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnknownTable         = errors.New("unknown table")
	ErrConfirmationMismatch = errors.New("confirmation phrase does not match")
)

// AuthError wraps failures of sign-in, sign-up and sign-out.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("auth %s: %v", e.Op, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// FetchError wraps a failed list of a table.
type FetchError struct {
	Table Table
	Err   error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.Table, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// WriteError wraps a failed insert, update or delete.
type WriteError struct {
	Table Table
	Op    string
	ID    string
	Err   error
}

func (e *WriteError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Table, e.ID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// CascadeError reports the step at which an account deletion stopped.
// Steps before Step have completed and are not rolled back.
type CascadeError struct {
	Step CascadeStep
	Err  error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("account deletion aborted at %s: %v", e.Step, e.Err)
}

func (e *CascadeError) Unwrap() error { return e.Err }
