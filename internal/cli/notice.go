package cli

import (
	"errors"
	"fmt"

	"github.com/communityboard/board-system/internal/core/domain"
)

// Notice turns an error from a command into the message shown to the user.
func Notice(err error) string {
	var (
		cascadeErr *domain.CascadeError
		fetchErr   *domain.FetchError
		writeErr   *domain.WriteError
	)

	switch {
	case errors.Is(err, domain.ErrConfirmationMismatch):
		return fmt.Sprintf("confirmation did not match %q; nothing was deleted", domain.ConfirmationPhrase)
	case errors.As(err, &cascadeErr):
		return fmt.Sprintf("account deletion stopped at step %s: %v; run delete-account again to continue",
			cascadeErr.Step, cascadeErr.Err)
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid email or password"
	case errors.Is(err, domain.ErrIdentityExists):
		return "an account with this email already exists"
	case errors.Is(err, domain.ErrNotAuthenticated), errors.Is(err, domain.ErrTokenRevoked):
		return "you are not signed in; run boardctl signin first"
	case errors.As(err, &fetchErr):
		return fmt.Sprintf("could not load %s: %v", fetchErr.Table, fetchErr.Err)
	case errors.As(err, &writeErr) && errors.Is(err, domain.ErrForbidden):
		return fmt.Sprintf("you are not allowed to %s this %s row", writeErr.Op, writeErr.Table)
	case errors.As(err, &writeErr) && errors.Is(err, domain.ErrRecordNotFound):
		return fmt.Sprintf("%s row %s does not exist", writeErr.Table, writeErr.ID)
	case errors.As(err, &writeErr):
		return fmt.Sprintf("could not %s %s row: %v", writeErr.Op, writeErr.Table, writeErr.Err)
	}
	return err.Error()
}
