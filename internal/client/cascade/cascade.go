// Package cascade removes an account and everything it owns, one step at a
// time, remembering how far it got.
package cascade

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/communityboard/board-system/internal/core/domain"
	"github.com/communityboard/board-system/internal/core/ports"
)

// Session is the part of session.Store the cascade drives.
type Session interface {
	Identity() (domain.Identity, bool)
	SignOut(ctx context.Context) error
}

// IdentityDeleter removes the identity itself. ports.AuthClient satisfies it.
type IdentityDeleter interface {
	AdminDeleteUser(ctx context.Context, id string) error
	DeleteSelf(ctx context.Context) error
}

// OwnerDeleter bulk-deletes one table's rows for an owner; every
// gateway.Gateway satisfies it.
type OwnerDeleter interface {
	DeleteOwnedBy(ctx context.Context, ownerID string) error
}

type Tables struct {
	LostFound OwnerDeleter
	Jobs      OwnerDeleter
	News      OwnerDeleter
}

type Cascade struct {
	session    Session
	identities IdentityDeleter
	tables     Tables
	cursor     ports.CursorStore
	log        zerolog.Logger
}

// New builds a Cascade. A nil cursor keeps progress in memory only.
func New(session Session, identities IdentityDeleter, tables Tables, cursor ports.CursorStore, log zerolog.Logger) *Cascade {
	if cursor == nil {
		cursor = NewMemoryCursor()
	}
	return &Cascade{
		session:    session,
		identities: identities,
		tables:     tables,
		cursor:     cursor,
		log:        log,
	}
}

// Run deletes the signed-in account. confirmation must equal
// domain.ConfirmationPhrase exactly or nothing is touched.
//
// Steps run in order and the first failure stops the run with a
// *domain.CascadeError naming the step. Completed steps are not undone. A
// retry for the same identity repeats the bulk deletes, so rows created
// since the failure go too, and skips an identity deletion that already
// succeeded.
func (c *Cascade) Run(ctx context.Context, confirmation string) error {
	if confirmation != domain.ConfirmationPhrase {
		return domain.ErrConfirmationMismatch
	}
	identity, ok := c.session.Identity()
	if !ok {
		return domain.ErrNotAuthenticated
	}

	log := c.log.With().Str("identity_id", identity.ID).Logger()

	done, err := c.cursor.Load(ctx, identity.ID)
	if err != nil {
		log.Warn().Err(err).Msg("cascade cursor unreadable, starting from the first step")
		done = domain.StepNone
	}
	if done != domain.StepNone {
		log.Info().Stringer("after", done).Msg("resuming account deletion")
	}

	for _, step := range domain.CascadeSteps {
		if step <= done && !step.Repeatable() {
			continue
		}

		if step == domain.StepNews && !identity.IsAdmin() {
			log.Debug().Stringer("step", step).Msg("skipped, not an admin")
			c.save(ctx, log, identity.ID, step)
			continue
		}

		log.Info().Stringer("step", step).Msg("account deletion step started")
		if err := c.exec(ctx, log, step, identity); err != nil {
			log.Error().Err(err).Stringer("step", step).Msg("account deletion aborted")
			if step == domain.StepSignOut {
				// The identity is already gone; there is nothing to resume.
				c.clear(ctx, log, identity.ID)
			}
			return &domain.CascadeError{Step: step, Err: err}
		}
		log.Info().Stringer("step", step).Msg("account deletion step completed")

		if step != domain.StepSignOut {
			c.save(ctx, log, identity.ID, step)
		}
	}

	c.clear(ctx, log, identity.ID)
	log.Info().Msg("account deleted")
	return nil
}

func (c *Cascade) exec(ctx context.Context, log zerolog.Logger, step domain.CascadeStep, identity domain.Identity) error {
	switch step {
	case domain.StepLostFound:
		return c.tables.LostFound.DeleteOwnedBy(ctx, identity.ID)
	case domain.StepJobs:
		return c.tables.Jobs.DeleteOwnedBy(ctx, identity.ID)
	case domain.StepNews:
		return c.tables.News.DeleteOwnedBy(ctx, identity.ID)
	case domain.StepIdentity:
		return c.deleteIdentity(ctx, log, identity.ID)
	case domain.StepSignOut:
		return c.session.SignOut(ctx)
	default:
		return fmt.Errorf("unknown cascade step %d", step)
	}
}

// deleteIdentity tries the privileged path and falls back to self-deletion.
func (c *Cascade) deleteIdentity(ctx context.Context, log zerolog.Logger, id string) error {
	adminErr := c.identities.AdminDeleteUser(ctx, id)
	if adminErr == nil {
		return nil
	}
	log.Warn().Err(adminErr).Msg("privileged identity deletion failed, falling back to self-deletion")

	selfErr := c.identities.DeleteSelf(ctx)
	if selfErr == nil {
		return nil
	}
	return errors.Join(adminErr, selfErr)
}

func (c *Cascade) save(ctx context.Context, log zerolog.Logger, id string, step domain.CascadeStep) {
	if err := c.cursor.Save(ctx, id, step); err != nil {
		log.Warn().Err(err).Stringer("step", step).Msg("failed to save cascade cursor")
	}
}

func (c *Cascade) clear(ctx context.Context, log zerolog.Logger, id string) {
	if err := c.cursor.Clear(ctx, id); err != nil {
		log.Warn().Err(err).Msg("failed to clear cascade cursor")
	}
}
