// Package gateway gives the client one CRUD object per remote table.
package gateway

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/communityboard/board-system/internal/core/domain"
	"github.com/communityboard/board-system/internal/core/ports"
)

// IdentitySource supplies the signed-in identity; session.Store satisfies it.
type IdentitySource interface {
	Identity() (domain.Identity, bool)
}

// Gateway lists and mutates one table. It never checks ownership itself:
// update and delete go straight to the remote store, which decides.
type Gateway[R domain.Record, D domain.Draft[R], P domain.Patch[R]] struct {
	table   ports.Table[R, D, P]
	session IdentitySource
	log     zerolog.Logger

	mu       sync.RWMutex
	snapshot []R
}

func New[R domain.Record, D domain.Draft[R], P domain.Patch[R]](table ports.Table[R, D, P], session IdentitySource, log zerolog.Logger) *Gateway[R, D, P] {
	return &Gateway[R, D, P]{
		table:   table,
		session: session,
		log:     log.With().Str("table", string(table.Name())).Logger(),
	}
}

type (
	LostFound = Gateway[domain.LostFoundRecord, domain.LostFoundDraft, domain.LostFoundPatch]
	Jobs      = Gateway[domain.JobRecord, domain.JobDraft, domain.JobPatch]
	News      = Gateway[domain.NewsRecord, domain.NewsDraft, domain.NewsPatch]
)

func (g *Gateway[R, D, P]) Table() domain.Table { return g.table.Name() }

// List fetches every row newest first. On failure the previous snapshot is
// kept and a *domain.FetchError is returned.
func (g *Gateway[R, D, P]) List(ctx context.Context) ([]R, error) {
	rows, err := g.table.SelectAll(ctx)
	if err != nil {
		g.log.Warn().Err(err).Msg("list failed, keeping previous rows")
		return nil, &domain.FetchError{Table: g.table.Name(), Err: err}
	}

	g.mu.Lock()
	g.snapshot = rows
	g.mu.Unlock()
	return clone(rows), nil
}

// Snapshot returns the rows of the last successful List.
func (g *Gateway[R, D, P]) Snapshot() []R {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return clone(g.snapshot)
}

// Create inserts a row owned by the signed-in identity.
func (g *Gateway[R, D, P]) Create(ctx context.Context, draft D) (R, error) {
	var zero R
	identity, ok := g.session.Identity()
	if !ok {
		return zero, g.writeErr("create", "", domain.ErrNotAuthenticated)
	}
	if err := draft.Validate(); err != nil {
		return zero, g.writeErr("create", "", err)
	}

	row, err := g.table.Insert(ctx, identity.ID, draft)
	if err != nil {
		return zero, g.writeErr("create", "", err)
	}
	g.log.Info().Str("record_id", row.RecordID()).Msg("record created")
	return row, nil
}

func (g *Gateway[R, D, P]) Update(ctx context.Context, id string, patch P) (R, error) {
	var zero R
	if err := patch.Validate(); err != nil {
		return zero, g.writeErr("update", id, err)
	}

	row, err := g.table.Update(ctx, id, patch)
	if err != nil {
		return zero, g.writeErr("update", id, err)
	}
	g.log.Info().Str("record_id", id).Msg("record updated")
	return row, nil
}

func (g *Gateway[R, D, P]) Delete(ctx context.Context, id string) error {
	if err := g.table.Delete(ctx, id); err != nil {
		return g.writeErr("delete", id, err)
	}
	g.log.Info().Str("record_id", id).Msg("record deleted")
	return nil
}

// DeleteOwnedBy removes every row owned by ownerID. Removing nothing is not
// an error.
func (g *Gateway[R, D, P]) DeleteOwnedBy(ctx context.Context, ownerID string) error {
	if err := g.table.DeleteByOwner(ctx, ownerID); err != nil {
		return g.writeErr("delete_owned", "", err)
	}
	return nil
}

func (g *Gateway[R, D, P]) writeErr(op, id string, err error) error {
	g.log.Warn().Err(err).Str("op", op).Str("record_id", id).Msg("write failed")
	return &domain.WriteError{Table: g.table.Name(), Op: op, ID: id, Err: err}
}

func clone[R any](rows []R) []R {
	if rows == nil {
		return nil
	}
	out := make([]R, len(rows))
	copy(out, rows)
	return out
}
