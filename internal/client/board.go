// Package client assembles the board client: one session store, a gateway
// per table and the account deletion cascade, all sharing the same auth
// client.
package client

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/communityboard/board-system/internal/client/cascade"
	"github.com/communityboard/board-system/internal/client/gateway"
	"github.com/communityboard/board-system/internal/client/session"
	"github.com/communityboard/board-system/internal/core/domain"
	"github.com/communityboard/board-system/internal/core/ports"
)

type Tables struct {
	LostFound ports.Table[domain.LostFoundRecord, domain.LostFoundDraft, domain.LostFoundPatch]
	Jobs      ports.Table[domain.JobRecord, domain.JobDraft, domain.JobPatch]
	News      ports.Table[domain.NewsRecord, domain.NewsDraft, domain.NewsPatch]
}

type Board struct {
	Session   *session.Store
	LostFound *gateway.LostFound
	Jobs      *gateway.Jobs
	News      *gateway.News

	cascade *cascade.Cascade
	unsub   func()
	log     zerolog.Logger
}

// New wires the components. cursor may be nil to keep deletion progress in
// memory.
func New(auth ports.AuthClient, tables Tables, cursor ports.CursorStore, log zerolog.Logger) *Board {
	store := session.New(auth, log.With().Str("component", "session").Logger())
	gwLog := log.With().Str("component", "gateway").Logger()

	b := &Board{
		Session:   store,
		LostFound: gateway.New[domain.LostFoundRecord, domain.LostFoundDraft, domain.LostFoundPatch](tables.LostFound, store, gwLog),
		Jobs:      gateway.New[domain.JobRecord, domain.JobDraft, domain.JobPatch](tables.Jobs, store, gwLog),
		News:      gateway.New[domain.NewsRecord, domain.NewsDraft, domain.NewsPatch](tables.News, store, gwLog),
		log:       log,
	}
	b.cascade = cascade.New(store, auth, cascade.Tables{
		LostFound: b.LostFound,
		Jobs:      b.Jobs,
		News:      b.News,
	}, cursor, log.With().Str("component", "cascade").Logger())

	b.unsub = store.Subscribe(func(ch session.Change) {
		ev := log.Info().Stringer("from", ch.From).Stringer("to", ch.To)
		if ch.Identity != nil {
			ev = ev.Str("identity_id", ch.Identity.ID)
		}
		ev.Msg("session changed")
	})
	return b
}

// Init resolves the persisted session.
func (b *Board) Init(ctx context.Context) { b.Session.Init(ctx) }

func (b *Board) Close() {
	b.unsub()
	b.Session.Close()
}

// DeleteAccount removes the signed-in account and everything it owns.
// confirmation must be domain.ConfirmationPhrase.
func (b *Board) DeleteAccount(ctx context.Context, confirmation string) error {
	return b.cascade.Run(ctx, confirmation)
}
