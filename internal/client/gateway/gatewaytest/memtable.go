// Package gatewaytest provides an in-memory ports.Table for tests of the
// gateways and everything built on them.
package gatewaytest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/communityboard/board-system/internal/core/domain"
)

// MemTable is an in-process ports.Table. It orders rows like the remote
// store (created_at desc, id desc) and applies patches with the domain Patch
// types. It does no authorization.
type MemTable[R domain.Record, D domain.Draft[R], P domain.Patch[R]] struct {
	name domain.Table
	now  func() time.Time

	mu   sync.Mutex
	rows map[string]R
	// keyed by op: select, insert, update, delete, delete_by_owner
	fail  map[string]error
	calls map[string]int
}

func NewMemTable[R domain.Record, D domain.Draft[R], P domain.Patch[R]](name domain.Table) *MemTable[R, D, P] {
	return &MemTable[R, D, P]{
		name:  name,
		now:   time.Now,
		rows:  make(map[string]R),
		fail:  make(map[string]error),
		calls: make(map[string]int),
	}
}

// WithClock replaces time.Now.
func (t *MemTable[R, D, P]) WithClock(now func() time.Time) *MemTable[R, D, P] {
	t.now = now
	return t
}

// FailNext makes the next call of op return err.
func (t *MemTable[R, D, P]) FailNext(op string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fail[op] = err
}

// Calls reports how many times op was invoked, failed calls included.
func (t *MemTable[R, D, P]) Calls(op string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls[op]
}

// Seed stores rows as they are.
func (t *MemTable[R, D, P]) Seed(rows ...R) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range rows {
		t.rows[r.RecordID()] = r
	}
}

// OwnedBy counts the rows owned by ownerID.
func (t *MemTable[R, D, P]) OwnedBy(ownerID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, r := range t.rows {
		if r.RecordOwner() == ownerID {
			n++
		}
	}
	return n
}

func (t *MemTable[R, D, P]) Name() domain.Table { return t.name }

func (t *MemTable[R, D, P]) enter(op string) error {
	t.calls[op]++
	if err, ok := t.fail[op]; ok {
		delete(t.fail, op)
		return err
	}
	return nil
}

func (t *MemTable[R, D, P]) SelectAll(context.Context) ([]R, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("select"); err != nil {
		return nil, err
	}
	out := make([]R, 0, len(t.rows))
	for _, r := range t.rows {
		out = append(out, r)
	}
	SortNewestFirst(out)
	return out, nil
}

func (t *MemTable[R, D, P]) Insert(_ context.Context, ownerID string, draft D) (R, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var zero R
	if err := t.enter("insert"); err != nil {
		return zero, err
	}
	row := draft.Build(uuid.NewString(), ownerID, t.now().UTC())
	t.rows[row.RecordID()] = row
	return row, nil
}

func (t *MemTable[R, D, P]) Update(_ context.Context, id string, patch P) (R, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("update"); err != nil {
		var zero R
		return zero, err
	}
	row, ok := t.rows[id]
	if !ok {
		return row, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	patch.Apply(&row, t.now().UTC())
	t.rows[id] = row
	return row, nil
}

func (t *MemTable[R, D, P]) Delete(_ context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("delete"); err != nil {
		return err
	}
	if _, ok := t.rows[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	delete(t.rows, id)
	return nil
}

func (t *MemTable[R, D, P]) DeleteByOwner(_ context.Context, ownerID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("delete_by_owner"); err != nil {
		return err
	}
	for id, r := range t.rows {
		if r.RecordOwner() == ownerID {
			delete(t.rows, id)
		}
	}
	return nil
}

// SortNewestFirst orders rows by created_at descending, breaking ties by
// id descending.
func SortNewestFirst[R domain.Record](rows []R) {
	sort.SliceStable(rows, func(i, j int) bool {
		ti, tj := rows[i].RecordCreatedAt(), rows[j].RecordCreatedAt()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return rows[i].RecordID() > rows[j].RecordID()
	})
}
