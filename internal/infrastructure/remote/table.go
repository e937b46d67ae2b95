package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/communityboard/board-system/internal/core/domain"
	"github.com/communityboard/board-system/internal/core/ports"
)

// Table is one record table reached through the /rest/v1 routes.
type Table[R domain.Record, D domain.Draft[R], P domain.Patch[R]] struct {
	client *Client
	name   domain.Table
}

func NewTable[R domain.Record, D domain.Draft[R], P domain.Patch[R]](client *Client, name domain.Table) *Table[R, D, P] {
	return &Table[R, D, P]{client: client, name: name}
}

func NewLostFoundTable(c *Client) ports.Table[domain.LostFoundRecord, domain.LostFoundDraft, domain.LostFoundPatch] {
	return NewTable[domain.LostFoundRecord, domain.LostFoundDraft, domain.LostFoundPatch](c, domain.TableLostFound)
}

func NewJobsTable(c *Client) ports.Table[domain.JobRecord, domain.JobDraft, domain.JobPatch] {
	return NewTable[domain.JobRecord, domain.JobDraft, domain.JobPatch](c, domain.TableJobs)
}

func NewNewsTable(c *Client) ports.Table[domain.NewsRecord, domain.NewsDraft, domain.NewsPatch] {
	return NewTable[domain.NewsRecord, domain.NewsDraft, domain.NewsPatch](c, domain.TableNews)
}

func (t *Table[R, D, P]) Name() domain.Table { return t.name }

func (t *Table[R, D, P]) path() string { return "/rest/v1/" + string(t.name) }

func (t *Table[R, D, P]) SelectAll(ctx context.Context) ([]R, error) {
	var rows []R
	if err := t.client.do(ctx, request{method: http.MethodGet, path: t.path()}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Insert sends the draft with the owner column set to ownerID.
func (t *Table[R, D, P]) Insert(ctx context.Context, ownerID string, draft D) (R, error) {
	var row R
	body, err := withOwner(draft, t.name.OwnerColumn(), ownerID)
	if err != nil {
		return row, err
	}
	err = t.client.do(ctx, request{method: http.MethodPost, path: t.path(), body: body}, &row)
	return row, err
}

func (t *Table[R, D, P]) Update(ctx context.Context, id string, patch P) (R, error) {
	var row R
	err := t.client.do(ctx, request{method: http.MethodPatch, path: t.path() + "/" + url.PathEscape(id), body: patch}, &row)
	return row, err
}

func (t *Table[R, D, P]) Delete(ctx context.Context, id string) error {
	return t.client.do(ctx, request{method: http.MethodDelete, path: t.path() + "/" + url.PathEscape(id)}, nil)
}

func (t *Table[R, D, P]) DeleteByOwner(ctx context.Context, ownerID string) error {
	return t.client.do(ctx, request{
		method: http.MethodDelete,
		path:   t.path(),
		query:  url.Values{"owner_id": {ownerID}},
	}, nil)
}

func withOwner(draft any, column, ownerID string) (map[string]json.RawMessage, error) {
	b, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("encode draft: %w", err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("encode draft: %w", err)
	}
	owner, _ := json.Marshal(ownerID)
	fields[column] = owner
	return fields, nil
}
