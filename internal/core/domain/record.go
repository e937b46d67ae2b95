package domain

import (
	"fmt"
	"time"
)

// Table names a remote table. Values match the store's collection names.
type Table string

const (
	TableLostFound Table = "lost_found_posts"
	TableJobs      Table = "job_posts"
	TableNews      Table = "news_posts"
)

// Tables lists every table in cascade order.
var Tables = []Table{TableLostFound, TableJobs, TableNews}

// ParseTable resolves a table name coming from a URL or a flag.
func ParseTable(s string) (Table, error) {
	for _, t := range Tables {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTable, s)
}

// OwnerColumn is the column holding the owning identity's id.
func (t Table) OwnerColumn() string {
	if t == TableNews {
		return "author_id"
	}
	return "user_id"
}

// AdminOnly reports whether writes to the table require the admin role
// rather than ownership.
func (t Table) AdminOnly() bool {
	return t == TableNews
}

// Record is implemented by the three row types.
type Record interface {
	RecordID() string
	RecordOwner() string
	RecordCreatedAt() time.Time
}

// LostFoundKind is the closed set of lost & found listing kinds.
type LostFoundKind string

const (
	KindLost  LostFoundKind = "lost"
	KindFound LostFoundKind = "found"
)

// JobKind is the closed set of job posting kinds.
type JobKind string

const (
	KindOffer   JobKind = "offer"
	KindRequest JobKind = "request"
)

// LostFoundRecord is a row of lost_found_posts.
type LostFoundRecord struct {
	ID          string        `json:"id" bson:"_id"`
	Title       string        `json:"title" bson:"title"`
	Description string        `json:"description" bson:"description"`
	Kind        LostFoundKind `json:"type" bson:"type"`
	Location    *string       `json:"location" bson:"location"`
	ContactInfo *string       `json:"contact_info" bson:"contact_info"`
	ImageURL    *string       `json:"image_url" bson:"image_url"`
	OwnerID     string        `json:"user_id" bson:"user_id"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" bson:"updated_at"`
}

func (r LostFoundRecord) RecordID() string           { return r.ID }
func (r LostFoundRecord) RecordOwner() string        { return r.OwnerID }
func (r LostFoundRecord) RecordCreatedAt() time.Time { return r.CreatedAt }

// JobRecord is a row of job_posts.
type JobRecord struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Kind        JobKind   `json:"type" bson:"type"`
	Location    *string   `json:"location" bson:"location"`
	ContactInfo *string   `json:"contact_info" bson:"contact_info"`
	SalaryRange *string   `json:"salary_range" bson:"salary_range"`
	ImageURL    *string   `json:"image_url" bson:"image_url"`
	OwnerID     string    `json:"user_id" bson:"user_id"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

func (r JobRecord) RecordID() string           { return r.ID }
func (r JobRecord) RecordOwner() string        { return r.OwnerID }
func (r JobRecord) RecordCreatedAt() time.Time { return r.CreatedAt }

// NewsRecord is a row of news_posts. Only admins may change it, regardless
// of who authored it.
type NewsRecord struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Content   string    `json:"content" bson:"content"`
	ImageURL  *string   `json:"image_url" bson:"image_url"`
	AuthorID  string    `json:"author_id" bson:"author_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (r NewsRecord) RecordID() string           { return r.ID }
func (r NewsRecord) RecordOwner() string        { return r.AuthorID }
func (r NewsRecord) RecordCreatedAt() time.Time { return r.CreatedAt }
