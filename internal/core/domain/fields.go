package domain

import (
	"fmt"
	"strings"
	"time"
)

// Draft is the validated input for creating a record of type R.
type Draft[R Record] interface {
	Validate() error
	Build(id, ownerID string, now time.Time) R
}

// Patch is the validated input for updating a record of type R. A patch
// never carries the record id or its owner.
type Patch[R Record] interface {
	Validate() error
	Apply(r *R, now time.Time)
	Changes() map[string]any
}

// optional trims s and maps an empty result to nil, matching how the
// mobile forms stored blank optional inputs as null.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optionalPtr(p *string) *string {
	if p == nil {
		return nil
	}
	return optional(*p)
}

func trimmed(p *string) string {
	return strings.TrimSpace(*p)
}

var errEmptyPatch = fmt.Errorf("%w: nothing to update", ErrInvalidInput)

// --- lost & found ---

type LostFoundDraft struct {
	Title       string        `json:"title" validate:"notblank"`
	Description string        `json:"description" validate:"notblank"`
	Kind        LostFoundKind `json:"type" validate:"oneof=lost found"`
	Location    string        `json:"location,omitempty"`
	ContactInfo string        `json:"contact_info,omitempty"`
	ImageURL    string        `json:"image_url,omitempty" validate:"omitempty,url"`
}

func (d LostFoundDraft) Validate() error { return Check(d) }

func (d LostFoundDraft) Build(id, ownerID string, now time.Time) LostFoundRecord {
	return LostFoundRecord{
		ID:          id,
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Kind:        d.Kind,
		Location:    optional(d.Location),
		ContactInfo: optional(d.ContactInfo),
		ImageURL:    optional(d.ImageURL),
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// LostFoundPatch changes only the non-nil fields. A non-nil empty optional
// clears the column.
type LostFoundPatch struct {
	Title       *string        `json:"title,omitempty" validate:"omitnil,notblank"`
	Description *string        `json:"description,omitempty" validate:"omitnil,notblank"`
	Kind        *LostFoundKind `json:"type,omitempty" validate:"omitnil,oneof=lost found"`
	Location    *string        `json:"location,omitempty"`
	ContactInfo *string        `json:"contact_info,omitempty"`
	ImageURL    *string        `json:"image_url,omitempty" validate:"omitnil,optionalurl"`
}

func (p LostFoundPatch) Validate() error {
	if len(p.Changes()) == 0 {
		return errEmptyPatch
	}
	return Check(p)
}

func (p LostFoundPatch) Apply(r *LostFoundRecord, now time.Time) {
	if p.Title != nil {
		r.Title = trimmed(p.Title)
	}
	if p.Description != nil {
		r.Description = trimmed(p.Description)
	}
	if p.Kind != nil {
		r.Kind = *p.Kind
	}
	if p.Location != nil {
		r.Location = optional(*p.Location)
	}
	if p.ContactInfo != nil {
		r.ContactInfo = optional(*p.ContactInfo)
	}
	if p.ImageURL != nil {
		r.ImageURL = optional(*p.ImageURL)
	}
	r.UpdatedAt = now
}

func (p LostFoundPatch) Changes() map[string]any {
	c := make(map[string]any)
	if p.Title != nil {
		c["title"] = trimmed(p.Title)
	}
	if p.Description != nil {
		c["description"] = trimmed(p.Description)
	}
	if p.Kind != nil {
		c["type"] = string(*p.Kind)
	}
	if p.Location != nil {
		c["location"] = optionalPtr(p.Location)
	}
	if p.ContactInfo != nil {
		c["contact_info"] = optionalPtr(p.ContactInfo)
	}
	if p.ImageURL != nil {
		c["image_url"] = optionalPtr(p.ImageURL)
	}
	return c
}

// --- jobs ---

type JobDraft struct {
	Title       string  `json:"title" validate:"notblank"`
	Description string  `json:"description" validate:"notblank"`
	Kind        JobKind `json:"type" validate:"oneof=offer request"`
	Location    string  `json:"location,omitempty"`
	ContactInfo string  `json:"contact_info,omitempty"`
	SalaryRange string  `json:"salary_range,omitempty"`
	ImageURL    string  `json:"image_url,omitempty" validate:"omitempty,url"`
}

func (d JobDraft) Validate() error { return Check(d) }

func (d JobDraft) Build(id, ownerID string, now time.Time) JobRecord {
	return JobRecord{
		ID:          id,
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Kind:        d.Kind,
		Location:    optional(d.Location),
		ContactInfo: optional(d.ContactInfo),
		SalaryRange: optional(d.SalaryRange),
		ImageURL:    optional(d.ImageURL),
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

type JobPatch struct {
	Title       *string  `json:"title,omitempty" validate:"omitnil,notblank"`
	Description *string  `json:"description,omitempty" validate:"omitnil,notblank"`
	Kind        *JobKind `json:"type,omitempty" validate:"omitnil,oneof=offer request"`
	Location    *string  `json:"location,omitempty"`
	ContactInfo *string  `json:"contact_info,omitempty"`
	SalaryRange *string  `json:"salary_range,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty" validate:"omitnil,optionalurl"`
}

func (p JobPatch) Validate() error {
	if len(p.Changes()) == 0 {
		return errEmptyPatch
	}
	return Check(p)
}

func (p JobPatch) Apply(r *JobRecord, now time.Time) {
	if p.Title != nil {
		r.Title = trimmed(p.Title)
	}
	if p.Description != nil {
		r.Description = trimmed(p.Description)
	}
	if p.Kind != nil {
		r.Kind = *p.Kind
	}
	if p.Location != nil {
		r.Location = optional(*p.Location)
	}
	if p.ContactInfo != nil {
		r.ContactInfo = optional(*p.ContactInfo)
	}
	if p.SalaryRange != nil {
		r.SalaryRange = optional(*p.SalaryRange)
	}
	if p.ImageURL != nil {
		r.ImageURL = optional(*p.ImageURL)
	}
	r.UpdatedAt = now
}

func (p JobPatch) Changes() map[string]any {
	c := make(map[string]any)
	if p.Title != nil {
		c["title"] = trimmed(p.Title)
	}
	if p.Description != nil {
		c["description"] = trimmed(p.Description)
	}
	if p.Kind != nil {
		c["type"] = string(*p.Kind)
	}
	if p.Location != nil {
		c["location"] = optionalPtr(p.Location)
	}
	if p.ContactInfo != nil {
		c["contact_info"] = optionalPtr(p.ContactInfo)
	}
	if p.SalaryRange != nil {
		c["salary_range"] = optionalPtr(p.SalaryRange)
	}
	if p.ImageURL != nil {
		c["image_url"] = optionalPtr(p.ImageURL)
	}
	return c
}

// --- news ---

type NewsDraft struct {
	Title    string `json:"title" validate:"notblank"`
	Content  string `json:"content" validate:"notblank"`
	ImageURL string `json:"image_url,omitempty" validate:"omitempty,url"`
}

func (d NewsDraft) Validate() error { return Check(d) }

func (d NewsDraft) Build(id, authorID string, now time.Time) NewsRecord {
	return NewsRecord{
		ID:        id,
		Title:     strings.TrimSpace(d.Title),
		Content:   strings.TrimSpace(d.Content),
		ImageURL:  optional(d.ImageURL),
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type NewsPatch struct {
	Title    *string `json:"title,omitempty" validate:"omitnil,notblank"`
	Content  *string `json:"content,omitempty" validate:"omitnil,notblank"`
	ImageURL *string `json:"image_url,omitempty" validate:"omitnil,optionalurl"`
}

func (p NewsPatch) Validate() error {
	if len(p.Changes()) == 0 {
		return errEmptyPatch
	}
	return Check(p)
}

func (p NewsPatch) Apply(r *NewsRecord, now time.Time) {
	if p.Title != nil {
		r.Title = trimmed(p.Title)
	}
	if p.Content != nil {
		r.Content = trimmed(p.Content)
	}
	if p.ImageURL != nil {
		r.ImageURL = optional(*p.ImageURL)
	}
	r.UpdatedAt = now
}

func (p NewsPatch) Changes() map[string]any {
	c := make(map[string]any)
	if p.Title != nil {
		c["title"] = trimmed(p.Title)
	}
	if p.Content != nil {
		c["content"] = trimmed(p.Content)
	}
	if p.ImageURL != nil {
		c["image_url"] = optionalPtr(p.ImageURL)
	}
	return c
}
