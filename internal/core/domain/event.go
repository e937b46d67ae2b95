package domain

import "time"

// RecordAction is the kind of change captured by a RecordEvent.
type RecordAction string

const (
	ActionCreated RecordAction = "created"
	ActionUpdated RecordAction = "updated"
	ActionDeleted RecordAction = "deleted"
)

// TableIdentities labels audit events about accounts rather than rows.
const TableIdentities Table = "identities"

// RecordEvent is an audit entry for a single write against the store.
type RecordEvent struct {
	Table    Table
	RecordID string
	Action   RecordAction
	ActorID  string
	At       time.Time
}
