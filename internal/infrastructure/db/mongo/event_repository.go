package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/communityboard/board-system/internal/core/domain"
)

const eventsCollection = "record_events"

// eventDoc is one audit feed entry. RecordedAt is when boardd stored it,
// At is when the write happened.
type eventDoc struct {
	Table      string    `bson:"table"`
	RecordID   string    `bson:"record_id"`
	Action     string    `bson:"action"`
	ActorID    string    `bson:"actor_id,omitempty"`
	At         time.Time `bson:"at"`
	RecordedAt time.Time `bson:"recorded_at"`
}

// EventRepository appends to the audit feed.
type EventRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{col: db.Collection(eventsCollection), now: time.Now}
}

func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.RecordEvent) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, toEventDoc(event, r.now()))
	return err
}

func toEventDoc(e *domain.RecordEvent, now time.Time) eventDoc {
	return eventDoc{
		Table:      string(e.Table),
		RecordID:   e.RecordID,
		Action:     string(e.Action),
		ActorID:    e.ActorID,
		At:         e.At.UTC(),
		RecordedAt: now.UTC(),
	}
}

// EnsureIndexes supports per-record history and newest-first scans.
func (r *EventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "table", Value: 1}, {Key: "record_id", Value: 1}, {Key: "at", Value: 1}}},
		{Keys: bson.D{{Key: "at", Value: -1}}},
	})
	return err
}
