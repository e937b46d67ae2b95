package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/communityboard/board-system/internal/core/domain"
)

// RecordRepository implements ports.RecordRepository for one table. The
// collection name is the table name.
type RecordRepository[R domain.Record] struct {
	col        *mongo.Collection
	ownerField string
}

func NewRecordRepository[R domain.Record](db *mongo.Database, table domain.Table) *RecordRepository[R] {
	return &RecordRepository[R]{
		col:        db.Collection(string(table)),
		ownerField: table.OwnerColumn(),
	}
}

// newestFirst is the list order; id breaks created_at ties.
var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func (r *RecordRepository[R]) List(ctx context.Context) ([]R, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.col.Name(), err)
	}
	defer cursor.Close(ctx)

	records := make([]R, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.col.Name(), err)
	}
	return records, nil
}

func (r *RecordRepository[R]) FindByID(ctx context.Context, id string) (R, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var record R
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&record); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return record, domain.ErrRecordNotFound
		}
		return record, err
	}
	return record, nil
}

func (r *RecordRepository[R]) Insert(ctx context.Context, record R) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, record)
	return err
}

// Update applies changes with $set and returns the document as it is after
// the update. There is no version check: the last writer wins.
func (r *RecordRepository[R]) Update(ctx context.Context, id string, changes map[string]any, now time.Time) (R, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	set := bson.M{"updated_at": now}
	for column, value := range changes {
		if column == "_id" || column == "id" || column == r.ownerField {
			continue
		}
		set[column] = value
	}

	var record R
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return record, domain.ErrRecordNotFound
		}
		return record, err
	}
	return record, nil
}

func (r *RecordRepository[R]) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *RecordRepository[R]) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{r.ownerField: ownerID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the list-order and owner indexes.
func (r *RecordRepository[R]) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: newestFirst},
		{Keys: bson.D{{Key: r.ownerField, Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
