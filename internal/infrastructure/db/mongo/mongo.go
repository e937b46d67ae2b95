package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// opTimeout bounds every single repository call.
const opTimeout = 10 * time.Second

// Config selects the MongoDB deployment and database holding identities,
// board rows and the audit feed.
type Config struct {
	URI      string
	Database string
	AppName  string
	// Timeout bounds server selection and the first ping. Zero means 10s.
	Timeout time.Duration
}

func (c Config) clientOptions() *options.ClientOptions {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = opTimeout
	}
	opts := options.Client().
		ApplyURI(c.URI).
		SetServerSelectionTimeout(timeout).
		SetConnectTimeout(timeout)
	if c.AppName != "" {
		opts.SetAppName(c.AppName)
	}
	return opts
}

// Connect dials the deployment and pings it before handing back the
// database. The caller owns the client and must Disconnect it.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	if cfg.Database == "" {
		return nil, nil, errors.New("mongo: database name is empty")
	}

	client, err := mongo.Connect(ctx, cfg.clientOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	db := client.Database(cfg.Database)
	if err := NewPinger(db).Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo %s: %w", cfg.Database, err)
	}
	return client, db, nil
}

// IndexBuilder is implemented by every repository that owns a collection.
type IndexBuilder interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureIndexes creates the indexes of every given repository, collecting
// all failures.
func EnsureIndexes(ctx context.Context, repos ...IndexBuilder) error {
	var errs []error
	for _, r := range repos {
		if err := r.EnsureIndexes(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Pinger backs the "mongo" readiness check.
type Pinger struct {
	db *mongo.Database
}

func NewPinger(db *mongo.Database) *Pinger {
	return &Pinger{db: db}
}

func (p *Pinger) Ping(ctx context.Context) error {
	return p.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}
