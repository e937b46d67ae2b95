package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 3 * time.Second

// Config selects the Redis instance holding the token denylist and the
// audit dedup keys. URL, when set, wins over the discrete fields.
type Config struct {
	URL      string
	Addr     string
	Password string
	DB       int
	PoolSize int
}

func (c Config) options() (*redis.Options, error) {
	if c.URL != "" {
		opts, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
		if c.PoolSize > 0 {
			opts.PoolSize = c.PoolSize
		}
		return opts, nil
	}
	if c.Addr == "" {
		return nil, fmt.Errorf("redis: no address configured")
	}
	return &redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
		PoolSize: c.PoolSize,
	}, nil
}

// Connect opens a client and fails fast if the first ping does not answer.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := NewPinger(client).Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", opts.Addr, err)
	}
	return client, nil
}

// Pinger backs the "redis" readiness check.
type Pinger struct {
	client redis.Cmdable
}

func NewPinger(client redis.Cmdable) *Pinger {
	return &Pinger{client: client}
}

func (p *Pinger) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return p.client.Ping(ctx).Err()
}
