package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/communityboard/board-system/internal/core/domain"
	"github.com/communityboard/board-system/internal/core/ports"
	"github.com/communityboard/board-system/internal/pkg/metrics"
)

const (
	defaultShards = 8
	shardBuffer   = 256
	drainTimeout  = 5 * time.Second
)

// Dispatcher is the in-process audit queue. Events are sharded by table and
// record id so each record's events are processed in publish order.
type Dispatcher struct {
	shards  []chan domain.RecordEvent
	service ports.EventService
	log     zerolog.Logger
}

// NewDispatcher builds a dispatcher with n shards, or defaultShards when
// n is not positive.
func NewDispatcher(n int, service ports.EventService, log zerolog.Logger) *Dispatcher {
	if n <= 0 {
		n = defaultShards
	}
	shards := make([]chan domain.RecordEvent, n)
	for i := range shards {
		shards[i] = make(chan domain.RecordEvent, shardBuffer)
	}
	return &Dispatcher{shards: shards, service: service, log: log}
}

// Run processes events until ctx is done, then drains what is already
// buffered before returning.
func (d *Dispatcher) Run(ctx context.Context) error {
	var g errgroup.Group
	for i := range d.shards {
		g.Go(func() error {
			d.consume(ctx, i)
			return nil
		})
	}
	return g.Wait()
}

// Publish enqueues event without blocking. A full shard drops the event.
func (d *Dispatcher) Publish(event domain.RecordEvent) {
	i := d.shardFor(event)
	select {
	case d.shards[i] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(i)).Set(float64(len(d.shards[i])))
	default:
		metrics.AuditErrorsTotal.WithLabelValues("queue_full").Inc()
		d.log.Warn().
			Str("table", string(event.Table)).
			Str("record_id", event.RecordID).
			Int("shard", i).
			Msg("audit queue full, event dropped")
	}
}

func (d *Dispatcher) shardFor(event domain.RecordEvent) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(event.Table))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(event.RecordID))
	return int(h.Sum32() % uint32(len(d.shards)))
}

func (d *Dispatcher) consume(ctx context.Context, i int) {
	ch := d.shards[i]
	gauge := metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(i))
	for {
		select {
		case event := <-ch:
			gauge.Set(float64(len(ch)))
			d.process(ctx, i, event)
		case <-ctx.Done():
			d.drain(context.WithoutCancel(ctx), i)
			return
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context, i int) {
	ctx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	for {
		select {
		case event := <-d.shards[i]:
			d.process(ctx, i, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, shard int, event domain.RecordEvent) {
	if err := d.service.Process(ctx, event); err != nil {
		d.log.Error().Err(err).
			Str("table", string(event.Table)).
			Str("record_id", event.RecordID).
			Int("shard", shard).
			Msg("audit event not recorded")
	}
}
