package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/communityboard/board-system/internal/core/domain"
)

const defaultDedupWindow = time.Hour

// DedupChecker remembers audit events already written so a redelivered
// event is recorded once. Entries expire after the window.
type DedupChecker struct {
	client redis.Cmdable
	window time.Duration
}

func NewDedupChecker(client redis.Cmdable, window time.Duration) *DedupChecker {
	if window <= 0 {
		window = defaultDedupWindow
	}
	return &DedupChecker{client: client, window: window}
}

func (d *DedupChecker) IsDuplicate(ctx context.Context, event domain.RecordEvent) (bool, error) {
	n, err := d.client.Exists(ctx, seenKey(event)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup lookup: %w", err)
	}
	return n == 1, nil
}

func (d *DedupChecker) Mark(ctx context.Context, event domain.RecordEvent) error {
	return d.client.SetNX(ctx, seenKey(event), event.ActorID, d.window).Err()
}

// seenKey is audit:seen:<table>:<record_id>:<action>:<unix_millis>.
func seenKey(e domain.RecordEvent) string {
	return strings.Join([]string{
		"audit", "seen",
		string(e.Table),
		e.RecordID,
		string(e.Action),
		strconv.FormatInt(e.At.UnixMilli(), 10),
	}, ":")
}
