package uploadlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis stores the journal as a capped list, newest entry at the head.
type Redis struct {
	client redis.Cmdable
	key    string
	max    int
}

// NewRedis returns a journal stored under key, trimmed to max entries.
func NewRedis(client redis.Cmdable, key string, max int) *Redis {
	return &Redis{client: client, key: key, max: max}
}

func (r *Redis) Record(ctx context.Context, e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, r.key, b)
	pipe.LTrim(ctx, r.key, 0, int64(r.max-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record upload %s: %w", e.ID, err)
	}
	return nil
}

func (r *Redis) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > r.max {
		limit = r.max
	}
	raw, err := r.client.LRange(ctx, r.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(raw))
	for _, s := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("decode upload entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}
