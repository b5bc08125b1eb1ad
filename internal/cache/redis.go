// Package cache keeps the most recent community messages per college in
// Redis, so opening the chat does not hit the relational store.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/devparmar16/campus-ease/internal/feed"
	"github.com/redis/go-redis/v9"
)

type Redis struct {
	cli *redis.Client
}

// Connect connects to the Redis server and pings it to ensure the
// connection is working.
func Connect(ctx context.Context, addr string) (*Redis, error) {
	cli := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{cli: cli}, nil
}

const (
	feedPrefix = "feed"
	maxSize    = 50
)

// A message mirrors feed.Message with redis field tags.
type message struct {
	ID         int64     `redis:"id"`
	SenderID   int64     `redis:"sender_id"`
	SenderName string    `redis:"sender_name"`
	SenderRole string    `redis:"sender_role"`
	Content    string    `redis:"content"`
	CreatedAt  time.Time `redis:"created_at"`
	College    string    `redis:"college_id"`
	Edited     bool      `redis:"is_edited"`
}

func (m message) feedMessage() feed.Message {
	return feed.Message{
		ID:         m.ID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		SenderRole: m.SenderRole,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
		College:    m.College,
		Edited:     m.Edited,
	}
}

func setKey(college string) string {
	return fmt.Sprintf("%s:%s", feedPrefix, college)
}

func msgKey(college string, id int64) string {
	return fmt.Sprintf("%s:%s:%d", feedPrefix, college, id)
}

// RecentMessages returns the cached page for a college, ascending by
// creation time to match the store's ordering contract.
func (r *Redis) RecentMessages(ctx context.Context, college string) ([]feed.Message, error) {
	keys, err := r.cli.ZRangeByScore(ctx, setKey(college), &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", time.Now().UnixNano()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange: %w", err)
	}

	out := make([]feed.Message, 0, len(keys))
	for _, key := range keys {
		var m message
		if err := r.cli.HGetAll(ctx, key).Scan(&m); err != nil {
			return nil, fmt.Errorf("hgetall: %w", err)
		}
		if m.ID == 0 {
			// Hash expired under the sorted set; treat the page as cold.
			return nil, nil
		}
		out = append(out, m.feedMessage())
	}
	return out, nil
}

// AddMessage caches a newly inserted message and evicts the oldest entries
// past the cap.
func (r *Redis) AddMessage(ctx context.Context, college string, fm feed.Message) error {
	m := &message{
		ID:         fm.ID,
		SenderID:   fm.SenderID,
		SenderName: fm.SenderName,
		SenderRole: fm.SenderRole,
		Content:    fm.Content,
		CreatedAt:  fm.CreatedAt,
		College:    fm.College,
		Edited:     fm.Edited,
	}

	key := msgKey(college, fm.ID)
	err := r.cli.Watch(ctx, func(tx *redis.Tx) error {
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, m)
			pipe.ZAdd(ctx, setKey(college), redis.Z{
				Score:  float64(fm.CreatedAt.UnixNano()),
				Member: key,
			})
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("redis add message: %w", err)
	}

	return r.evictOldest(ctx, college)
}

// Invalidate drops the cached page for a college. Edits and deletes take
// this path rather than patching entries in place; the next list warms the
// cache from the store.
func (r *Redis) Invalidate(ctx context.Context, college string) error {
	keys, err := r.cli.ZRange(ctx, setKey(college), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("zrange: %w", err)
	}
	for _, key := range keys {
		_ = r.cli.Del(ctx, key).Err()
	}
	return r.cli.Del(ctx, setKey(college)).Err()
}

func (r *Redis) evictOldest(ctx context.Context, college string) error {
	keys, err := r.cli.ZRange(ctx, setKey(college), 0, int64(-maxSize-1)).Result()
	if err != nil {
		return fmt.Errorf("zrange: %w", err)
	}
	for _, key := range keys {
		_ = r.cli.ZRem(ctx, setKey(college), key).Err()
		_ = r.cli.Del(ctx, key).Err()
	}
	return nil
}
