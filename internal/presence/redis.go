package presence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const threadRegistryKey = "typing:threads"

// RedisMarkerStore keeps typing markers in one sorted set per thread, scored
// by marker time, plus a registry set of thread keys for the sweeper.
type RedisMarkerStore struct {
	client *redis.Client
}

func NewRedisMarkerStore(client *redis.Client) *RedisMarkerStore {
	return &RedisMarkerStore{client: client}
}

func threadKey(threadId uuid.UUID) string {
	return "typing:thread:" + threadId.String()
}

func (s *RedisMarkerStore) Upsert(ctx context.Context, threadId, userId uuid.UUID, at time.Time) error {
	key := threadKey(threadId)

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(at.UnixNano()),
		Member: userId.String(),
	})
	pipe.SAdd(ctx, threadRegistryKey, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write marker: %w", err)
	}

	return nil
}

func (s *RedisMarkerStore) List(ctx context.Context, threadId uuid.UUID, notBefore time.Time) ([]uuid.UUID, error) {
	members, err := s.client.ZRangeByScore(ctx, threadKey(threadId), &redis.ZRangeBy{
		Min: strconv.FormatInt(notBefore.UnixNano(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("read markers: %w", err)
	}

	users := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			// a malformed member is skipped rather than failing the read
			continue
		}
		users = append(users, id)
	}

	return users, nil
}

func (s *RedisMarkerStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	keys, err := s.client.SMembers(ctx, threadRegistryKey).Result()
	if err != nil {
		return 0, fmt.Errorf("list threads: %w", err)
	}

	cutoffScore := strconv.FormatInt(cutoff.UnixNano(), 10)

	var removed int64
	for _, key := range keys {
		n, err := s.client.ZRemRangeByScore(ctx, key, "-inf", "("+cutoffScore).Result()
		if err != nil {
			return removed, fmt.Errorf("sweep %s: %w", key, err)
		}
		removed += n

		remaining, err := s.client.ZCard(ctx, key).Result()
		if err != nil {
			return removed, fmt.Errorf("card %s: %w", key, err)
		}
		if remaining == 0 {
			pipe := s.client.TxPipeline()
			pipe.Del(ctx, key)
			pipe.SRem(ctx, threadRegistryKey, key)
			if _, err := pipe.Exec(ctx); err != nil {
				return removed, fmt.Errorf("drop %s: %w", key, err)
			}
		}
	}

	return removed, nil
}
