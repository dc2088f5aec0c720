package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// maxTxRetries bounds optimistic-lock retries on a contended transcript.
const maxTxRetries = 5

// RedisStore keeps transcripts in Redis strings keyed by user.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	max    int
}

// NewRedisStore connects to Redis. A zero ttl keeps transcripts until deleted.
func NewRedisStore(addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl, max: MaxTranscriptLen}, nil
}

func key(userID string) string { return keyPrefix + userID }

// Get returns the transcript of a user.
func (r *RedisStore) Get(ctx context.Context, userID string) (string, bool, error) {
	v, err := r.client.Get(ctx, key(userID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Append concatenates text under WATCH so that the cap holds across replicas.
func (r *RedisStore) Append(ctx context.Context, userID, text string) (string, error) {
	k := key(userID)
	var out string
	txf := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, k).Result()
		if err != nil && err != redis.Nil {
			return err
		}
		out = Truncate(cur+text, r.max)
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, out, r.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, txf, k)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return "", fmt.Errorf("append transcript: %w", err)
	}
	return "", fmt.Errorf("append transcript: %w", redis.TxFailedErr)
}

// Delete removes a user's transcript.
func (r *RedisStore) Delete(ctx context.Context, userID string) error {
	return r.client.Del(ctx, key(userID)).Err()
}

// Clear removes every transcript.
func (r *RedisStore) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Len counts stored transcripts.
func (r *RedisStore) Len(ctx context.Context) (int, error) {
	n := 0
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return n, nil
}

// Ping checks Redis availability.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
