package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCheckpointStore keeps checkpoints in Redis with a per-key TTL, so
// expiry is handled natively and Sweep has nothing to do.
type RedisCheckpointStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig holds connection settings for the checkpoint backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces checkpoint keys.
	Prefix string
	// TTL bounds how long an idle checkpoint survives (0 = no expiry).
	TTL time.Duration
}

// NewRedisCheckpointStore connects to Redis and verifies the connection.
func NewRedisCheckpointStore(ctx context.Context, cfg RedisConfig) (*RedisCheckpointStore, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = "udahub:checkpoint:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisCheckpointStore{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
	}, nil
}

func (r *RedisCheckpointStore) key(sessionID string) string {
	return r.prefix + sessionID
}

func (r *RedisCheckpointStore) Save(ctx context.Context, cp *Checkpoint) error {
	saved := *cp
	if saved.UpdatedAt.IsZero() {
		saved.UpdatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(&saved)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	if err := r.client.Set(ctx, r.key(cp.SessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (r *RedisCheckpointStore) Load(ctx context.Context, sessionID string) (*Checkpoint, error) {
	data, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, ErrCheckpointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}

func (r *RedisCheckpointStore) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// Sweep is a no-op; Redis expires keys via TTL.
func (r *RedisCheckpointStore) Sweep(ctx context.Context, ttl time.Duration) (int, error) {
	return 0, nil
}

func (r *RedisCheckpointStore) Close() error {
	return r.client.Close()
}
