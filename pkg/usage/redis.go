package usage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"veriscope/pkg/logger"
)

// RedisStore keeps the record set as one JSON value in Redis, for
// deployments where several instances should share quota accounting.
type RedisStore struct {
	log    *logger.Logger
	client *redis.Client
	key    string
}

// RedisStoreConfig configures the Redis store.
type RedisStoreConfig struct {
	Addr     string // Redis address (host:port)
	Password string // Redis password
	DB       int    // Redis database number
	Prefix   string // Key prefix for namespacing
}

// NewRedisStore creates a Redis-backed usage store.
func NewRedisStore(log *logger.Logger, cfg *RedisStoreConfig) (*RedisStore, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = "veriscope:usage:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	log.Info("Connected to Redis for usage tracking",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB))

	return &RedisStore{
		log:    log,
		client: client,
		key:    cfg.Prefix + "records",
	}, nil
}

// Load reads the record set from Redis. A missing key yields an empty set.
func (s *RedisStore) Load(ctx context.Context) (map[string]Record, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return map[string]Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	records := make(map[string]Record)
	if err := json.Unmarshal([]byte(val), &records); err != nil {
		return nil, fmt.Errorf("unmarshaling usage records: %w", err)
	}
	return records, nil
}

// Save rewrites the record set in Redis.
func (s *RedisStore) Save(ctx context.Context, records map[string]Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshaling usage records: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
