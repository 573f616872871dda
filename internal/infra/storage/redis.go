package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	redis "github.com/go-redis/redis/v8"
	domain "github.com/inference-gateway/operator/internal/domain"
	logger "github.com/inference-gateway/operator/internal/logger"
)

const (
	redisJournalKey    = "operator:journal"
	redisTimestampsKey = "operator:timestamps"
)

// RedisStorage implements JournalStorage with a capped list and a hash
type RedisStorage struct {
	client     *redis.Client
	ttl        time.Duration
	maxEntries int
}

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(config RedisConfig, maxEntries int) (*RedisStorage, error) {
	client := redis.NewClient(redisOptions(config))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisStorage(client, config.TTL, maxEntries), nil
}

func redisOptions(config RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		DB:       config.Database,
		Password: config.Password,
		Username: config.Username,
	}
}

func newRedisStorage(client *redis.Client, ttlSeconds, maxEntries int) *RedisStorage {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	var ttl time.Duration
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	return &RedisStorage{client: client, ttl: ttl, maxEntries: maxEntries}
}

// Append pushes the entry to the head of the journal and trims the tail
func (s *RedisStorage) Append(ctx context.Context, entry domain.JournalEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, redisJournalKey, data)
	pipe.LTrim(ctx, redisJournalKey, 0, int64(s.maxEntries-1))
	if s.ttl > 0 {
		pipe.Expire(ctx, redisJournalKey, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first
func (s *RedisStorage) List(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	raw, err := s.client.LRange(ctx, redisJournalKey, 0, int64(clampLimit(limit)-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	entries := make([]domain.JournalEntry, 0, len(raw))
	for _, item := range raw {
		var entry domain.JournalEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			logger.Warn("Skipping malformed journal entry", "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// SaveTimestamps writes both fields of the timestamps hash
func (s *RedisStorage) SaveTimestamps(ctx context.Context, ts domain.Timestamps) error {
	err := s.client.HSet(ctx, redisTimestampsKey,
		"screenshot", ts.Screenshot,
		"xml", ts.XML,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to save timestamps: %w", err)
	}
	return nil
}

// LoadTimestamps reads the timestamps hash; missing fields are zero
func (s *RedisStorage) LoadTimestamps(ctx context.Context) (domain.Timestamps, error) {
	fields, err := s.client.HGetAll(ctx, redisTimestampsKey).Result()
	if err != nil {
		return domain.Timestamps{}, fmt.Errorf("failed to load timestamps: %w", err)
	}

	var ts domain.Timestamps
	if v, ok := fields["screenshot"]; ok {
		ts.Screenshot, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := fields["xml"]; ok {
		ts.XML, _ = strconv.ParseInt(v, 10, 64)
	}
	return ts, nil
}

// Close closes the Redis connection
func (s *RedisStorage) Close() error {
	return s.client.Close()
}

// Health checks if Redis is reachable
func (s *RedisStorage) Health(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
