package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisStore reads sessions written by the login service. The key is the
// session id (with an optional prefix) and the value is the decimal
// account id.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisStore creates a session store over an existing client.
func NewRedisStore(client *redis.Client, prefix string, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

// Dial connects to Redis and verifies the connection with a ping.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return client, nil
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

// Lookup implements Store. A missing key is reported as ok=false; a value
// that is not a positive integer is an error.
func (s *RedisStore) Lookup(ctx context.Context, sessionID string) (int, bool, error) {
	value, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read session: %w", err)
	}

	accountID, err := strconv.Atoi(value)
	if err != nil || accountID <= 0 {
		s.logger.Warn("session holds an invalid account id",
			zap.String("value", value),
		)
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidAccount, value)
	}
	return accountID, true, nil
}

// Set writes a session. A zero ttl keeps the key until it is deleted.
func (s *RedisStore) Set(ctx context.Context, sessionID string, accountID int, ttl time.Duration) error {
	if accountID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAccount, accountID)
	}
	if err := s.client.Set(ctx, s.key(sessionID), strconv.Itoa(accountID), ttl).Err(); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Delete removes a session.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
