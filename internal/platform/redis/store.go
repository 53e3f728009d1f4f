package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/phrazzld/resumeq/internal/config"
	"github.com/phrazzld/resumeq/internal/queue"
	goredis "github.com/redis/go-redis/v9"
)

// ErrNilClient is returned when NewStore is called without a client.
var ErrNilClient = errors.New("redis client cannot be nil")

// NewClient opens a client for cfg and verifies the connection.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Store implements queue.Store on Redis hashes, lists, sorted sets and
// string counters.
type Store struct {
	client goredis.Cmdable
	logger *slog.Logger
}

var _ queue.Store = (*Store)(nil)

// NewStore wraps client.
func NewStore(client goredis.Cmdable, logger *slog.Logger) (*Store, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client: client,
		logger: logger.With("component", "redis_store"),
	}, nil
}

func (s *Store) HashSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	if err := s.client.HSet(ctx, key, values).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

func (s *Store) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	h, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key, err)
	}
	return h, nil
}

func (s *Store) ListPush(ctx context.Context, key, value string) error {
	if err := s.client.LPush(ctx, key, value).Err(); err != nil {
		return fmt.Errorf("lpush %s: %w", key, err)
	}
	return nil
}

// ListMove uses LMOVE src dst RIGHT LEFT, which is atomic on the server.
func (s *Store) ListMove(ctx context.Context, src, dst string) (string, bool, error) {
	v, err := s.client.LMove(ctx, src, dst, "RIGHT", "LEFT").Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lmove %s %s: %w", src, dst, err)
	}
	return v, true, nil
}

func (s *Store) ListRemove(ctx context.Context, key, value string) (int64, error) {
	n, err := s.client.LRem(ctx, key, 0, value).Result()
	if err != nil {
		return 0, fmt.Errorf("lrem %s: %w", key, err)
	}
	return n, nil
}

func (s *Store) ListLen(ctx context.Context, key string) (int64, error) {
	n, err := s.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("llen %s: %w", key, err)
	}
	return n, nil
}

func (s *Store) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	vals, err := s.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}
	return vals, nil
}

func (s *Store) SortedSetAdd(ctx context.Context, key, member string, score float64) error {
	if err := s.client.ZAdd(ctx, key, goredis.Z{Score: score, Member: member}).Err(); err != nil {
		return fmt.Errorf("zadd %s: %w", key, err)
	}
	return nil
}

func (s *Store) SortedSetRangeByScore(ctx context.Context, key string, max float64, limit int64) ([]string, error) {
	opt := &goredis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatFloat(max, 'f', -1, 64),
	}
	if limit > 0 {
		opt.Count = limit
	}
	vals, err := s.client.ZRangeByScore(ctx, key, opt).Result()
	if err != nil {
		return nil, fmt.Errorf("zrangebyscore %s: %w", key, err)
	}
	return vals, nil
}

func (s *Store) SortedSetRemove(ctx context.Context, key, member string) (bool, error) {
	n, err := s.client.ZRem(ctx, key, member).Result()
	if err != nil {
		return false, fmt.Errorf("zrem %s: %w", key, err)
	}
	return n > 0, nil
}

func (s *Store) SortedSetCard(ctx context.Context, key string) (int64, error) {
	n, err := s.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard %s: %w", key, err)
	}
	return n, nil
}

func (s *Store) SortedSetScore(ctx context.Context, key, member string) (float64, bool, error) {
	sc, err := s.client.ZScore(ctx, key, member).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("zscore %s: %w", key, err)
	}
	return sc, true, nil
}

func (s *Store) Increment(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	return n, nil
}

func (s *Store) Counter(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Get(ctx, key).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", key, err)
	}
	return n, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		s.logger.WarnContext(ctx, "redis ping failed", "error", err)
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
