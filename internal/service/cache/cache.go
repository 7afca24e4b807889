package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrConflict is returned by Update when the watched key kept changing under it.
var ErrConflict = errors.New("cache: concurrent update")

const (
	updateRetries = 3
	pingTimeout   = 5 * time.Second
)

type CacheConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c CacheConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Mutation tells Update what to do with the key after the callback ran.
type Mutation int

const (
	MutationNone Mutation = iota
	MutationSave
	MutationDelete
)

// CacheService stores JSON values in Redis.
type CacheService struct {
	client *redis.Client
	logger *zap.Logger
}

func NewCacheService(cfg CacheConfig, logger *zap.Logger) (*CacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewFromClient(client, logger), nil
}

func NewFromClient(client *redis.Client, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{client: client, logger: logger}
}

func (c *CacheService) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Get decodes the value stored at key into dest. A missing key leaves dest
// untouched and is not an error.
func (c *CacheService) Get(ctx context.Context, key string, dest any) error {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("cache decode %s: %w", key, err)
	}
	return nil
}

func (c *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *CacheService) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache del: %w", err)
	}
	return nil
}

// Update runs a read-modify-write cycle on key under WATCH. dest is reset and
// loaded before every attempt; fn sees whether the key existed and returns the
// mutation to commit. Errors from fn abort without writing.
func (c *CacheService) Update(ctx context.Context, key string, ttl time.Duration, dest any, fn func(exists bool) (Mutation, error)) error {
	target := reflect.ValueOf(dest)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return fmt.Errorf("cache update %s: dest must be a non-nil pointer", key)
	}

	txf := func(tx *redis.Tx) error {
		target.Elem().Set(reflect.Zero(target.Elem().Type()))
		exists := true
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			exists = false
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(raw, dest); err != nil {
				return fmt.Errorf("cache decode %s: %w", key, err)
			}
		}

		mutation, err := fn(exists)
		if err != nil {
			return err
		}

		switch mutation {
		case MutationSave:
			encoded, err := json.Marshal(dest)
			if err != nil {
				return fmt.Errorf("cache encode %s: %w", key, err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, ttl)
				return nil
			})
			return err
		case MutationDelete:
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			return err
		default:
			return nil
		}
	}

	for attempt := 0; attempt < updateRetries; attempt++ {
		err := c.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		c.logger.Debug("cache_update_conflict", zap.String("key", key), zap.Int("attempt", attempt+1))
	}
	return fmt.Errorf("%w: %s", ErrConflict, key)
}

// ParseRedisURL reads redis://[:password@]host[:port][/db].
func ParseRedisURL(raw string) (*CacheConfig, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}
	portStr := u.Port()
	if portStr == "" {
		portStr = "6379"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid db %q: %w", p, err)
		}
		db = n
	}
	pass, _ := u.User.Password()
	return &CacheConfig{Host: host, Port: port, Password: pass, DB: db}, nil
}
