package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/pkg/security"
)

const keyPrefix = "frontdesk:session:"

// RedisStore shares sessions between gateway instances.
type RedisStore struct {
	client *redis.Client
	enc    security.Encryptor
}

type RedisOption func(*RedisStore)

// WithEncryption seals session records before they reach redis.
func WithEncryption(enc security.Encryptor) RedisOption {
	return func(r *RedisStore) { r.enc = enc }
}

func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	r := &RedisStore{client: client}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (r *RedisStore) Save(ctx context.Context, s *model.Session, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if r.enc != nil {
		if data, err = r.enc.Encrypt(data); err != nil {
			return fmt.Errorf("seal session: %w", err)
		}
	}
	if err := r.client.Set(ctx, keyPrefix+s.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*model.Session, error) {
	data, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if r.enc != nil {
		if data, err = r.enc.Decrypt(data); err != nil {
			return nil, fmt.Errorf("open session: %w", err)
		}
	}

	var s model.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
