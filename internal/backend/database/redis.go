package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DocumentKey is the redis key holding the gallery document
const DocumentKey = "sitelog:gallery"

// RedisDatabase keeps the document as a plain string value under DocumentKey
type RedisDatabase struct {
	client *redis.Client
	key    string
}

// NewRedisDatabase connects using a redis URL such as redis://localhost:6379/0
func NewRedisDatabase(connectionString string) (*RedisDatabase, error) {
	options, err := redis.ParseURL(connectionString)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewRedisDatabaseWithClient(redis.NewClient(options)), nil
}

func NewRedisDatabaseWithClient(client *redis.Client) *RedisDatabase {
	return &RedisDatabase{
		client: client,
		key:    DocumentKey,
	}
}

func (r *RedisDatabase) Load(ctx context.Context) ([]byte, error) {
	document, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return document, nil
}

func (r *RedisDatabase) Save(ctx context.Context, document []byte) error {
	if err := r.client.Set(ctx, r.key, document, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisDatabase) Close() error {
	return r.client.Close()
}
