package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultKey = "freelas-watch:seen"

type Options struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// Store keeps notified urls in a single Redis set.
type Store struct {
	client *redis.Client
	key    string
}

func New(opts Options) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewWithClient(client, opts.Key)
}

func NewWithClient(client *redis.Client, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{client: client, key: key}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Load(ctx context.Context) ([]string, error) {
	urls, err := s.client.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}
	return urls, nil
}

func (s *Store) Append(ctx context.Context, url string) error {
	return s.client.SAdd(ctx, s.key, url).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
