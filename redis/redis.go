// Package redis implements assistant.Storage on a Redis server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/afilimonchyk/ai-goals-assistant"
	"github.com/go-redis/redis/v8"
)

var _ assistant.Storage = (*Storage)(nil)

// DefaultPrefix namespaces keys on a shared server.
const DefaultPrefix = "ai-goals-assistant:"

// Storage stores each key as a Redis string under a common prefix.
type Storage struct {
	cli    *redis.Client
	prefix string
}

// Option configures a Storage.
type Option func(*Storage)

// WithPrefix sets the key prefix.
func WithPrefix(p string) Option {
	return func(s *Storage) { s.prefix = p }
}

// New connects to the server at url (redis://[:password@]host:port/db) and
// verifies the connection.
func New(ctx context.Context, url string, opts ...Option) (*Storage, error) {
	o, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	cli := redis.NewClient(o)
	if err := cli.Ping(ctx).Err(); err != nil {
		cli.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return NewWithClient(cli, opts...), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(cli *redis.Client, opts ...Option) *Storage {
	s := &Storage{cli: cli, prefix: DefaultPrefix}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Close closes the underlying client.
func (s *Storage) Close() error { return s.cli.Close() }

// Get returns the value stored under key.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.cli.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, assistant.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return v, nil
}

// Set writes value under key without expiry. A server at its maxmemory
// limit is reported as assistant.ErrQuotaExceeded.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	err := s.cli.Set(ctx, s.prefix+key, value, 0).Err()
	if err != nil && isOOM(err) {
		return fmt.Errorf("redis: set %s: %v: %w", key, err, assistant.ErrQuotaExceeded)
	}
	if err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. A missing key is not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := s.cli.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis: delete %s: %w", key, err)
	}
	return nil
}

func isOOM(err error) bool {
	return strings.HasPrefix(err.Error(), "OOM ")
}
