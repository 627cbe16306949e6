package redis_test

import (
	"context"
	"os"
	"testing"

	"github.com/afilimonchyk/ai-goals-assistant"
	"github.com/afilimonchyk/ai-goals-assistant/redis"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests run only when REDIS_URL points at a disposable server.
func open(t *testing.T) *redis.Storage {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	s, err := redis.New(context.Background(), url, redis.WithPrefix("test:"+uuid.NewString()+":"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := open(t)

	_, err := s.Get(ctx, "chatHistory")
	assert.ErrorIs(t, err, assistant.ErrNotFound)

	require.NoError(t, s.Set(ctx, "chatHistory", []byte(`[]`)))
	got, err := s.Get(ctx, "chatHistory")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, s.Delete(ctx, "chatHistory"))
	require.NoError(t, s.Delete(ctx, "chatHistory"))
	_, err = s.Get(ctx, "chatHistory")
	assert.ErrorIs(t, err, assistant.ErrNotFound)
}

func TestNew_BadURL(t *testing.T) {
	t.Parallel()
	_, err := redis.New(context.Background(), "not a url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse url")
}
