package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type preferenceStore interface {
	Get(ctx context.Context, session, key string) (string, bool, error)
	Set(ctx context.Context, session, key, value string) error
	Ping(ctx context.Context) error
	Close() error
}

// exercise runs the behaviour every backend must share.
func exercise(t *testing.T, s preferenceStore) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "s1", "budget")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "s1", "budget", "b1"))
	require.NoError(t, s.Set(ctx, "s1", "budget", "b2"))
	require.NoError(t, s.Set(ctx, "s2", "budget", "other"))

	v, ok, err := s.Get(ctx, "s1", "budget")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b2", v)

	v, ok, err = s.Get(ctx, "s2", "budget")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "other", v)

	assert.NoError(t, s.Ping(ctx))
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exercise(t, s)
	assert.NoError(t, s.Close())
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "prefs.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), s.SchemaVersion())
	exercise(t, s)
	require.NoError(t, s.Close())

	// reopening runs migrations again without error and keeps data
	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	v, ok, err := s.Get(context.Background(), "s1", "budget")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b2", v)

	n, err := s.Prune(context.Background(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestRedisStore(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Skipping test: Redis not available")
	}
	require.NoError(t, client.FlushDB(ctx).Err())

	s := NewRedisStoreWithClient(client)
	exercise(t, s)

	ttl, err := client.TTL(ctx, redisKey("s1", "budget")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 89*24*time.Hour)
	assert.NoError(t, s.Close())
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Skipping test: TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := NewPostgresStore(ctx, url)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.pool.Exec(ctx, `DELETE FROM preferences WHERE session_id IN ('s1', 's2')`)
	require.NoError(t, err)
	exercise(t, s)
}
