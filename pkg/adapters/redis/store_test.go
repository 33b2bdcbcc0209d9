package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergeflow/mergeflow/pkg/adapters/redis"
	"github.com/mergeflow/mergeflow/pkg/domain"
	"github.com/mergeflow/mergeflow/pkg/ports"
)

// Ensure Store implements ResultStore
var _ ports.ResultStore = (*redis.Store)(nil)

func newTestStore(t *testing.T, opts ...redis.Option) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "Failed to start miniredis")
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	return redis.NewFromClient(client, opts...), mr
}

func TestRedisStore_Contract(t *testing.T) {
	store, _ := newTestStore(t)
	ports.RunResultStoreContract(t, store)
}

func TestRedisStore_CorruptValueTreatedAsAbsent(t *testing.T) {
	store, mr := newTestStore(t)

	require.NoError(t, mr.Set("mergeflow:result:s1", "{not json"))

	_, err := store.Load(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrResultNotFound)
}

func TestRedisStore_PrefixIsolatesKeys(t *testing.T) {
	store, mr := newTestStore(t, redis.WithPrefix("other:ns:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", &domain.JobResult{OutputFiles: []string{"merged_output.zip"}}))

	assert.True(t, mr.Exists("other:ns:s1"))
	assert.False(t, mr.Exists("mergeflow:result:s1"))
}

func TestRedisStore_TTLApplied(t *testing.T) {
	store, mr := newTestStore(t, redis.WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", &domain.JobResult{}))
	assert.Greater(t, mr.TTL("mergeflow:result:s1"), time.Duration(0))

	mr.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrResultNotFound)

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, sessions, "s1", "expired entries must fall out of the index")
}
