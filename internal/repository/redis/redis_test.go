package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/cfg"
	"github.com/DRSN-tech/pos-backend/internal/repository/redis/converter"
	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/clients"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisClient(t *testing.T) (*clients.RedisClient, *cfg.RedisCfg) {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	c := &cfg.RedisCfg{
		Addr:           addr,
		DialTimeout:    time.Second,
		Timeout:        time.Second,
		ProductTTL:     time.Minute,
		IdempotencyTTL: time.Minute,
	}
	client := clients.NewRedisClient(c)
	if err := client.Ping(context.Background()); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return client, c
}

func TestCacheRepo_SetGetDelete(t *testing.T) {
	client, c := getRedisClient(t)
	ctx := context.Background()
	repo := NewCacheRepo(client, converter.ProductInfoConverterImpl{}, c, logger.NewNopLogger())

	id := uuid.NewString()
	product := usecase.ProductInfo{ID: id, Name: "Widget", Price: 1000, Quantity: 5, CreatedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, repo.SetProducts(ctx, []usecase.ProductInfo{product}))

	got, err := repo.GetProducts(ctx, []string{id, uuid.NewString()})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Widget", got[id].Name)
	assert.Equal(t, int64(5), got[id].Quantity)

	require.NoError(t, repo.DeleteProducts(ctx, []string{id}))
	got, err = repo.GetProducts(ctx, []string{id})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIdempotencyRepo_ReserveOnce(t *testing.T) {
	client, c := getRedisClient(t)
	ctx := context.Background()
	repo := NewIdempotencyRepo(client, c)
	key := uuid.NewString()
	t.Cleanup(func() { _ = repo.Release(ctx, key) })

	ok, err := repo.Reserve(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Reserve(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Release(ctx, key))
	ok, err = repo.Reserve(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNopCacheRepo_AlwaysMisses(t *testing.T) {
	var repo usecase.CacheRepository = NopCacheRepo{}

	require.NoError(t, repo.SetProducts(context.Background(), []usecase.ProductInfo{{ID: "a"}}))
	got, err := repo.GetProducts(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Empty(t, got)
}
