package deduplication

import (
	"context"
	"testing"
	"time"

	"stockbot/storage"
	"stockbot/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestApplyBloomDefaults(t *testing.T) {
	cfg := applyBloomDefaults(BloomConfig{})
	assert.Equal(t, "stockbot:ledger:bloom", cfg.Key)
	assert.Equal(t, 100000, cfg.Capacity)
	assert.Equal(t, 0.001, cfg.ErrorRate)

	cfg = applyBloomDefaults(BloomConfig{Key: "k", Capacity: 10, ErrorRate: 0.1})
	assert.Equal(t, "k", cfg.Key)
	assert.Equal(t, 10, cfg.Capacity)
}

func TestNewRedisBloomInvalidURL(t *testing.T) {
	_, err := NewRedisBloom(context.Background(), BloomConfig{URL: "://nope"})
	assert.Error(t, err)
}

func TestRedisBloom(t *testing.T) {
	if testing.Short() {
		t.Skip("needs a redis container")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis/redis-stack-server:7.2.0-v10",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	bloom, err := NewRedisBloom(ctx, BloomConfig{URL: "redis://" + endpoint, Key: "test:ledger", TTL: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { bloom.Close() })

	t.Run("add then exists", func(t *testing.T) {
		ok, err := bloom.Exists(ctx, "p-1")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, bloom.Add(ctx, "p-1"))

		ok, err = bloom.Exists(ctx, "p-1")
		require.NoError(t, err)
		assert.True(t, ok)

		ttl, err := bloom.Client().TTL(ctx, "test:ledger").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("fronts the ledger", func(t *testing.T) {
		ledger := NewBloomLedger(storage.NewMemory().Store().Ledger, bloom)

		require.NoError(t, ledger.Insert(ctx, types.Post{ID: "p-2", Text: "$NVDA"}))
		assert.ErrorIs(t, ledger.Insert(ctx, types.Post{ID: "p-2"}), types.ErrDuplicateKey)

		has, err := ledger.Has(ctx, "p-2")
		require.NoError(t, err)
		assert.True(t, has)

		// p-1 is in the filter but not in the ledger.
		has, err = ledger.Has(ctx, "p-1")
		require.NoError(t, err)
		assert.False(t, has)
	})
}
