package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/dto"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/importer"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/infrastructure/cache"
	"github.com/adrianfdez469/cuadrecaja-sub000/pkg/config"
	"github.com/adrianfdez469/cuadrecaja-sub000/pkg/logger"
)

// Requieren un Redis real: REDIS_TEST_ADDR=localhost:6379 go test ./internal/infrastructure/cache/
func redisAddr(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR no definido")
	}
	return addr
}

func TestAnalysisCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	rdb, err := cache.NewClient(ctx, config.RedisConfig{Addr: redisAddr(t)})
	require.NoError(t, err)
	defer rdb.Close()

	c := cache.NewAnalysisCache(rdb)
	key := "cpp:analysis:test:" + uuid.NewString()

	_, found, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	in := &dto.CPPAnalysis{
		StockItemID:           "si-1",
		CurrentCost:           decimal.RequireFromString("140"),
		ReliabilityPercentage: decimal.RequireFromString("66.67"),
	}
	require.NoError(t, c.Set(ctx, key, in, time.Minute))

	out, found, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "si-1", out.StockItemID)
	assert.True(t, out.CurrentCost.Equal(in.CurrentCost))
}

func TestImportLocker_Exclusion(t *testing.T) {
	ctx := context.Background()
	rdb, err := cache.NewClient(ctx, config.RedisConfig{Addr: redisAddr(t)})
	require.NoError(t, err)
	defer rdb.Close()

	l := cache.NewImportLocker(rdb, 2*time.Second, logger.Nop())
	key := "import:" + uuid.NewString()

	lockCtx, release, err := l.Acquire(ctx, key)
	require.NoError(t, err)
	require.NoError(t, lockCtx.Err())

	_, _, err = l.Acquire(ctx, key)
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx), "liberar dos veces no falla")
	assert.Error(t, lockCtx.Err(), "liberar cancela el contexto del candado")

	_, again, err := l.Acquire(ctx, key)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestImportLocker_PerdidaCancelaElContexto(t *testing.T) {
	ctx := context.Background()
	rdb, err := cache.NewClient(ctx, config.RedisConfig{Addr: redisAddr(t)})
	require.NoError(t, err)
	defer rdb.Close()

	l := cache.NewImportLocker(rdb, 200*time.Millisecond, logger.Nop())
	key := "import:" + uuid.NewString()

	lockCtx, release, err := l.Acquire(ctx, key)
	require.NoError(t, err)
	defer func() { _ = release(ctx) }()

	// Otro proceso (o la expiración) se lleva la clave: la renovación falla.
	require.NoError(t, rdb.Del(ctx, key).Err())

	select {
	case <-lockCtx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("el contexto del candado no se canceló")
	}
	assert.ErrorIs(t, context.Cause(lockCtx), importer.ErrLockLost)
	assert.ErrorIs(t, context.Cause(lockCtx), domain.ErrConflict)
}
