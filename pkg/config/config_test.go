package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrianfdez469/cuadrecaja-sub000/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.App.StorageDriver)
	assert.True(t, cfg.Inventory.AllowNegativeStock)
	assert.Equal(t, 100, cfg.Import.SingleTxThreshold)
	assert.Equal(t, 50, cfg.Import.ChunkSize)
	assert.Equal(t, 5000, cfg.Import.MaxLines)
	assert.Equal(t, "1000000", cfg.Import.MaxQuantity.String())
	assert.Equal(t, "15", cfg.CPP.DeviationThreshold.String())
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("INVENTORY_ALLOW_NEGATIVE_STOCK", "false")
	t.Setenv("IMPORT_CHUNK_SIZE", "25")
	t.Setenv("IMPORT_MAX_AMOUNT", "5000.50")
	t.Setenv("CPP_DEVIATION_THRESHOLD", "7.5")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.App.StorageDriver)
	assert.False(t, cfg.Inventory.AllowNegativeStock)
	assert.Equal(t, 25, cfg.Import.ChunkSize)
	assert.Equal(t, "5000.5", cfg.Import.MaxAmount.String())
	assert.Equal(t, "7.5", cfg.CPP.DeviationThreshold.String())
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestLoad_Invalida(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORAGE_DRIVER", "sqlite")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "inv", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/inv?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
