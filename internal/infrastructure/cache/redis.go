// Package cache agrupa los adaptadores sobre Redis: caché de análisis de CPP y candado de importación.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/dto"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/inventory"
	"github.com/adrianfdez469/cuadrecaja-sub000/pkg/config"
)

var _ inventory.AnalysisCache = (*AnalysisCache)(nil)

// NewClient conecta a Redis y verifica la conexión con PING.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// AnalysisCache guarda análisis de CPP serializados en JSON.
type AnalysisCache struct {
	rdb *redis.Client
}

// NewAnalysisCache construye la caché sobre un cliente ya conectado.
func NewAnalysisCache(rdb *redis.Client) *AnalysisCache {
	return &AnalysisCache{rdb: rdb}
}

// Get devuelve found=false si la clave no existe o expiró.
func (c *AnalysisCache) Get(ctx context.Context, key string) (*dto.CPPAnalysis, bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var out dto.CPPAnalysis
	if err := json.Unmarshal(val, &out); err != nil {
		return nil, false, fmt.Errorf("decodificar análisis %s: %w", key, err)
	}
	return &out, true, nil
}

func (c *AnalysisCache) Set(ctx context.Context, key string, value *dto.CPPAnalysis, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
