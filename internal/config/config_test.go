// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "slotapid", cfg.App.Name)
	require.True(t, cfg.App.IsDevelopment())
	require.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	require.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	require.Equal(t, "memory", cfg.Cache.Type)
	require.Equal(t, "localhost:6379", cfg.Cache.RedisAddress())
	require.Equal(t, 500, cfg.Sheet.MaxBatchSize)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("CACHE_TYPE", "redis")
	t.Setenv("DB_NAME", "campaigns")
	t.Setenv("SHEET_MAX_BATCH_SIZE", "50")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9090", cfg.Server.Address())
	require.False(t, cfg.App.IsDevelopment())
	require.Equal(t, "redis", cfg.Cache.Type)
	require.Equal(t, 50, cfg.Sheet.MaxBatchSize)
	require.Contains(t, cfg.Database.DSN(), "/campaigns?")
}

func TestDatabaseURLWins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db.internal:5432/prod?sslmode=require")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "postgres://u:p@db.internal:5432/prod?sslmode=require", cfg.Database.DSN())
}
