package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "postgres", cfg.DBDriver)
	require.Equal(t, 8080, cfg.HTTPPort)
	require.Equal(t, 24*time.Hour, cfg.JWTExpiresIn)
	require.Equal(t, 2*time.Minute, cfg.LoginTokenTTL)
	require.Equal(t, 5*time.Minute, cfg.ResetTokenTTL)
	require.Equal(t, 10, cfg.HashRounds)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "auths.db")
	t.Setenv("JWT_SECRET", "shh")
	t.Setenv("LOGIN_TOKEN_TTL", "90s")
	t.Setenv("HASH_ROUNDS", "12")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.DBDriver)
	require.Equal(t, "auths.db", cfg.DatabaseURL)
	require.Equal(t, "shh", cfg.JWTSecret)
	require.Equal(t, 90*time.Second, cfg.LoginTokenTTL)
	require.Equal(t, 12, cfg.HashRounds)
}
