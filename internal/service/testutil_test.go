package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"auths/internal/config"
	"auths/internal/store"
)

// newTestDB opens a private in-memory sqlite database with the full schema
// migrated. Connections are pinned to one so every query sees the same
// memory store.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := store.Open("sqlite", ":memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

// newTestConfig keeps bcrypt at its minimum cost so the suite stays fast.
func newTestConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		JWTExpiresIn:       time.Hour,
		LoginTokenTTL:      2 * time.Minute,
		ResetTokenTTL:      5 * time.Minute,
		HashRounds:         4,
		SuperAdminEmail:    "superadmin@auths.local",
		SuperAdminPassword: "superadmin",
	}
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
