// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"worship_management/internal/config"
	"worship_management/internal/database"
)

// Open returns a migrated in-memory SQLite database that is closed when
// the test ends.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	log := zaptest.NewLogger(t)
	cfg := &config.Config{
		DBDriver:   "sqlite",
		DBPath:     ":memory:",
		DBLogLevel: "silent",
	}

	db, err := database.Connect(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, database.AutoMigrate(db, log))
	return db
}
