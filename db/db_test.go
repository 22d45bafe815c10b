package db

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gatherlyhq/gatherly/models"
)

// newTestDB opens an isolated in-memory database with the full schema. The
// shared-cache DSN keeps the database alive across the pool's connections.
func newTestDB(t *testing.T) *GormDB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))
	return &GormDB{DB: gdb}
}

func createTestUser(t *testing.T, gdb *GormDB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Name:           strings.Title(username),
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: "not-a-real-hash",
	}
	require.NoError(t, gdb.DB.Create(user).Error)
	return user
}
