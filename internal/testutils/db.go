// Package testutils holds helpers shared by package tests.
package testutils

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/axellelanca/shortlinks/internal/database"
	"github.com/axellelanca/shortlinks/internal/models"
)

// NewDB opens a migrated, private in-memory database that is closed when the
// test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(dsn, "silent")
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps the in-memory database alive and avoids
	// shared-cache table locks
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// CreateUser inserts a user with placeholder profile fields.
func CreateUser(t testing.TB, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     "user-" + email,
		Email:        email,
		PasswordHash: "x",
		Company:      models.Company{Name: "Acme", ProfessionalEmail: "pro-" + email},
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
