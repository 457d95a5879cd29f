// Package database opens the gorm handle and owns the schema migration.
package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gLogger "gorm.io/gorm/logger"

	"github.com/axellelanca/shortlinks/internal/models"
)

// Models lists every model managed by AutoMigrate.
var Models = []any{&models.User{}, &models.Link{}, &models.Region{}, &models.Click{}}

// Open connects to the SQLite database at dsn.
func Open(dsn, logLevel string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         NewGormLogger(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates all tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewGormLogger maps a level name to a gorm logger. "debug" logs every
// statement with parameters hidden, "trace" includes them, anything else only
// reports errors and slow queries.
func NewGormLogger(level string) gLogger.Interface {
	cfg := gLogger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  gLogger.Warn,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
		Colorful:                  false,
	}
	switch level {
	case "trace":
		cfg.LogLevel = gLogger.Info
		cfg.ParameterizedQueries = false
	case "debug":
		cfg.LogLevel = gLogger.Info
	case "silent":
		cfg.LogLevel = gLogger.Silent
	}
	return gLogger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), cfg)
}
