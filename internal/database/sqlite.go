package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pau-bookit/bookit-api/internal/models"
)

// ConnectSQLite opens the SQLite file at path. An empty path opens a private in-memory database.
func ConnectSQLite(path string) (*gorm.DB, error) {
	dsn := strings.TrimSpace(path)
	if dsn == "" {
		dsn = "file::memory:"
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Writes replace a single row; one connection avoids SQLITE_BUSY.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// Migrate creates the tables used by the snapshot repository.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.StateSnapshot{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
