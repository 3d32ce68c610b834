package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ConnectSQLite opens a file database for local runs. A DSN starting with
// "file:" is passed through untouched, which tests use for in-memory databases.
func ConnectSQLite(path string, log *zap.Logger) (*gorm.DB, error) {
	dsn := path
	if !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite dir: %w", err)
			}
		}
		dsn = path + "?_busy_timeout=5000&_foreign_keys=on"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
	}
	// sqlite allows a single writer
	sqlDB.SetMaxOpenConns(1)

	log.Info("opened sqlite database", zap.String("path", path))

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}
