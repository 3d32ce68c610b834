package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"trendbet-bot/internal/config"
	"trendbet-bot/internal/models"
)

func ConnectPostgres(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("connected to postgres", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Connect opens the database selected by DB_DRIVER.
func Connect(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "postgres", "":
		return ConnectPostgres(cfg, log)
	case "sqlite":
		return ConnectSQLite(cfg.SQLitePath, log)
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(&models.User{}, &models.Bet{}, &models.LeaderboardEntry{}, &models.TokenSample{})
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
